// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import "errors"

var (
	// ErrInvalidInput rejects an empty or whitespace-only query before a
	// run starts.
	ErrInvalidInput = errors.New("invalid input: query is empty")

	// ErrNoContent means a location decoded or filtered to no text.
	ErrNoContent = errors.New("no content extracted")

	// ErrNoReplacement means the replacement search found no usable
	// alternative for a failed location.
	ErrNoReplacement = errors.New("no replacement source found")

	// ErrSynthesis wraps a failure of the final report call. It is the only
	// stage failure that ends a run with an error event.
	ErrSynthesis = errors.New("report synthesis failed")
)
