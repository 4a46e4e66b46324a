// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-agent/pkg/types"
)

func testFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return NewHTTPFetcher(types.FetchConfig{
		HTTPConfig: types.HTTPConfig{Timeout: timeout, UserAgent: "research-agent/test"},
		MaxBytes:   maxBytes,
	})
}

func TestFetch_Success(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body><p>hello</p></body></html>")
	}))
	defer ts.Close()

	doc, err := testFetcher(time.Second, 0).Fetch(context.Background(), ts.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, ts.URL+"/page", doc.Location)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	assert.Contains(t, string(doc.Body), "hello")
	assert.Equal(t, "research-agent/test", gotUA)
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	for _, code := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(code)
			}))
			defer ts.Close()

			_, err := testFetcher(time.Second, 0).Fetch(context.Background(), ts.URL)
			require.Error(t, err)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, code, se.Code)
		})
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	_, err := testFetcher(50*time.Millisecond, 0).Fetch(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetch_BodyCapped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 1000))
	}))
	defer ts.Close()

	doc, err := testFetcher(time.Second, 100).Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Len(t, doc.Body, 100)
}

func TestFetch_InvalidLocation(t *testing.T) {
	_, err := testFetcher(time.Second, 0).Fetch(context.Background(), "://bad")
	assert.Error(t, err)
}
