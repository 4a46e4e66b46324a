// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/agent"
	"github.com/pdiddy/research-agent/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research <query...>",
	Short: "Research a query and print the report",
	Long: `Research runs the full pipeline for the query: search, extraction with
replacement on failure, per-source summaries, and synthesis. Progress is
written to stderr as it happens and the report to stdout. The report is
saved to the history database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResearch,
}

var (
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headingStyle = lipgloss.NewStyle().Bold(true)
)

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	render, _ := cmd.Flags().GetBool("render")

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, st, err := buildAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := a.Run(ctx, query)
	if err != nil {
		return err
	}

	var terminal *types.Event
	for ev := range events {
		if ev.Terminal() {
			terminal = &ev
		}
		if jsonOutput {
			if err := json.NewEncoder(os.Stdout).Encode(ev); err != nil {
				return err
			}
			continue
		}
		if ev.Type == types.EventProgress {
			fmt.Fprintln(os.Stderr, formatProgress(ev))
		}
	}

	if terminal == nil {
		return errors.New("research cancelled")
	}
	if terminal.Type == types.EventError {
		return fmt.Errorf("research failed: %s", terminal.Message)
	}
	if jsonOutput {
		return nil
	}
	return printReport(os.Stdout, terminal.Report, render)
}

// formatProgress renders one progress event as a styled timeline line.
func formatProgress(ev types.Event) string {
	switch ev.Stage() {
	case agent.StageExtractDone, agent.StageSummarizeDone:
		return okStyle.Render("  ✓ ") + ev.Message
	case agent.StageExtractFailed, agent.StageSummarizeFailed:
		line := failStyle.Render("  ✗ ") + ev.Message
		if msg, ok := ev.Details["error"].(string); ok && msg != "" {
			line += "\n" + mutedStyle.Render("    "+firstLine(msg))
		}
		return line
	case agent.StageExtractAdditional:
		return noticeStyle.Render("  ! ") + ev.Message
	case agent.StageSynthesizeStart:
		if degraded, _ := ev.Details["degraded"].(bool); degraded {
			return noticeStyle.Render("→ ") + ev.Message
		}
		return stepStyle.Render("→ ") + ev.Message
	default:
		return stepStyle.Render("→ ") + ev.Message
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// printReport writes the report, as terminal-styled Markdown when render is
// set.
func printReport(w io.Writer, report string, render bool) error {
	if !render {
		_, err := fmt.Fprintln(w, report)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	out, err := r.Render(report)
	if err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func init() {
	researchCmd.Flags().Bool("json", false, "write every event to stdout as JSON lines")
	researchCmd.Flags().Bool("render", false, "render the report as styled Markdown")

	rootCmd.AddCommand(researchCmd)
}
