// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/internal/store"
	"github.com/pdiddy/research-agent/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List saved reports, newest first, or print one by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	limit, _ := cmd.Flags().GetInt("limit")
	render, _ := cmd.Flags().GetBool("render")

	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if len(args) == 1 {
		rep, err := st.Get(ctx, args[0])
		if err != nil {
			return err
		}
		switch {
		case jsonOutput:
			return writeJSONOut(os.Stdout, rep)
		case yamlOutput:
			return writeYAMLOut(os.Stdout, rep)
		}
		fmt.Fprintln(os.Stdout, headingStyle.Render(rep.Query))
		fmt.Fprintln(os.Stdout, mutedStyle.Render(rep.Timestamp.Local().Format("2006-01-02 15:04:05")))
		fmt.Fprintln(os.Stdout)
		return printReport(os.Stdout, rep.Report, render)
	}

	reports, err := st.List(ctx, limit)
	if err != nil {
		return err
	}
	switch {
	case jsonOutput:
		return writeJSONOut(os.Stdout, reports)
	case yamlOutput:
		return writeYAMLOut(os.Stdout, reports)
	}
	formatHistoryTable(os.Stdout, reports)
	return nil
}

func formatHistoryTable(w io.Writer, reports []types.StoredReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports saved yet.")
		return
	}

	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%-36s  %-19s  %s", "ID", "Time", "Query")))
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range reports {
		q := r.Query
		if len([]rune(q)) > 40 {
			q = string([]rune(q)[:37]) + "..."
		}
		fmt.Fprintf(w, "%-36s  %-19s  %s\n", r.ID, r.Timestamp.Local().Format("2006-01-02 15:04:05"), q)
	}
	fmt.Fprintf(w, "\n%d reports\n", len(reports))
}

func writeJSONOut(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAMLOut(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func init() {
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyCmd.Flags().Bool("yaml", false, "output as YAML")
	historyCmd.Flags().Int("limit", 20, "maximum reports to list (0 = all)")
	historyCmd.Flags().Bool("render", false, "render a single report as styled Markdown")

	rootCmd.AddCommand(historyCmd)
}
