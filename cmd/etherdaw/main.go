// Command etherdaw compiles declarative score files into event timelines.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/etherdaw/etherdaw-go/compiler"
	"github.com/etherdaw/etherdaw-go/config"
	"github.com/etherdaw/etherdaw-go/diag"
	"github.com/etherdaw/etherdaw-go/metrics"
	"github.com/etherdaw/etherdaw-go/score"
)

var (
	flagFrom      string
	flagTo        string
	flagTempo     float64
	flagKey       string
	flagSeed      int64
	flagJSON      bool
	flagSkipMuted bool
)

func main() {
	root := &cobra.Command{
		Use:           "etherdaw",
		Short:         "EtherDAW score compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCommand(), newCheckCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCompileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <score.yaml>",
		Short: "Compile a score into an event timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(args[0])
		},
	}
	cmd.Flags().StringVar(&flagFrom, "from", "", "start at this arrangement section")
	cmd.Flags().StringVar(&flagTo, "to", "", "end at this arrangement section (inclusive)")
	cmd.Flags().Float64Var(&flagTempo, "tempo", 0, "override the score tempo")
	cmd.Flags().StringVar(&flagKey, "key", "", "override the score key")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "random seed for generative patterns")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "emit the full result as JSON")
	cmd.Flags().BoolVar(&flagSkipMuted, "skip-muted", true, "drop tracks flagged mute (disable to audition them)")
	return cmd
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <score.yaml>",
		Short: "Compile a score and report diagnostics without emitting events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(args[0])
		},
	}
}

func runCompile(path string) error {
	cfg := config.Load()
	telemetry, err := metrics.NewSentryMetrics(cfg.SentryDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: telemetry disabled: %v\n", err)
		telemetry, _ = metrics.NewSentryMetrics("")
	}
	defer telemetry.Flush(2 * time.Second)

	doc, err := score.Load(path)
	if err != nil {
		return err
	}

	seed := flagSeed
	if seed == 0 {
		seed = cfg.Seed
	}

	ctx := context.Background()
	if span := telemetry.StartCompile(ctx, path); span != nil {
		ctx = span.Context()
		defer span.Finish()
	}
	started := time.Now()
	result, err := compiler.Compile(doc, compiler.Options{
		StartSection: flagFrom,
		EndSection:   flagTo,
		Tempo:        flagTempo,
		Key:          flagKey,
		Seed:         seed,
		SkipMuted:    flagSkipMuted,
	})
	duration := time.Since(started)
	telemetry.RecordCompile(ctx, duration, statsNotes(result), statsSections(result), err == nil)
	if err != nil {
		return err
	}
	telemetry.RecordDiagnostics(ctx, countLevel(result.Diagnostics, diag.LevelWarning), countLevel(result.Diagnostics, diag.LevelError))

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printDiagnostics(result.Diagnostics)
	printStats(result)
	return nil
}

func runCheck(path string) error {
	doc, err := score.Load(path)
	if err != nil {
		return err
	}
	result, err := compiler.Compile(doc, compiler.Options{SkipMuted: true})
	if err != nil {
		return err
	}
	printDiagnostics(result.Diagnostics)
	if len(result.Diagnostics) == 0 {
		fmt.Println("ok")
	}
	return nil
}

func printDiagnostics(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

func printStats(result *compiler.Result) {
	s := result.Stats
	fmt.Printf("sections: %d  bars: %d  notes: %d  duration: %.2fs\n",
		s.Sections, s.Bars, s.Notes, s.DurationSeconds)
	for _, instrument := range result.Timeline.Instruments {
		fmt.Printf("  %-12s %d notes\n", instrument, s.NotesPerTrack[instrument])
	}
}

func statsNotes(result *compiler.Result) int {
	if result == nil {
		return 0
	}
	return result.Stats.Notes
}

func statsSections(result *compiler.Result) int {
	if result == nil {
		return 0
	}
	return result.Stats.Sections
}

func countLevel(diags []diag.Diagnostic, level string) int {
	count := 0
	for _, d := range diags {
		if d.Level == level {
			count++
		}
	}
	return count
}
