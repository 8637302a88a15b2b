package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-wayfinder/internal/log"
	"github.com/teslashibe/go-wayfinder/pkg/replay"
)

func newReplayCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "replay scenario.yaml...",
		Short: "Replay detection scenarios on a simulated clock",
		Long: `Replay YAML detection scenarios through the navigation pipeline.

Speech timing is simulated, so a scenario spanning minutes runs instantly.
Exits non-zero when any frame or utterance expectation fails.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.L()
			out := cmd.OutOrStdout()

			failed := 0
			for _, path := range args {
				s, err := replay.LoadFile(path)
				if err != nil {
					return err
				}
				report, err := replay.Run(cmd.Context(), s, replay.WithLogger(logger))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				if !report.Passed() {
					failed++
				}

				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					if err := enc.Encode(report); err != nil {
						return err
					}
					continue
				}
				printReport(out, path, report)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print reports as JSON")
	return cmd
}

func printReport(w io.Writer, path string, r *replay.Report) {
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", status, r.Name, path)
	for _, u := range r.Spoken {
		fmt.Fprintf(w, "  %8s  %s\n", u.At, u.Text)
	}
	fmt.Fprintf(w, "  frames=%d dispatched=%d superseded=%d depth_decodes=%d\n",
		len(r.Frames), r.Speech.Dispatched, r.Speech.Superseded, r.Depth.Decodes)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}
