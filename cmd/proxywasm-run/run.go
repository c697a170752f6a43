package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mosn/layotto/internal/harness"
)

var errFailed = errors.New("some requests failed")

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <harness.yaml>...",
		Short: "Run the requests of harness files and check their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger(cmd)
			if err != nil {
				return err
			}

			failed := false
			for _, path := range args {
				f, err := harness.Load(path)
				if err != nil {
					return err
				}
				report, err := harness.Run(cmd.Context(), f, harness.WithLogger(logger))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				printReport(cmd.OutOrStdout(), path, report)
				failed = failed || !report.Passed()
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
}

func printReport(w io.Writer, path string, report *harness.Report) {
	if report.ID != "" {
		fmt.Fprintf(w, "%s (%s)\n", path, report.ID)
	} else {
		fmt.Fprintln(w, path)
	}
	for _, res := range report.Results {
		if res.Passed() {
			fmt.Fprintf(w, "  PASS %s\n", res.Name)
			continue
		}
		fmt.Fprintf(w, "  FAIL %s\n", res.Name)
		for _, f := range res.Failures {
			fmt.Fprintf(w, "       %s\n", f)
		}
	}
}
