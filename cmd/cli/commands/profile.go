package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/agrisense/agridata/internal/config"
	"github.com/agrisense/agridata/internal/ingestion"
	"github.com/agrisense/agridata/internal/pipeline"
)

// NewProfileCmd runs the engine over a single raw file and prints the
// quality report without persisting anything. Useful for inspecting a file
// before it enters the curated store.
func NewProfileCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "profile <raw-file>",
		Short: "Profile one raw file and print its quality report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(verbose)

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			calibration, err := cfg.CalibrationTable()
			if err != nil {
				return err
			}
			ranges, err := cfg.RangeTable()
			if err != nil {
				return err
			}
			engine, err := pipeline.NewEngine(calibration, ranges, logger)
			if err != nil {
				return err
			}

			path := args[0]
			reader := ingestion.NewReader(filepath.Dir(path), nil, logger)
			raw, err := reader.ReadFile(context.Background(), filepath.Base(path))
			if err != nil {
				return err
			}

			result, err := engine.Run(context.Background(), raw)
			if err != nil {
				return err
			}
			report := result.Report

			fmt.Printf("Report %s for %s (%d records, %d rejected)\n\n",
				report.ID, report.SourceFile, report.RecordsProfiled, report.RecordsRejected)

			fmt.Println("range_checks:")
			for _, e := range report.RangeChecks {
				fmt.Printf("  %-16s [%g, %g]\n", e.ReadingType, e.Min, e.Max)
			}
			fmt.Println("missing (pre-imputation):")
			for _, e := range report.Missing {
				fmt.Printf("  %-16s %d/%d missing (%.2f%%)\n",
					e.ReadingType, e.MissingCount, e.TotalCount, e.MissingFraction*100)
			}
			fmt.Println("gaps:")
			for _, e := range report.Gaps {
				fmt.Printf("  %s/%-16s expected %d hours, observed %d, missing %d\n",
					e.SensorID, e.ReadingType, e.ExpectedHourCount, e.ActualHourCount, e.MissingHourCount)
			}
			fmt.Println("profile (post-imputation):")
			for _, e := range report.Profile {
				fmt.Printf("  %-16s %d/%d null (%.2f%%)\n",
					e.ReadingType, e.NullCount, e.TotalCount, e.NullFraction*100)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	return cmd
}
