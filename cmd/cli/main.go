package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agrisense/agridata/cmd/cli/commands"
	"github.com/agrisense/agridata/pkg/constants"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "agridata-cli",
		Short: "Agricultural sensor data pipeline CLI",
		Long: `A command-line interface for running the agricultural sensor data
pipeline: cleaning, calibration, anomaly flagging, enrichment and
data-quality reporting over daily raw files.`,
		Version: constants.AppVersion,
	}

	rootCmd.AddCommand(commands.NewRunCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewCheckpointCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
