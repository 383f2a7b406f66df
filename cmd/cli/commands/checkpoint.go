package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrisense/agridata/internal/config"
	"github.com/agrisense/agridata/internal/storage"
	"github.com/agrisense/agridata/pkg/interfaces"
)

// NewCheckpointCmd inspects and manages the processed-file checkpoint.
func NewCheckpointCmd() *cobra.Command {
	var (
		cfgFile string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect or clear ingestion checkpoint state",
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List processed raw files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCheckpoint(cfgFile, verbose)
			if err != nil {
				return err
			}
			defer store.Close()

			names, err := store.List(context.Background())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No processed files recorded.")
				return nil
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget all processed raw files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCheckpoint(cfgFile, verbose)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Println("Checkpoint cleared.")
			return nil
		},
	}

	cmd.AddCommand(listCmd, clearCmd)
	return cmd
}

func openCheckpoint(cfgFile string, verbose bool) (interfaces.CheckpointStore, error) {
	logger := newLogger(verbose)
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return storage.NewCheckpointStore(&cfg.Ingestion.Checkpoint, logger)
}
