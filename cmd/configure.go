package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apiscout/apiscout/internal/config"
	"github.com/apiscout/apiscout/internal/db"
	"github.com/apiscout/apiscout/internal/settings"
)

var configureCmd = &cobra.Command{
	Use:   "configure <name> <value>",
	Short: "Set a runtime tuning variable",
	Long: `Sets one of the runtime tuning variables in the local database.

Known variables: FunctionSimilarityThreshold, VariableSimilarityThreshold,
FunctionMatchLimit, VariableMatchLimit, ExtractKeywordsTemperature.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "apiscout.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		s := settings.New(settings.NewStore(database))
		if err := s.Set(context.Background(), args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
}
