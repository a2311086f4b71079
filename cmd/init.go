package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apiscout/apiscout/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists", cfgFile)
		}

		cfg := config.DefaultConfig()
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}

		fmt.Printf("Created %s\n", cfgFile)
		fmt.Println("Edit it to point at your catalog, then run `apiscout serve`.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
