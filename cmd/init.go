package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default docmig.yaml configuration file",
		Long: `Create a docmig.yaml in the current working directory populated with the
current CLI defaults so it can be edited manually. The API token is never
written; pass it with --token or the ` + tokenEnvVar + ` environment variable.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			settings := viper.AllSettings()
			if api, ok := settings["api"].(map[string]any); ok {
				delete(api, "token")
			}

			out := viper.New()
			if err := out.MergeConfigMap(settings); err != nil {
				return fmt.Errorf("failed to prepare config: %w", err)
			}

			if err := out.SafeWriteConfigAs(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			cmd.Printf("wrote %s\n", targetPath)

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
