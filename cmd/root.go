// Package cmd provides the root command and CLI setup for docmig.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"docmig.dev/pkg/docmig/internal/controller"
	"docmig.dev/pkg/docmig/internal/domain"
)

var workflow domain.Workflow
var ui controller.UI

// verboseFlag enables debug logging for every command.
var verboseFlag bool

// logFileFlag overrides the log file path.
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies.
	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	workflow = domain.NewWorkflow(ui)
}

const definitionHelp = `A migration definition is a YAML file:

  id: retitle-posts
  documentTypes: [post]
  rules:
    - on: string
      path: title
      replace: {pattern: "colour", with: "color"}`

const rootLongDescription = `Docmig runs content migrations over JSON documents. A migration
walks every matching document, asks its rules for changes and turns them
into store mutations that are written to a plan file or applied over HTTP.

` + definitionHelp

const runLongDescription = `Run a migration definition against a document source.

By default documents are read as NDJSON from stdin and the resulting
mutations are written as NDJSON to stdout. Use --apply to submit them to
the store instead.

` + definitionHelp

const validateLongDescription = `Load and compile a migration definition without reading any documents.

` + definitionHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docmig",
		Short: "Document migration tool",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}
}

// newRootCmd builds a fresh root command with its persistent flags, for tests.
func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
