package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"docmig.dev/pkg/docmig/internal/adapter"
	"docmig.dev/pkg/docmig/internal/controller"
	"docmig.dev/pkg/docmig/internal/domain"
	"docmig.dev/pkg/docmig/internal/domain/rules"
	m "docmig.dev/pkg/docmig/internal/model"
)

var (
	runSourceFlag     string
	runInputFlag      string
	runOutputFlag     string
	runApplyFlag      bool
	runDryRunFlag     bool
	runProjectFlag    string
	runDatasetFlag    string
	runAPIVersionFlag string
	runTokenFlag      string
	runTagFlag        string
	runVisibilityFlag string
	runNoTUIFlag      bool
	runPreviewFlag    bool
)

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <definition.yaml>",
		Short: "Run a migration",
		Long:  runLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadRunSettings(viper.GetViper())
			if err != nil {
				return err
			}

			definition, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}

			migration, err := definition.Migration()
			if err != nil {
				return err
			}

			return runMigration(cmd, settings, migration)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func configureRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVarP(&runSourceFlag, sourceFlagName, "s", viper.GetString(sourceKindKey), "document source: ndjson, sqlite or http")
	bindFlagToConfig(flags.Lookup(sourceFlagName), sourceKindKey)

	flags.StringVarP(&runInputFlag, inputFlagName, "i", viper.GetString(sourceInputKey), "source file or database path (- for stdin)")
	bindFlagToConfig(flags.Lookup(inputFlagName), sourceInputKey)

	flags.StringVarP(&runOutputFlag, outputFlagName, "o", viper.GetString(outputKey), "plan file for mutations (- for stdout)")
	bindFlagToConfig(flags.Lookup(outputFlagName), outputKey)

	flags.BoolVar(&runApplyFlag, applyFlagName, viper.GetBool(runApplyKey), "submit mutations to the store instead of writing a plan")
	bindFlagToConfig(flags.Lookup(applyFlagName), runApplyKey)

	flags.BoolVar(&runDryRunFlag, dryRunFlagName, viper.GetBool(runDryRunKey), "ask the store to validate mutations without committing them")
	bindFlagToConfig(flags.Lookup(dryRunFlagName), runDryRunKey)

	flags.StringVar(&runProjectFlag, projectFlagName, viper.GetString(apiProjectKey), "store project id")
	bindFlagToConfig(flags.Lookup(projectFlagName), apiProjectKey)

	flags.StringVar(&runDatasetFlag, datasetFlagName, viper.GetString(apiDatasetKey), "store dataset")
	bindFlagToConfig(flags.Lookup(datasetFlagName), apiDatasetKey)

	flags.StringVar(&runAPIVersionFlag, apiVersionFlagName, viper.GetString(apiVersionKey), "store API version")
	bindFlagToConfig(flags.Lookup(apiVersionFlagName), apiVersionKey)

	flags.StringVar(&runTokenFlag, tokenFlagName, "", "store API token (env "+tokenEnvVar+")")
	bindFlagToConfig(flags.Lookup(tokenFlagName), apiTokenKey)

	flags.StringVar(&runTagFlag, tagFlagName, viper.GetString(mutateTagKey), "request tag for mutate calls")
	bindFlagToConfig(flags.Lookup(tagFlagName), mutateTagKey)

	flags.StringVar(&runVisibilityFlag, visibilityFlagName, viper.GetString(mutateVisibleKey), "mutation visibility: async, sync or deferred")
	bindFlagToConfig(flags.Lookup(visibilityFlagName), mutateVisibleKey)

	flags.BoolVar(&runNoTUIFlag, noTUIFlagName, viper.GetBool(runNoTUIKey), "print plain progress lines even on a terminal")
	bindFlagToConfig(flags.Lookup(noTUIFlagName), runNoTUIKey)

	flags.BoolVar(&runPreviewFlag, previewFlagName, viper.GetBool(runPreviewKey), "show a before/after diff for every batch")
	bindFlagToConfig(flags.Lookup(previewFlagName), runPreviewKey)
}

func runMigration(cmd *cobra.Command, settings runSettings, migration domain.Migration) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client := newAPIClient(settings)

	source, sourceName, closeSource, err := openSource(ctx, cmd, settings, client, migration.DocumentTypes)
	if err != nil {
		return err
	}

	defer closeSource()

	sink, targetName, err := openSink(cmd, settings, client)
	if err != nil {
		return err
	}

	_, err = workflowFor(cmd, settings).Run(ctx, domain.RunArgs{
		Migration: migration,
		Source:    source,
		Sink:      sink,
		Context: m.MigrationContext{
			DryRun:    !settings.Run.Apply || settings.Run.DryRun,
			ProjectID: settings.API.Project,
			Dataset:   settings.API.Dataset,
		},
		SourceName: sourceName,
		TargetName: targetName,
		Previews:   settings.Run.Preview,
		Buffer:     settings.Run.Buffer,
		SpillDir:   settings.Run.SpillDir,
	})

	return err
}

// workflowFor picks a plain-text workflow when the interactive UI would clash
// with the requested output.
func workflowFor(cmd *cobra.Command, settings runSettings) domain.Workflow {
	if planToStdout(settings) {
		return domain.NewWorkflow(controller.NewSimpleUIWriter(cmd.ErrOrStderr()))
	}

	if _, interactive := ui.(*controller.TUI); interactive && settings.Run.NoTUI {
		return domain.NewWorkflow(controller.NewSimpleUI(cmd))
	}

	return workflow
}

func planToStdout(settings runSettings) bool {
	return !settings.Run.Apply && (settings.Output == "" || settings.Output == defaultOutput)
}

func newAPIClient(settings runSettings) *adapter.Client {
	return adapter.NewClient(adapter.APIConfig{
		ProjectID:  settings.API.Project,
		Dataset:    settings.API.Dataset,
		APIVersion: settings.API.Version,
		Token:      settings.API.Token,
		BaseURL:    settings.API.BaseURL,
	}, &http.Client{Timeout: settings.API.Timeout})
}

func openSource(
	ctx context.Context,
	cmd *cobra.Command,
	settings runSettings,
	client *adapter.Client,
	documentTypes []string,
) (adapter.DocumentSource, string, func(), error) {
	noop := func() {}

	switch settings.Source.Kind {
	case sourceSQLite:
		source, err := adapter.OpenSQLiteSource(ctx, settings.Source.Input, documentTypes)
		if err != nil {
			return nil, "", noop, err
		}

		return source, "sqlite:" + settings.Source.Input, func() { _ = source.Close() }, nil
	case sourceHTTP:
		return adapter.NewHTTPExportSource(client, documentTypes),
			fmt.Sprintf("export:%s/%s", settings.API.Project, settings.API.Dataset), noop, nil
	default:
		if settings.Source.Input == "" || settings.Source.Input == "-" {
			return adapter.NewNDJSONReaderSource(cmd.InOrStdin()), "stdin", noop, nil
		}

		return adapter.NewNDJSONSource(settings.Source.Input), settings.Source.Input, noop, nil
	}
}

func openSink(cmd *cobra.Command, settings runSettings, client *adapter.Client) (adapter.MutationSink, string, error) {
	if settings.Run.Apply {
		sink := adapter.NewHTTPMutateSink(client, adapter.MutateOptions{
			Tag:        settings.Mutate.Tag,
			Visibility: settings.Mutate.Visibility,
			DryRun:     settings.Run.DryRun,
		})

		return sink, fmt.Sprintf("%s/%s", settings.API.Project, settings.API.Dataset), nil
	}

	if planToStdout(settings) {
		return adapter.NewNDJSONSink(cmd.OutOrStdout()), "stdout", nil
	}

	sink, err := adapter.CreateNDJSONSink(settings.Output)
	if err != nil {
		return nil, "", err
	}

	return sink, settings.Output, nil
}
