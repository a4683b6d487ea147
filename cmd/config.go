package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"docmig.dev/pkg/docmig/internal/adapter"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "docmig"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	sourceFlagName     = "source"
	inputFlagName      = "input"
	outputFlagName     = "output"
	applyFlagName      = "apply"
	dryRunFlagName     = "dry-run"
	projectFlagName    = "project"
	datasetFlagName    = "dataset"
	apiVersionFlagName = "api-version"
	tokenFlagName      = "token"
	tagFlagName        = "tag"
	visibilityFlagName = "visibility"
	noTUIFlagName      = "no-tui"
	previewFlagName    = "preview"
	verboseFlagName    = "verbose"
	logFileFlagName    = "log-file"

	sourceKindKey     = "source.kind"
	sourceInputKey    = "source.input"
	outputKey         = "output"
	apiProjectKey     = "api.project"
	apiDatasetKey     = "api.dataset"
	apiVersionKey     = "api.version"
	apiTokenKey       = "api.token"
	apiBaseURLKey     = "api.base_url"
	apiTimeoutKey     = "api.timeout"
	mutateTagKey      = "mutate.tag"
	mutateVisibleKey  = "mutate.visibility"
	runApplyKey       = "run.apply"
	runDryRunKey      = "run.dry_run"
	runNoTUIKey       = "run.no_tui"
	runPreviewKey     = "run.preview"
	runBufferKey      = "run.buffer"
	runSpillDirKey    = "run.spill_dir"
	tokenEnvVar       = "DOCMIG_TOKEN"
	scopedTokenEnvVar = "DOCMIG_API_TOKEN"

	defaultSourceKind  = sourceNDJSON
	defaultSourceInput = "-"
	defaultOutput      = "-"
	defaultAPIVersion  = "2024-01-29"
	defaultAPITimeout  = 5 * time.Minute
	defaultMutateTag   = "docmig.migration"
	defaultVisibility  = string(adapter.VisibilityAsync)
	defaultRunBuffer   = 1

	envPrefix = "DOCMIG"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".docmig.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// sourceKind selects where documents are read from.
type sourceKind string

const (
	sourceNDJSON sourceKind = "ndjson"
	sourceSQLite sourceKind = "sqlite"
	sourceHTTP   sourceKind = "http"
)

var errInvalidSetting = errors.New("invalid setting")

var globalLogger *slog.Logger

// runSettings is the merged view of flags, environment and config file for `run`.
type runSettings struct {
	Source struct {
		Kind  sourceKind `mapstructure:"kind"`
		Input string     `mapstructure:"input"`
	} `mapstructure:"source"`
	Output string `mapstructure:"output"`
	API    struct {
		Project string        `mapstructure:"project"`
		Dataset string        `mapstructure:"dataset"`
		Version string        `mapstructure:"version"`
		Token   string        `mapstructure:"token"`
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`
	Mutate struct {
		Tag        string             `mapstructure:"tag"`
		Visibility adapter.Visibility `mapstructure:"visibility"`
	} `mapstructure:"mutate"`
	Run struct {
		Apply    bool   `mapstructure:"apply"`
		DryRun   bool   `mapstructure:"dry_run"`
		NoTUI    bool   `mapstructure:"no_tui"`
		Preview  bool   `mapstructure:"preview"`
		Buffer   int    `mapstructure:"buffer"`
		SpillDir string `mapstructure:"spill_dir"`
	} `mapstructure:"run"`
}

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	_ = viper.BindEnv(apiTokenKey, scopedTokenEnvVar, tokenEnvVar)

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(sourceKindKey, string(defaultSourceKind))
	viper.SetDefault(sourceInputKey, defaultSourceInput)
	viper.SetDefault(outputKey, defaultOutput)
	viper.SetDefault(apiProjectKey, "")
	viper.SetDefault(apiDatasetKey, "")
	viper.SetDefault(apiVersionKey, defaultAPIVersion)
	viper.SetDefault(apiBaseURLKey, "")
	viper.SetDefault(apiTimeoutKey, defaultAPITimeout.String())
	viper.SetDefault(mutateTagKey, defaultMutateTag)
	viper.SetDefault(mutateVisibleKey, defaultVisibility)
	viper.SetDefault(runApplyKey, false)
	viper.SetDefault(runDryRunKey, false)
	viper.SetDefault(runNoTUIKey, false)
	viper.SetDefault(runPreviewKey, false)
	viper.SetDefault(runBufferKey, defaultRunBuffer)
	viper.SetDefault(runSpillDirKey, "")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Debug("Config file not loaded", "error", err)
		}
	}
}

// loadRunSettings decodes the current viper state into runSettings.
func loadRunSettings(v *viper.Viper) (runSettings, error) {
	var settings runSettings

	hooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		sourceKindHook(),
		visibilityHook(),
	)

	if err := v.Unmarshal(&settings, viper.DecodeHook(hooks)); err != nil {
		return runSettings{}, fmt.Errorf("decode settings: %w", err)
	}

	if settings.Run.Apply && settings.Output != defaultOutput && settings.Output != "" {
		slog.Warn("Both --apply and --output given; the plan file is not written", "output", settings.Output)
	}

	if settings.Run.Apply || settings.Source.Kind == sourceHTTP {
		if settings.API.Project == "" || settings.API.Dataset == "" {
			return runSettings{}, fmt.Errorf("%w: %s and %s are required", errInvalidSetting, apiProjectKey, apiDatasetKey)
		}
	}

	return settings, nil
}

func sourceKindHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(sourceKind("")) {
			return data, nil
		}

		kind := sourceKind(strings.ToLower(strings.TrimSpace(data.(string))))
		switch kind {
		case sourceNDJSON, sourceSQLite, sourceHTTP:
			return kind, nil
		case "":
			return defaultSourceKind, nil
		}

		return nil, fmt.Errorf("%w: unknown source %q (want ndjson, sqlite or http)", errInvalidSetting, kind)
	}
}

func visibilityHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(adapter.Visibility("")) {
			return data, nil
		}

		visibility := adapter.Visibility(strings.ToLower(strings.TrimSpace(data.(string))))
		switch visibility {
		case adapter.VisibilityAsync, adapter.VisibilitySync, adapter.VisibilityDeferred, "":
			return visibility, nil
		}

		return nil, fmt.Errorf("%w: unknown visibility %q", errInvalidSetting, visibility)
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
