package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/NethermindEth/blockvault/blockstore"
	"github.com/NethermindEth/blockvault/utils"
	"github.com/NethermindEth/blockvault/validator"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Version string

const (
	configF   = "config"
	fromF     = "from"
	lengthF   = "length"
	logLevelF = "log-level"
	colourF   = "colour"

	defaultConfig = ""
	defaultFrom   = uint64(0)
	defaultLength = uint64(1)
	defaultColour = true

	configFlagUsage = "The yaml configuration file."
	fromUsage       = "Height of the block from which to start the inspection. " +
		"Defaults to the latest block height."
	lengthUsage   = "Number of blocks to print. The excess is truncated."
	logLevelUsage = "Options: debug, info, warn, error, fatal."
	colourUsage   = "Use `--colour=false` command to disable colourized outputs (ANSI Escape Codes)."
)

var defaultLogLevel = utils.WARN

// Config is what every subcommand works from, gathered from flags, the optional config file
// and the positional store path.
type Config struct {
	Path     string         `mapstructure:"path" validate:"required"`
	From     uint64         `mapstructure:"from"`
	Length   uint64         `mapstructure:"length" validate:"gte=1"`
	LogLevel utils.LogLevel `mapstructure:"log-level" validate:"enum"`
	Colour   bool           `mapstructure:"colour"`
}

func NewCmd() *cobra.Command {
	inspectorCmd := &cobra.Command{
		Use:           "inspector",
		Short:         "Inspect the contents of a block store.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	logLevel := utils.NewLogLevel(defaultLogLevel)
	inspectorCmd.PersistentFlags().String(configF, defaultConfig, configFlagUsage)
	inspectorCmd.PersistentFlags().Var(logLevel, logLevelF, logLevelUsage)
	inspectorCmd.PersistentFlags().Bool(colourF, defaultColour, colourUsage)

	inspectorCmd.AddCommand(PrintCmd(), InfoCmd())
	return inspectorCmd
}

// loadConfig merges the config file, the flags of cmd and the store path in args.
func loadConfig(cmd *cobra.Command, args []string) (*Config, error) {
	v := viper.New()
	v.SetDefault(lengthF, defaultLength)
	if cfgFile, err := cmd.Flags().GetString(configF); err != nil {
		return nil, err
	} else if cfgFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if len(args) > 0 {
		v.Set("path", args[0])
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())); err != nil {
		return nil, err
	}
	if err := validator.Validator().Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// storeDir accepts the directory as well as either of the store files.
func storeDir(path string) string {
	switch filepath.Base(path) {
	case blockstore.DataFileName, blockstore.IndexFileName:
		return filepath.Dir(path)
	default:
		return path
	}
}

// openStore opens an existing store read-only. Nothing in dir is created, locked or repaired,
// so a writer may keep appending while the store is inspected.
func openStore(cfg *Config, log utils.SimpleLogger) (*blockstore.Store, error) {
	dir := storeDir(cfg.Path)
	if info, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("open block store %q: %w", dir, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("open block store %q: not a directory", dir)
	}

	store, err := blockstore.Open(dir, blockstore.Locked, blockstore.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open block store %q: %w", dir, err)
	}
	return store, nil
}

func newLogger(cfg *Config) (*utils.ZapLogger, error) {
	return utils.NewZapLogger(&cfg.LogLevel, cfg.Colour)
}
