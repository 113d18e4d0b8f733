package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envPrefix namespaces every environment override, e.g. DISPATCHSIM_MAX_TICKS.
const envPrefix = "DISPATCHSIM"

// RunConfig is the resolved configuration of one command invocation. Values come from,
// in decreasing precedence: flags, DISPATCHSIM_* environment variables (a .env file is
// loaded into the environment first), the --config file, flag defaults.
type RunConfig struct {
	Scenario string `mapstructure:"scenario"`

	// run
	Report      string `mapstructure:"report"`
	Format      string `mapstructure:"format"`
	MaxTicks    int64  `mapstructure:"max-ticks"`
	FastForward bool   `mapstructure:"fast-forward"`
	Trace       string `mapstructure:"trace"`
	Progress    bool   `mapstructure:"progress"`
	RunID       string `mapstructure:"run-id"`

	// exporters; each is disabled while its address is empty
	KafkaBrokers  []string      `mapstructure:"kafka-brokers"`
	KafkaTopic    string        `mapstructure:"kafka-topic"`
	PostgresURL   string        `mapstructure:"postgres-url"`
	S3Bucket      string        `mapstructure:"s3-bucket"`
	S3Prefix      string        `mapstructure:"s3-prefix"`
	S3Region      string        `mapstructure:"s3-region"`
	ExportTimeout time.Duration `mapstructure:"export-timeout"`

	// serve
	Addr     string        `mapstructure:"addr"`
	AutoPlay time.Duration `mapstructure:"autoplay"`

	// convert
	Out string `mapstructure:"out"`
}

// loadConfig merges the command's flags with the environment and the optional config file.
func loadConfig(cmd *cobra.Command, cfgFile string) (*RunConfig, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg RunConfig
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	if cfg.Scenario == "" {
		return nil, fmt.Errorf("--scenario is required")
	}
	return &cfg, nil
}
