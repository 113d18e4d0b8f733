package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string // Log verbosity level
	cfgFile  string // Optional YAML/JSON/TOML config file read by viper
	envFile  string // Optional dotenv file loaded before the environment is read
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dispatchsim",
	Short: "Discrete-time simulator for multi-warehouse order dispatch",
	Long: `dispatchsim replays a logistics scenario (road network, warehouses, vehicles and a
timeline of orders, restocks, cancellations, maintenance and reroutes) tick by tick and
reports when and how every order was delivered.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if err := loadDotEnv(envFile); err != nil {
			logrus.Fatalf("Error loading %s: %v", envFile, err)
		}
	},
}

// loadDotEnv loads path into the process environment without overriding variables that
// are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.Debugf("no %s file, using the environment as is", path)
		return nil
	}
	return err
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file supplying flag values (keys are flag names)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded into the environment before DISPATCHSIM_* variables are read")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(serveCmd)
}

// addScenarioFlag registers --scenario on c.
func addScenarioFlag(c *cobra.Command) {
	c.Flags().String("scenario", "", "Scenario file (.yaml/.yml for YAML, anything else for the plain-text layout)")
}
