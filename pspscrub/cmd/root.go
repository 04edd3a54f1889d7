// Package cmd provides the command-line interface of pspscrub.
package cmd

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pspscrub",
	Short: "pspscrub runs the active memory scrubber of a simulated board.",
	Long: `pspscrub runs the active memory scrubber of a simulated board. ` +
		`It can run the scrub task until interrupted, trigger a single ` +
		`manual pass, or run for a while and report the error statistics.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Cleanup registered with atexit runs before the process
// exits.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func init() {
	addSharedFlags(rootCmd.PersistentFlags())
}

func addSharedFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Configuration file (YAML, JSON or TOML)")
	flags.String("env-file", ".env",
		"Environment file loaded before reading PSP_* variables")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("board", "gr740", "Board to simulate")
	flags.String("mode", "", "Run mode (idle, timed, manual); board default if empty")
	flags.Uint64("start", 0, "Start address of the scrub region")
	flags.Uint64("end", 0, "End address of the scrub region; top of RAM if zero")
	flags.Uint64("block", 0, "Pages per timed-mode block; board default if zero")
	flags.Duration("delay", 0, "Delay between timed-mode blocks; board default if zero")
	flags.Uint32("priority", 0, "Scrub task priority; board default if zero")
	flags.Float64("inject-rate", 0, "Single event upsets injected per second")
	flags.String("trace-db", "", "Record every scrub pass into this SQLite database")
}

// options are the settings shared by every command.
type options struct {
	Board      string        `mapstructure:"board"`
	Mode       string        `mapstructure:"mode"`
	Start      uint64        `mapstructure:"start"`
	End        uint64        `mapstructure:"end"`
	Block      uint64        `mapstructure:"block"`
	Delay      time.Duration `mapstructure:"delay"`
	Priority   uint32        `mapstructure:"priority"`
	InjectRate float64       `mapstructure:"inject-rate"`
	TraceDB    string        `mapstructure:"trace-db"`
	LogLevel   string        `mapstructure:"log-level"`

	AutoStart   bool          `mapstructure:"auto-start"`
	MonitorPort int           `mapstructure:"monitor-port"`
	Open        bool          `mapstructure:"open"`
	Duration    time.Duration `mapstructure:"duration"`
}

// loadOptions merges, from lowest to highest precedence, the flag defaults,
// the configuration file, PSP_* environment variables and the flags given on
// the command line.
func loadOptions(cmd *cobra.Command) (options, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("PSP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return options{}, err
	}

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return options{}, err
		}
	}

	var opts options

	err := v.Unmarshal(&opts, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	))

	return opts, err
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}
