package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/apierror"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	cfgFile   string
	ephemeral bool
	plain     bool

	v   = viper.New()
	cli *app

	rootCmd = &cobra.Command{
		Use:   "qtsctl",
		Short: "qtsctl - command-line client for the QTS admin console backend",
		Long: `qtsctl talks to the admin console's REST backend the same way the web
console does: it keeps track of the active environment, signs requests with
the token obtained at login and unwraps every reply into its data.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cli != nil {
				_ = cli.log.Sync()
			}
		},
	}

	versionCmd = &cobra.Command{
		Use:               "version",
		Short:             "Print the qtsctl version",
		PersistentPreRunE: noSetup,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is <state-dir>/config.yaml)")
	flags.String("state-dir", config.DefaultStateDir, "directory holding config, saved requests and session state")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.String("hostname", "", "hostname used for automatic environment detection")
	flags.BoolVar(&ephemeral, "ephemeral", false, "keep environment and token in memory only")
	flags.BoolVar(&plain, "plain", false, "print responses without styling")

	_ = v.BindPFlag("state_dir", flags.Lookup("state-dir"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("hostname", flags.Lookup("hostname"))

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and wires the client for every command that
// talks to the backend.
func setup(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists (optional, warn if malformed)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
	}

	config.BindEnv(v)
	stateDir := v.GetString("state_dir")
	if stateDir == "" {
		stateDir = config.DefaultStateDir
	}
	if !ephemeral {
		if err := config.InitializeStateDir(stateDir, cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	cli, err = newApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

func noSetup(cmd *cobra.Command, args []string) error { return nil }

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Client errors have already been shown as notifications.
		if apierror.KindOf(err) == "" {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
