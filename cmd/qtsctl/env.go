package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/environment"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
	"github.com/spf13/cobra"
)

func init() {
	envCmd.AddCommand(envListCmd, envCurrentCmd, envUseCmd, envResetCmd)
	rootCmd.AddCommand(envCmd)
}

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Show or switch the backend environment",
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known environments",
	Run: func(cmd *cobra.Command, args []string) {
		active := cli.resolver.Active()
		for _, env := range cli.resolver.Registry().List() {
			marker := ""
			if env.Key == active.Key {
				marker = " (active)"
			}
			fmt.Fprintf(cli.out, "  %-6s %-20s %s%s\n", env.Key, env.Name, env.URL, marker)
		}
		if active.Key == environment.Custom {
			fmt.Fprintf(cli.out, "  %-6s %-20s %s (active)\n", active.Key, active.Name, active.URL)
		}
	},
}

var envCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Print the active environment and base URL",
	Run: func(cmd *cobra.Command, args []string) {
		active := cli.resolver.Active()
		detected := cli.resolver.Detected()
		fmt.Fprintf(cli.out, "%s %s\n", active.Key, active.URL)
		if _, overridden := cli.store.Get(storage.KeyBaseURL); !overridden {
			fmt.Fprintf(cli.out, "(detected from hostname %q as %s)\n", cli.cfg.Hostname, detected.Key)
		}
	},
}

var envUseCmd = &cobra.Command{
	Use:   "use [KEY|URL]",
	Short: "Switch to a known environment (LOCAL, TEST, TEST2, PROD) or a custom URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := ""
		if len(args) == 1 {
			target = args[0]
		} else {
			picked, err := pickEnvironment()
			if err != nil {
				return err
			}
			target = picked
		}

		_, err := cli.resolver.SetBaseURL(target)
		return err
	},
}

var envResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the chosen environment and detect it from the hostname again",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.resolver.Reset(); err != nil {
			return err
		}
		active := cli.resolver.Active()
		fmt.Fprintf(cli.out, "%s %s\n", active.Key, active.URL)
		return nil
	},
}

// pickEnvironment asks for an environment interactively.
func pickEnvironment() (string, error) {
	if !isTerminal(stdin()) {
		return "", fmt.Errorf("environment key or URL is required")
	}

	current := string(cli.resolver.Active().Key)
	options := make([]huh.Option[string], 0)
	for _, env := range cli.resolver.Registry().List() {
		label := fmt.Sprintf("%s - %s (%s)", env.Key, env.Name, env.URL)
		options = append(options, huh.NewOption(label, string(env.Key)))
	}

	choice := current
	err := huh.NewSelect[string]().
		Title("Backend environment").
		Options(options...).
		Value(&choice).
		Run()
	if err != nil {
		return "", err
	}

	return choice, nil
}
