package main

import (
	"fmt"
	"strconv"

	"github.com/depotlink/depotctl/internal/session"
	"github.com/spf13/cobra"
)

// prefKeys maps CLI names to stored preference keys.
var prefKeys = map[string]string{
	"notifications": session.PrefNotifications,
	"dark-mode":     session.PrefDarkMode,
}

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Client preference flags",
	}

	cmd.AddCommand(newPrefsGetCmd())
	cmd.AddCommand(newPrefsSetCmd())
	return cmd
}

func newPrefsGetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show all preference flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for name, key := range prefKeys {
				v, err := a.store.Preference(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %t\n", name, v)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	return cmd
}

func newPrefsSetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "set <name> <true|false>",
		Short: "Set a preference flag",
		Long:  "Sets a client preference flag. Known names: notifications, dark-mode.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := prefKeys[args[0]]
			if !ok {
				return fmt.Errorf("unknown preference %q", args[0])
			}
			value, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("value must be true or false, got %q", args[1])
			}

			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if err := a.store.SetPreference(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %t\n", args[0], value)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	return cmd
}
