package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd() *cobra.Command {
	var (
		configPath string
		username   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the depot portal",
		Long:  "Authenticates against the portal, fetches your depot profile, and saves the session locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if username == "" {
				fmt.Fprint(out, "Username: ")
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if !scanner.Scan() {
					return fmt.Errorf("no username entered")
				}
				username = strings.TrimSpace(scanner.Text())
			}

			password, err := readPassword(out)
			if err != nil {
				return err
			}

			profile, err := a.store.Login(cmd.Context(), username, password)
			if err != nil {
				// Wrong password and portal-down look identical to the user;
				// the distinction only matters in logs.
				return fmt.Errorf("invalid username or password")
			}

			fmt.Fprintf(out, "Logged in as %s (depot %s)\n", profile.Name, profile.DepotID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	cmd.Flags().StringVarP(&username, "username", "u", "", "portal username")
	return cmd
}

// readPassword prompts for a password without echoing when stdin is a
// terminal, falling back to a line read otherwise (tests, pipes).
func readPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", fmt.Errorf("no password entered")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func newLogoutCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the saved session",
		Long:  "Clears the saved token and profile. Purely local: no portal call is made, so logout always succeeds.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if err := a.store.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in depot profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			profile, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:    %s\n", profile.Name)
			fmt.Fprintf(out, "Depot:   %s\n", profile.DepotID)
			fmt.Fprintf(out, "Contact: %s\n", profile.Contact)
			fmt.Fprintf(out, "User ID: %d\n", profile.User.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to depotctl config file")
	return cmd
}
