package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Validate an operator against the storage API and save its token",
		Long:  "login reads the password from the first line of stdin, validates it against the storage auth service and saves the returned API token (pass first, file fallback).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			_, _ = fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")

			client, err := app.authClient()
			if err != nil {
				return err
			}

			session, err := client.Login(cmd.Context(), phone, password)
			if err != nil {
				return err
			}

			if err := app.tokens.Save(cmd.Context(), session.Token); err != nil {
				return fmt.Errorf("save api token: %w", err)
			}

			name := session.UserName
			if name == "" {
				name = phone
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return err
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Operator phone number")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved storage API token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.tokens.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("delete api token: %w", err)
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return err
		},
	}
}
