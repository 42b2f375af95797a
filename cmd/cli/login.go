package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize Gmail read access and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if userID == "" {
				userID = opts.cfg.DefaultUserID
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Open this URL in a browser and approve access:\n\n%s\n\nPaste the authorization code: ", app.Auth.LoginURL(userID))

			code, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && strings.TrimSpace(code) == "" {
				return fmt.Errorf("read authorization code: %w", err)
			}
			if err := app.Auth.CompleteLogin(cmd.Context(), userID, strings.TrimSpace(code)); err != nil {
				return err
			}
			fmt.Fprintf(out, "token stored for %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to DEFAULT_USER_ID)")
	return cmd
}

func newResetTokenCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "reset-token",
		Short: "Delete the stored Gmail token so the next access needs a new login",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if userID == "" {
				userID = opts.cfg.DefaultUserID
			}
			if err := app.Auth.ResetToken(cmd.Context(), userID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token for %s deleted\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to DEFAULT_USER_ID)")
	return cmd
}
