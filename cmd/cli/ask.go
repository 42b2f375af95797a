package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Find the most relevant email and summarize it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if userID == "" {
				userID = opts.cfg.DefaultUserID
			}
			state, err := app.Search.Search(cmd.Context(), userID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Refined query: %s\n", state.RefinedQuery)
			if state.Selected != nil {
				fmt.Fprintf(out, "Email: %s (%s)\n", state.Selected.Subject, state.Selected.ID)
			}
			fmt.Fprintf(out, "\n%s\n", state.Summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to DEFAULT_USER_ID)")
	return cmd
}
