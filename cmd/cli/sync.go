package cli

import (
	"fmt"

	emaildomain "mail-assistant/internal/email/domain"

	"github.com/spf13/cobra"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var (
		userID    string
		maxEmails int
		query     string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync recent mail into the store and the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if userID == "" {
				userID = opts.cfg.DefaultUserID
			}
			report, err := app.Sync.Sync(cmd.Context(), emaildomain.SyncRequest{
				UserID:    userID,
				MaxEmails: maxEmails,
				Query:     query,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "synced %d of %d emails (skipped %d, index failures %d)\n",
				report.Synced, report.Listed, report.Skipped, len(report.FailedIDs))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (defaults to DEFAULT_USER_ID)")
	cmd.Flags().IntVar(&maxEmails, "max", 0, "maximum emails to sync (defaults to SYNC_DEFAULT_MAX)")
	cmd.Flags().StringVar(&query, "query", "", "provider search query, e.g. newer_than:30d")
	return cmd
}
