package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"taxflow/pkg/client"

	"github.com/spf13/cobra"
)

func newInboxCmd(opts *rootOptions) *cobra.Command {
	var (
		server  string
		token   string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show pending approvals and notifications from a taxflow server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("TAXFLOW_TOKEN")
			}
			if token == "" {
				return errors.New("a token is required (--token or TAXFLOW_TOKEN)")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c := client.New(server, client.WithToken(token))
			approvals, err := c.PendingApprovals(ctx)
			if err != nil {
				return fmt.Errorf("loading approvals: %w", err)
			}
			notifications, err := c.Notifications(ctx)
			if err != nil {
				return fmt.Errorf("loading notifications: %w", err)
			}
			unread, err := c.UnreadCount(ctx)
			if err != nil {
				return fmt.Errorf("loading unread count: %w", err)
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"approvals":     approvals,
					"notifications": notifications,
					"unread_count":  unread,
				})
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), RenderInbox(approvals, notifications, unread))
			return err
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "taxflow API base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token (default $TAXFLOW_TOKEN)")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "request timeout")
	return cmd
}
