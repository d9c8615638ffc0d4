package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
)

type storeOptions struct {
	dir    string
	prefix string
	user   string
}

func (o *storeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dir, "dir", "./data/notifications", "directory of the file notification backend")
	cmd.Flags().StringVar(&o.prefix, "prefix", notification.DefaultKeyPrefix, "storage key prefix")
	cmd.Flags().StringVar(&o.user, "user", "", "user uid")
	_ = cmd.MarkFlagRequired("user")
}

func (o *storeOptions) store(cmd *cobra.Command) *notification.Store {
	reg := notification.NewRegistry(notification.FileFactory(o.dir), o.prefix, 0, quietLogger(cmd.ErrOrStderr()), nil)
	return reg.For(o.user)
}

func newNotificationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect and edit file-backed notification stores",
	}
	cmd.AddCommand(newNotificationsListCommand())
	cmd.AddCommand(newNotificationsAddCommand())
	cmd.AddCommand(newNotificationsClearCommand())
	return cmd
}

func newNotificationsListCommand() *cobra.Command {
	opts := &storeOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the notifications of a user, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := opts.store(cmd)
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"notifications": store.List(cmd.Context()),
				"unread_count":  store.UnreadCount(cmd.Context()),
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newNotificationsAddCommand() *cobra.Command {
	opts := &storeOptions{}
	var (
		kind, title, message string
		pinned               bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a notification to a user's store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := opts.store(cmd).Add(cmd.Context(), notification.Draft{
				Type:        models.NotificationType(kind),
				Title:       title,
				Message:     message,
				Dismissible: !pinned,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), n)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVar(&kind, "type", string(models.NotificationInfo), "notification type: trial, info, warning, success, error")
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&message, "message", "", "message")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "forbid dismissing the notification")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newNotificationsClearCommand() *cobra.Command {
	opts := &storeOptions{}
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all notifications of a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.store(cmd).ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared notifications of %s\n", opts.user)
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}
