package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/advileads/advileads/internal/http/handlers/trial/status"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/trial"
)

type statusOptions struct {
	start        string
	lastNotified string
	membership   string
	now          string
	durationDays int
	warningDays  []int
	timezone     string
}

// statusReport вывод команды status.
type statusReport struct {
	status.View
	ShouldSendNotification bool   `json:"should_send_notification"`
	NotificationMessage    string `json:"notification_message,omitempty"`
}

func newStatusCommand() *cobra.Command {
	opts := &statusOptions{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Evaluate the trial policy for a user record",
		Example: `  trialctl status --start 2026-03-01T09:00:00Z
  trialctl status --start 2026-03-01T09:00:00Z --now 2026-03-13T10:00:00Z --last-notified 2026-03-12T08:00:00Z`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := evaluate(opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "trial start date, RFC3339")
	cmd.Flags().StringVar(&opts.lastNotified, "last-notified", "", "last trial notification, RFC3339")
	cmd.Flags().StringVar(&opts.membership, "membership", string(models.MembershipTrial), "membership status: trial, active, expired")
	cmd.Flags().StringVar(&opts.now, "now", "", "evaluate at this moment instead of the current time, RFC3339")
	cmd.Flags().IntVar(&opts.durationDays, "duration", 14, "trial duration in days")
	cmd.Flags().IntSliceVar(&opts.warningDays, "warning-days", nil, "trial days that trigger a warning (default: last three days of the trial)")
	cmd.Flags().StringVar(&opts.timezone, "tz", "UTC", "timezone for calendar day comparison")

	return cmd
}

func parseTime(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &t, nil
}

func evaluate(opts *statusOptions) (statusReport, error) {
	membership := models.MembershipStatus(opts.membership)
	if !membership.Valid() {
		return statusReport{}, fmt.Errorf("invalid --membership %q", opts.membership)
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return statusReport{}, fmt.Errorf("invalid --tz: %w", err)
	}
	start, err := parseTime("start", opts.start)
	if err != nil {
		return statusReport{}, err
	}
	last, err := parseTime("last-notified", opts.lastNotified)
	if err != nil {
		return statusReport{}, err
	}
	now, err := parseTime("now", opts.now)
	if err != nil {
		return statusReport{}, err
	}

	clock := time.Now
	if now != nil {
		clock = func() time.Time { return *now }
	}
	policy := trial.NewPolicy(trial.Options{
		DurationDays: opts.durationDays,
		WarningDays:  opts.warningDays,
		Location:     loc,
	}, clock)

	user := &models.User{
		UID:                   "cli",
		MembershipStatus:      membership,
		TrialStartDate:        start,
		LastTrialNotification: last,
	}
	report := statusReport{
		View:                   status.Build(policy, user),
		ShouldSendNotification: policy.ShouldSendNotification(user),
	}
	if report.ShouldSendNotification {
		report.NotificationMessage = policy.NotificationMessage(report.TrialDay)
	}
	return report, nil
}
