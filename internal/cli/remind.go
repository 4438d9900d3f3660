package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Oluwatunmise116/caremini/internal/device"
	"github.com/Oluwatunmise116/caremini/internal/link"
	"github.com/Oluwatunmise116/caremini/internal/protocol"
)

// NewRemindCommand creates the remind command group.
func NewRemindCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Manage reminders on a running band",
	}

	cmd.AddCommand(newRemindAddCommand(rootOpts))
	cmd.AddCommand(newRemindRemoveCommand(rootOpts))
	cmd.AddCommand(newRemindClearCommand(rootOpts))
	cmd.AddCommand(newRemindListCommand(rootOpts))

	return cmd
}

// RemindAddOptions holds flags for remind add.
type RemindAddOptions struct {
	*RootOptions
	At      string
	Type    string
	Message string
}

func newRemindAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemindAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a reminder",
		Long: `Add a daily reminder to the band.

The band holds at most ten reminders and rejects duplicates of the same
time and type. Rejections show up in the band's log and in the next list.

Example:
  caremini remind add --at 07:30 --type medicine --message "Take morning pills"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return remindAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.At, "at", "", "time of day, HH:MM (required)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "reminder type, e.g. medicine, water, exercise (required)")
	cmd.Flags().StringVar(&opts.Message, "message", "", "message shown when the reminder fires (required)")
	_ = cmd.MarkFlagRequired("at")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func remindAdd(opts *RemindAddOptions, cmd *cobra.Command) error {
	ts, err := parseClockArg(opts.At)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --at", err)
	}
	if ts.Second != nil {
		return NewExitError(ExitCommandError, "reminders fire on the minute; give --at as HH:MM")
	}

	rc := device.ReminderCommand{
		Action:  device.ActionAdd,
		Hour:    ts.Hour,
		Minute:  ts.Minute,
		Kind:    opts.Type,
		Message: opts.Message,
	}
	if err := sendReminderCommand(cmd, opts.RootOptions, rc); err != nil {
		return err
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	return formatter.Success(fmt.Sprintf("reminder sent: %02d:%02d %s", ts.Hour, ts.Minute, opts.Type))
}

func newRemindRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a reminder by id",
		Long: `Delete one reminder. Ids come from "remind ls" and are never reused,
so a stale id deletes nothing.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q: want a positive integer", args[0]))
			}

			rc := device.ReminderCommand{Action: device.ActionDelete, ID: id}
			if err := sendReminderCommand(cmd, rootOpts, rc); err != nil {
				return err
			}

			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return formatter.Success(fmt.Sprintf("delete sent for reminder %d", id))
		},
	}
	return cmd
}

func newRemindClearCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clear",
		Short:         "Delete all reminders",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := device.ReminderCommand{Action: device.ActionClear}
			if err := sendReminderCommand(cmd, rootOpts, rc); err != nil {
				return err
			}

			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return formatter.Success("clear sent")
		},
	}
	return cmd
}

func newRemindListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List reminders on the band",
		Long: `List the reminders stored on a running band.

The band answers over the notification stream. An oversized list arrives
truncated; the count is always the full total.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return remindList(rootOpts, cmd)
		},
	}
	return cmd
}

func remindList(opts *RootOptions, cmd *cobra.Command) error {
	var list *protocol.ReminderList

	err := withSession(cmd, opts, func(ctx context.Context, c *link.Client) error {
		// Subscribe before asking so the answer cannot slip past.
		sub, err := c.SubscribeNotifications(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to subscribe", err)
		}
		defer sub.Close()

		payload, err := protocol.EncodeReminderCommand(device.ReminderCommand{Action: device.ActionList})
		if err != nil {
			return WrapExitError(ExitFailure, "failed to encode command", err)
		}
		if err := c.Send(ctx, payload); err != nil {
			return WrapExitError(ExitFailure, "failed to send command", err)
		}

		deadline := time.NewTimer(listWait)
		defer deadline.Stop()
		for {
			select {
			case <-ctx.Done():
				return WrapExitError(ExitFailure, "cancelled waiting for the band", ctx.Err())
			case <-deadline.C:
				return NewExitError(ExitFailure, "no answer from the band; is it running?")
			case p, ok := <-sub.Payloads():
				if !ok {
					return NewExitError(ExitFailure, "notification stream closed")
				}
				l, err := protocol.DecodeReminderList(p)
				if err != nil {
					continue // alert or unrelated push
				}
				list = l
				return nil
			}
		}
	})
	if err != nil {
		return err
	}

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Format == "json" {
		return formatter.Success(list)
	}

	w := cmd.OutOrStdout()
	if list.Count == 0 {
		fmt.Fprintln(w, "no reminders")
		return nil
	}
	fmt.Fprintf(w, "%d reminder(s)\n", list.Count)
	for _, r := range list.Reminders {
		fmt.Fprintf(w, "  [%d] %02d:%02d  %-10s %s\n", r.ID, r.Hour, r.Minute, r.Type, r.Message)
	}
	if list.Count > len(list.Reminders) {
		fmt.Fprintf(w, "  ... %d more not shown (truncated to fit the wire)\n", list.Count-len(list.Reminders))
	}
	return nil
}
