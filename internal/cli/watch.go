package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Oluwatunmise116/caremini/internal/protocol"
)

// Watch output colors, matching the band face palette.
var (
	watchAlert = color.New(color.FgRed, color.Bold)
	watchFaint = color.New(color.Faint)
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stay connected and stream band notifications",
		Long: `Hold a companion session open and print everything the band pushes:
alert texts when reminders fire, and reminder lists after each change.

Example:
  caremini watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchBand(rootOpts, cmd)
		},
	}
	return cmd
}

func watchBand(opts *RootOptions, cmd *cobra.Command) error {
	c, cfg, err := companionClient(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := c.Ping(ctx); err != nil {
		return WrapExitError(ExitCommandError, "radio backend unreachable", err)
	}

	// Subscribe before the session opens so the post-connect list lands.
	sub, err := c.SubscribeNotifications(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to subscribe", err)
	}
	defer sub.Close()

	if err := c.EstablishSession(ctx, sessionTTL); err != nil {
		return WrapExitError(ExitFailure, "failed to open session", err)
	}
	defer func() {
		endCtx, endCancel := context.WithTimeout(context.Background(), time.Second)
		defer endCancel()
		_ = c.EndSession(endCtx)
	}()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Watching band %q. Press Ctrl-C to stop.\n", cfg.Device.Name)

	// The session key expires unless refreshed; refresh at half the TTL.
	refresh := time.NewTicker(sessionTTL / 2)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-refresh.C:
			if err := c.EstablishSession(ctx, sessionTTL); err != nil && ctx.Err() == nil {
				return WrapExitError(ExitFailure, "lost the session", err)
			}
		case p, ok := <-sub.Payloads():
			if !ok {
				return nil
			}
			printNotification(w, p, time.Now())
		}
	}
}

// printNotification renders one pushed payload with a receive timestamp.
func printNotification(w io.Writer, payload []byte, at time.Time) {
	stamp := watchFaint.Sprint(at.Format("15:04:05"))
	if protocol.IsAlertText(payload) {
		fmt.Fprintf(w, "%s  %s\n", stamp, watchAlert.Sprint(string(payload)))
		return
	}

	list, err := protocol.DecodeReminderList(payload)
	if err != nil {
		fmt.Fprintf(w, "%s  %s\n", stamp, string(payload))
		return
	}
	fmt.Fprintf(w, "%s  reminder list (%d total)\n", stamp, list.Count)
	for _, r := range list.Reminders {
		fmt.Fprintf(w, "          [%d] %02d:%02d  %-10s %s\n", r.ID, r.Hour, r.Minute, r.Type, r.Message)
	}
}
