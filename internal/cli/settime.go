package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Oluwatunmise116/caremini/internal/device"
	"github.com/Oluwatunmise116/caremini/internal/link"
	"github.com/Oluwatunmise116/caremini/internal/protocol"
)

// SetTimeOptions holds flags for the settime command.
type SetTimeOptions struct {
	*RootOptions
	Date string
}

// NewSetTimeCommand creates the settime command.
func NewSetTimeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetTimeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "settime <HH:MM[:SS]>",
		Short: "Push wall-clock time to the band",
		Long: `Push wall-clock time to a running band.

Seconds default to zero when omitted. Without --date the band keeps its
date defaults.

Example:
  caremini settime 07:30
  caremini settime 07:30:15 --date 2026-06-15`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pushTime(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "calendar date to push (YYYY-MM-DD)")

	return cmd
}

// timePushResult is the JSON payload for a successful settime.
type timePushResult struct {
	Time string `json:"time"`
	Date string `json:"date,omitempty"`
}

func pushTime(opts *SetTimeOptions, clock string, cmd *cobra.Command) error {
	ts, err := parseClockArg(clock)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid time", err)
	}
	if opts.Date != "" {
		d, err := time.Parse("2006-01-02", opts.Date)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --date %q: want YYYY-MM-DD", opts.Date))
		}
		day, month, year := d.Day(), int(d.Month()), d.Year()
		ts.Day, ts.Month, ts.Year = &day, &month, &year
	}

	payload, err := protocol.EncodeTimeSet(ts)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode time push", err)
	}

	err = withSession(cmd, opts.RootOptions, func(ctx context.Context, c *link.Client) error {
		if err := c.Send(ctx, payload); err != nil {
			return WrapExitError(ExitFailure, "failed to push time", err)
		}
		return nil
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
		return formatter.Success(timePushResult{Time: clock, Date: opts.Date})
	}
	return formatter.Success(fmt.Sprintf("time pushed: %s", clock))
}

// parseClockArg parses "HH:MM" or "HH:MM:SS" into a time-set command.
func parseClockArg(s string) (device.TimeSet, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return device.TimeSet{}, fmt.Errorf("%q: want HH:MM or HH:MM:SS", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return device.TimeSet{}, fmt.Errorf("%q: %v", s, err)
		}
		nums[i] = n
	}
	if nums[0] < 0 || nums[0] > 23 {
		return device.TimeSet{}, fmt.Errorf("hour %d out of range 0-23", nums[0])
	}
	if nums[1] < 0 || nums[1] > 59 {
		return device.TimeSet{}, fmt.Errorf("minute %d out of range 0-59", nums[1])
	}
	ts := device.TimeSet{Hour: nums[0], Minute: nums[1]}
	if len(nums) == 3 {
		if nums[2] < 0 || nums[2] > 59 {
			return device.TimeSet{}, fmt.Errorf("second %d out of range 0-59", nums[2])
		}
		ts.Second = &nums[2]
	}
	return ts, nil
}
