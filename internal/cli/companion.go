package cli

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Oluwatunmise116/caremini/internal/config"
	"github.com/Oluwatunmise116/caremini/internal/device"
	"github.com/Oluwatunmise116/caremini/internal/link"
	"github.com/Oluwatunmise116/caremini/internal/protocol"
)

// Companion-side timing. A session is held just long enough for the band
// to register the connection, apply the command, and answer.
const (
	// sessionTTL is how long a companion session lives without a refresh.
	sessionTTL = 10 * time.Second
	// companionTimeout bounds one whole companion command.
	companionTimeout = 10 * time.Second
	// listWait is how long "remind ls" waits for the band to answer.
	listWait = 5 * time.Second
)

// companionClient builds a link client for the configured band. Companion
// commands need a real radio address; the loopback link has no far end.
func companionClient(opts *RootOptions) (*link.Client, *config.Config, error) {
	cfg, err := resolveConfig(opts.Config)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if cfg.Link.RedisAddr == "" {
		return nil, nil, NewExitError(ExitCommandError, "no radio address configured; set link.redis_addr to reach a band")
	}
	c, err := link.NewClient(&redis.Options{
		Addr: cfg.Link.RedisAddr,
		DB:   cfg.Link.RedisDB,
	}, cfg.Device.Name)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to build link client", err)
	}
	return c, cfg, nil
}

// withSession runs fn as a connected companion: open a session, do the
// work, close the session so the band sees a clean disconnect.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, c *link.Client) error) error {
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithTimeout(parentCtx, companionTimeout)
	defer cancel()

	c, _, err := companionClient(opts)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Ping(ctx); err != nil {
		return WrapExitError(ExitCommandError, "radio backend unreachable", err)
	}
	if err := c.EstablishSession(ctx, sessionTTL); err != nil {
		return WrapExitError(ExitFailure, "failed to open session", err)
	}
	defer func() {
		// Fresh context; the command context may already be done.
		endCtx, endCancel := context.WithTimeout(context.Background(), time.Second)
		defer endCancel()
		_ = c.EndSession(endCtx)
	}()

	return fn(ctx, c)
}

// sendReminderCommand encodes one reminder operation and sends it inside a
// short-lived session.
func sendReminderCommand(cmd *cobra.Command, opts *RootOptions, rc device.ReminderCommand) error {
	payload, err := protocol.EncodeReminderCommand(rc)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode command", err)
	}
	return withSession(cmd, opts, func(ctx context.Context, c *link.Client) error {
		if err := c.Send(ctx, payload); err != nil {
			return WrapExitError(ExitFailure, "failed to send command", err)
		}
		return nil
	})
}
