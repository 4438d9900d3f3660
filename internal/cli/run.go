package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Oluwatunmise116/caremini/internal/actuator"
	"github.com/Oluwatunmise116/caremini/internal/config"
	"github.com/Oluwatunmise116/caremini/internal/engine"
	"github.com/Oluwatunmise116/caremini/internal/link"
	"github.com/Oluwatunmise116/caremini/internal/protocol"
	"github.com/Oluwatunmise116/caremini/internal/render"
	"github.com/Oluwatunmise116/caremini/internal/storage"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// Clock allows overriding the wall clock (for testing).
	// If nil, the engine paces against the OS clock.
	Clock engine.WallClock
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the band",
		Long: `Run the band: clock face, reminder alerts, and the command channel.

The band restores its reminders from the snapshot database (creating it if
it doesn't exist) and starts ticking. With no radio address configured it
runs standalone on a loopback link; the clock and alerts still work, the
companion just cannot reach it.

Example:
  caremini run
  caremini run --config /etc/caremini.yml --db /var/lib/caremini.db --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBand(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "override the snapshot database path")

	return cmd
}

func runBand(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.Storage.Path = opts.Database
	}

	// Configure logging from config, with --verbose forcing debug
	level, err := cfg.Log.ParseLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	// Open the snapshot database. The one startup failure the band treats
	// as fatal.
	slog.Info("opening snapshot database", "path", cfg.Storage.Path)
	st, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	// Restore reminders. A damaged snapshot is logged and the band starts
	// empty; only a database that cannot open at all is fatal.
	store := engine.NewReminderStore(st)
	if err := store.Load(ctx); err != nil {
		slog.Warn("snapshot load failed, starting with no reminders", "error", err)
	}

	// The radio is backed by Redis pub/sub when an address is configured;
	// otherwise the band runs on a loopback link, permanently disconnected.
	var lnk engine.Link
	var radio *link.Client
	if cfg.Link.RedisAddr == "" {
		slog.Info("no radio address configured, running standalone")
		lnk = link.NewLoopback()
	} else {
		radio, err = link.NewClient(&redis.Options{
			Addr: cfg.Link.RedisAddr,
			DB:   cfg.Link.RedisDB,
		}, cfg.Device.Name)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build link client", err)
		}
		defer func() {
			if closeErr := radio.Close(); closeErr != nil {
				slog.Error("error closing link", "error", closeErr)
			}
		}()
		if err := radio.Ping(ctx); err != nil {
			slog.Warn("radio backend unreachable, companion cannot connect yet",
				"addr", cfg.Link.RedisAddr, "error", err)
		}
		lnk = radio
	}

	haptic := actuator.NewSlog("haptic", nil)
	audible, closeAudio := audiblePin(cfg.Audio.Enabled)
	defer closeAudio()

	renderer := render.NewConsole(cmd.OutOrStdout())

	engineOpts := []engine.Option{}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithWallClock(opts.Clock))
	}
	eng := engine.New(store, lnk, renderer, haptic, audible, engineOpts...)

	if radio != nil {
		sub, err := radio.Listen(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to subscribe for commands", err)
		}
		defer sub.Close()
		go pumpCommands(sub, eng)
	}

	slog.Info("band starting", "device", cfg.Device.Name, "db", cfg.Storage.Path)
	fmt.Fprintln(cmd.OutOrStdout(), "Band running. Press Ctrl-C to stop.")

	if err := eng.Run(ctx); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return WrapExitError(ExitFailure, "band error", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	slog.Info("band stopped gracefully")
	return nil
}

// pumpCommands feeds raw payloads from the radio into the engine queue.
// Malformed payloads are dropped with a diagnostic; overflow handling
// belongs to the queue.
func pumpCommands(sub *link.CommandSubscription, eng *engine.Engine) {
	for payload := range sub.Payloads() {
		c, err := protocol.ParseInbound(payload)
		if err != nil {
			slog.Warn("dropping malformed command", "error", err)
			continue
		}
		eng.Submit(c)
	}
}

// audiblePin picks the buzzer backend: a tone generator when audio is
// enabled and the host has an output device, a logged pin otherwise.
// The returned func releases the audio device.
func audiblePin(enabled bool) (engine.Pin, func()) {
	if !enabled {
		return actuator.NewSlog("audible", nil), func() {}
	}
	tone, err := actuator.NewTone()
	if err != nil {
		slog.Warn("audio device unavailable, buzzer runs silent", "error", err)
		return actuator.NewSlog("audible", nil), func() {}
	}
	return actuator.NewSlog("audible", tone), func() {
		if err := tone.Close(); err != nil {
			slog.Error("error closing audio", "error", err)
		}
	}
}

// resolveConfig loads the configuration file, falling back to built-in
// defaults when the default path does not exist. An explicit --config that
// cannot be read is an error.
func resolveConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && path == defaultConfigPath {
			return config.Default()
		}
		return nil, err
	}
	return config.Load(path)
}
