package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Oluwatunmise116/caremini/internal/device"
	"github.com/Oluwatunmise116/caremini/internal/protocol"
)

// Link is the engine's view of the command channel transport. The transport
// owns pairing mechanics; the engine only needs connection state, an
// outbound notify, and a way to restart discoverability after a drop.
type Link interface {
	// Connected reports whether a paired device session is open.
	Connected() bool
	// Notify pushes a payload to the paired device.
	Notify(ctx context.Context, payload []byte) error
	// Announce restarts discoverability so a peer can pair again.
	Announce(ctx context.Context) error
}

// Renderer receives presentation frames. Implemented by the render package
// (console, memory).
type Renderer interface {
	Render(frame device.Frame)
}

// Loop cadence and budget constants. These are contract values, not tuning
// knobs: tests assert against them and the paired device's app assumes them.
const (
	// tickInterval is the clock loop cadence.
	tickInterval = time.Second
	// channelPollInterval is the link supervision cadence.
	channelPollInterval = 25 * time.Millisecond
	// presentFallback repaints the frame even without a refresh edge.
	presentFallback = 500 * time.Millisecond
	// lockTimeout bounds every advisory lock acquisition.
	lockTimeout = 10 * time.Millisecond
	// connectSettle is the pause between a connect and the list broadcast,
	// giving the peer time to finish subscribing.
	connectSettle = 2 * time.Second
	// disconnectSettle is the pause before re-announcing after a drop.
	disconnectSettle = 500 * time.Millisecond
	// notifyTimeout bounds one outbound push.
	notifyTimeout = time.Second
	// commandQueueCapacity bounds the inbound command queue.
	commandQueueCapacity = 16
)

// Engine drives the band: it owns the clock keeper, the reminder store, the
// alert engine, the two advisory locks, and the three loops described in
// the package documentation.
type Engine struct {
	clock    *ClockKeeper
	store    *ReminderStore
	alerts   *AlertEngine
	link     Link
	renderer Renderer
	wall     WallClock
	tokens   TokenGenerator
	queue    *commandQueue

	timeMu    *timedMutex
	presentMu *timedMutex
	refresh   chan struct{}

	// lastFrame is the presentation cache, guarded by presentMu. When the
	// time lock is busy during a repaint, the cached clock reading is shown
	// instead of blocking.
	lastFrame device.Frame
}

// Option configures an Engine.
type Option func(*Engine)

// WithWallClock replaces the OS clock, for deterministic pacing in tests.
func WithWallClock(wc WallClock) Option {
	return func(e *Engine) {
		e.wall = wc
	}
}

// WithTokenGenerator replaces the session token source.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = g
	}
}

// WithPulseHold replaces the buzzer pulse hold in the alert engine.
// Tests pass a no-op so pacing timelines run instantly.
func WithPulseHold(hold func(time.Duration)) Option {
	return func(e *Engine) {
		e.alerts.hold = hold
	}
}

// New creates an Engine around a loaded reminder store. The haptic and
// audible pins are handed to the alert engine; the alert notifier is wired
// to the link so a matched reminder also pings the paired device.
func New(store *ReminderStore, link Link, renderer Renderer, haptic, audible Pin, opts ...Option) *Engine {
	e := &Engine{
		clock:     NewClockKeeper(),
		store:     store,
		link:      link,
		renderer:  renderer,
		wall:      SystemClock{},
		tokens:    UUIDv7Generator{},
		queue:     newCommandQueue(commandQueueCapacity),
		timeMu:    newTimedMutex("time", lockTimeout),
		presentMu: newTimedMutex("presentation", lockTimeout),
		refresh:   make(chan struct{}, 1),
		lastFrame: device.Frame{Time: device.BootTime()},
	}
	e.alerts = NewAlertEngine(haptic, audible, WithNotifier(e.notifyAlert))

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Submit enqueues a parsed command from the link's receive callback.
// Thread-safe and non-blocking: a full queue drops the command with a
// diagnostic so the transport callback can never stall.
func (e *Engine) Submit(c device.Command) bool {
	if ok := e.queue.Enqueue(c); !ok {
		slog.Warn("inbound command dropped, queue full or closed", "queued", e.queue.Len())
		return false
	}
	return true
}

// Snapshot returns the current clock reading under the time lock. When the
// lock cannot be had within its bound, a LOCK_TIMEOUT error is returned and
// the caller falls back to whatever it last saw.
func (e *Engine) Snapshot() (device.DeviceTime, error) {
	if err := e.timeMu.Acquire(); err != nil {
		return device.DeviceTime{}, err
	}
	defer e.timeMu.Release()
	return e.clock.Snapshot(), nil
}

// Run starts the three loops and blocks until ctx is cancelled. The loops
// are built to run for the life of the process; ctx exists for tests,
// embedders, and orderly SIGTERM handling.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting")

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.clockLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.presentLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.channelLoop(ctx)
	}()

	<-ctx.Done()
	e.queue.Close()
	wg.Wait()

	slog.Info("engine stopped")
	return ctx.Err()
}

// clockLoop ticks once per second, phase-locked to wall-clock second
// boundaries. Each cycle waits until the next absolute boundary instead of
// sleeping a fixed duration, so processing time inside a tick does not
// accumulate as drift. After a stall (host suspend, slow storage) the loop
// resynchronizes to the next boundary rather than burst-ticking.
func (e *Engine) clockLoop(ctx context.Context) {
	next := e.wall.Now().Truncate(tickInterval).Add(tickInterval)
	for {
		d := next.Sub(e.wall.Now())
		if d < 0 {
			next = e.wall.Now().Truncate(tickInterval).Add(tickInterval)
			d = next.Sub(e.wall.Now())
		}

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		e.tick(e.wall.Now())
		next = next.Add(tickInterval)
	}
}

// tick advances the clock and evaluates matches under the time lock, then
// paces the alert actuators outside it. A lock timeout skips the whole
// cycle; the next tick carries on.
func (e *Engine) tick(now time.Time) {
	if err := e.timeMu.Acquire(); err != nil {
		slog.Debug("tick skipped", "error", err)
		return
	}
	e.clock.Tick()
	t := e.clock.Snapshot()
	fired := e.store.MatchDue(t)
	e.timeMu.Release()

	for _, r := range fired {
		slog.Info("reminder due", "id", r.ID, "type", r.Kind, "at", t.ClockString())
		e.alerts.Trigger(r.Kind, r.Message, now)
	}
	e.alerts.Step(now)
	e.signalRefresh()
}

// signalRefresh pokes the presentation loop. Non-blocking; the size-1
// buffer coalesces bursts into one repaint.
func (e *Engine) signalRefresh() {
	select {
	case e.refresh <- struct{}{}:
	default:
	}
}

// presentLoop repaints on refresh edges, with a fallback ticker so the
// screen never freezes if an edge is lost.
func (e *Engine) presentLoop(ctx context.Context) {
	ticker := time.NewTicker(presentFallback)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.refresh:
		case <-ticker.C:
		}
		e.present()
	}
}

// present assembles and renders one frame. The clock reading comes from a
// bounded acquisition of the time lock; on timeout the previous frame's
// reading is reused, trading a one-cycle-stale clock for never blocking
// the repaint.
func (e *Engine) present() {
	if err := e.presentMu.Acquire(); err != nil {
		slog.Debug("repaint skipped", "error", err)
		return
	}
	defer e.presentMu.Release()

	frame := e.lastFrame
	if t, err := e.Snapshot(); err != nil {
		slog.Debug("repaint using cached clock", "error", err)
	} else {
		frame.Time = t
	}
	frame.Alert = e.alerts.Snapshot()
	frame.Connected = e.link.Connected()

	e.lastFrame = frame
	e.renderer.Render(frame)
}

// channelState tracks one connection lifecycle. Owned by the channel loop
// goroutine; never shared.
type channelState struct {
	connected      bool
	session        string
	connectedAt    time.Time
	broadcastDone  bool
	disconnectedAt time.Time
	announcePend   bool
	pending        *device.Command
}

// channelLoop supervises the link and is the sole consumer of the command
// queue. Polling at tens of milliseconds keeps command latency invisible
// next to the 1s display granularity.
func (e *Engine) channelLoop(ctx context.Context) {
	ticker := time.NewTicker(channelPollInterval)
	defer ticker.Stop()

	st := &channelState{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		e.channelStep(ctx, st, e.wall.Now())
	}
}

// channelStep runs one supervision cycle: connection edge handling, the
// settled post-connect broadcast, the settled post-disconnect announce,
// then command application.
func (e *Engine) channelStep(ctx context.Context, st *channelState, now time.Time) {
	connected := e.link.Connected()

	if connected && !st.connected {
		st.connected = true
		st.connectedAt = now
		st.broadcastDone = false
		st.session = e.tokens.Generate()
		slog.Info("link connected", "session", st.session)
	}
	if !connected && st.connected {
		st.connected = false
		st.broadcastDone = false
		st.disconnectedAt = now
		st.announcePend = true
		slog.Info("link disconnected", "session", st.session)
	}

	if st.connected && !st.broadcastDone && now.Sub(st.connectedAt) >= connectSettle {
		// One list broadcast per session. A lock timeout retries next
		// cycle; any other failure consumes the attempt and is logged.
		err := e.broadcastList(ctx)
		if err == nil {
			st.broadcastDone = true
			slog.Debug("reminder list broadcast sent", "session", st.session)
		} else if device.IsLockTimeout(err) {
			slog.Debug("list broadcast deferred", "session", st.session)
		} else {
			st.broadcastDone = true
			slog.Warn("reminder list broadcast failed", "session", st.session, "error", err)
		}
	}

	if st.announcePend && now.Sub(st.disconnectedAt) >= disconnectSettle {
		st.announcePend = false
		if err := e.link.Announce(ctx); err != nil {
			slog.Warn("announce failed", "error", err)
		} else {
			slog.Info("discoverable again")
		}
	}

	for {
		if st.pending == nil {
			c, ok := e.queue.TryDequeue()
			if !ok {
				return
			}
			st.pending = &c
		}
		applied, wantList := e.applyCommand(ctx, *st.pending)
		if !applied {
			// Time lock busy: keep the command and retry next cycle so
			// a contended tick never loses a command.
			return
		}
		st.pending = nil
		if wantList && st.connected {
			if err := e.broadcastList(ctx); err != nil {
				slog.Warn("reminder list broadcast failed", "session", st.session, "error", err)
			}
		}
	}
}

// applyCommand applies one inbound command under the time lock.
//
// Returns applied=false only on lock timeout (retry the same command).
// wantList reports whether the peer should receive a fresh reminder list:
// true for every recognized reminder action, so the companion app sees the
// effect of its own mutation without a follow-up query.
//
// Typed rejections (validation, capacity, not-found) are terminal for the
// command: the wire has no reply slot for them, so they are logged and the
// peer learns the outcome from the next list broadcast.
func (e *Engine) applyCommand(ctx context.Context, c device.Command) (applied, wantList bool) {
	if err := e.timeMu.Acquire(); err != nil {
		slog.Debug("command deferred", "error", err)
		return false, false
	}

	var err error
	switch c.Kind {
	case device.CommandTimeSet:
		err = e.clock.SetTime(*c.TimeSet, e.wall.Now())
		if err == nil {
			t := e.clock.Snapshot()
			slog.Info("time set", "time", t.ClockString(), "date", t.DateString())
		}
	case device.CommandReminder:
		rc := c.Reminder
		switch rc.Action {
		case device.ActionAdd:
			var r device.Reminder
			r, err = e.store.Add(ctx, rc.Hour, rc.Minute, rc.Kind, rc.Message)
			if err == nil {
				slog.Info("reminder added", "id", r.ID, "type", r.Kind)
			}
			wantList = true
		case device.ActionDelete:
			err = e.store.Delete(ctx, rc.ID)
			if err == nil {
				slog.Info("reminder deleted", "id", rc.ID)
			}
			wantList = true
		case device.ActionClear:
			e.store.Clear(ctx)
			slog.Info("reminders cleared")
			wantList = true
		case device.ActionList:
			wantList = true
		default:
			slog.Warn("unrecognized reminder action ignored", "action", string(rc.Action))
		}
	default:
		slog.Warn("unrecognized command ignored", "kind", int(c.Kind))
	}
	e.timeMu.Release()

	if err != nil {
		slog.Warn("command rejected", "error", err)
	}
	e.signalRefresh()
	return true, wantList
}

// broadcastList pushes the current reminder list to the paired device,
// applying the wire truncation policy.
func (e *Engine) broadcastList(ctx context.Context) error {
	if err := e.timeMu.Acquire(); err != nil {
		return err
	}
	reminders := e.store.List()
	e.timeMu.Release()

	payload, err := protocol.EncodeReminderList(reminders)
	if err != nil {
		return err
	}

	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	return e.link.Notify(nctx, payload)
}

// notifyAlert pushes the alert text for a fired reminder. Wired into the
// alert engine as its notifier; a band without a connected peer skips the
// push silently.
func (e *Engine) notifyAlert(kind, message string) {
	if !e.link.Connected() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := e.link.Notify(ctx, protocol.EncodeAlert(kind, message)); err != nil {
		slog.Warn("alert push not delivered", "error", err)
	}
}
