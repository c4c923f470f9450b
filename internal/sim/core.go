package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTargetRate is the tick rate used when no option overrides it.
const DefaultTargetRate = 60.0

// Core is the scheduler: a single-writer driver loop advancing every
// registered steppable at a fixed cadence.
//
// Thread-safety model:
//   - Add*, WaitSteppable, Pause, Unpause, WaitForEndOfStep: any goroutine
//   - Run: exactly one goroutine (Start launches it for you)
//   - Tick: driver goroutine only; exposed so tests and the harness can
//     drive the schedule deterministically without wall time
//
// The rate group table and logical clock are owned by the driver goroutine
// and are never touched from outside it.
type Core struct {
	targetRate float64
	interval   time.Duration
	logger     *slog.Logger
	observer   Observer

	pending  *pendingQueue
	notifier *removalNotifier

	// stepGate guards the drain+step critical section of each tick. Pause
	// acquires it between ticks to freeze the loop; Unpause releases it.
	stepGate sync.Mutex

	// pauseMu serializes Pause/Unpause and guards paused, so the pair is
	// idempotent and a pause/unpause from different goroutines cannot
	// double-acquire or double-release the gate.
	pauseMu sync.Mutex
	paused  bool

	// stepMu guards the end-of-step barrier state. This is deliberately a
	// separate primitive from stepGate: the gate delimits the critical
	// section, the barrier only wakes WaitForEndOfStep callers.
	stepMu   sync.Mutex
	inStep   bool
	stepDone chan struct{}

	startOnce sync.Once

	// Driver-goroutine state.
	clock *tickClock
	table *groupTable
}

// Option configures a Core at construction.
type Option func(*Core)

// WithTargetRate sets the target tick rate in ticks per second.
// Values <= 0 fall back to DefaultTargetRate.
func WithTargetRate(rate float64) Option {
	return func(c *Core) {
		if rate > 0 {
			c.targetRate = rate
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver attaches a lifecycle observer (e.g. the journal recorder).
func WithObserver(o Observer) Option {
	return func(c *Core) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithStartInstant pins the logical clock's starting instant. Defaults to
// time.Now at construction; fix it for deterministic elapsed durations.
func WithStartInstant(t time.Time) Option {
	return func(c *Core) {
		c.clock.now = t
	}
}

// New creates a Core. The target rate is fixed at construction and
// read-only afterward. The loop is not running yet; call Start or Run.
func New(opts ...Option) *Core {
	c := &Core{
		targetRate: DefaultTargetRate,
		logger:     slog.Default(),
		observer:   NopObserver{},
		pending:    newPendingQueue(),
		notifier:   newRemovalNotifier(),
		stepDone:   make(chan struct{}),
		clock:      newTickClock(time.Now(), 0),
		table:      &groupTable{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.interval = time.Duration(float64(time.Second) / c.targetRate)
	c.clock.step = c.interval
	return c
}

// NewStarted creates a Core and immediately launches its driver loop in a
// background goroutine.
func NewStarted(opts ...Option) *Core {
	c := New(opts...)
	c.Start()
	return c
}

// TargetRate returns the target tick rate in ticks per second.
func (c *Core) TargetRate() float64 {
	return c.targetRate
}

// Interval returns the fixed tick duration derived from the target rate.
func (c *Core) Interval() time.Duration {
	return c.interval
}

// Start launches the driver loop in a background goroutine. Idempotent.
func (c *Core) Start() {
	c.startOnce.Do(func() {
		go func() {
			_ = c.Run(context.Background())
		}()
	})
}

// Run executes the driver loop at the target cadence until ctx is
// cancelled. Must be called from exactly one goroutine. Under normal
// operation the loop never terminates; cancellation is the only exit.
func (c *Core) Run(ctx context.Context) error {
	c.logger.Info("simulation core started",
		"target_rate", c.targetRate,
		"tick_interval", c.interval,
	)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("simulation core stopping", "ticks", c.clock.Count())
			return ctx.Err()
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick runs one full scheduling iteration: drain the pending queue, then
// fire every due rate group, all under the step gate. Run calls this once
// per tick; tests and the harness call it directly.
func (c *Core) Tick() {
	c.stepGate.Lock()
	c.beginStep()

	now := c.clock.Advance()
	tick := c.clock.Count()
	c.observer.TickBegan(tick, now)

	c.drainPending(tick)

	for _, g := range c.table.groups {
		c.advanceGroup(g, tick, now)
	}

	c.endStep()
	c.stepGate.Unlock()
}

// drainPending merges all queued registrations into the rate group table,
// coercing invalid divisors to 1.
func (c *Core) drainPending(tick uint64) {
	for _, reg := range c.pending.DrainAll() {
		divisor := reg.divisor
		if divisor < 1 {
			c.logger.Warn("invalid step divisor, coerced to 1",
				"steppable", LabelOf(reg.s),
				"divisor", reg.divisor,
			)
			divisor = 1
		}
		c.table.merge(reg.s, divisor)
		c.observer.SteppableAdded(tick, reg.s, divisor)
		c.logger.Debug("steppable scheduled",
			"steppable", LabelOf(reg.s),
			"divisor", divisor,
		)
	}
}

// advanceGroup decrements the group's countdown and fires it on zero:
// members are visited in insertion order, removed entities are detached and
// their waiters signaled, survivors are stepped.
//
// Survivors are collected into a fresh slice and committed unconditionally,
// so a member panicking mid-fire cannot leave the group with shifted or
// duplicated slots. The old backing array is dropped whole, which also lets
// removed entities be collected.
func (c *Core) advanceGroup(g *rateGroup, tick uint64, now time.Time) {
	if g.lastFire.IsZero() {
		// First observed tick only establishes the elapsed baseline.
		g.lastFire = now
	}

	g.countdown--
	if g.countdown > 0 {
		return
	}

	elapsed := now.Sub(g.lastFire)

	kept := make([]Steppable, 0, len(g.members))
	for _, m := range g.members {
		if c.fireMember(g, m, tick, now, elapsed) {
			kept = append(kept, m)
		}
	}
	g.members = kept

	g.lastFire = now
	g.countdown = g.divisor
}

// fireMember runs one member's Remove/Step pair and reports whether the
// member stays scheduled.
//
// A panicking entity is caught here, so the rest of its group and all later
// groups still execute this tick. The faulting entity stays scheduled; its
// partial side effects before the fault are not rolled back.
func (c *Core) fireMember(g *rateGroup, m Steppable, tick uint64, now time.Time, elapsed time.Duration) (keep bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("entity fault during step phase",
				"steppable", LabelOf(m),
				"divisor", g.divisor,
				"tick", tick,
				"panic", r,
			)
			keep = true
		}
	}()

	if m.Remove(now, elapsed) {
		c.observer.SteppableRemoved(tick, m, g.divisor, elapsed)
		c.logger.Debug("steppable removed",
			"steppable", LabelOf(m),
			"divisor", g.divisor,
			"tick", tick,
		)
		c.notifier.signal(m)
		return false
	}
	m.Step(now, elapsed)
	c.observer.StepFired(tick, m, g.divisor, elapsed)
	return true
}

// AddSteppable registers s to fire on every tick. Fire-and-forget; the
// registration takes effect at the next tick's drain phase.
// Thread-safe: may be called from any goroutine.
func (c *Core) AddSteppable(s Steppable) {
	c.AddSteppableEvery(s, 1)
}

// AddSteppableEvery registers s to fire once every divisor ticks.
// A divisor < 1 is coerced to 1 (with a logged diagnostic) at drain time.
// Thread-safe: may be called from any goroutine.
func (c *Core) AddSteppableEvery(s Steppable, divisor int) {
	c.pending.Enqueue(s, divisor)
}

// AddAndWaitSteppable registers s on every tick and blocks until the driver
// loop removes it, or ctx is cancelled.
func (c *Core) AddAndWaitSteppable(ctx context.Context, s Steppable) error {
	return c.AddAndWaitSteppableEvery(ctx, s, 1)
}

// AddAndWaitSteppableEvery registers s at the given divisor and blocks until
// the driver loop observes Remove returning true and detaches it.
//
// The removal channel is armed before the registration is enqueued, so a
// removal on the very next tick cannot be missed.
func (c *Core) AddAndWaitSteppableEvery(ctx context.Context, s Steppable, divisor int) error {
	ch := c.notifier.channelFor(s)
	c.pending.Enqueue(s, divisor)
	return waitRemoval(ctx, ch)
}

// Removed returns a channel that is closed when s is next removed from the
// schedule. Arm it before registering s to guarantee the signal cannot be
// missed; the channel fires at most once per registration.
func (c *Core) Removed(s Steppable) <-chan struct{} {
	return c.notifier.channelFor(s)
}

// WaitSteppable blocks until s is removed from the schedule, or ctx is
// cancelled. Usable standalone when s was registered by other means.
//
// On cancellation the registration state of s is unknown: the scheduler
// keeps s scheduled and does not retry the wait.
func (c *Core) WaitSteppable(ctx context.Context, s Steppable) error {
	return waitRemoval(ctx, c.notifier.channelFor(s))
}

// Pause freezes the simulation before its next tick. Idempotent. Returns
// once the gate is held, i.e. once any in-progress tick has finished.
func (c *Core) Pause() {
	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()
	if c.paused {
		return
	}
	c.stepGate.Lock()
	c.paused = true
	c.logger.Info("simulation paused")
}

// Unpause resumes a paused simulation. Idempotent. Safe to call from a
// different goroutine than the one that paused.
func (c *Core) Unpause() {
	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()
	if !c.paused {
		return
	}
	c.paused = false
	c.stepGate.Unlock()
	c.logger.Info("simulation resumed")
}

// WaitForEndOfStep blocks until the current tick's stepping phase (if any)
// completes. It does not pause anything; with no step in progress it
// returns immediately.
func (c *Core) WaitForEndOfStep() {
	c.stepMu.Lock()
	if !c.inStep {
		c.stepMu.Unlock()
		return
	}
	ch := c.stepDone
	c.stepMu.Unlock()
	<-ch
}

func (c *Core) beginStep() {
	c.stepMu.Lock()
	c.inStep = true
	c.stepDone = make(chan struct{})
	c.stepMu.Unlock()
}

func (c *Core) endStep() {
	c.stepMu.Lock()
	c.inStep = false
	close(c.stepDone)
	c.stepMu.Unlock()
}
