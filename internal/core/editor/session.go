package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/horizonmask/internal/core/domain"
	"github.com/samirrijal/horizonmask/internal/core/mask"
	"github.com/samirrijal/horizonmask/internal/pkg/metrics"
)

// ErrClosed is returned by Submit once the session loop has stopped.
var ErrClosed = errors.New("editor: session closed")

// Config tunes a session.
type Config struct {
	Canvas       mask.Options
	SaveDelay    time.Duration // trailing-edge debounce for saves
	RetryDelay   time.Duration // wait before retrying a failed save
	PollInterval time.Duration // live position poll period
	TickInterval time.Duration // redraw check period
	IOTimeout    time.Duration // per gateway call
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		Canvas:       mask.DefaultOptions(),
		SaveDelay:    500 * time.Millisecond,
		RetryDelay:   5 * time.Second,
		PollInterval: time.Second,
		TickInterval: 33 * time.Millisecond,
		IOTimeout:    10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Canvas.Size <= 0 {
		c.Canvas = d.Canvas
	}
	if c.SaveDelay <= 0 {
		c.SaveDelay = d.SaveDelay
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = d.IOTimeout
	}
	return c
}

// Option customises a Session.
type Option func(*Session)

// WithPositions enables live position polling.
func WithPositions(src PositionSource) Option {
	return func(s *Session) { s.positions = src }
}

// WithRenderer makes the session push encoded frames alongside state.
func WithRenderer(r Renderer) Option {
	return func(s *Session) { s.renderer = r }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// Session is one interactive editor. All editor state is owned by the
// goroutine running Run; other goroutines talk to it through Submit and
// through results posted back by the I/O helpers.
type Session struct {
	name      string
	cfg       Config
	canvas    *mask.Canvas
	gateway   Gateway
	sink      Sink
	positions PositionSource
	renderer  Renderer
	log       *slog.Logger

	events  chan Event
	results chan func()
	done    chan struct{}

	// loop-owned
	ctx       context.Context
	live      *domain.MountPosition
	polling   bool
	saveTimer *time.Timer
	saveC     <-chan time.Time
	editGen   uint64
	savedGen  uint64

	// set while a reload waits for the active drag to end
	reloadPending bool
}

// New creates a session named name (used in logs and metrics).
func New(name string, cfg Config, gw Gateway, sink Sink, opts ...Option) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		name:    name,
		cfg:     cfg,
		canvas:  mask.NewCanvas(cfg.Canvas),
		gateway: gw,
		sink:    sink,
		log:     slog.Default(),
		events:  make(chan Event, 64),
		results: make(chan func(), 16),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("session", name)
	return s
}

// Submit queues an input event. It blocks while the queue is full.
func (s *Session) Submit(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run drives the session until ctx is cancelled. Events already queued are
// applied and pending edits saved before it returns.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	s.ctx = ctx

	unsubscribe := s.canvas.Subscribe(s.pointsChanged)
	defer unsubscribe()

	metrics.EditorSessions.WithLabelValues(s.name).Inc()
	defer metrics.EditorSessions.WithLabelValues(s.name).Dec()

	tick := time.NewTicker(s.cfg.TickInterval)
	defer tick.Stop()

	var pollC <-chan time.Time
	if s.positions != nil {
		poll := time.NewTicker(s.cfg.PollInterval)
		defer poll.Stop()
		pollC = poll.C
		s.poll()
	}
	s.load()

	for {
		select {
		case <-ctx.Done():
			s.drain()
			s.flush()
			return nil
		case ev := <-s.events:
			s.handle(ev)
		case fn := <-s.results:
			fn()
		case <-tick.C:
			s.redraw()
		case <-pollC:
			s.poll()
		case <-s.saveC:
			s.saveC = nil
			s.save()
		}
	}
}

// post hands a result back to the loop. Results arriving after shutdown are
// dropped.
func (s *Session) post(fn func()) {
	select {
	case s.results <- fn:
	case <-s.done:
	}
}

func (s *Session) unsaved() bool { return s.savedGen < s.editGen }

func (s *Session) pointsChanged(ch mask.Change) {
	if !ch.Kind.Edit() {
		return
	}
	s.editGen++
	s.schedule(s.cfg.SaveDelay)
}

// schedule (re)arms the save timer. Rearming on every edit gives
// trailing-edge behaviour.
func (s *Session) schedule(d time.Duration) {
	if s.saveTimer == nil {
		s.saveTimer = time.NewTimer(d)
	} else {
		s.saveTimer.Reset(d)
	}
	s.saveC = s.saveTimer.C
}

func (s *Session) handle(ev Event) {
	var err error
	switch ev.Type {
	case PointerDown:
		s.canvas.PointerDown(ev.X, ev.Y)
	case PointerMove:
		s.canvas.PointerMove(ev.X, ev.Y)
	case PointerUp:
		err = s.canvas.PointerUp()
		s.dragEnded()
	case PointerLeave:
		err = s.canvas.PointerLeave()
		s.dragEnded()
	case Add:
		err = s.canvas.AddPoint(domain.BoundaryPoint{Alt: ev.Alt, Az: ev.Az})
	case AddCurrent:
		if s.live == nil {
			s.notice(LevelWarn, "mount position not available yet")
			return
		}
		err = s.canvas.AddAtPosition(*s.live)
	case Delete:
		if ev.Index == nil {
			s.notice(LevelWarn, "delete needs an index")
			return
		}
		err = s.canvas.DeletePoint(*ev.Index)
	case Reload:
		if s.unsaved() {
			s.log.Info("remote change ignored while edits are pending")
			return
		}
		if s.canvas.Dragging() {
			s.reloadPending = true
			return
		}
		s.load()
	default:
		err = fmt.Errorf("unknown event type %q", ev.Type)
	}
	if err != nil {
		s.notice(LevelWarn, err.Error())
	}
}

// dragEnded runs a reload that arrived mid-drag. A committed drag is an
// edit, so the reload is then dropped like any other during pending edits.
func (s *Session) dragEnded() {
	if !s.reloadPending || s.canvas.Dragging() {
		return
	}
	s.reloadPending = false
	if s.unsaved() {
		s.log.Info("remote change ignored, drag committed")
		return
	}
	s.load()
}

func (s *Session) load() {
	ctx := s.ctx
	go func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.IOTimeout)
		defer cancel()
		points, err := s.gateway.Load(ctx)
		s.post(func() { s.loaded(points, err) })
	}()
}

func (s *Session) loaded(points []domain.BoundaryPoint, err error) {
	if err != nil {
		s.log.Warn("load failed, keeping current points", "error", err)
		s.notice(LevelWarn, "could not load points: "+err.Error())
		return
	}
	if s.unsaved() {
		s.log.Info("discarding loaded points, local edits pending")
		return
	}
	if s.canvas.Dragging() {
		// Replacing the set would drop the handle under the pointer.
		s.reloadPending = true
		return
	}
	if err := s.canvas.Load(points); err != nil {
		s.log.Warn("loaded points rejected", "error", err)
		s.notice(LevelWarn, "loaded points rejected: "+err.Error())
	}
}

func (s *Session) save() {
	points := s.canvas.Points()
	gen := s.editGen
	// Saves outlive the session context so a closing tab still persists.
	ctx := context.WithoutCancel(s.ctx)
	go func() {
		err := s.store(ctx, points)
		s.post(func() { s.saved(gen, err) })
	}()
}

func (s *Session) store(ctx context.Context, points []domain.BoundaryPoint) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.IOTimeout)
	defer cancel()
	start := time.Now()
	err := s.gateway.Save(ctx, points)
	metrics.EditorSaveDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.EditorSaves.WithLabelValues(s.name, result).Inc()
	return err
}

func (s *Session) saved(gen uint64, err error) {
	if err != nil {
		s.log.Error("save failed, retrying", "error", err, "retry_in", s.cfg.RetryDelay)
		s.notice(LevelError, "could not save points: "+err.Error())
		if s.saveC == nil {
			s.schedule(s.cfg.RetryDelay)
		}
		return
	}
	if gen > s.savedGen {
		s.savedGen = gen
	}
	s.canvas.Invalidate()
}

// drain applies the events submitted before shutdown.
func (s *Session) drain() {
	for {
		select {
		case ev := <-s.events:
			if ev.Type == Reload {
				continue
			}
			s.handle(ev)
		default:
			return
		}
	}
}

// flush saves synchronously if an edit is still waiting for its timer.
func (s *Session) flush() {
	if s.saveC == nil {
		return
	}
	s.saveTimer.Stop()
	s.saveC = nil
	if err := s.store(context.WithoutCancel(s.ctx), s.canvas.Points()); err != nil {
		s.log.Error("final save failed", "error", err)
	}
}

func (s *Session) poll() {
	if s.polling {
		return
	}
	s.polling = true
	ctx := s.ctx
	go func() {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.PollInterval)
		defer cancel()
		pos, err := s.positions.Position(ctx)
		s.post(func() {
			s.polling = false
			if err != nil {
				metrics.StatusPolls.WithLabelValues("error").Inc()
				s.log.Debug("position poll failed", "error", err)
				return
			}
			metrics.StatusPolls.WithLabelValues("ok").Inc()
			s.live = &pos
			s.canvas.SetLivePosition(pos)
		})
	}()
}

func (s *Session) redraw() {
	drawn, err := s.canvas.Tick(s.draw)
	if err != nil {
		s.log.Debug("redraw failed", "error", err)
		return
	}
	if drawn {
		metrics.EditorRedraws.WithLabelValues(s.name).Inc()
	}
}

func (s *Session) draw(f mask.Frame) error {
	state := State{Session: s.name, Frame: f, Unsaved: s.unsaved(), Live: s.live}
	if err := s.sink.State(state); err != nil {
		return err
	}
	if s.renderer == nil {
		return nil
	}
	png, err := s.renderer.Render(f)
	if err != nil {
		return fmt.Errorf("render frame: %w", err)
	}
	return s.sink.Frame(png)
}

func (s *Session) notice(level, msg string) {
	if err := s.sink.Notice(Notice{Level: level, Message: msg}); err != nil {
		s.log.Debug("notice dropped", "error", err)
	}
}
