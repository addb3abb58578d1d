package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/murder/internal/domain"
	"github.com/roach88/murder/internal/notify"
)

// Repository loads and saves whole games. Implemented by *store.Store.
type Repository interface {
	CreateGame(ctx context.Context, g *domain.Game, events []domain.Event) error
	LoadGame(ctx context.Context, id string) (*domain.Game, error)
	SaveGame(ctx context.Context, g *domain.Game, expectedSeq int64, events []domain.Event) error
}

// CodeProvider derives the secret code of an assignment.
// Implemented by *codes.Provider.
type CodeProvider interface {
	Code(gameID, circle, victim string) string
}

// Shuffler places the unplaced assignments of a circle.
// Implemented by *shuffle.Shuffler.
type Shuffler interface {
	Shuffle(c *domain.Circle) error
}

// Engine executes game operations against a Repository.
//
// Thread-safety: all methods are safe for concurrent use. Operations on
// the same game are serialized; different games proceed independently.
type Engine struct {
	repo     Repository
	shuffler Shuffler
	codes    CodeProvider
	notifier notify.Sink
	ids      IDGenerator
	now      func() time.Time
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithCodes enables secret codes in updates and murder reports.
func WithCodes(c CodeProvider) Option {
	return func(e *Engine) { e.codes = c }
}

// WithNotifier sets where mission updates are delivered.
func WithNotifier(n notify.Sink) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithIDs sets the journal id generator. Default: UUIDv7Generator.
func WithIDs(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithNow sets the wall clock used for journal entries and for murders
// reported without a time.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the counters. Default: unregistered counters.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer. Default: the global otel tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New creates an Engine.
func New(repo Repository, shuffler Shuffler, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		shuffler: shuffler,
		notifier: notify.Discard{},
		ids:      UUIDv7Generator{},
		now:      time.Now,
		logger:   slog.Default(),
		tracer:   otel.Tracer("github.com/roach88/murder/internal/engine"),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// lock acquires the writer lock of a game and returns its release func.
func (e *Engine) lock(gameID string) func() {
	e.mu.Lock()
	l, ok := e.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[gameID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// NewGame holds the inputs of CreateGame.
type NewGame struct {
	ID          string
	Title       string
	Description string
	Password    string
	Contact     string
	EndTime     *time.Time
	Circles     []string
}

// CreateGame creates and stores a new game in state NEW, optionally with
// the given circles. Fails with game_exists if the id is taken.
func (e *Engine) CreateGame(ctx context.Context, p NewGame) error {
	ctx, span := e.tracer.Start(ctx, "Engine.CreateGame", trace.WithAttributes(attribute.String("game", p.ID)))
	defer span.End()

	unlock := e.lock(p.ID)
	defer unlock()

	g, err := domain.NewGame(domain.NewGameParams{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Password:    p.Password,
		Contact:     p.Contact,
		EndTime:     p.EndTime,
	})
	if err != nil {
		e.fail(span, "create_game", err)
		return err
	}

	svc := e.newService(ctx, g)
	svc.record("create_game", map[string]string{"title": g.Title})
	for _, name := range p.Circles {
		if err := svc.AddCircle(name, ""); err != nil {
			e.fail(span, "create_game", err)
			return err
		}
	}

	if err := e.repo.CreateGame(ctx, g, svc.events); err != nil {
		err = translateStoreError("create game", p.ID, err)
		e.fail(span, "create_game", err)
		return err
	}
	e.metrics.Operations.WithLabelValues("create_game", "ok").Inc()
	e.logger.InfoContext(ctx, "game created", "game", g.ID, "circles", len(p.Circles))
	return nil
}

// Update runs fn on the current state of a game and saves the result.
//
// Operations called on the Service inside fn are applied in order. If fn
// returns an error, nothing is saved and no notification is sent. On
// success the game and its new journal entries are committed together,
// then queued mission updates are delivered.
func (e *Engine) Update(ctx context.Context, gameID string, fn func(*Service) error) error {
	ctx, span := e.tracer.Start(ctx, "Engine.Update", trace.WithAttributes(attribute.String("game", gameID)))
	defer span.End()

	unlock := e.lock(gameID)
	defer unlock()

	g, err := e.repo.LoadGame(ctx, gameID)
	if err != nil {
		err = translateStoreError("load game", gameID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	loadedSeq := g.Seq

	svc := e.newService(ctx, g)
	if err := fn(svc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if len(svc.events) == 0 {
		return nil
	}

	if err := e.repo.SaveGame(ctx, g, loadedSeq, svc.events); err != nil {
		err = translateStoreError("save game", gameID, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int64("seq", g.Seq), attribute.Int("events", len(svc.events)))

	e.dispatch(ctx, svc.outbox)
	return nil
}

// View runs fn on a freshly loaded snapshot of a game. Changes made by fn
// are not saved.
func (e *Engine) View(ctx context.Context, gameID string, fn func(*domain.Game) error) error {
	ctx, span := e.tracer.Start(ctx, "Engine.View", trace.WithAttributes(attribute.String("game", gameID)))
	defer span.End()

	g, err := e.repo.LoadGame(ctx, gameID)
	if err != nil {
		return translateStoreError("load game", gameID, err)
	}
	return fn(g)
}

// CheckGamemasterPassword fails with wrong_password unless candidate is
// the game master password of the game.
func (e *Engine) CheckGamemasterPassword(ctx context.Context, gameID, candidate string) error {
	return e.View(ctx, gameID, func(g *domain.Game) error {
		if !g.CheckPassword(candidate) {
			return domain.Errorf(domain.CodeWrongPassword, "wrong game master password for game %q", gameID)
		}
		return nil
	})
}

// Missions returns what p currently has to do in g, with secret codes if
// a CodeProvider is configured.
func (e *Engine) Missions(g *domain.Game, p *domain.Player) []notify.Mission {
	owned := g.OwnedMissions(p)
	out := make([]notify.Mission, 0, len(owned))
	for _, a := range owned {
		out = append(out, e.mission(g, a, p))
	}
	return out
}

// Code returns the secret code of a, or "" without a CodeProvider.
func (e *Engine) Code(g *domain.Game, a *domain.Assignment) string {
	if e.codes == nil {
		return ""
	}
	return e.codes.Code(g.ID, a.Circle.Name, a.Victim.Name)
}

func (e *Engine) mission(g *domain.Game, a *domain.Assignment, owner *domain.Player) notify.Mission {
	return notify.Mission{
		Circle: a.Circle.Name,
		Victim: a.Victim.Name,
		Owner:  owner.Name,
		Code:   e.Code(g, a),
	}
}

// dispatch delivers queued updates. Failures are logged and counted only.
func (e *Engine) dispatch(ctx context.Context, updates []notify.Update) {
	for _, u := range updates {
		if err := e.notifier.Notify(ctx, u); err != nil {
			e.metrics.Notifications.WithLabelValues("failed").Inc()
			e.logger.WarnContext(ctx, "notification failed",
				"game", u.GameID,
				"player", u.Player,
				"reason", u.Reason,
				"error", err,
			)
			continue
		}
		e.metrics.Notifications.WithLabelValues("sent").Inc()
	}
}

func (e *Engine) fail(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.metrics.Operations.WithLabelValues(op, outcome(err)).Inc()
}

// outcome is the metrics label for an operation result.
func outcome(err error) string {
	var ge *domain.GameError
	if errors.As(err, &ge) {
		return string(ge.Code)
	}
	return "error"
}
