package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-match/internal/domain"
	"github.com/couchcryptid/quake-match/internal/observability"
)

// Normalizer validates a notification and builds the canonical event.
type Normalizer interface {
	Normalize(ctx context.Context, n domain.Notification) (domain.Event, error)
}

// EventRecorder persists an event.
type EventRecorder interface {
	RecordEvent(ctx context.Context, event domain.Event) error
}

// Session is one auto-commit database session. Every statement commits on its
// own; there is no transaction spanning insert and match.
type Session interface {
	EventRecorder
	DetectionFinder
	MatchUpserter
	Close() error
}

// SessionOpener opens the database session. Failures should be KindConnection.
type SessionOpener func(ctx context.Context) (Session, error)

// Announcer publishes established matches to downstream consumers.
type Announcer interface {
	Announce(ctx context.Context, event domain.Event, result domain.MatchResult) error
}

const (
	stageNormalize = "normalize"
	stageConnect   = "connect"
	stageRecord    = "record"
	stageMatch     = "match"
	stageAnnounce  = "announce"
)

// Pipeline sequences normalize → record → match for one notification inside
// one database session. A failed stage stops the remaining ones; the session
// is only opened for accepted notifications and is always closed.
type Pipeline struct {
	normalizer   Normalizer
	open         SessionOpener
	clock        clockwork.Clock
	announcer    Announcer
	logger       *slog.Logger
	metrics      *observability.Metrics
	stageTimeout time.Duration
}

// New creates a Pipeline. stageTimeout bounds every stage; announcer may be nil.
func New(n Normalizer, open SessionOpener, clock clockwork.Clock, a Announcer, logger *slog.Logger, metrics *observability.Metrics, stageTimeout time.Duration) *Pipeline {
	return &Pipeline{
		normalizer:   n,
		open:         open,
		clock:        clock,
		announcer:    a,
		logger:       logger,
		metrics:      metrics,
		stageTimeout: stageTimeout,
	}
}

// Process runs the pipeline for one notification and returns its outcome.
func (p *Pipeline) Process(ctx context.Context, n domain.Notification) Result {
	res := p.process(ctx, n)
	p.metrics.Notifications.WithLabelValues(res.Outcome.String()).Inc()
	return res
}

func (p *Pipeline) process(ctx context.Context, n domain.Notification) Result {
	logger := p.logger.With("action", n.Action, "source", n.Source, "code", n.Code)

	var event domain.Event
	err := p.stage(ctx, stageNormalize, func(ctx context.Context) error {
		var err error
		event, err = p.normalizer.Normalize(ctx, n)
		return err
	})
	if errors.Is(err, domain.ErrDiscarded) {
		logger.Info("notification discarded", "reason", err)
		return Result{Outcome: OutcomeDiscarded}
	}
	if err != nil {
		logger.Error("notification rejected", "preferred_id", n.PreferredID, "error", err)
		return Result{Outcome: OutcomeValidationError, Err: err}
	}

	logger = logger.With("event_id", event.ID)
	res := Result{EventID: event.ID}

	var sess Session
	err = p.stage(ctx, stageConnect, func(ctx context.Context) error {
		var err error
		sess, err = p.open(ctx)
		return err
	})
	if err != nil {
		logger.Error("database session unavailable", "error", err)
		res.Outcome, res.Err = OutcomeConnectionError, err
		return res
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("database session close failed", "error", err)
		}
	}()

	err = p.stage(ctx, stageRecord, func(ctx context.Context) error {
		return sess.RecordEvent(ctx, event)
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateEvent):
		// The row exists, so matching against it is still valid.
		logger.Warn("event already recorded, retrying match", "error", err)
		res.Duplicate, res.Err = true, err
	case err != nil:
		logger.Error("event store failed, skipping match", "error", err)
		res.Outcome, res.Err = OutcomeStoreError, err
		return res
	default:
		logger.Info("event recorded",
			"event_time", event.Time,
			"magnitude", event.Magnitude.StringFixed(domain.MagnitudePlaces),
			"region", event.Region,
		)
	}

	matcher := NewMatcher(sess, sess, p.clock, logger)
	err = p.stage(ctx, stageMatch, func(ctx context.Context) error {
		var err error
		res.Match, err = matcher.Match(ctx, event)
		return err
	})
	if err != nil {
		logger.Error("match failed", "duplicate", res.Duplicate, "error", err)
		res.Outcome, res.Err = OutcomeMatchError, err
		return res
	}

	action := string(res.Match.Action)
	if action == "" {
		action = "none"
	}
	p.metrics.MatchResults.WithLabelValues(string(res.Match.Status), action).Inc()

	if res.Match.Matched() && p.announcer != nil {
		err = p.stage(ctx, stageAnnounce, func(ctx context.Context) error {
			return p.announcer.Announce(ctx, event, res.Match)
		})
		if err != nil {
			logger.Warn("match announcement failed", "detection_id", res.Match.DetectionID, "error", err)
		}
	}

	res.Outcome = OutcomeSuccess
	if res.Duplicate {
		res.Outcome = OutcomeDuplicateEvent
	}
	return res
}

// stage runs fn under the stage timeout and records duration and failures.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	start := p.clock.Now()
	err := fn(ctx)
	p.metrics.StageDuration.WithLabelValues(name).Observe(p.clock.Since(start).Seconds())

	if err != nil && !errors.Is(err, domain.ErrDiscarded) {
		p.metrics.StageErrors.WithLabelValues(name, domain.KindOf(err).String()).Inc()
	}
	return err
}
