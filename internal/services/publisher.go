package services

import (
	"context"
	"log/slog"
	"time"

	"pelotero/internal/amqp"
	"pelotero/internal/log"
	"pelotero/internal/metrics"
)

// ChangePublisher announces committed writes. *amqp.Client implements it.
type ChangePublisher interface {
	PublishChange(ctx context.Context, entity amqp.Entity, id int64, action amqp.Action) error
}

type settings struct {
	now func() time.Time
	loc *time.Location
}

// Option configures a service.
type Option func(*settings)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithLocation sets the zone used to read dates that carry none.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{now: time.Now, loc: time.Local}
	for _, o := range opts {
		o(&s)
	}
	return s
}

// notify publishes after a successful write. The write already happened,
// so failures are logged and swallowed.
func notify(ctx context.Context, pub ChangePublisher, entity amqp.Entity, id int64, action amqp.Action) {
	if pub == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message",
			log.FieldEntity, entity, log.FieldID, id, log.FieldAction, action)
		return
	}
	err := pub.PublishChange(ctx, entity, id, action)
	metrics.ChangesPublished.WithLabelValues(string(entity), metrics.Result(err)).Inc()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			log.FieldEntity, entity, log.FieldID, id, log.FieldAction, action, log.FieldError, err)
	}
}
