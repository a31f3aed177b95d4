package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pelotero/internal/amqp"
	"pelotero/internal/core"
	"pelotero/internal/log"
	"pelotero/internal/metrics"
	"pelotero/internal/store"
)

// NewMovement is the raw input of the finance form.
type NewMovement struct {
	Description string
	Amount      string
	Category    string
	Type        string // "income" or "expense"; empty means expense
}

type MovementService struct {
	store     store.MovementStore
	publisher ChangePublisher
	settings
}

func NewMovementService(st store.MovementStore, pub ChangePublisher, opts ...Option) *MovementService {
	return &MovementService{
		store:     st,
		publisher: pub,
		settings:  newSettings(opts),
	}
}

// Create classifies and inserts a movement dated now.
func (s *MovementService) Create(ctx context.Context, in NewMovement) (core.Movement, error) {
	typ, err := core.ParseMovementType(in.Type)
	if err != nil {
		return core.Movement{}, err
	}
	amount, err := core.ParseMoney("amount", in.Amount)
	if err != nil {
		return core.Movement{}, err
	}

	m := core.Movement{
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Amount:      amount,
		Type:        typ,
		Date:        s.now(),
	}
	if err := m.Validate(); err != nil {
		return core.Movement{}, err
	}

	id, err := s.store.InsertMovement(ctx, m)
	if err != nil {
		return core.Movement{}, fmt.Errorf("save movement: %w", err)
	}
	m.ID = id
	metrics.MovementsWritten.WithLabelValues(log.OpCreate, string(m.Type)).Inc()
	log.NewStructuredLogger(log.FromContext(ctx)).LogMovementCreated(ctx, m)

	notify(ctx, s.publisher, amqp.EntityMovement, id, amqp.ActionCreated)
	return m, nil
}

// Update changes amount and description only. Category, type and date
// are fixed at creation.
func (s *MovementService) Update(ctx context.Context, id int64, amount, description string) error {
	if err := core.RequireID(id); err != nil {
		return err
	}
	a, err := core.ParseMoney("amount", amount)
	if err != nil {
		return err
	}
	desc := strings.TrimSpace(description)
	if len(desc) > 200 {
		return core.Invalid("description", "too long (max 200 characters)")
	}

	if err := s.store.UpdateMovement(ctx, id, store.MovementPatch{Amount: &a, Description: &desc}); err != nil {
		return fmt.Errorf("update movement: %w", err)
	}
	metrics.MovementsWritten.WithLabelValues(log.OpUpdate, "").Inc()
	slog.InfoContext(ctx, "Movement updated", log.FieldID, id, log.FieldAmountCents, a.Cents)

	notify(ctx, s.publisher, amqp.EntityMovement, id, amqp.ActionUpdated)
	return nil
}

// Delete removes the movement for good.
func (s *MovementService) Delete(ctx context.Context, id int64) error {
	if err := core.RequireID(id); err != nil {
		return err
	}
	if err := s.store.DeleteMovement(ctx, id); err != nil {
		return fmt.Errorf("delete movement: %w", err)
	}
	metrics.MovementsWritten.WithLabelValues(log.OpDelete, "").Inc()
	slog.InfoContext(ctx, "Movement deleted", log.FieldID, id)

	notify(ctx, s.publisher, amqp.EntityMovement, id, amqp.ActionDeleted)
	return nil
}

func (s *MovementService) ExcludeAllFromStats(ctx context.Context) (int64, error) {
	n, err := s.store.UpdateMovements(ctx, store.MovementFilter{}, store.MovementPatch{Excluded: store.Bool(true)})
	if err != nil {
		return 0, fmt.Errorf("exclude movements from stats: %w", err)
	}
	slog.InfoContext(ctx, "Movements excluded from stats", log.FieldOperation, log.OpExclude, log.FieldAffected, n)
	notify(ctx, s.publisher, amqp.EntityMovement, 0, amqp.ActionBulk)
	return n, nil
}

// List returns every movement, newest first.
func (s *MovementService) List(ctx context.Context) ([]core.Movement, error) {
	items, err := s.store.SelectMovements(ctx, store.MovementQuery{})
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return items, nil
}

func (s *MovementService) Get(ctx context.Context, id int64) (core.Movement, error) {
	if err := core.RequireID(id); err != nil {
		return core.Movement{}, err
	}
	return s.store.GetMovement(ctx, id)
}
