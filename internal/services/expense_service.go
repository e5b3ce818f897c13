package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finsight/internal/amqp"
	"finsight/internal/core"
	"finsight/internal/storage"

	"github.com/google/uuid"
)

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, userID string, f storage.ExpenseFilter) ([]core.Expense, int, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id string) error
}

// EventPublisher announces expense changes to other processes.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev amqp.ExpenseEvent) error
}

// Invalidator drops any per-user derived data after a write.
type Invalidator interface {
	Invalidate(userID string)
}

type ExpenseInput struct {
	Amount      core.Money    `json:"amount"`
	Category    core.Category `json:"category"`
	Description string        `json:"description"`
	Date        *time.Time    `json:"date"`
}

// ExpensePatch replaces only the fields that are set.
type ExpensePatch struct {
	Amount      *core.Money    `json:"amount"`
	Category    *core.Category `json:"category"`
	Description *string        `json:"description"`
	Date        *time.Time     `json:"date"`
}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	HasMore bool `json:"hasMore"`
}

type ExpensePage struct {
	Expenses   []core.Expense `json:"expenses"`
	Pagination Pagination     `json:"pagination"`
}

// ExpenseService saves expenses locally, then announces the change over AMQP.
// A failed announcement never fails the request.
type ExpenseService struct {
	storage     ExpenseStore
	publisher   EventPublisher
	invalidator Invalidator
	now         func() time.Time
}

func NewExpenseService(storage ExpenseStore, publisher EventPublisher, invalidator Invalidator) *ExpenseService {
	return &ExpenseService{
		storage:     storage,
		publisher:   publisher,
		invalidator: invalidator,
		now:         time.Now,
	}
}

func (s *ExpenseService) Create(ctx context.Context, userID string, in ExpenseInput) (core.Expense, error) {
	e := core.Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      in.Amount,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Date:        s.now().UTC(),
	}
	if in.Date != nil && !in.Date.IsZero() {
		e.Date = in.Date.UTC()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	saved, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, amqp.ExpenseCreated, saved)
	return saved, nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	return s.storage.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) List(ctx context.Context, userID string, f storage.ExpenseFilter) (ExpensePage, error) {
	list, total, err := s.storage.ListExpenses(ctx, userID, f)
	if err != nil {
		return ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	return ExpensePage{
		Expenses: list,
		Pagination: Pagination{
			Total:   total,
			Limit:   f.Limit,
			Skip:    f.Skip,
			HasMore: f.Skip+len(list) < total,
		},
	}, nil
}

func (s *ExpenseService) Update(ctx context.Context, userID, id string, p ExpensePatch) (core.Expense, error) {
	e, err := s.storage.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.Date != nil && !p.Date.IsZero() {
		e.Date = p.Date.UTC()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.storage.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.changed(ctx, amqp.ExpenseUpdated, updated)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.changed(ctx, amqp.ExpenseDeleted, core.Expense{ID: id, UserID: userID})
	return nil
}

func (s *ExpenseService) changed(ctx context.Context, t amqp.EventType, e core.Expense) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(e.UserID)
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping expense event", "type", t)
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, amqp.NewExpenseEvent(t, e)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", t, "expense_id", e.ID, "error", err)
	}
}
