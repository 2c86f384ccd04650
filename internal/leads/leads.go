// Package leads persists customer requests captured by the conversational forms.
package leads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/furnibot/core/database"
	"github.com/m3rciful/furnibot/core/logger"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusNew, StatusInProgress, StatusClosed}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusClosed:
		return true
	}
	return false
}

type InterestType string

const (
	InterestOrder        InterestType = "order"
	InterestConsultation InterestType = "consultation"
	InterestQuestion     InterestType = "question"
)

func (it InterestType) Valid() bool {
	switch it {
	case InterestOrder, InterestConsultation, InterestQuestion:
		return true
	}
	return false
}

var (
	ErrNotFound      = errors.New("leads: not found")
	ErrInvalidStatus = errors.New("leads: invalid status")
)

// Lead is a captured customer request. ProductID may point at a product that
// no longer exists; ProductTitle is empty in that case.
type Lead struct {
	ID           int64        `db:"id"`
	Name         string       `db:"name"`
	Phone        string       `db:"phone"`
	ProductID    *int64       `db:"product_id"`
	InterestType InterestType `db:"interest_type"`
	Comment      *string      `db:"comment"`
	Status       Status       `db:"status"`
	Created      time.Time    `db:"created"`
	Updated      time.Time    `db:"updated"`

	ProductTitle *string `db:"product_title"`
}

type NewLead struct {
	Name         string
	Phone        string
	ProductID    *int64
	InterestType InterestType
	// Comment is stored as NULL when blank.
	Comment string
}

// ListFilter narrows List. An empty Status matches every lead.
type ListFilter struct {
	Status Status
	Limit  int
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

const leadSelect = `
	SELECT l.id, l.name, l.phone, l.product_id, l.interest_type, l.comment,
	       l.status, l.created, l.updated, p.title AS product_title
	FROM leads l
	LEFT JOIN products p ON p.id = l.product_id`

// Create stores a lead with status new in a single-insert transaction.
func (s *Store) Create(ctx context.Context, in NewLead) (*Lead, error) {
	if !in.InterestType.Valid() {
		return nil, fmt.Errorf("leads: unknown interest type %q", in.InterestType)
	}
	var comment *string
	if c := strings.TrimSpace(in.Comment); c != "" {
		comment = &c
	}

	var id int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &id, `
			INSERT INTO leads (name, phone, product_id, interest_type, comment, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			in.Name, in.Phone, in.ProductID, in.InterestType, comment, StatusNew)
	})
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	logger.LogEvent(ctx, logger.Leads, slog.LevelInfo, "lead.created",
		slog.String("status", logger.StatusOK),
		slog.Int64("lead_id", id),
		slog.String("interest_type", string(in.InterestType)),
	)
	return s.Get(ctx, id)
}

func (s *Store) Get(ctx context.Context, id int64) (*Lead, error) {
	var l Lead
	if err := s.db.GetContext(ctx, &l, leadSelect+` WHERE l.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return &l, nil
}

// List returns leads newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]Lead, error) {
	query := leadSelect
	var args []any
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		args = append(args, f.Status)
		query += ` WHERE l.status = $1`
	}
	query += ` ORDER BY l.created DESC, l.id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	var out []Lead
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a lead to status and refreshes its updated time.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE leads SET status = $1, updated = now() WHERE id = $2`, status, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update lead status: %w", err)
	}
	logger.LogEvent(ctx, logger.Leads, slog.LevelInfo, "lead.status_changed",
		slog.String("status", logger.StatusOK),
		slog.Int64("lead_id", id),
		slog.String("lead_status", string(status)),
	)
	return s.Get(ctx, id)
}

// CountByStatus returns a count for every known status, zero included.
func (s *Store) CountByStatus(ctx context.Context) (map[Status]int, error) {
	var rows []struct {
		Status Status `db:"status"`
		N      int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM leads GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	out := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		out[st] = 0
	}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
