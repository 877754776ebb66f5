// Package cdc publishes change events for every committed write to bronze_trades.
package cdc

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bronze-trades-generator/internal/models"
)

// Op is the kind of change an event describes.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one committed write.
type Event struct {
	ID           string           `json:"id"`
	Op           Op               `json:"op"`
	Table        string           `json:"table"`
	TradeID      string           `json:"trade_id"`
	Trade        *models.Trade    `json:"trade,omitempty"`    // insert only
	Revision     *models.Revision `json:"revision,omitempty"` // update only
	RowsAffected int64            `json:"rows_affected"`
	EmittedAt    time.Time        `json:"emitted_at"`
}

// NewEvent stamps a change event with a fresh id and the current time.
func NewEvent(op Op, tradeID string, rowsAffected int64) Event {
	return Event{
		ID:           uuid.NewString(),
		Op:           op,
		Table:        models.Trade{}.TableName(),
		TradeID:      tradeID,
		RowsAffected: rowsAffected,
		EmittedAt:    time.Now().UTC(),
	}
}

// Publisher delivers change events somewhere downstream.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops every event. Used when CDC is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
