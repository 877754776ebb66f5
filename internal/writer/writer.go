// Package writer applies inserts, updates and deletes to the bronze_trades table.
//
// Every operation is a single parameterized statement committed in its own
// transaction; nothing spans calls. Updates and deletes match on trade_id only
// and succeed whether zero, one or many rows match.
package writer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bronze-trades-generator/internal/cdc"
	"bronze-trades-generator/internal/models"
)

// Reviser supplies the replacement values for an update.
type Reviser interface {
	Revision() models.Revision
}

// Writer owns no connection itself; the *gorm.DB is borrowed from the caller.
type Writer struct {
	db        *gorm.DB
	reviser   Reviser
	publisher cdc.Publisher
	logger    *zap.Logger
}

// NewWriter creates a Writer. A nil publisher disables change events.
func NewWriter(db *gorm.DB, reviser Reviser, publisher cdc.Publisher, logger *zap.Logger) *Writer {
	if publisher == nil {
		publisher = cdc.NopPublisher{}
	}
	return &Writer{
		db:        db,
		reviser:   reviser,
		publisher: publisher,
		logger:    logger.Named("writer"),
	}
}

// Insert appends trade as a new row.
func (w *Writer) Insert(ctx context.Context, trade models.Trade) error {
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&trade).Error
	})
	if err != nil {
		return fmt.Errorf("failed to insert trade %s: %w", trade.TradeID, err)
	}
	w.logger.Info("Inserted", zap.Stringer("trade", trade))

	event := cdc.NewEvent(cdc.OpInsert, trade.TradeID, 1)
	event.Trade = &trade
	w.publish(ctx, event)
	return nil
}

// Update overwrites trade_price, trade_volume and profit_loss with fresh
// values on every row carrying tradeID. It returns the number of rows changed.
func (w *Writer) Update(ctx context.Context, tradeID string) (int64, error) {
	rev := w.reviser.Revision()

	var affected int64
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Trade{}).Where("trade_id = ?", tradeID).Updates(rev.Columns())
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update trade %s: %w", tradeID, err)
	}
	w.logger.Info("Updated trade_id",
		zap.String("trade_id", tradeID),
		zap.Int64("rows", affected),
		zap.Stringer("trade_price", rev.TradePrice),
		zap.Int("trade_volume", rev.TradeVolume),
		zap.Stringer("profit_loss", rev.ProfitLoss),
	)

	event := cdc.NewEvent(cdc.OpUpdate, tradeID, affected)
	event.Revision = &rev
	w.publish(ctx, event)
	return affected, nil
}

// Delete removes every row carrying tradeID and returns how many went.
func (w *Writer) Delete(ctx context.Context, tradeID string) (int64, error) {
	var affected int64
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("trade_id = ?", tradeID).Delete(&models.Trade{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete trade %s: %w", tradeID, err)
	}
	w.logger.Info("Deleted trade_id", zap.String("trade_id", tradeID), zap.Int64("rows", affected))

	w.publish(ctx, cdc.NewEvent(cdc.OpDelete, tradeID, affected))
	return affected, nil
}

// The row is already committed, so a failed publish is only reported.
func (w *Writer) publish(ctx context.Context, event cdc.Event) {
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.logger.Warn("Failed to publish change event",
			zap.String("op", string(event.Op)),
			zap.String("trade_id", event.TradeID),
			zap.Error(err))
	}
}
