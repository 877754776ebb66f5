package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentType is the futures contract family a trade was executed on.
type InstrumentType string

const (
	InstrumentZQ   InstrumentType = "ZQ"
	InstrumentSR1  InstrumentType = "SR1"
	InstrumentSR3  InstrumentType = "SR3"
	InstrumentEOFR InstrumentType = "EOFR"
)

// InstrumentTypes lists every instrument a generated trade may carry.
var InstrumentTypes = []InstrumentType{InstrumentZQ, InstrumentSR1, InstrumentSR3, InstrumentEOFR}

// TradeType is the side of a trade.
type TradeType string

const (
	TradeTypeBuy  TradeType = "BUY"
	TradeTypeSell TradeType = "SELL"
)

// TradeTypes lists both trade sides.
var TradeTypes = []TradeType{TradeTypeBuy, TradeTypeSell}

// Trade is one row of the bronze_trades landing table.
// trade_id is not unique; several rows may share it.
type Trade struct {
	TradeID        string          `gorm:"column:trade_id;type:varchar(32);index" json:"trade_id"`
	TraderID       string          `gorm:"column:trader_id;type:varchar(32)" json:"trader_id"`
	InstrumentType InstrumentType  `gorm:"column:instrument_type;type:varchar(8)" json:"instrument_type"`
	TradeType      TradeType       `gorm:"column:trade_type;type:varchar(4)" json:"trade_type"`
	ExecutionTime  time.Time       `gorm:"column:execution_time" json:"execution_time"`
	TradePrice     decimal.Decimal `gorm:"column:trade_price;type:decimal(12,2)" json:"trade_price"`
	TradeVolume    int             `gorm:"column:trade_volume" json:"trade_volume"`
	ProfitLoss     decimal.Decimal `gorm:"column:profit_loss;type:decimal(12,2)" json:"profit_loss"`
	OpenInterest   int             `gorm:"column:open_interest" json:"open_interest"`
	StrategyID     string          `gorm:"column:strategy_id;type:varchar(32)" json:"strategy_id"`
}

// TableName pins the table name; bronze_trades is created outside this service.
func (Trade) TableName() string {
	return "bronze_trades"
}

// Values returns the record as an ordered tuple in bronze_trades column order.
func (t Trade) Values() []any {
	return []any{
		t.TradeID, t.TraderID, t.InstrumentType, t.TradeType, t.ExecutionTime,
		t.TradePrice, t.TradeVolume, t.ProfitLoss, t.OpenInterest, t.StrategyID,
	}
}

// String renders the tuple on one line, e.g.
// (TRADE7, TRADER12, SR3, BUY, 2024-01-15T12:00:00Z, 512.30, 40, -12.05, 5120, STRATEGY2).
func (t Trade) String() string {
	values := t.Values()
	parts := make([]string, 0, len(values))
	for _, v := range values {
		switch v := v.(type) {
		case time.Time:
			parts = append(parts, v.Format(time.RFC3339))
		case decimal.Decimal:
			parts = append(parts, v.StringFixed(2))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Revision holds the columns an update is allowed to overwrite.
type Revision struct {
	TradePrice  decimal.Decimal `json:"trade_price"`
	TradeVolume int             `json:"trade_volume"`
	ProfitLoss  decimal.Decimal `json:"profit_loss"`
}

// Columns maps the revision onto bronze_trades column names.
func (r Revision) Columns() map[string]interface{} {
	return map[string]interface{}{
		"trade_price":  r.TradePrice,
		"trade_volume": r.TradeVolume,
		"profit_loss":  r.ProfitLoss,
	}
}
