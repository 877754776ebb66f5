package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bronze-trades-generator/internal/models"
)

const (
	defaultTradesLimit = 100
	maxTradesLimit     = 1000
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log *zap.Logger
	db  *gorm.DB
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, db *gorm.DB) *APIHandler {
	return &APIHandler{log: log, db: db}
}

// Routes registers every endpoint on a fresh mux.
func (h *APIHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", h.StatusHandler)
	mux.HandleFunc("/api/trades", h.TradesHandler)
	mux.HandleFunc("/api/statistics", h.StatisticsHandler)
	return mux
}

// StatusHandler reports whether the database answers.
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Database string `json:"database"`
		Table    string `json:"table"`
		Time     string `json:"time"`
	}{
		Database: "ok",
		Table:    models.Trade{}.TableName(),
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(r.Context()) != nil {
		status.Database = "unavailable"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status, h.log)
}

// TradesHandler returns the newest rows, optionally filtered by trade_id.
func (h *APIHandler) TradesHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultTradesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxTradesLimit)
	}

	query := h.db.WithContext(r.Context()).Order("execution_time desc").Limit(limit)
	if tradeID := r.URL.Query().Get("trade_id"); tradeID != "" {
		query = query.Where("trade_id = ?", tradeID)
	}

	trades := []models.Trade{}
	if err := query.Find(&trades).Error; err != nil {
		h.log.Error("Failed to get trades from database", zap.Error(err))
		http.Error(w, "Failed to get trades", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, trades, h.log)
}

// StatsDetail holds calculated statistics for a given period.
type StatsDetail struct {
	TotalTrades      int64           `json:"total_trades"`
	ProfitableTrades int64           `json:"profitable_trades"`
	WinRate          float64         `json:"win_rate"`
	TotalProfitLoss  decimal.Decimal `json:"total_profit_loss"`
}

func (s *StatsDetail) add(trade models.Trade) {
	s.TotalTrades++
	if trade.ProfitLoss.IsPositive() {
		s.ProfitableTrades++
	}
	s.TotalProfitLoss = s.TotalProfitLoss.Add(trade.ProfitLoss)
}

func (s *StatsDetail) finish() {
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.ProfitableTrades) / float64(s.TotalTrades)
	}
}

// StatisticsResponse is the structure for the /api/statistics endpoint.
type StatisticsResponse struct {
	Since24h StatsDetail `json:"since_24h"`
	AllTime  StatsDetail `json:"all_time"`
}

// StatisticsHandler aggregates profit_loss over all rows and the last day of execution times.
func (h *APIHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	var allTrades []models.Trade
	if err := h.db.WithContext(r.Context()).Find(&allTrades).Error; err != nil {
		h.log.Error("Failed to get trades for statistics", zap.Error(err))
		http.Error(w, "Failed to calculate statistics", http.StatusInternalServerError)
		return
	}

	since24h := time.Now().Add(-24 * time.Hour)

	var resp StatisticsResponse
	for _, trade := range allTrades {
		resp.AllTime.add(trade)
		if trade.ExecutionTime.After(since24h) {
			resp.Since24h.add(trade)
		}
	}
	resp.AllTime.finish()
	resp.Since24h.finish()

	writeJSON(w, http.StatusOK, resp, h.log)
}

func writeJSON(w http.ResponseWriter, code int, v any, log *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to write response", zap.Error(err))
	}
}
