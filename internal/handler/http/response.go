package http

import (
	"encoding/json"
	"net/http"
	"time"

	"payout/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// withdrawalView is the wire shape of a withdrawal. withdraw_id repeats sn
// for clients that know it by that name.
type withdrawalView struct {
	ID           int64           `json:"id"`
	SN           string          `json:"sn"`
	WithdrawID   string          `json:"withdraw_id"`
	MemberID     int64           `json:"member_id"`
	AccountID    int64           `json:"account_id"`
	Currency     domain.Currency `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	Sum          decimal.Decimal `json:"sum"`
	Channel      string          `json:"channel"`
	Address      string          `json:"fund_uid"`
	AddressLabel string          `json:"fund_extra,omitempty"`
	State        domain.State    `json:"state"`
	TxID         *string         `json:"tx_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Warning      string          `json:"warning,omitempty"`
}

func newWithdrawalView(w *domain.Withdrawal) withdrawalView {
	return withdrawalView{
		ID:           w.ID,
		SN:           w.SN,
		WithdrawID:   w.SN,
		MemberID:     w.MemberID,
		AccountID:    w.AccountID,
		Currency:     w.Currency,
		Amount:       w.Amount,
		Fee:          w.Fee,
		Sum:          w.Sum(),
		Channel:      string(w.AddressType),
		Address:      w.Address,
		AddressLabel: w.AddressLabel,
		State:        w.State,
		TxID:         w.TxID,
		CreatedAt:    w.CreatedAt,
		UpdatedAt:    w.UpdatedAt,
	}
}

type fieldView struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Channel string `json:"channel,omitempty"`
}

func newFieldViews(fields []domain.FieldError) []fieldView {
	out := make([]fieldView, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldView{Field: f.Field, Rule: f.Rule, Channel: string(f.Channel)})
	}
	return out
}

type errorResponse struct {
	Error     string      `json:"error"`
	Fields    []fieldView `json:"fields,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func (h *WithdrawalHandler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, fields []fieldView) {
	h.writeJSON(w, status, errorResponse{Error: msg, Fields: fields, RequestID: middleware.GetReqID(r.Context())})
}

func (h *WithdrawalHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("write response", zap.Error(err))
	}
}

func parseSum(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
