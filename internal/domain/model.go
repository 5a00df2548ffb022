package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ChannelType string

const (
	ChannelBank        ChannelType = "bank"
	ChannelSatoshi     ChannelType = "satoshi"
	ChannelProtoshares ChannelType = "protoshares"
)

var Channels = []ChannelType{ChannelBank, ChannelSatoshi, ChannelProtoshares}

func (c ChannelType) Valid() bool {
	switch c {
	case ChannelBank, ChannelSatoshi, ChannelProtoshares:
		return true
	}
	return false
}

// IsCoin reports whether transfers on this channel go on-chain.
func (c ChannelType) IsCoin() bool {
	return c == ChannelSatoshi || c == ChannelProtoshares
}

type Currency string

const (
	CurrencyCNY Currency = "cny"
	CurrencyBTC Currency = "btc"
	CurrencyPTS Currency = "pts"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyCNY, CurrencyBTC, CurrencyPTS:
		return true
	}
	return false
}

type Actor string

const (
	ActorSystem    Actor = "system"
	ActorWorker    Actor = "worker"
	ActorOperator  Actor = "operator"
	ActorRequester Actor = "requester"
)

type WithdrawalReq struct {
	MemberID          int64           `json:"member_id" validate:"required,gt=0"`
	WithdrawAddressID int64           `json:"withdraw_address_id" validate:"required,gt=0"`
	RequestedSum      decimal.Decimal `json:"sum"`
	Password          string          `json:"password"`
}

type TransitionReq struct {
	// To is a pointer so an omitted state fails validation instead of
	// decoding to the zero state, cancel.
	To    *State  `json:"state" validate:"required"`
	Actor Actor   `json:"actor" validate:"required,oneof=system worker operator requester"`
	TxID  *string `json:"tx_id,omitempty"`
}

type Withdrawal struct {
	ID           int64
	SN           string
	MemberID     int64
	AccountID    int64
	Currency     Currency
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	AddressType  ChannelType
	Address      string
	AddressLabel string
	State        State
	TxID         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sum is the total debited from the account: what is sent plus the fee.
func (w *Withdrawal) Sum() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}

type Account struct {
	ID       int64
	MemberID int64
	Currency Currency
	Balance  decimal.Decimal
	Locked   decimal.Decimal
}

type Destination struct {
	ID        int64
	AccountID int64
	Category  ChannelType
	Address   string
	Label     string
}

type Member struct {
	ID             int64
	Email          string
	PasswordDigest string
}

type LedgerReason string

const (
	ReasonWithdrawLock   LedgerReason = "withdraw_lock"
	ReasonWithdrawUnlock LedgerReason = "withdraw_unlock"
	ReasonWithdrawDone   LedgerReason = "withdraw_done"
)

type LedgerEntry struct {
	ID           int64
	AccountID    int64
	WithdrawalID int64
	Reason       LedgerReason
	BalanceDelta decimal.Decimal
	LockedDelta  decimal.Decimal
	CreatedAt    time.Time
}
