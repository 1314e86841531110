// Package cash tracks register sessions and their money movements.
package cash

import (
	"time"

	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

// SessionStatus is the register session state.
type SessionStatus string

const (
	SessionOpen   SessionStatus = "open"
	SessionClosed SessionStatus = "closed"
)

// Session is one register shift. At most one session is open at a time.
type Session struct {
	ID       id.ID         `db:"id" json:"id"`
	Status   SessionStatus `db:"status" json:"status"`
	OpenedBy string        `db:"opened_by" json:"openedBy"`

	StartAmount types.Money `db:"start_amount" json:"startAmount"`

	// DeclaredEndAmount is the cash counted at close.
	DeclaredEndAmount *types.Money `db:"declared_end_amount" json:"declaredEndAmount,omitempty"`
	// CalculatedEndAmount is start plus recorded movements.
	CalculatedEndAmount *types.Money `db:"calculated_end_amount" json:"calculatedEndAmount,omitempty"`
	// Difference is declared minus calculated. Negative means missing cash.
	Difference *types.Money `db:"difference" json:"difference,omitempty"`

	OpenedAt time.Time  `db:"opened_at" json:"openedAt"`
	ClosedAt *time.Time `db:"closed_at" json:"closedAt,omitempty"`
}

// MovementKind classifies a cash movement.
type MovementKind string

const (
	MovementSale       MovementKind = "sale"
	MovementExpense    MovementKind = "expense"
	MovementWithdrawal MovementKind = "withdrawal"
	MovementDeposit    MovementKind = "deposit"
)

// Movement is money in or out of the register during a session.
type Movement struct {
	ID        id.ID        `db:"id" json:"id"`
	SessionID id.ID        `db:"session_id" json:"sessionId"`
	Kind      MovementKind `db:"kind" json:"kind"`

	// Amount is signed: positive adds cash to the drawer.
	Amount types.Money `db:"amount" json:"amount"`

	// OrderID links sale movements back to the order paid.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	Description string    `db:"description" json:"description,omitempty"`
	Actor       string    `db:"actor" json:"actor"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Signed returns the amount with the conventional sign for the kind:
// expenses and withdrawals subtract, sales and deposits add.
func (k MovementKind) Signed(amount types.Money) types.Money {
	switch k {
	case MovementExpense, MovementWithdrawal:
		return amount.Neg()
	default:
		return amount
	}
}
