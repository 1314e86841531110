package dto

// OpenSessionRequest opens a register session.
type OpenSessionRequest struct {
	StartAmount string `json:"startAmount" binding:"required"`
}

// CloseSessionRequest closes the open session with the counted cash.
type CloseSessionRequest struct {
	DeclaredEndAmount string `json:"declaredEndAmount" binding:"required"`
}

// CashMovementRequest records money in or out of the register.
type CashMovementRequest struct {
	Kind        string `json:"kind" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	OrderID     string `json:"orderId"`
	Description string `json:"description"`
}
