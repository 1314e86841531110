package quote

import (
	"context"
	"testing"
	"time"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
)

func TestAddItem_RecalculatesTotal(t *testing.T) {
	q := NewQuote(id.New())

	q.AddItem(id.New(), 3, types.NewMoney(2.50))
	q.AddItem(id.New(), 2, types.NewMoney(10))

	if !q.TotalAmount.Equal(types.NewMoney(27.50)) {
		t.Errorf("total: want 27.50, got %s", q.TotalAmount)
	}
	if q.Items[0].LineNo != 1 || q.Items[1].LineNo != 2 {
		t.Error("line numbers must be sequential")
	}
	if !q.Items[0].Total.Equal(types.NewMoney(7.50)) {
		t.Errorf("line total: want 7.50, got %s", q.Items[0].Total)
	}
}

func TestConvertible_ByStatus(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		status Status
		ok     bool
	}{
		{StatusDraft, true},
		{StatusSent, true},
		{StatusConverted, false},
		{StatusExpired, false},
	}

	for _, tt := range tests {
		q := NewQuote(id.New())
		q.AddItem(id.New(), 1, types.NewMoney(5))
		q.Status = tt.status

		err := q.Convertible(now)
		if tt.ok && err != nil {
			t.Errorf("status %s: unexpected error %v", tt.status, err)
		}
		if !tt.ok {
			if err == nil {
				t.Errorf("status %s: expected rejection", tt.status)
			} else if !apperror.IsCode(err, apperror.CodeQuoteAlreadyConverted) {
				t.Errorf("status %s: want QUOTE_ALREADY_CONVERTED, got %v", tt.status, err)
			}
		}
	}
}

func TestConvertible_ValidityWindow(t *testing.T) {
	now := time.Now().UTC()

	q := NewQuote(id.New())
	q.AddItem(id.New(), 1, types.NewMoney(5))

	future := now.Add(time.Hour)
	q.ValidUntil = &future
	if err := q.Convertible(now); err != nil {
		t.Errorf("quote valid until the future must convert: %v", err)
	}

	past := now.Add(-time.Minute)
	q.ValidUntil = &past
	err := q.Convertible(now)
	if err == nil {
		t.Fatal("expired quote must not convert")
	}
	if !apperror.IsCode(err, apperror.CodeQuoteExpired) {
		t.Errorf("want QUOTE_EXPIRED, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	noCustomer := NewQuote(id.Nil())
	noCustomer.AddItem(id.New(), 1, types.NewMoney(5))
	if err := noCustomer.Validate(ctx); err == nil {
		t.Error("missing customer must be rejected")
	}

	empty := NewQuote(id.New())
	if err := empty.Validate(ctx); err == nil {
		t.Error("quote without items must be rejected")
	}

	badQty := NewQuote(id.New())
	badQty.AddItem(id.New(), 0, types.NewMoney(5))
	if err := badQty.Validate(ctx); err == nil {
		t.Error("zero quantity line must be rejected")
	}
}
