package cash_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hornada/internal/core/apperror"
	"hornada/internal/core/audit"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/cash"
	"hornada/internal/infrastructure/storage/memory"
)

func newService(t *testing.T) *cash.Service {
	t.Helper()
	return cash.NewService(memory.NewCashRepo(), memory.NewTxManager(), nil, nil)
}

// recordingAuditor captures audit rows for assertions.
type recordingAuditor struct {
	entries []recordedChange
}

type recordedChange struct {
	entityType string
	entityID   id.ID
	action     audit.Action
	changes    map[string]any
}

func (r *recordingAuditor) LogChange(_ context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	r.entries = append(r.entries, recordedChange{entityType, entityID, action, changes})
	return nil
}

func TestOpenSession_OnlyOneAtATime(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.OpenSession(ctx, types.NewMoney(100), "ana")
	require.NoError(t, err)
	assert.Equal(t, cash.SessionOpen, first.Status)

	_, err = svc.OpenSession(ctx, types.NewMoney(50), "luis")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeCashSessionOpen))

	// Closing frees the register for the next shift.
	_, err = svc.CloseSession(ctx, types.NewMoney(100), "ana")
	require.NoError(t, err)

	_, err = svc.OpenSession(ctx, types.NewMoney(50), "luis")
	require.NoError(t, err)
}

func TestOpenSession_RejectsNegativeStart(t *testing.T) {
	svc := newService(t)

	_, err := svc.OpenSession(context.Background(), types.NewMoney(-1), "ana")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordMovement_RequiresOpenSession(t *testing.T) {
	svc := newService(t)

	_, err := svc.RecordMovement(context.Background(), cash.MovementSale, types.NewMoney(10), nil, "", "ana")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBusinessRule))
}

func TestRecordMovement_SignsByKind(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	session, err := svc.OpenSession(ctx, types.NewMoney(100), "ana")
	require.NoError(t, err)

	orderID := id.New()
	sale, err := svc.RecordMovement(ctx, cash.MovementSale, types.NewMoney(50), &orderID, "order paid", "ana")
	require.NoError(t, err)
	assert.True(t, sale.Amount.Equal(types.NewMoney(50)))

	expense, err := svc.RecordMovement(ctx, cash.MovementExpense, types.NewMoney(20), nil, "flour run", "ana")
	require.NoError(t, err)
	assert.True(t, expense.Amount.Equal(types.NewMoney(-20)), "expenses are stored negative")

	movements, err := svc.SessionMovements(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}

func TestCloseSession_ReconciliationMath(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.OpenSession(ctx, types.NewMoney(100), "ana")
	require.NoError(t, err)

	_, err = svc.RecordMovement(ctx, cash.MovementSale, types.NewMoney(50), nil, "", "ana")
	require.NoError(t, err)
	_, err = svc.RecordMovement(ctx, cash.MovementExpense, types.NewMoney(20), nil, "", "ana")
	require.NoError(t, err)

	// calculated = 100 + 50 - 20 = 130; declared 125 -> short by 5
	closed, err := svc.CloseSession(ctx, types.NewMoney(125), "ana")
	require.NoError(t, err)
	require.NotNil(t, closed.CalculatedEndAmount)
	require.NotNil(t, closed.Difference)
	assert.True(t, closed.CalculatedEndAmount.Equal(types.NewMoney(130)))
	assert.True(t, closed.Difference.Equal(types.NewMoney(-5)))
	require.NotNil(t, closed.ClosedAt)

	// The register is now closed.
	current, err := svc.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = svc.CloseSession(ctx, types.NewMoney(0), "ana")
	require.Error(t, err, "closing twice must fail")
}

func TestCloseSession_WritesAuditTrail(t *testing.T) {
	audits := &recordingAuditor{}
	svc := cash.NewService(memory.NewCashRepo(), memory.NewTxManager(), nil, audits)
	ctx := context.Background()

	session, err := svc.OpenSession(ctx, types.NewMoney(100), "ana")
	require.NoError(t, err)
	_, err = svc.RecordMovement(ctx, cash.MovementSale, types.NewMoney(50), nil, "", "ana")
	require.NoError(t, err)

	_, err = svc.CloseSession(ctx, types.NewMoney(145), "ana")
	require.NoError(t, err)

	require.Len(t, audits.entries, 1)
	entry := audits.entries[0]
	assert.Equal(t, "cash_session", entry.entityType)
	assert.Equal(t, session.ID, entry.entityID)
	assert.Equal(t, audit.ActionClose, entry.action)
	assert.Equal(t, types.NewMoney(145).String(), entry.changes["declared"])
	assert.Equal(t, types.NewMoney(150).String(), entry.changes["calculated"])
	assert.Equal(t, types.NewMoney(-5).String(), entry.changes["difference"])
	assert.Equal(t, "ana", entry.changes["closed_by"])
}
