// Package audit defines the audit trail contract. Implementations join the
// ambient transaction so an audit row commits with the change it describes.
package audit

import (
	"context"

	"hornada/internal/core/id"
)

// Action is the type of audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionConvert Action = "convert"
	ActionClose   Action = "close"
)

// Recorder persists audit rows.
type Recorder interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
}

// Nop discards audit records. Used in tests.
type Nop struct{}

func (Nop) LogChange(context.Context, string, id.ID, Action, map[string]any) error { return nil }
