// Package numerator provides document auto-numbering.
package numerator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the single database operation the numerator needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds numbering configuration for one document type.
type Config struct {
	// Prefix added to all numbers (e.g. "ORD", "QT").
	Prefix string

	// PadWidth is the minimum number width (default 6).
	PadWidth int

	// ResetPeriod: "year" restarts the counter each calendar year,
	// "never" keeps one counter forever.
	ResetPeriod string
}

// DefaultConfig returns the standard numbering for a prefix: ORD-000001,
// never reset.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		PadWidth:    6,
		ResetPeriod: "never",
	}
}

// Service issues gapless sequential document numbers backed by the
// sys_sequences table. The UPSERT + RETURNING round trip makes concurrent
// calls serialize on the sequence row.
type Service struct {
	querier Querier
	configs map[string]Config
}

// New creates a numerator with per-document-type configs. Unknown types
// fall back to DefaultConfig with the type uppercased as prefix.
func New(querier Querier, configs map[string]Config) *Service {
	if configs == nil {
		configs = make(map[string]Config)
	}
	return &Service{querier: querier, configs: configs}
}

// Next generates the next number for docType.
func (s *Service) Next(ctx context.Context, docType string) (string, error) {
	cfg, ok := s.configs[docType]
	if !ok {
		cfg = DefaultConfig(strings.ToUpper(docType))
	}

	now := time.Now().UTC()
	key := s.buildKey(cfg, now)

	var num int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", docType, err)
	}

	return s.format(cfg, num), nil
}

// SetNext overrides the counter, used when importing historical documents.
func (s *Service) SetNext(ctx context.Context, docType string, value int64) error {
	cfg, ok := s.configs[docType]
	if !ok {
		cfg = DefaultConfig(strings.ToUpper(docType))
	}
	key := s.buildKey(cfg, time.Now().UTC())

	var result int64
	return s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value).Scan(&result)
}

func (s *Service) buildKey(cfg Config, period time.Time) string {
	if cfg.ResetPeriod == "year" {
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	}
	return cfg.Prefix
}

func (s *Service) format(cfg Config, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 6
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number. Returns
// -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	idx := strings.LastIndex(formatted, "-")
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	var num int64
	if _, err := fmt.Sscanf(formatted[idx+1:], "%d", &num); err != nil {
		return -1
	}
	return num
}
