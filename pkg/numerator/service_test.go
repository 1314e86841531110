package numerator

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
)

// mockQuerier emulates the sys_sequences UPSERT: one counter per key.
type mockQuerier struct {
	counters map[string]int64
	lastKey  string
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	key := args[0].(string)
	m.lastKey = key
	if len(args) > 1 {
		m.counters[key] = args[1].(int64)
	} else {
		m.counters[key]++
	}
	return mockRow{val: m.counters[key]}
}

type mockRow struct {
	val int64
}

func (r mockRow) Scan(dest ...any) error {
	*dest[0].(*int64) = r.val
	return nil
}

func TestNext_FormatsAndIncrements(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier, map[string]Config{
		"order": DefaultConfig("ORD"),
	})
	ctx := context.Background()

	for i, want := range []string{"ORD-000001", "ORD-000002", "ORD-000003"} {
		got, err := svc.Next(ctx, "order")
		if err != nil {
			t.Fatalf("next #%d: %v", i+1, err)
		}
		if got != want {
			t.Errorf("next #%d: want %s, got %s", i+1, want, got)
		}
	}
}

func TestNext_UnknownTypeUppercasesPrefix(t *testing.T) {
	svc := New(newMockQuerier(), nil)

	got, err := svc.Next(context.Background(), "invoice")
	if err != nil {
		t.Fatal(err)
	}
	if got != "INVOICE-000001" {
		t.Errorf("want INVOICE-000001, got %s", got)
	}
}

func TestNext_YearlyResetKeysByYear(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier, map[string]Config{
		"quote": {Prefix: "QT", PadWidth: 4, ResetPeriod: "year"},
	})

	got, err := svc.Next(context.Background(), "quote")
	if err != nil {
		t.Fatal(err)
	}
	if got != "QT-0001" {
		t.Errorf("want QT-0001, got %s", got)
	}
	if querier.lastKey == "QT" {
		t.Error("yearly reset must suffix the sequence key with the year")
	}
}

func TestSetNext_OverridesCounter(t *testing.T) {
	querier := newMockQuerier()
	svc := New(querier, map[string]Config{"order": DefaultConfig("ORD")})
	ctx := context.Background()

	if err := svc.SetNext(ctx, "order", 500); err != nil {
		t.Fatal(err)
	}
	// The next UPSERT increments from the imported value.
	got, err := svc.Next(ctx, "order")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ORD-000501" {
		t.Errorf("want ORD-000501, got %s", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"ORD-000042", 42},
		{"QT-0001", 1},
		{"ORD-", -1},
		{"garbage", -1},
		{"ORD-abc", -1},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q): want %d, got %d", tt.in, tt.want, got)
		}
	}
}
