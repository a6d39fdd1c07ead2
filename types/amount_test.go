package types_test

import (
	"math"
	"testing"
	"time"

	"github.com/xraph/streamledger/types"
)

func TestCheckedAdd(t *testing.T) {
	tests := []struct {
		name   string
		a, b   types.Amount
		want   types.Amount
		wantOK bool
	}{
		{"simple", 100, 50, 150, true},
		{"negative", 100, -150, -50, true},
		{"max plus zero", types.MaxAmount, 0, types.MaxAmount, true},
		{"overflow", types.MaxAmount, 1, 0, false},
		{"underflow", math.MinInt64, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.CheckedAdd(tt.b)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CheckedAdd(%d, %d) = (%d, %v), want (%d, %v)", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCheckedSub(t *testing.T) {
	tests := []struct {
		name   string
		a, b   types.Amount
		want   types.Amount
		wantOK bool
	}{
		{"simple", 100, 30, 70, true},
		{"to negative", 30, 100, -70, true},
		{"underflow", math.MinInt64, 1, 0, false},
		{"overflow", types.MaxAmount, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.CheckedSub(tt.b)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CheckedSub(%d, %d) = (%d, %v), want (%d, %v)", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCheckedMul(t *testing.T) {
	tests := []struct {
		name   string
		a      types.Amount
		n      int64
		want   types.Amount
		wantOK bool
	}{
		{"simple", 3, 1000, 3000, true},
		{"zero amount", 0, math.MaxInt64, 0, true},
		{"zero factor", types.MaxAmount, 0, 0, true},
		{"overflow", types.MaxAmount / 2, 3, 0, false},
		{"huge both", types.MaxAmount - 1, math.MaxInt64 - 1, 0, false},
		{"min times minus one", math.MinInt64, -1, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.CheckedMul(tt.n)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("CheckedMul(%d, %d) = (%d, %v), want (%d, %v)", tt.a, tt.n, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := types.Amount(-5).Clamp(0, 10); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := types.Amount(50).Clamp(0, 10); got != 10 {
		t.Errorf("expected 10, got %d", got)
	}
	if got := types.Amount(7).Clamp(0, 10); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
}

func TestComparisons(t *testing.T) {
	a := types.Amount(100)
	b := types.Amount(200)

	if a.Min(b) != a || a.Max(b) != b {
		t.Error("Min/Max returned the wrong operand")
	}
	if !types.Amount(0).IsZero() || a.IsZero() {
		t.Error("IsZero mismatch")
	}
	if !a.IsPositive() || types.Amount(-1).IsPositive() {
		t.Error("IsPositive mismatch")
	}
	if !types.Amount(-1).IsNegative() || a.IsNegative() {
		t.Error("IsNegative mismatch")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount   types.Amount
		decimals int
		want     string
	}{
		{4900, 2, "49.00"},
		{-4950, 2, "-49.50"},
		{1, 7, "0.0000001"},
		{1000, 0, "1000"},
		{math.MinInt64, 2, "-92233720368547758.08"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.amount.Format(tt.decimals); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.decimals, got, tt.want)
			}
		})
	}
}

func TestSum(t *testing.T) {
	total, ok := types.Sum(100, 200, 300)
	if !ok || total != 600 {
		t.Errorf("Sum = (%d, %v), want (600, true)", total, ok)
	}

	if _, ok := types.Sum(types.MaxAmount, 1); ok {
		t.Error("expected Sum to report overflow")
	}

	total, ok = types.Sum()
	if !ok || total != 0 {
		t.Errorf("empty Sum = (%d, %v), want (0, true)", total, ok)
	}
}

func TestAddress(t *testing.T) {
	if !types.Address("").IsZero() || !types.Address("   ").IsZero() {
		t.Error("blank addresses should be zero")
	}
	if types.Address("GALICE").IsZero() {
		t.Error("non-blank address reported zero")
	}
}

func TestEntity(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := types.NewEntity(start)
	if !e.CreatedAt.Equal(start) || !e.UpdatedAt.Equal(start) {
		t.Fatalf("unexpected timestamps: %+v", e)
	}

	later := start.Add(time.Hour)
	e.Touch(later)
	if !e.UpdatedAt.Equal(later) {
		t.Errorf("Touch did not move UpdatedAt: %v", e.UpdatedAt)
	}
	if !e.CreatedAt.Equal(start) {
		t.Error("Touch must not change CreatedAt")
	}
	if got := e.Age(later); got != time.Hour {
		t.Errorf("Age = %v, want 1h", got)
	}
}
