package cache

import (
	"context"
	"testing"

	"gudangkita/backend/internal/domain"
)

func TestMemoryFlags(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if set, _ := c.HasFlag(ctx, FlagSyncing); set {
		t.Fatal("fresh cache reports sync flag set")
	}

	if err := c.SetFlag(ctx, FlagSyncing); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if err := c.SetFlag(ctx, FlagCached); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if set, _ := c.HasFlag(ctx, FlagSyncing); !set {
		t.Fatal("sync flag not set")
	}

	if err := c.ClearFlags(ctx, FlagSyncing, FlagCached); err != nil {
		t.Fatalf("ClearFlags: %v", err)
	}
	if set, _ := c.HasFlag(ctx, FlagSyncing); set {
		t.Fatal("sync flag survived clear")
	}
	if set, _ := c.HasFlag(ctx, FlagCached); set {
		t.Fatal("cached flag survived clear")
	}
}

func TestMemoryAnalytics(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if _, ok, _ := c.Analytics(ctx); ok {
		t.Fatal("fresh cache reports analytics present")
	}

	snapshot := &domain.Analytics{}
	snapshot.Calculate.Revenue = 123
	if err := c.SetAnalytics(ctx, snapshot); err != nil {
		t.Fatalf("SetAnalytics: %v", err)
	}

	got, ok, err := c.Analytics(ctx)
	if err != nil || !ok {
		t.Fatalf("Analytics() = %v, %v; want stored snapshot", ok, err)
	}
	if got.Calculate.Revenue != 123 {
		t.Fatalf("revenue = %v, want 123", got.Calculate.Revenue)
	}

	if err := c.ClearAnalytics(ctx); err != nil {
		t.Fatalf("ClearAnalytics: %v", err)
	}
	if _, ok, _ := c.Analytics(ctx); ok {
		t.Fatal("analytics survived clear")
	}
}
