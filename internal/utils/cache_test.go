package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCacheRoundTrip(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Total int    `json:"total"`
	}
	if err := SetCache(ctx, rdb, "k", payload{Name: "x", Total: 3}, time.Minute); err != nil {
		t.Fatalf("SetCache() failed: %v", err)
	}
	var got payload
	found, err := GetCache(ctx, rdb, "k", &got)
	if err != nil {
		t.Fatalf("GetCache() failed: %v", err)
	}
	if !found {
		t.Fatal("GetCache() did not find a just-set key")
	}
	if got.Name != "x" || got.Total != 3 {
		t.Errorf("GetCache() got %+v, want {x 3}", got)
	}
}

func TestGetCache_MissingKey(t *testing.T) {
	rdb := testClient(t)
	var dest string
	found, err := GetCache(context.Background(), rdb, "absent", &dest)
	if err != nil {
		t.Fatalf("GetCache() failed: %v", err)
	}
	if found {
		t.Error("GetCache() reported a hit for a missing key")
	}
}

func TestLedgerVersion_BumpInvalidates(t *testing.T) {
	rdb := testClient(t)
	ctx := context.Background()

	v0 := LedgerVersion(ctx, rdb, 1)
	if v0 != 0 {
		t.Errorf("fresh version = %d, want 0", v0)
	}
	if err := BumpLedgerVersion(ctx, rdb, 1); err != nil {
		t.Fatalf("BumpLedgerVersion() failed: %v", err)
	}
	if v := LedgerVersion(ctx, rdb, 1); v != v0+1 {
		t.Errorf("version after bump = %d, want %d", v, v0+1)
	}
	// Other users are unaffected
	if v := LedgerVersion(ctx, rdb, 2); v != 0 {
		t.Errorf("other user's version = %d, want 0", v)
	}
}
