package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"recipe-map/internal/datahook"
	"recipe-map/internal/migrate"
	"recipe-map/internal/utils"
)

// 需要真实 Postgres：设置 PG_TEST_DSN 后运行
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	db, err := utils.OpenPostgres(dsn, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := migrate.EnsureSchema(db); err != nil {
		t.Fatal(err)
	}
	st := AttachDB(db)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM _region_stats WHERE name LIKE 'test-%'`)
		_, _ = db.Exec(`DELETE FROM _cuisines WHERE name LIKE 'test-%'`)
		_ = st.Close()
	})
	return st
}

func TestRegionRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.UpsertRegion(ctx, RegionStat{Name: " TEST-Sichuan ", Count: 12, Specialties: []string{"mapo tofu"}, ColorClass: "bg-red"}); err != nil {
		t.Fatal(err)
	}
	got, err := st.GetRegion(ctx, "test-sichuan")
	if err != nil {
		t.Fatal(err)
	}
	if got.Count != 12 || len(got.Specialties) != 1 || got.ColorClass != "bg-red" {
		t.Fatalf("got %+v", got)
	}
	if err := st.UpsertCuisine(ctx, datahook.Cuisine{Name: "test-chuan", Region: "southwest", RecipeCount: 3}); err != nil {
		t.Fatal(err)
	}
	p, err := st.Fetch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if p.Regions["test-sichuan"].Count != 12 {
		t.Fatalf("payload regions = %+v", p.Regions)
	}
	if err := st.DeleteRegion(ctx, "test-sichuan"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetRegion(ctx, "test-sichuan"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpsertRegionValidates(t *testing.T) {
	st := AttachDB(nil)
	if err := st.UpsertRegion(context.Background(), RegionStat{Name: " "}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := st.UpsertRegion(context.Background(), RegionStat{Name: "x", Count: -1}); err == nil {
		t.Fatal("expected error for negative count")
	}
}
