package main

import (
	"context"
	"strings"
	"testing"

	"recipe-map/internal/datahook"
	"recipe-map/internal/store"
	"recipe-map/internal/taxonomy"
)

type memStore struct {
	stats    map[string]store.RegionStat
	cuisines []datahook.Cuisine
}

func (m *memStore) UpsertRegion(ctx context.Context, st store.RegionStat) error {
	m.stats[st.Name] = st
	return nil
}

func (m *memStore) GetRegion(ctx context.Context, name string) (*store.RegionStat, error) {
	st, ok := m.stats[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (m *memStore) DeleteRegion(ctx context.Context, name string) error {
	if _, ok := m.stats[name]; !ok {
		return store.ErrNotFound
	}
	delete(m.stats, name)
	return nil
}

func (m *memStore) ListRegions(ctx context.Context, limit int) ([]store.RegionStat, error) {
	var out []store.RegionStat
	for _, st := range m.stats {
		out = append(out, st)
	}
	return out, nil
}

func (m *memStore) UpsertCuisine(ctx context.Context, c datahook.Cuisine) error {
	m.cuisines = append(m.cuisines, c)
	return nil
}

func run(t *testing.T, c *cli, line string) string {
	t.Helper()
	var b strings.Builder
	c.out = &b
	c.exec(context.Background(), line)
	return strings.TrimSpace(b.String())
}

func TestCLI(t *testing.T) {
	m := &memStore{stats: map[string]store.RegionStat{}}
	c := &cli{st: m, tax: taxonomy.Default()}

	cases := []struct {
		line, want string
	}{
		{"set CN-SC 42 mapo-tofu,hotpot bg-red", "ok"},
		{"get sichuan", "sichuan -> 42 | mapo-tofu,hotpot | bg-red"},
		{"set 广东 7", "ok"},
		{"get guangdong", "guangdong -> 7"},
		{"set North 300", "ok"},
		{"get north", "north -> 300"},
		{"set atlantis 1", `error: unknown region or subdivision "atlantis"`},
		{"set sichuan -1", "error: count must be a non-negative integer"},
		{"del tibet", "not found"},
		{"del guangdong", "ok"},
		{"cuisine Chuan southwest 40", "ok"},
		{"cuisine Chuan mars 40", "error: unknown region mars"},
		{"flush", "redis disabled"},
		{"bogus", "unknown command"},
	}
	for _, tc := range cases {
		if got := run(t, c, tc.line); got != tc.want {
			t.Errorf("%q: got %q want %q", tc.line, got, tc.want)
		}
	}
	if len(m.cuisines) != 1 || m.cuisines[0].Region != "southwest" {
		t.Fatalf("cuisines = %+v", m.cuisines)
	}
	if c.exec(context.Background(), "exit") {
		t.Fatal("exit should stop the loop")
	}
}
