// 包 store: 提供与 PostgreSQL 的数据访问层，包含大区/城市菜谱统计与菜系列表的读写
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"recipe-map/internal/datahook"
	"recipe-map/internal/logger"
)

// Store: 数据库访问入口，持有连接池；同时作为数据钩子的 Postgres 数据源
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

var ErrNotFound = errors.New("store: not found")

var _ datahook.Source = (*Store)(nil)

// RegionStat: 一条统计记录（名称为大区 id、大区名或省份规范名）
type RegionStat struct {
	Name        string
	Count       int
	Specialties []string
	ColorClass  string
}

func (s *Store) Name() string { return "postgres" }

// Fetch: 读取全部统计与菜系，组装为数据钩子载荷
func (s *Store) Fetch(ctx context.Context) (*datahook.Payload, error) {
	stats, err := s.ListRegions(ctx, 0)
	if err != nil {
		return nil, err
	}
	p := &datahook.Payload{Regions: make(map[string]datahook.RegionEntry, len(stats))}
	for _, st := range stats {
		p.Regions[st.Name] = datahook.RegionEntry{Count: st.Count, Specialties: st.Specialties, ColorClass: st.ColorClass}
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region, recipe_count FROM _cuisines ORDER BY recipe_count DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("store: query cuisines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c datahook.Cuisine
		var id int64
		if err := rows.Scan(&id, &c.Name, &c.Region, &c.RecipeCount); err != nil {
			return nil, fmt.Errorf("store: scan cuisine: %w", err)
		}
		c.ID = fmt.Sprint(id)
		p.Cuisines = append(p.Cuisines, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_fetch_done", "regions", len(p.Regions), "cuisines", len(p.Cuisines))
	return p, nil
}

// UpsertRegion: 写入或覆盖一条统计
func (s *Store) UpsertRegion(ctx context.Context, st RegionStat) error {
	name := strings.ToLower(strings.TrimSpace(st.Name))
	if name == "" {
		return errors.New("store: empty region name")
	}
	if st.Count < 0 {
		return errors.New("store: negative count")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _region_stats(name, count, specialties, color_class)
        VALUES($1,$2,$3,$4)
        ON CONFLICT (name) DO UPDATE SET count=EXCLUDED.count, specialties=EXCLUDED.specialties, color_class=EXCLUDED.color_class, updated_at=now()`,
		name, st.Count, pq.Array(st.Specialties), st.ColorClass,
	)
	return err
}

// GetRegion: 读取单条统计
func (s *Store) GetRegion(ctx context.Context, name string) (*RegionStat, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, count, specialties, color_class FROM _region_stats WHERE name=$1`, strings.ToLower(strings.TrimSpace(name)))
	var st RegionStat
	if err := row.Scan(&st.Name, &st.Count, pq.Array(&st.Specialties), &st.ColorClass); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// DeleteRegion: 删除单条统计
func (s *Store) DeleteRegion(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM _region_stats WHERE name=$1`, strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRegions: 按更新时间倒序列出统计；limit<=0 表示不限
func (s *Store) ListRegions(ctx context.Context, limit int) ([]RegionStat, error) {
	q := `SELECT name, count, specialties, color_class FROM _region_stats ORDER BY updated_at DESC, name`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, q+` LIMIT $1`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("store: query region stats: %w", err)
	}
	defer rows.Close()
	var out []RegionStat
	for rows.Next() {
		var st RegionStat
		if err := rows.Scan(&st.Name, &st.Count, pq.Array(&st.Specialties), &st.ColorClass); err != nil {
			return nil, fmt.Errorf("store: scan region stat: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// UpsertCuisine: 写入或覆盖一条菜系
func (s *Store) UpsertCuisine(ctx context.Context, c datahook.Cuisine) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO _cuisines(name, region, recipe_count)
        VALUES($1,$2,$3)
        ON CONFLICT (name) DO UPDATE SET region=EXCLUDED.region, recipe_count=EXCLUDED.recipe_count`,
		c.Name, c.Region, c.RecipeCount,
	)
	return err
}
