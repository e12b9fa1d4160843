package migrate

import (
	"database/sql"

	"recipe-map/internal/logger"
)

// 背景：首次运行自动创建统计与菜系表，保障数据钩子与管理工具可直接使用
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _region_stats (
            name TEXT PRIMARY KEY,
            count INT NOT NULL DEFAULT 0 CHECK (count >= 0),
            specialties TEXT[] NOT NULL DEFAULT '{}',
            color_class TEXT NOT NULL DEFAULT '',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_region_stats_updated ON _region_stats(updated_at DESC)`,
		`CREATE TABLE IF NOT EXISTS _cuisines (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            region TEXT NOT NULL,
            recipe_count INT NOT NULL DEFAULT 0
        )`,
		`CREATE INDEX IF NOT EXISTS idx_cuisines_region ON _cuisines(region)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
