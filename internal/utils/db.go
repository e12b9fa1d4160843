package utils

import (
	"database/sql"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// OpenPostgres：按 DSN 打开连接池，供命令行工具显式传参使用
func OpenPostgres(dsn string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	return db, nil
}

// BuildPostgresDSNFromEnv：由 PG_* 环境变量拼装 DSN；PG_DSN 存在时直接使用
func BuildPostgresDSNFromEnv() string {
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		return dsn
	}
	dsn := "postgres://" + envOr("PG_USER", "postgres")
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + envOr("PG_HOST", "localhost") + ":" + envOr("PG_PORT", "5432") + "/" + envOr("PG_DB", "recipemap")
	dsn += "?sslmode=" + envOr("PG_SSLMODE", "disable")
	return dsn
}

func OpenPostgresFromEnv() (*sql.DB, error) {
	return OpenPostgres(BuildPostgresDSNFromEnv(), envInt("PG_MAX_OPEN_CONNS", 10), envInt("PG_MAX_IDLE_CONNS", 5))
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
