// 包 utils：Redis/Postgres 连接与证书工具，统一环境变量读取
package utils

import (
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"

	"recipe-map/internal/logger"
)

// OpenRedis：使用地址与密码打开 Redis 客户端
// 约束：地址为空时返回 nil，调用方据此关闭缓存层
func OpenRedis(addr, pass string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// OpenRedisFromEnv：从环境变量打开 Redis 客户端，支持 REDIS_DB 选择
// 约束：REDIS_ENABLED=false 或未配置 REDIS_HOST 时返回 nil；REDIS_DB 解析失败时回退到 0
func OpenRedisFromEnv() *redis.Client {
	if os.Getenv("REDIS_ENABLED") == "false" {
		return nil
	}
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		return nil
	}
	addr := host + ":" + envOr("REDIS_PORT", "6379")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, _ := strconv.Atoi(v); n >= 0 {
			db = n
		}
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return OpenRedis(addr, os.Getenv("REDIS_PASS"), db)
}
