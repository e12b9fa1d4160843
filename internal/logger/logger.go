// 包 logger：统一初始化与获取日志器，避免各模块重复配置；通过环境变量控制日志级别与输出格式
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// 默认日志器：在进程级复用，避免多处初始化导致输出不一致
var defaultLogger *slog.Logger

// Setup：按 LOG_LEVEL / LOG_FORMAT 初始化默认日志器并输出到标准错误
func Setup() *slog.Logger {
	return SetupWith(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// SetupWith：指定输出目标、级别与格式初始化默认日志器
// 背景：主入口使用配置层解析后的值；测试可传入缓冲区断言日志内容
// 约束：未知级别回退 info，未知格式回退 text
func SetupWith(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	defaultLogger = slog.New(h)
	return defaultLogger
}

// ParseLevel：解析日志级别文本
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// L：获取默认日志器
// 背景：为业务代码提供快捷访问；若未初始化则回退到 Setup
func L() *slog.Logger {
	if defaultLogger == nil {
		return Setup()
	}
	return defaultLogger
}
