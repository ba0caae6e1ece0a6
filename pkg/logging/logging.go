// Package logging 提供基于 zerolog 的结构化日志。
//
// 用法：
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	log := logging.With("hybrid")
//	log.Debug().Str("branch", "content").Int("k", 10).Msg("blend")
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置。
type Config struct {
	// Level: trace / debug / info / warn / error，默认 info
	Level string `yaml:"level" env:"LOG_LEVEL"`

	// Format: json / console，默认 json
	Format string `yaml:"format" env:"LOG_FORMAT"`

	// Output 默认 os.Stderr
	Output io.Writer `yaml:"-"`
}

var (
	logger zerolog.Logger
	mu     sync.RWMutex
)

func init() {
	Init(Config{})
}

// Init 初始化全局 logger，可重复调用。
func Init(cfg Config) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	mu.Lock()
	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	mu.Unlock()
}

// L 返回全局 logger。
func L() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With 返回带 component 字段的子 logger。
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// Nop 返回丢弃所有输出的 logger，测试里常用。
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
