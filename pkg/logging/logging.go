// Package logging 基于 zerolog 构建结构化日志。
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config 日志配置。
type Config struct {
	// Level：trace、debug、info、warn、error，默认 info
	Level string
	// Format：json 或 console，默认 console
	Format string
	// Output 默认 os.Stderr
	Output io.Writer
}

// New 按配置创建 logger。不修改 zerolog 的全局级别，多个 logger 可以并存。
func New(cfg Config) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	output := cfg.Output
	if cfg.Format == "" || cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel 解析日志级别，无法识别时返回 info。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
