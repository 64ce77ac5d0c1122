package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 控制日志输出级别与可选的滚动日志文件。
type Options struct {
	Level string
	File  string
}

// New 构造 zap 日志：控制台输出始终开启，配置 File 时额外写入 JSON 滚动文件。
func New(opts Options) (*zap.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			level,
		),
	}

	if path := strings.TrimSpace(opts.File); path != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   path,
				MaxSize:    100, // MB
				MaxBackups: 30,
				MaxAge:     90, // days
			}),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}

func parseLevel(raw string) (zapcore.Level, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return zap.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}
