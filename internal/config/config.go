package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabaseURL   string
	DatabaseName  string
	GinMode       string
	SessionSecret string
	CORSOrigins   []string
	LogLevel      string
	LogFile       string
}

// LoadDotEnv 读取工作目录下的 .env 文件，文件不存在时静默忽略。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8000")

	listenAddr := env("LISTEN_ADDR", "")
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databaseName := env("DATABASE_NAME", "moodica")

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabaseURL:   env("DATABASE_URL", ""),
		DatabaseName:  databaseName,
		GinMode:       env("GIN_MODE", "release"),
		SessionSecret: env("SESSION_SECRET", "moodica-dev-secret"),
		CORSOrigins:   splitList(env("CORS_ORIGINS", "*")),
		LogLevel:      env("LOG_LEVEL", "info"),
		LogFile:       env("LOG_FILE", ""),
	}
}

// DSN 返回实际使用的数据库连接串；未显式配置时以数据库名作为 sqlite 文件名。
func (c AppConfig) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	name := c.DatabaseName
	if name == "" {
		name = "moodica"
	}
	return name + ".db"
}

// AllowAllOrigins reports whether CORS is left fully open.
func (c AppConfig) AllowAllOrigins() bool {
	if len(c.CORSOrigins) == 0 {
		return true
	}
	for _, origin := range c.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
