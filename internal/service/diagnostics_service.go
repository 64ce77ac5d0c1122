package service

import (
	"context"
	"unicode/utf8"
)

const (
	maxDiagnosticCollections = 10
	maxDiagnosticErrorRunes  = 50
)

// StoreProbe 是诊断接口需要的存储能力。
type StoreProbe interface {
	Available() bool
	Collections(ctx context.Context, limit int) ([]string, error)
}

// DiagnosticsReport 面向运维，可包含截断后的错误信息。
type DiagnosticsReport struct {
	Backend          string   `json:"backend"`
	Database         string   `json:"database"`
	DatabaseURL      string   `json:"database_url"`
	DatabaseName     string   `json:"database_name"`
	ConnectionStatus string   `json:"connection_status"`
	Collections      []string `json:"collections"`
}

// DiagnosticsService 汇总后端与存储的运行状态。
type DiagnosticsService struct {
	store      StoreProbe
	startupErr error
	getenv     func(string) string
}

// NewDiagnosticsService 构造 DiagnosticsService；startupErr 为启动时连接失败的原因。
func NewDiagnosticsService(store StoreProbe, startupErr error, getenv func(string) string) *DiagnosticsService {
	return &DiagnosticsService{store: store, startupErr: startupErr, getenv: getenv}
}

// Report 生成诊断报告，任何存储错误都只体现在报告里，不会向上抛出。
func (s *DiagnosticsService) Report(ctx context.Context) DiagnosticsReport {
	report := DiagnosticsReport{
		Backend:          "✅ Running",
		Database:         "❌ Not Available",
		DatabaseURL:      envStatus(s.getenv, "DATABASE_URL"),
		DatabaseName:     envStatus(s.getenv, "DATABASE_NAME"),
		ConnectionStatus: "Not Connected",
		Collections:      []string{},
	}

	if s.store == nil || !s.store.Available() {
		if s.startupErr != nil {
			report.Database = "❌ Error: " + truncateRunes(s.startupErr.Error(), maxDiagnosticErrorRunes)
		}
		return report
	}

	report.Database = "✅ Available"
	report.ConnectionStatus = "Connected"

	collections, err := s.store.Collections(ctx, maxDiagnosticCollections)
	if err != nil {
		report.Database = "⚠️  Connected but Error: " + truncateRunes(err.Error(), maxDiagnosticErrorRunes)
		return report
	}
	report.Collections = collections
	report.Database = "✅ Connected & Working"
	return report
}

func envStatus(getenv func(string) string, key string) string {
	if getenv != nil && getenv(key) != "" {
		return "✅ Set"
	}
	return "❌ Not Set"
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
