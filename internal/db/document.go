package db

import (
	"encoding/json"
	"time"
)

var envelopeFields = []string{"id", "created_at", "updated_at"}

// Document 是存储中的一条记录：信封字段 + 业务字段。
type Document struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    map[string]any
}

// MarshalJSON flattens the envelope and the record fields into one object.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Fields)+len(envelopeFields))
	for key, value := range d.Fields {
		out[key] = value
	}
	out["id"] = d.ID
	out["created_at"] = d.CreatedAt
	out["updated_at"] = d.UpdatedAt
	return json.Marshal(out)
}

// Time 读取业务字段中的时间值，字段缺失或无法解析时返回 false。
func (d Document) Time(field string) (time.Time, bool) {
	raw, ok := d.Fields[field].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SortTime 返回排序用时间：优先使用 field，缺失时回退到 created_at。
func (d Document) SortTime(field string) time.Time {
	if field != "" {
		if t, ok := d.Time(field); ok {
			return t
		}
	}
	return d.CreatedAt
}
