package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// reader 按字段读取原始请求体，负责必填、类型、null 与默认值检查。
// 约束检查（范围、长度、枚举）交给 validator 完成。
type reader struct {
	payload    map[string]any
	violations []Violation
	rejected   map[string]bool
	// 超出 int32 的整数先截断交给 validator，未被其它约束拦下时再报告范围错误
	overflow map[string]string
}

func newReader(payload map[string]any) *reader {
	if payload == nil {
		payload = map[string]any{}
	}
	return &reader{payload: payload, rejected: map[string]bool{}, overflow: map[string]string{}}
}

func (r *reader) reject(field, constraint, message string) {
	value := r.payload[field]
	r.violations = append(r.violations, Violation{
		Field:      field,
		Constraint: constraint,
		Value:      value,
		Message:    message,
	})
	r.rejected[field] = true
}

// lookup returns the raw value and whether the key is present with a non-null value.
func (r *reader) lookup(field string, required, nullable bool) (any, bool) {
	raw, present := r.payload[field]
	if !present {
		if required {
			r.reject(field, ConstraintRequired, "field required")
		}
		return nil, false
	}
	if raw == nil {
		if !nullable {
			r.reject(field, ConstraintNotNull, "must not be null")
		}
		return nil, false
	}
	return raw, true
}

func (r *reader) str(field string, required bool) (string, bool) {
	raw, ok := r.lookup(field, required, false)
	if !ok {
		return "", false
	}
	s, isString := raw.(string)
	if !isString {
		r.reject(field, ConstraintType, "must be a string")
		return "", false
	}
	return s, true
}

func (r *reader) requiredString(field string) string {
	s, _ := r.str(field, true)
	return s
}

func (r *reader) stringOr(field, fallback string) string {
	if _, present := r.payload[field]; !present {
		return fallback
	}
	s, _ := r.str(field, false)
	return s
}

func (r *reader) optionalString(field string) *string {
	raw, ok := r.lookup(field, false, true)
	if !ok {
		return nil
	}
	s, isString := raw.(string)
	if !isString {
		r.reject(field, ConstraintType, "must be a string")
		return nil
	}
	return &s
}

type intResult int

const (
	intOK intResult = iota
	intNotInteger
	intTooLarge
	intTooSmall
)

// toInt 接受整数值（包括 5.0 这类整值浮点数），超出 int32 时返回截断后的边界值。
func toInt(raw any) (int, intResult) {
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInt(n)
		}
		f, err := v.Float64()
		if err != nil && !isRangeErr(err) {
			return 0, intNotInteger
		}
		return integralFloat(f)
	case float64:
		return integralFloat(v)
	case int:
		return clampInt(int64(v))
	case int64:
		return clampInt(v)
	default:
		return 0, intNotInteger
	}
}

func (r *reader) integer(field string, raw any) (int, bool) {
	n, result := toInt(raw)
	switch result {
	case intNotInteger:
		r.reject(field, ConstraintType, "must be an integer")
		return 0, false
	case intTooLarge:
		r.overflow[field] = ConstraintMax
	case intTooSmall:
		r.overflow[field] = ConstraintMin
	}
	return n, true
}

func (r *reader) requiredInt(field string) int {
	raw, ok := r.lookup(field, true, false)
	if !ok {
		return 0
	}
	n, _ := r.integer(field, raw)
	return n
}

func (r *reader) optionalInt(field string) *int {
	raw, ok := r.lookup(field, false, true)
	if !ok {
		return nil
	}
	n, isInt := r.integer(field, raw)
	if !isInt {
		return nil
	}
	return &n
}

func (r *reader) list(field string, raw any) ([]string, bool) {
	items, isList := raw.([]any)
	if !isList {
		if typed, ok := raw.([]string); ok {
			return append([]string{}, typed...), true
		}
		r.reject(field, ConstraintType, "must be a list of strings")
		return nil, false
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, isString := item.(string)
		if !isString {
			r.reject(field, ConstraintType, fmt.Sprintf("item %d must be a string", i))
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func (r *reader) requiredStringList(field string) []string {
	raw, ok := r.lookup(field, true, false)
	if !ok {
		return nil
	}
	out, _ := r.list(field, raw)
	return out
}

// stringListOrEmpty 缺省时为空列表，显式 null 时保留 null。
func (r *reader) stringListOrEmpty(field string) []string {
	if _, present := r.payload[field]; !present {
		return []string{}
	}
	return r.optionalStringList(field)
}

func (r *reader) optionalStringList(field string) []string {
	raw, ok := r.lookup(field, false, true)
	if !ok {
		return nil
	}
	out, _ := r.list(field, raw)
	return out
}

func (r *reader) optionalTime(field string) *time.Time {
	raw, ok := r.lookup(field, false, true)
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case time.Time:
		return &v
	case string:
		if t, parsed := parseTime(v); parsed {
			return &t
		}
		r.reject(field, ConstraintType, "must be an ISO 8601 datetime")
		return nil
	default:
		r.reject(field, ConstraintType, "must be an ISO 8601 datetime")
		return nil
	}
}

func parseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func integralFloat(f float64) (int, intResult) {
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, intNotInteger
	}
	switch {
	case f > math.MaxInt32:
		return math.MaxInt32, intTooLarge
	case f < math.MinInt32:
		return math.MinInt32, intTooSmall
	}
	return int(f), intOK
}

func clampInt(n int64) (int, intResult) {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32, intTooLarge
	case n < math.MinInt32:
		return math.MinInt32, intTooSmall
	}
	return int(n), intOK
}

func isRangeErr(err error) bool {
	var numErr *strconv.NumError
	return errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange)
}
