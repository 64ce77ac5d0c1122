// Package schema defines the validation contract for every record kind the
// API accepts. Validation is pure: it never touches the store.
package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Constraint names reported in violations.
const (
	ConstraintRequired = "required"
	ConstraintNotNull  = "not_null"
	ConstraintType     = "type"
	ConstraintMin      = "min"
	ConstraintMax      = "max"
	ConstraintEnum     = "enum"
	ConstraintInvalid  = "invalid"
)

// ErrUnknownKind 在请求的记录类型未注册时返回。
var ErrUnknownKind = errors.New("unknown record kind")

// Violation describes one failed constraint on one field.
type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Value      any    `json:"value"`
	Message    string `json:"message"`
}

// ValidationError 汇总一次校验中的全部字段错误。
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the names of the violated fields in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

// Record 是通过校验、可直接持久化的类型化记录。
type Record interface {
	RecordKind() Kind
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate 将原始请求体转换为指定类型的记录；失败时返回 *ValidationError。
// now 用于填充服务端默认值（例如心情记录的日期）。
func Validate(kind Kind, payload map[string]any, now time.Time) (Record, error) {
	desc, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	r := newReader(payload)
	record := desc.decode(r, now)
	r.check(record)

	if len(r.violations) > 0 {
		return nil, &ValidationError{Violations: r.violations}
	}
	return record, nil
}

// check runs the struct tag constraints, skipping fields the reader already rejected.
func (r *reader) check(record Record) {
	defer r.checkOverflow()

	err := validate.Struct(record)
	if err == nil {
		return
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		r.violations = append(r.violations, Violation{
			Field:      "body",
			Constraint: ConstraintInvalid,
			Message:    err.Error(),
		})
		return
	}

	for _, fe := range fieldErrors {
		field := fe.Field()
		if r.rejected[field] {
			continue
		}
		constraint, message := describe(fe)
		r.reject(field, constraint, message)
	}
}

// checkOverflow reports integers outside the int32 range that no other constraint caught.
func (r *reader) checkOverflow() {
	fields := make([]string, 0, len(r.overflow))
	for field := range r.overflow {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	for _, field := range fields {
		if r.rejected[field] {
			continue
		}
		if r.overflow[field] == ConstraintMax {
			r.reject(field, ConstraintMax, fmt.Sprintf("must be less than or equal to %d", math.MaxInt32))
			continue
		}
		r.reject(field, ConstraintMin, fmt.Sprintf("must be greater than or equal to %d", math.MinInt32))
	}
}

func describe(fe validator.FieldError) (string, string) {
	sized := fe.Kind() == reflect.String || fe.Kind() == reflect.Slice
	switch fe.Tag() {
	case "gte":
		return ConstraintMin, "must be greater than or equal to " + fe.Param()
	case "lte":
		return ConstraintMax, "must be less than or equal to " + fe.Param()
	case "min":
		if fe.Kind() == reflect.Slice {
			return ConstraintMin, "must contain at least " + fe.Param() + " item(s)"
		}
		if sized {
			return ConstraintMin, "must be at least " + fe.Param() + " character(s)"
		}
		return ConstraintMin, "must be greater than or equal to " + fe.Param()
	case "max":
		if sized {
			return ConstraintMax, "must be at most " + fe.Param() + " characters"
		}
		return ConstraintMax, "must be less than or equal to " + fe.Param()
	case "oneof":
		return ConstraintEnum, "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return fe.Tag(), "failed " + fe.Tag() + " check"
	}
}
