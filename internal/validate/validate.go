// Package validate checks decoded JSON/form payloads before they reach the
// service layer. Checks run presence → type → business rule; each helper
// returns the first failure as a *response.AppError.
package validate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/studygrouphub/backend/pkg/response"
)

// DateTimeLayout is the only accepted datetime input format.
const DateTimeLayout = "2006-01-02 15:04:05"

// Payload is a decoded request body or form.
type Payload map[string]interface{}

type Kind string

const (
	KindInt      Kind = "int"
	KindStr      Kind = "str"
	KindDatetime Kind = "datetime"
)

// FieldKind pairs a field with the kind it must coerce to.
type FieldKind struct {
	Field string
	Kind  Kind
}

func Int(field string) FieldKind      { return FieldKind{Field: field, Kind: KindInt} }
func Str(field string) FieldKind      { return FieldKind{Field: field, Kind: KindStr} }
func Datetime(field string) FieldKind { return FieldKind{Field: field, Kind: KindDatetime} }

// RequireFields fails with MissingField naming every absent or falsy field.
func RequireFields(p Payload, fields ...string) error {
	var missing []string
	for _, f := range fields {
		if isFalsy(p[f]) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return response.NewMissingField("缺少必填参数：" + strings.Join(missing, ","))
	}
	return nil
}

// CheckType verifies each present field coerces to its kind, in the order
// given. Absent fields are skipped.
func CheckType(p Payload, checks ...FieldKind) error {
	for _, fk := range checks {
		v, ok := p[fk.Field]
		if !ok || v == nil {
			continue
		}
		var err error
		switch fk.Kind {
		case KindInt:
			_, err = toInt64(v)
		case KindStr:
			_ = strings.TrimSpace(cast.ToString(v))
		case KindDatetime:
			s, isStr := v.(string)
			if !isStr {
				err = fmt.Errorf("not a string")
			} else {
				_, err = time.ParseInLocation(DateTimeLayout, s, time.Local)
			}
		default:
			return response.NewInvalidType(fmt.Sprintf("不支持的参数类型：%s", fk.Kind))
		}
		if err != nil {
			return response.NewInvalidType(fmt.Sprintf("%s必须为%s类型", fk.Field, fk.Kind))
		}
	}
	return nil
}

// CheckLength fails with InvalidLength when the trimmed rune count of value
// is outside [min, max].
func CheckLength(value string, min, max int, label string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min || n > max {
		return response.NewInvalidLength(fmt.Sprintf("%s长度需在%d-%d字之间", label, min, max))
	}
	return nil
}

// IntValue returns field coerced to int64. Call after CheckType.
func IntValue(p Payload, field string) int64 {
	n, _ := toInt64(p[field])
	return n
}

// StrValue returns field as a trimmed string.
func StrValue(p Payload, field string) string {
	return strings.TrimSpace(cast.ToString(p[field]))
}

// ParseInt coerces a single raw value (path or query parameter).
func ParseInt(raw string) (int64, error) {
	return toInt64(raw)
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("nil value")
	case string:
		// base 10 only: a leading zero is not an octal prefix
		return strconv.ParseInt(strings.TrimSpace(x), 10, 64)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		return cast.ToInt64E(x.String())
	default:
		return cast.ToInt64E(v)
	}
}

func isFalsy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	case float32:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case []interface{}:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0
	}
	return false
}
