package validate

import (
	"testing"

	"github.com/studygrouphub/backend/pkg/response"
)

func TestRequireFields(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		wantErr string
	}{
		{
			name:    "all present",
			payload: Payload{"user_id": float64(1), "contact": "13800138000"},
		},
		{
			name:    "missing both lists every field",
			payload: Payload{},
			wantErr: "缺少必填参数：user_id,contact",
		},
		{
			name:    "falsy values count as missing",
			payload: Payload{"user_id": float64(0), "contact": ""},
			wantErr: "缺少必填参数：user_id,contact",
		},
		{
			name:    "false and empty list are falsy",
			payload: Payload{"user_id": false, "contact": []interface{}{}},
			wantErr: "缺少必填参数：user_id,contact",
		},
		{
			name:    "whitespace string is present",
			payload: Payload{"user_id": "7", "contact": " "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireFields(tt.payload, "user_id", "contact")
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("error = %v, expected %q", err, tt.wantErr)
			}
			if !response.IsKind(err, response.KindMissingField) {
				t.Errorf("expected MissingField kind")
			}
		})
	}
}

func TestCheckType(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		checks  []FieldKind
		wantErr string
	}{
		{"json number", Payload{"group_id": float64(3)}, []FieldKind{Int("group_id")}, ""},
		{"numeric string", Payload{"group_id": " 12 "}, []FieldKind{Int("group_id")}, ""},
		{"leading zero is decimal", Payload{"group_id": "010"}, []FieldKind{Int("group_id")}, ""},
		{"non numeric string", Payload{"group_id": "abc"}, []FieldKind{Int("group_id")}, "group_id必须为int类型"},
		{"decimal string", Payload{"group_id": "1.5"}, []FieldKind{Int("group_id")}, "group_id必须为int类型"},
		{"absent field skipped", Payload{}, []FieldKind{Int("group_id")}, ""},
		{"str always passes", Payload{"name": float64(5)}, []FieldKind{Str("name")}, ""},
		{"valid datetime", Payload{"due": "2025-03-01 08:30:00"}, []FieldKind{Datetime("due")}, ""},
		{"bad datetime", Payload{"due": "2025-03-01T08:30:00"}, []FieldKind{Datetime("due")}, "due必须为datetime类型"},
		{"non string datetime", Payload{"due": float64(1)}, []FieldKind{Datetime("due")}, "due必须为datetime类型"},
		{
			name:    "first failure in given order",
			payload: Payload{"a": "x", "b": "y"},
			checks:  []FieldKind{Int("b"), Int("a")},
			wantErr: "b必须为int类型",
		},
		{"unsupported kind", Payload{"a": "x"}, []FieldKind{{Field: "a", Kind: "float"}}, "不支持的参数类型：float"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckType(tt.payload, tt.checks...)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("error = %v, expected %q", err, tt.wantErr)
			}
			if !response.IsKind(err, response.KindInvalidType) {
				t.Errorf("expected InvalidType kind")
			}
		})
	}
}

func TestCheckLength(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"Algo Study", false},
		{"   ", true},
		{"", true},
		{"算法学习小组", false},
		{"一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十", false},
		{"一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十一", true},
		{"  padded  ", false},
	}

	for _, tt := range tests {
		err := CheckLength(tt.value, 1, 30, "小组名称")
		if (err != nil) != tt.wantErr {
			t.Errorf("CheckLength(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
		}
		if err != nil && err.Error() != "小组名称长度需在1-30字之间" {
			t.Errorf("unexpected message %q", err.Error())
		}
	}
}

func TestValueAccessors(t *testing.T) {
	p := Payload{"id": "42", "n": float64(7), "s": "  hi  "}

	if got := IntValue(p, "id"); got != 42 {
		t.Errorf("IntValue(id) = %d", got)
	}
	if got := IntValue(p, "n"); got != 7 {
		t.Errorf("IntValue(n) = %d", got)
	}
	if got := StrValue(p, "s"); got != "hi" {
		t.Errorf("StrValue(s) = %q", got)
	}
	if got := StrValue(p, "absent"); got != "" {
		t.Errorf("StrValue(absent) = %q", got)
	}
}

func TestParseInt(t *testing.T) {
	if n, err := ParseInt("15"); err != nil || n != 15 {
		t.Errorf("ParseInt(15) = %d, %v", n, err)
	}
	if _, err := ParseInt("x"); err == nil {
		t.Error("ParseInt(x) should fail")
	}
	if _, err := ParseInt(""); err == nil {
		t.Error("ParseInt(\"\") should fail")
	}
}
