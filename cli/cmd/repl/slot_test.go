package repl

import (
	"context"
	"strings"
	"testing"

	"github.com/ardnew/qsplit/query"
)

func TestSlotAt(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		want   slot
	}{
		{"empty", "", 0, slotKey},
		{"key", "fr", 2, slotKey},
		{"value", "from:b", 6, slotValue},
		{"operator_before_colon", "size:g:10", 6, slotOperator},
		{"value_after_operator", "size:gt:1", 9, slotValue},
		{"quoted_value", `a:"x y`, 6, slotValue},
		{"quoted_colon", `a:"x:y" b`, 9, slotKey},
		{"paren_value", "a:(x y", 6, slotValue},
		{"group_start", "a:b (c", 6, slotKey},
		{"after_keyword", "a:b or c", 8, slotKey},
		{"escaped_colon", `t:12\:3`, 7, slotValue},
		{"after_group", "(a:b)c", 6, slotKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slotAt(tt.input, tt.cursor); got != tt.want {
				t.Errorf("slotAt(%q, %d) = %v, want %v", tt.input, tt.cursor, got, tt.want)
			}
		})
	}
}

func TestRenderStatus(t *testing.T) {
	ok := renderStatus(query.Parse(context.Background(), "a:b c:d"))
	if !strings.Contains(ok, "2 distinct leaves") {
		t.Errorf("complete status = %q", ok)
	}

	bad := renderStatus(query.Parse(context.Background(), "a:b subject"))
	if !strings.Contains(bad, "expected ':' at 11") {
		t.Errorf("incomplete status = %q", bad)
	}

	if renderStatus(nil) != "" {
		t.Error("expected empty status for nil result")
	}
}
