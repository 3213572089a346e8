package components

import "testing"

func TestParseSearchQuery(t *testing.T) {
	tests := []struct {
		input    string
		pattern  string
		kind     nodeKind
	}{
		{"orders", "orders", kindAny},
		{"t:orders", "orders", kindTable},
		{"table:orders", "orders", kindTable},
		{"s:public", "public", kindSchema},
		{"col:id", "id", kindColumn},
		{"d:app", "app", kindDatabase},
		{"engine:pg", "pg", kindEngine},
		{"", "", kindAny},
	}

	for _, tt := range tests {
		q := ParseSearchQuery(tt.input)
		if q.Pattern != tt.pattern {
			t.Errorf("ParseSearchQuery(%q).Pattern = %q, want %q", tt.input, q.Pattern, tt.pattern)
		}
		if q.KindFilter != tt.kind {
			t.Errorf("ParseSearchQuery(%q).KindFilter = %d, want %d", tt.input, q.KindFilter, tt.kind)
		}
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		pattern string
		target  string
		want    bool
	}{
		{"", "anything", true},
		{"usr", "users", true},
		{"USERS", "users", true},
		{"sreu", "users", false},
		{"orders", "ord", false},
		{"oi", "order_items", true},
	}

	for _, tt := range tests {
		got, _ := FuzzyMatch(tt.pattern, tt.target)
		if got != tt.want {
			t.Errorf("FuzzyMatch(%q, %q) = %v, want %v", tt.pattern, tt.target, got, tt.want)
		}
	}
}

func TestFuzzyMatch_Positions(t *testing.T) {
	ok, positions := FuzzyMatch("or", "order")
	if !ok {
		t.Fatal("expected match")
	}
	if len(positions) != 2 || positions[0] != 0 || positions[1] != 1 {
		t.Errorf("unexpected positions: %v", positions)
	}
}

func TestMatchesQuery_StatusRowsNeverMatch(t *testing.T) {
	n := &treeNode{kind: kindStatus, name: "loading…"}
	if matchesQuery(n, ParseSearchQuery("loading")) {
		t.Error("status rows must not participate in search")
	}
}
