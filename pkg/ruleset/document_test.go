package ruleset

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mercator-hq/basicrules/pkg/rules"
)

const pricingYAML = `
name: pricing
rules:
  - name: discount
    description: Members spending at least 100
    expression:
      and:
        - {param: [user.member]}
        - {gte: [{param: [cart.total]}, 100]}
  - name: shipping
    expression:
      add: [{dparam: [cart.shipping, 5]}, 2]
`

func TestDecode_YAML(t *testing.T) {
	set, err := Decode([]byte(pricingYAML), FormatYAML, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if set.Name() != "pricing" {
		t.Errorf("Name() = %q, want %q", set.Name(), "pricing")
	}
	if diff := cmp.Diff([]string{"discount", "shipping"}, set.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	discount, ok := set.Get("discount")
	if !ok {
		t.Fatal("expected discount rule")
	}
	if discount.Description != "Members spending at least 100" {
		t.Errorf("unexpected description %q", discount.Description)
	}
	want := rules.And(rules.Param("user.member"), rules.Gte(rules.Param("cart.total"), 100))
	if !discount.Expression.Equal(want) {
		t.Errorf("expression = %s, want %s", discount.Expression, want)
	}

	shipping, _ := set.Get("shipping")
	got, err := shipping.Expression.Evaluate(map[string]any{"cart": map[string]any{}})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got != int64(7) {
		t.Errorf("shipping = %#v, want int64(7)", got)
	}
}

func TestDecode_JSON(t *testing.T) {
	doc := `{"rules": [{"name": "ratio", "expression": {"divide": [{"param": ["a"]}, 4]}}]}`
	set, err := Decode([]byte(doc), FormatJSON, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if set.Name() != "" {
		t.Errorf("expected unnamed ruleset, got %q", set.Name())
	}

	r, _ := set.Get("ratio")
	got, err := r.Expression.Evaluate(map[string]any{"a": int64(9)})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if got != int64(2) {
		t.Errorf("ratio = %#v, want int64(2)", got)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		format  Format
		wantErr func(error) bool
		wantMsg string
	}{
		{
			name:    "invalid YAML",
			doc:     "rules: [",
			format:  FormatYAML,
			wantErr: isParseError,
		},
		{
			name:    "invalid JSON",
			doc:     "{",
			format:  FormatJSON,
			wantErr: isParseError,
		},
		{
			name:    "empty document",
			doc:     "",
			format:  FormatYAML,
			wantErr: isParseError,
		},
		{
			name:    "unknown key",
			doc:     "rulez: []",
			format:  FormatYAML,
			wantErr: isParseError,
			wantMsg: "rulez",
		},
		{
			name:    "missing name",
			doc:     "rules: [{expression: {not: [true]}}]",
			format:  FormatYAML,
			wantErr: isRuleError,
			wantMsg: "name is required",
		},
		{
			name:    "missing expression",
			doc:     "rules: [{name: a}]",
			format:  FormatYAML,
			wantErr: isRuleError,
			wantMsg: "expression is required",
		},
		{
			name:    "literal expression",
			doc:     "rules: [{name: a, expression: 5}]",
			format:  FormatYAML,
			wantErr: func(err error) bool { return errors.Is(err, rules.ErrNotANode) },
		},
		{
			name:   "arity error",
			doc:    "rules: [{name: a, expression: {or: [true]}}]",
			format: FormatYAML,
			wantErr: func(err error) bool {
				var arity *rules.ArityError
				return errors.As(err, &arity)
			},
		},
		{
			name:    "duplicate names",
			doc:     "rules: [{name: a, expression: {not: [true]}}, {name: a, expression: {not: [false]}}]",
			format:  FormatYAML,
			wantErr: isDuplicateError,
		},
		{
			name:   "several invalid rules",
			doc:    "rules: [{name: a}, {name: b}]",
			format: FormatYAML,
			wantErr: func(err error) bool {
				var list *ErrorList
				return errors.As(err, &list) && len(list.Errors) == 2
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), tt.format, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.wantErr(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestFromDocument_CustomRegistry(t *testing.T) {
	registry := rules.NewRegistry()
	registry.Register(rules.KindNot)

	// unregistered keys stay literal, so the root is not a node
	_, err := FromDocument(map[string]any{
		"rules": []any{map[string]any{"name": "a", "expression": map[string]any{"equals": []any{1, 1}}}},
	}, registry)
	if !errors.Is(err, rules.ErrNotANode) {
		t.Fatalf("expected ErrNotANode, got %v", err)
	}

	set, err := FromDocument(map[string]any{
		"rules": []any{map[string]any{"name": "a", "expression": map[string]any{"not": []any{false}}}},
	}, registry)
	if err != nil {
		t.Fatalf("FromDocument() error = %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	set, err := Decode([]byte(pricingYAML), FormatYAML, nil)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	for _, format := range []Format{FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			data, err := set.Encode(format)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			again, err := Decode(data, format, nil)
			if err != nil {
				t.Fatalf("Decode() of encoded document error = %v\n%s", err, data)
			}
			if again.Name() != set.Name() {
				t.Errorf("Name() = %q, want %q", again.Name(), set.Name())
			}
			for _, r := range set.Rules() {
				got, ok := again.Get(r.Name)
				if !ok {
					t.Fatalf("rule %q lost in round trip", r.Name)
				}
				// JSON widens integer literals to int64, so compare call forms
				if got.Expression.String() != r.Expression.String() {
					t.Errorf("rule %q: %s != %s", r.Name, got.Expression, r.Expression)
				}
				if got.Description != r.Description {
					t.Errorf("rule %q description %q != %q", r.Name, got.Description, r.Description)
				}
			}
		})
	}
}

func TestFormats(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"rules.json", FormatJSON},
		{"RULES.JSON", FormatJSON},
		{"rules.yaml", FormatYAML},
		{"rules.yml", FormatYAML},
		{"rules", FormatYAML},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}

	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %q, %v", f, err)
	}
	if _, err := ParseFormat("toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func isParseError(err error) bool {
	var perr *ParseError
	return errors.As(err, &perr)
}

func isRuleError(err error) bool {
	var rerr *RuleError
	return errors.As(err, &rerr)
}

func isDuplicateError(err error) bool {
	var derr *DuplicateRuleError
	return errors.As(err, &derr)
}
