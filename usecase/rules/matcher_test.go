package rules

import (
	"reflect"
	"testing"

	"github.com/fastygo/liveassist/domain"
)

func rule(id int64, trigger string, action domain.ActionKind, params map[string]any, active bool) domain.Rule {
	return domain.Rule{ID: id, OwnerID: 1, Trigger: trigger, Action: action, Params: params, Active: active}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		rules []domain.Rule
		want  []domain.ActionSpec
	}{
		{
			name:  "empty text",
			text:  "",
			rules: []domain.Rule{rule(1, "pin", domain.ActionPinProduct, nil, true)},
			want:  []domain.ActionSpec{},
		},
		{
			name:  "case-insensitive containment",
			text:  "show me the PIN offer",
			rules: []domain.Rule{rule(1, "pin", domain.ActionPinProduct, map[string]any{"product_id": 7}, true)},
			want:  []domain.ActionSpec{{"action": "pin_product", "product_id": 7}},
		},
		{
			name:  "not anchored to words",
			text:  "spinning",
			rules: []domain.Rule{rule(1, "pin", domain.ActionReply, map[string]any{"text": "hi"}, true)},
			want:  []domain.ActionSpec{{"action": "reply", "text": "hi"}},
		},
		{
			name:  "inactive rule skipped",
			text:  "price please",
			rules: []domain.Rule{rule(1, "price", domain.ActionReply, map[string]any{"text": "10"}, false)},
			want:  []domain.ActionSpec{},
		},
		{
			name: "empty trigger never matches",
			text: "anything at all",
			rules: []domain.Rule{
				rule(1, "", domain.ActionReply, map[string]any{"text": "x"}, true),
				rule(2, "   ", domain.ActionReply, map[string]any{"text": "y"}, true),
			},
			want: []domain.ActionSpec{},
		},
		{
			name: "overlapping rules fan out without dedup",
			text: "how much is the price",
			rules: []domain.Rule{
				rule(1, "price", domain.ActionReply, map[string]any{"text": "a"}, true),
				rule(2, "much", domain.ActionReply, map[string]any{"text": "b"}, true),
				rule(3, "price", domain.ActionReply, map[string]any{"text": "a"}, true),
			},
			want: []domain.ActionSpec{
				{"action": "reply", "text": "a"},
				{"action": "reply", "text": "b"},
				{"action": "reply", "text": "a"},
			},
		},
		{
			name:  "action key wins over params",
			text:  "hello",
			rules: []domain.Rule{rule(1, "hello", domain.ActionReply, map[string]any{"action": "pin_product", "text": "hey"}, true)},
			want:  []domain.ActionSpec{{"action": "reply", "text": "hey"}},
		},
		{
			name:  "stored trigger is re-normalized",
			text:  "Buy NOW",
			rules: []domain.Rule{rule(1, " Now ", domain.ActionReply, map[string]any{"text": "go"}, true)},
			want:  []domain.ActionSpec{{"action": "reply", "text": "go"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.text, tt.rules)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestMatch_OutputBoundedAndOrdered(t *testing.T) {
	rules := []domain.Rule{
		rule(10, "b", domain.ActionReply, map[string]any{"text": "second"}, true),
		rule(5, "a", domain.ActionReply, map[string]any{"text": "first"}, true),
		rule(7, "c", domain.ActionReply, map[string]any{"text": "off"}, false),
		rule(8, "", domain.ActionReply, map[string]any{"text": "empty"}, true),
	}

	got := Match("abc", rules)

	if len(got) > 2 {
		t.Fatalf("got %d actions, want at most 2 (active rules with trigger)", len(got))
	}
	if got[0]["text"] != "second" || got[1]["text"] != "first" {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestMatch_Idempotent(t *testing.T) {
	rules := []domain.Rule{
		rule(1, "hi", domain.ActionReply, map[string]any{"text": "hello"}, true),
		rule(2, "pin", domain.ActionPinProduct, map[string]any{"product_id": 3}, true),
	}
	first := Match("hi, pin it", rules)
	second := Match("hi, pin it", rules)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Match is not deterministic: %v vs %v", first, second)
	}
}

func TestMatch_DoesNotAliasParams(t *testing.T) {
	params := map[string]any{"text": "hello"}
	rules := []domain.Rule{rule(1, "hi", domain.ActionReply, params, true)}

	got := Match("hi", rules)
	got[0]["text"] = "changed"

	if params["text"] != "hello" {
		t.Errorf("rule params mutated through action spec: %v", params)
	}
	if _, ok := params["action"]; ok {
		t.Errorf("action key leaked into rule params")
	}
}
