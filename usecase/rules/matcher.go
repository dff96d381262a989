package rules

import (
	"strings"

	"github.com/fastygo/liveassist/domain"
)

// Match evaluates text against rules and returns one ActionSpec per matching
// rule, in rule order. A rule matches when its trigger is a substring of the
// lower-cased text. Inactive rules and rules with an empty trigger never match.
func Match(text string, rules []domain.Rule) []domain.ActionSpec {
	if text == "" {
		return []domain.ActionSpec{}
	}

	normalized := strings.ToLower(text)
	actions := make([]domain.ActionSpec, 0)

	for _, rule := range rules {
		if !rule.Active {
			continue
		}
		trigger := domain.NormalizeTrigger(rule.Trigger)
		if trigger == "" || !strings.Contains(normalized, trigger) {
			continue
		}

		spec := make(domain.ActionSpec, len(rule.Params)+1)
		for k, v := range rule.Params {
			spec[k] = v
		}
		spec["action"] = string(rule.Action)
		actions = append(actions, spec)
	}

	return actions
}
