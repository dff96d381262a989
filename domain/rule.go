package domain

import (
	"fmt"
	"strings"
)

// ActionKind names what a rule does when its trigger fires.
type ActionKind string

const (
	ActionReply      ActionKind = "reply"
	ActionPinProduct ActionKind = "pin_product"
)

// Valid reports whether the kind is one the pipeline knows how to dispatch.
func (k ActionKind) Valid() bool {
	return k == ActionReply || k == ActionPinProduct
}

// Rule binds a lower-cased trigger substring to an action for one owner.
type Rule struct {
	ID      int64          `json:"id"`
	OwnerID int64          `json:"user_id"`
	Trigger string         `json:"trigger"`
	Action  ActionKind     `json:"action"`
	Params  map[string]any `json:"params_json"`
	Active  bool           `json:"active"`
}

// NormalizeTrigger trims and lower-cases a trigger.
func NormalizeTrigger(trigger string) string {
	return strings.ToLower(strings.TrimSpace(trigger))
}

// NewRule validates raw rule input and returns a normalized Rule.
func NewRule(ownerID int64, trigger, action string, params map[string]any, active bool) (Rule, error) {
	normalized := NormalizeTrigger(trigger)
	if normalized == "" {
		return Rule{}, WrapError(ErrCodeInvalid, ErrInvalidRule.Message, fmt.Errorf("trigger must not be empty"))
	}
	kind := ActionKind(strings.ToLower(strings.TrimSpace(action)))
	if !kind.Valid() {
		return Rule{}, WrapError(ErrCodeInvalid, ErrInvalidRule.Message, fmt.Errorf("unsupported action %q", action))
	}
	if params == nil {
		params = map[string]any{}
	}
	return Rule{
		OwnerID: ownerID,
		Trigger: normalized,
		Action:  kind,
		Params:  params,
		Active:  active,
	}, nil
}
