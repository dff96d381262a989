package transport

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
)

// IngestRequest is the body of POST /events/ingest. A missing payload is
// recorded as an empty object.
type IngestRequest struct {
	Type    string         `json:"type" validate:"required,max=120"`
	Payload map[string]any `json:"payload"`
}

// EventPayload returns the payload, never nil.
func (r IngestRequest) EventPayload() map[string]any {
	if r.Payload == nil {
		return map[string]any{}
	}
	return r.Payload
}

// RuleEvalRequest is the body of POST /rules/eval.
type RuleEvalRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Decode parses a JSON body into dst, keeping numbers as json.Number so
// integer literals stay integers, and validates the result.
func Decode(body []byte, dst any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return Validate(dst)
}

// Validate runs struct validation and flattens the field errors.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
