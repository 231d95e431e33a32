package model

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/entwire/entwire/pkg/schema"
)

// ValidationError reports a payload that does not match its shape: a missing
// required field, an unknown field, or a value of the wrong type. Recoverable;
// surfaced to the caller and kept distinct from authorization and referential
// failures.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Validate checks payload against the shape and coerces every value into its
// canonical Go representation (int64, float64, string, bool, time.Time, or a
// JSON-encoded string). Unknown fields are rejected. For the update shape all
// fields are optional, so an empty payload validates to an empty map.
func (s *Shape) Validate(payload map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(payload))
	for name := range payload {
		if s.Field(name) == nil {
			return nil, &ValidationError{Field: name, Reason: "unknown field"}
		}
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		raw, present := payload[f.Name]
		if !present {
			if f.Required {
				return nil, &ValidationError{Field: f.Name, Reason: "required field missing"}
			}
			continue
		}
		if raw == nil {
			if f.Required {
				return nil, &ValidationError{Field: f.Name, Reason: "must not be null"}
			}
			out[f.Name] = nil
			continue
		}
		v, err := CoerceValue(f.Type, raw)
		if err != nil {
			return nil, &ValidationError{Field: f.Name, Reason: err.Error()}
		}
		if f.MaxLength > 0 {
			if str, ok := v.(string); ok && len(str) > f.MaxLength {
				return nil, &ValidationError{Field: f.Name, Reason: fmt.Sprintf("longer than %d characters", f.MaxLength)}
			}
		}
		out[f.Name] = v
	}
	return out, nil
}

// CoerceValue converts a JSON-decoded value into the canonical representation
// for the given field type.
func CoerceValue(t schema.FieldType, v any) (any, error) {
	switch t {
	case schema.TypeInteger:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("expected integer, got %v", n)
			}
			return int64(n), nil
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		case json.Number:
			return n.Int64()
		}
		return nil, fmt.Errorf("expected integer, got %T", v)
	case schema.TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		}
		return nil, fmt.Errorf("expected number, got %T", v)
	case schema.TypeString, schema.TypeText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case schema.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", v)
		}
		return b, nil
	case schema.TypeDatetime:
		s, ok := v.(string)
		if !ok {
			if ts, isTime := v.(time.Time); isTime {
				return ts, nil
			}
			return nil, fmt.Errorf("expected RFC 3339 datetime string, got %T", v)
		}
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("invalid datetime %q", s)
		}
		return ts, nil
	case schema.TypeDate:
		s, ok := v.(string)
		if !ok {
			if ts, isTime := v.(time.Time); isTime {
				return ts, nil
			}
			return nil, fmt.Errorf("expected date string, got %T", v)
		}
		ts, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", s)
		}
		return ts, nil
	case schema.TypeJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("not JSON-encodable: %v", err)
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("unsupported type %q", t)
	}
}
