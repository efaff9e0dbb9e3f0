package v1

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExtensionKind tells which physical column an extension value is stored in.
type ExtensionKind string

const (
	ExtensionInt    ExtensionKind = "int"
	ExtensionFloat  ExtensionKind = "float"
	ExtensionTime   ExtensionKind = "time"
	ExtensionString ExtensionKind = "string"
)

// ExtensionValue is the typed value of a namespaced extension field.
// Exactly one of Int, Float, Time, String is meaningful, as selected by Kind.
type ExtensionValue struct {
	Kind   ExtensionKind
	Int    int64
	Float  decimal.Decimal
	Time   time.Time
	String string
}

// CoerceExtensionValue picks the apparent type of raw text by trying, in order,
// integer, float, timestamp and finally string. The first successful parse wins.
func CoerceExtensionValue(raw string) ExtensionValue {
	trimmed := strings.TrimSpace(raw)

	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return ExtensionValue{Kind: ExtensionInt, Int: i}
	}
	if f, err := decimal.NewFromString(trimmed); err == nil {
		return ExtensionValue{Kind: ExtensionFloat, Float: f}
	}
	if t, err := ParseTimestamp(trimmed); err == nil {
		return ExtensionValue{Kind: ExtensionTime, Time: t}
	}
	return ExtensionValue{Kind: ExtensionString, String: raw}
}

// Text renders the value back to its textual form.
func (v ExtensionValue) Text() string {
	switch v.Kind {
	case ExtensionInt:
		return strconv.FormatInt(v.Int, 10)
	case ExtensionFloat:
		return v.Float.String()
	case ExtensionTime:
		return FormatTimestamp(v.Time)
	default:
		return v.String
	}
}

// MarshalJSON encodes the value as its text; the type is recovered by coercion on decode.
func (v ExtensionValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Text())
}

// UnmarshalJSON accepts a JSON string or number and coerces it.
func (v *ExtensionValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case string:
		*v = CoerceExtensionValue(val)
	case float64:
		*v = CoerceExtensionValue(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		*v = ExtensionValue{Kind: ExtensionString, String: strconv.FormatBool(val)}
	default:
		return fmt.Errorf("extension value must be a string or number, got %T", raw)
	}
	return nil
}

// Extension is a namespaced (name, value) pair attached to an event.
type Extension struct {
	Namespace string         `json:"namespace"`
	Name      string         `json:"name"`
	Value     ExtensionValue `json:"value"`
}

// FieldName is the "<namespace>#<local>" form used by query parameters and storage.
func (e Extension) FieldName() string {
	return ExtensionFieldName(e.Namespace, e.Name)
}

// ExtensionFieldName joins a namespace and local name with '#'.
func ExtensionFieldName(namespace, local string) string {
	return namespace + "#" + local
}

// SplitExtensionFieldName splits "<namespace>#<local>" at the last '#'.
func SplitExtensionFieldName(field string) (namespace, local string, ok bool) {
	idx := strings.LastIndex(field, "#")
	if idx <= 0 || idx == len(field)-1 {
		return "", "", false
	}
	return field[:idx], field[idx+1:], true
}
