package v1

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Query names understood by the repository.
const (
	SimpleEventQuery      = "SimpleEventQuery"
	SimpleMasterDataQuery = "SimpleMasterDataQuery"
)

// ValueKind enumerates the closed set of shapes a query parameter value can take.
type ValueKind int

const (
	KindString ValueKind = iota + 1
	KindStringList
	KindInt
	KindTime
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStringList:
		return "string-list"
	case KindInt:
		return "integer"
	case KindTime:
		return "timestamp"
	}
	return "unknown"
}

// ParamValue is a query parameter value normalized at the API boundary.
// The zero value is the "missing" value.
type ParamValue struct {
	kind ValueKind
	str  string
	list []string
	num  int64
	ts   time.Time
}

func StringValue(s string) ParamValue { return ParamValue{kind: KindString, str: s} }
func ListValue(items ...string) ParamValue { return ParamValue{kind: KindStringList, list: items} }
func IntValue(n int64) ParamValue { return ParamValue{kind: KindInt, num: n} }
func TimeValue(t time.Time) ParamValue { return ParamValue{kind: KindTime, ts: t.UTC()} }
func (v ParamValue) Kind() ValueKind { return v.kind }

// IsMissing reports whether the value is absent or carries nothing usable.
func (v ParamValue) IsMissing() bool {
	switch v.kind {
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindStringList:
		for _, item := range v.list {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
		return true
	case KindInt, KindTime:
		return false
	}
	return true
}

// Strings returns the value as a list. A single string becomes a one-element list;
// a comma separated string is split, matching the EPCIS list encoding in URLs.
func (v ParamValue) Strings() []string {
	switch v.kind {
	case KindStringList:
		out := make([]string, 0, len(v.list))
		for _, item := range v.list {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	case KindString:
		var out []string
		for _, item := range strings.Split(v.str, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	case KindInt:
		return []string{strconv.FormatInt(v.num, 10)}
	case KindTime:
		return []string{FormatTimestamp(v.ts)}
	}
	return nil
}

// Text returns a scalar rendering of the value. Lists must hold exactly one element.
func (v ParamValue) Text() (string, error) {
	switch v.kind {
	case KindString:
		return strings.TrimSpace(v.str), nil
	case KindStringList:
		items := v.Strings()
		if len(items) != 1 {
			return "", fmt.Errorf("expected a single value, got %d", len(items))
		}
		return items[0], nil
	case KindInt:
		return strconv.FormatInt(v.num, 10), nil
	case KindTime:
		return FormatTimestamp(v.ts), nil
	}
	return "", fmt.Errorf("value is missing")
}

// Int returns the value as an integer, parsing textual forms.
func (v ParamValue) Int() (int64, error) {
	if v.kind == KindInt {
		return v.num, nil
	}
	s, err := v.Text()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return n, nil
}

// Time returns the value as an instant, parsing textual forms as ISO-8601.
func (v ParamValue) Time() (time.Time, error) {
	if v.kind == KindTime {
		return v.ts, nil
	}
	s, err := v.Text()
	if err != nil {
		return time.Time{}, err
	}
	return ParseTimestamp(s)
}

// Bool returns the value as a boolean ("true"/"false").
func (v ParamValue) Bool() (bool, error) {
	s, err := v.Text()
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", s)
	}
	return b, nil
}

// NormalizeValue converts a decoded JSON value into a ParamValue.
func NormalizeValue(raw interface{}) (ParamValue, error) {
	switch val := raw.(type) {
	case nil:
		return ParamValue{}, nil
	case string:
		return StringValue(val), nil
	case bool:
		return StringValue(strconv.FormatBool(val)), nil
	case float64:
		if val != float64(int64(val)) {
			// Fractional numbers keep their text; integer parameters reject them on use.
			return StringValue(strconv.FormatFloat(val, 'f', -1, 64)), nil
		}
		return IntValue(int64(val)), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return IntValue(n), nil
		}
		return StringValue(val.String()), nil
	case time.Time:
		return TimeValue(val), nil
	case []string:
		return ListValue(val...), nil
	case []interface{}:
		items := make([]string, 0, len(val))
		for i, item := range val {
			switch it := item.(type) {
			case string:
				items = append(items, it)
			case float64:
				items = append(items, strconv.FormatFloat(it, 'f', -1, 64))
			case bool:
				items = append(items, strconv.FormatBool(it))
			default:
				return ParamValue{}, fmt.Errorf("list element %d has unsupported type %T", i, item)
			}
		}
		return ListValue(items...), nil
	}
	return ParamValue{}, fmt.Errorf("unsupported parameter value type %T", raw)
}

// MarshalJSON renders the value in its natural JSON form.
func (v ParamValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindStringList:
		return json.Marshal(v.list)
	case KindInt:
		return json.Marshal(v.num)
	case KindTime:
		return json.Marshal(FormatTimestamp(v.ts))
	}
	return []byte("null"), nil
}

// UnmarshalJSON normalizes any supported JSON shape.
func (v *ParamValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := NormalizeValue(raw)
	if err != nil {
		return err
	}
	*v = normalized
	return nil
}

// QueryParam is one named parameter of a query definition.
type QueryParam struct {
	Name  string     `json:"name"`
	Value ParamValue `json:"value"`
}

// QueryParams is the ordered parameter list of a query definition.
type QueryParams []QueryParam

// Get returns the first parameter named name.
func (p QueryParams) Get(name string) (ParamValue, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return ParamValue{}, false
}

// Without returns a copy with every parameter named name removed.
func (p QueryParams) Without(name string) QueryParams {
	out := make(QueryParams, 0, len(p))
	for _, param := range p {
		if param.Name != name {
			out = append(out, param)
		}
	}
	return out
}

// With returns a copy with (name, value) appended.
func (p QueryParams) With(name string, value ParamValue) QueryParams {
	out := make(QueryParams, 0, len(p)+1)
	out = append(out, p...)
	return append(out, QueryParam{Name: name, Value: value})
}

// PollRequest is the body of an ad-hoc query.
type PollRequest struct {
	QueryName string      `json:"queryName"`
	Params    QueryParams `json:"params"`
}

// VocabularyElement is a master-data entry with its attributes.
type VocabularyElement struct {
	Type       string            `json:"type"`
	URI        string            `json:"id"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// QueryResults is the result of a poll or of one subscription execution.
type QueryResults struct {
	QueryName          string              `json:"queryName"`
	SubscriptionID     string              `json:"subscriptionID,omitempty"`
	Events             []Event             `json:"events,omitempty"`
	VocabularyElements []VocabularyElement `json:"vocabularyElements,omitempty"`
}

// Len is the number of result records of either kind.
func (r *QueryResults) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Events) + len(r.VocabularyElements)
}
