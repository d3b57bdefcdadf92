package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// stepArgs are YAML-decoded step arguments.
type stepArgs map[string]any

func (a stepArgs) string(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("args.%s is required", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("args.%s: expected string, got %T", key, v)
	}
	return s, nil
}

func (a stepArgs) optString(key, def string) string {
	if s, ok := a[key].(string); ok {
		return s
	}
	return def
}

func (a stepArgs) optInt(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("args.%s: expected integer, got %T", key, v)
	}
	return n, nil
}

// decodeJSON converts a YAML-decoded value into dst by way of JSON.
// A YAML null becomes a JSON null, which is how metadata patches express
// Clear. Unknown fields are rejected.
func decodeJSON(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// normalize converts v to its generic JSON form with numbers kept as
// json.Number, so YAML ints and Go integers compare equal.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
