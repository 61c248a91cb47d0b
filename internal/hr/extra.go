package hr

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Records, users and configuration objects are opaque field bags to the core:
// keys that the Go types do not declare are kept in an Extra map and written
// back unchanged, so data produced by other clients survives a round trip.

var declaredKeysCache sync.Map // reflect.Type -> map[string]bool

// declaredKeys returns the JSON object keys declared by struct type t.
func declaredKeys(t reflect.Type) map[string]bool {
	if cached, ok := declaredKeysCache.Load(t); ok {
		return cached.(map[string]bool)
	}
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		keys[name] = true
	}
	declaredKeysCache.Store(t, keys)
	return keys
}

// decodeWithExtra unmarshals data into v (a pointer to struct) and returns the
// object members that v's type does not declare.
func decodeWithExtra(data []byte, v any) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k := range declaredKeys(reflect.TypeOf(v).Elem()) {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

// encodeWithExtra marshals v and adds the extra members that v does not already emit.
func encodeWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

func cloneExtra(extra map[string]json.RawMessage) map[string]json.RawMessage {
	if extra == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(extra))
	for k, v := range extra {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// mergePatch applies a shallow field replace of patch onto the JSON object in base.
// Keys listed in protected are ignored. Values in patch are marshaled with encoding/json,
// so a nil value clears a nullable field.
func mergePatch(base []byte, patch Fields, protected map[string]bool) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(base, &obj); err != nil {
		return nil, err
	}
	for k, v := range patch {
		if protected[k] {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		obj[k] = raw
	}
	return json.Marshal(obj)
}

func isNullJSON(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
