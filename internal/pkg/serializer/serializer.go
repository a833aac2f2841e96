package serializer

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Serializer renders arbitrary payloads to JSON with a hard depth bound and
// an optional field allow-list. Values past the depth bound are replaced with
// a marker instead of recursing, so cyclic or deeply nested payloads cannot
// blow up log/activity storage.
type Serializer struct {
	maxDepth      int
	allowedFields map[string]bool
}

const truncatedMarker = "[truncated]"

func NewSerializer(maxDepth int, allowedFields []string) *Serializer {
	var allow map[string]bool
	if len(allowedFields) > 0 {
		allow = make(map[string]bool, len(allowedFields))
		for _, f := range allowedFields {
			allow[f] = true
		}
	}

	return &Serializer{
		maxDepth:      maxDepth,
		allowedFields: allow,
	}
}

func (s *Serializer) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(s.sanitize(reflect.ValueOf(v), 0))
}

func (s *Serializer) allowed(field string) bool {
	if s.allowedFields == nil {
		return true
	}
	return s.allowedFields[field]
}

func (s *Serializer) sanitize(v reflect.Value, depth int) interface{} {
	if !v.IsValid() {
		return nil
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return s.sanitize(v.Elem(), depth)
	}

	if depth >= s.maxDepth {
		return truncatedMarker
	}

	switch v.Kind() {
	case reflect.Map:
		out := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key := fmt.Sprintf("%v", iter.Key().Interface())
			if !s.allowed(key) {
				continue
			}
			out[key] = s.sanitize(iter.Value(), depth+1)
		}
		return out

	case reflect.Struct:
		t := v.Type()
		out := make(map[string]interface{}, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" {
				continue // unexported
			}
			name := field.Name
			if tag, ok := field.Tag.Lookup("json"); ok && tag != "" && tag != "-" {
				name = tag
				for j, c := range tag {
					if c == ',' {
						name = tag[:j]
						break
					}
				}
			}
			if !s.allowed(name) {
				continue
			}
			out[name] = s.sanitize(v.Field(i), depth+1)
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, s.sanitize(v.Index(i), depth+1))
		}
		return out

	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Sprintf("[%s]", v.Kind())

	default:
		return v.Interface()
	}
}
