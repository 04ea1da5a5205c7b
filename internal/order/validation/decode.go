package validation

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"payloadbridge/internal/domain"
	apperrors "payloadbridge/internal/errors"
)

const orderLinesKey = "orderLines"

var (
	headerFields = jsonFieldNames(reflect.TypeOf(domain.OrderPayload{}))
	lineFields   = jsonFieldNames(reflect.TypeOf(domain.OrderLine{}))
)

// Decode parses a raw order body. Malformed JSON is a bad request; a value
// of the wrong type for a known field is a validation error naming it.
// Field names match exactly: a key that differs from a known field only in
// letter case is ignored.
func Decode(body []byte) (domain.OrderPayload, error) {
	var payload domain.OrderPayload
	err := json.Unmarshal(exactKeys(body), &payload)
	if err == nil {
		return payload, nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return payload, apperrors.NewValidationError(invalidPayloadMessage, apperrors.ValidationDetail{
			Field:   field,
			Message: field + " must be of type " + typeErr.Type.String() + ", got " + typeErr.Value,
		})
	}

	return payload, apperrors.NewBadRequestError("invalid JSON body")
}

// exactKeys drops case-folded aliases of known fields from the header object
// and from every order line. Bodies that are not a JSON object are returned
// unchanged so decoding reports them as usual.
func exactKeys(body []byte) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return body
	}
	dropAliases(obj, headerFields)

	if raw, ok := obj[orderLinesKey]; ok {
		var lines []json.RawMessage
		if err := json.Unmarshal(raw, &lines); err == nil && lines != nil {
			for i, line := range lines {
				var lineObj map[string]json.RawMessage
				if err := json.Unmarshal(line, &lineObj); err != nil || lineObj == nil {
					continue
				}
				dropAliases(lineObj, lineFields)
				if out, err := json.Marshal(lineObj); err == nil {
					lines[i] = out
				}
			}
			if out, err := json.Marshal(lines); err == nil {
				obj[orderLinesKey] = out
			}
		}
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return out
}

func dropAliases(obj map[string]json.RawMessage, known map[string]string) {
	for key := range obj {
		if exact, ok := known[strings.ToLower(key)]; ok && exact != key {
			delete(obj, key)
		}
	}
}

// jsonFieldNames maps the lower-cased JSON name of every field of t,
// including fields promoted from embedded structs, to its exact name.
func jsonFieldNames(t reflect.Type) map[string]string {
	names := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if f.Anonymous && tag == "" && f.Type.Kind() == reflect.Struct {
			for k, v := range jsonFieldNames(f.Type) {
				names[k] = v
			}
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" || name == "-" {
			continue
		}
		names[strings.ToLower(name)] = name
	}
	return names
}
