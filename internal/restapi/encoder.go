package restapi

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"
)

const (
	datetimeFormat = "2006-01-02 15:04:05"
	dateFormat     = "2006-01-02"
)

// Date is a calendar day without a time component. It serializes as
// YYYY-MM-DD, unlike time.Time which serializes with a time part.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(dateFormat)
}

// enumValuer is implemented by enum-like types that serialize as their
// underlying scalar value.
type enumValuer interface {
	EnumValue() int
}

// hideFielder is implemented by records that exclude fields from API
// output entirely, e.g. password hashes.
type hideFielder interface {
	HideFields() []string
}

// maskFielder is implemented by records whose listed fields serialize as
// a boolean presence flag instead of the raw value. This is how secrets
// like a second factor are exposed without leaking the secret itself.
type maskFielder interface {
	MaskFields() []string
}

// extraFielder is implemented by records that add computed fields to
// their serialized form.
type extraFielder interface {
	ExtraFields() map[string]any
}

// EncodeData converts a value using the serialization rules without
// wrapping it in a response envelope. Callers outside the dispatcher
// use it to share the field hiding and masking behavior.
func EncodeData(v any) (any, error) {
	return encodeValue(v)
}

// MarshalResponse serializes a Response to JSON, optionally indented.
func MarshalResponse(resp *Response, pretty bool) ([]byte, error) {
	tree, err := encodeResponse(resp)
	if err != nil {
		return nil, err
	}
	if pretty {
		return json.MarshalIndent(tree, "", "    ")
	}
	return json.Marshal(tree)
}

// encodeResponse turns a Response into a JSON-safe map. Error responses
// carry only the error fields; successful responses carry data, with
// pagination fields only for resource sets.
func encodeResponse(resp *Response) (map[string]any, error) {
	out := map[string]any{
		"type":    resp.Type.EnumValue(),
		"success": resp.Success,
	}

	if !resp.Success {
		out["error_code"] = resp.ErrorCode
		out["error_message"] = ""
		if resp.ErrorMessage != "" {
			out["error_message"] = resp.ErrorMessage
		}
	} else {
		data, err := encodeValue(resp.Data)
		if err != nil {
			return nil, err
		}
		out["data"] = data
		if resp.Type == ResponseTypeResourceSet {
			out["page"] = resp.Page
			out["limit"] = resp.Limit
			out["total_items"] = resp.TotalItems
			out["last_page"] = resp.LastPage
		}
	}

	out["runtime"] = math.Round(resp.Runtime*1000) / 1000
	return out, nil
}

// encodeValue recursively turns an arbitrary handler-supplied value into
// a JSON-safe one. Unrecognized types are a serialization error, which
// surfaces as a 500.
func encodeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return val, nil
	case time.Time:
		return val.Format(datetimeFormat), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return val.Format(datetimeFormat), nil
	case Date:
		return val.String(), nil
	case json.RawMessage:
		return val, nil
	case sql.NullString:
		if !val.Valid {
			return nil, nil
		}
		return val.String, nil
	case sql.NullTime:
		if !val.Valid {
			return nil, nil
		}
		return val.Time.Format(datetimeFormat), nil
	case sql.NullInt64:
		if !val.Valid {
			return nil, nil
		}
		return val.Int64, nil
	case sql.NullBool:
		if !val.Valid {
			return nil, nil
		}
		return val.Bool, nil
	}

	if ev, ok := v.(enumValuer); ok {
		return ev.EnumValue(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return encodeValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			item, err := encodeValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, ok := iter.Key().Interface().(string)
			if !ok {
				return nil, fmt.Errorf("unserializable map key of type %T", iter.Key().Interface())
			}
			item, err := encodeValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[key] = item
		}
		return out, nil
	case reflect.Struct:
		return encodeRecord(v, rv)
	}

	return nil, fmt.Errorf("unserializable object of type %T", v)
}

// encodeRecord turns a record-like struct into a map of its persistent
// fields, keyed by the db tag sqlx uses. Fields in the record's hide
// list are dropped, fields in its mask list become presence booleans,
// and extra computed fields are merged in.
func encodeRecord(v any, rv reflect.Value) (any, error) {
	rt := rv.Type()

	hidden := map[string]bool{}
	if hf, ok := v.(hideFielder); ok {
		for _, name := range hf.HideFields() {
			hidden[name] = true
		}
	}
	masked := map[string]bool{}
	if mf, ok := v.(maskFielder); ok {
		for _, name := range mf.MaskFields() {
			masked[name] = true
		}
	}

	out := map[string]any{}
	tagged := false
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		tagged = true
		if hidden[tag] {
			continue
		}
		if masked[tag] {
			out[tag] = !rv.Field(i).IsZero()
			continue
		}
		encoded, err := encodeValue(rv.Field(i).Interface())
		if err != nil {
			return nil, err
		}
		out[tag] = encoded
	}

	// A struct without db tags is not a record we know how to encode.
	if !tagged {
		return nil, fmt.Errorf("unserializable object of type %T", v)
	}

	if ef, ok := v.(extraFielder); ok {
		for name, value := range ef.ExtraFields() {
			encoded, err := encodeValue(value)
			if err != nil {
				out[name] = nil
				continue
			}
			out[name] = encoded
		}
	}

	return out, nil
}
