package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ArgError reports an argument that could not be used as the expected type
type ArgError struct {
	Position int
	Want     string
	Value    any
}

func (e *ArgError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("argument %d: expected %s, got null", e.Position+1, e.Want)
	}
	return fmt.Sprintf("argument %d: expected %s, got %T (%v)", e.Position+1, e.Want, e.Value, e.Value)
}

// Number coerces args[i] to float64. Plans carry JSON numbers, counts from
// earlier steps (possibly reloaded from a store as any integer width) and
// occasionally numbers quoted as strings.
func Number(args []any, i int) (float64, error) {
	v := args[i]
	switch n := v.(type) {
	case nil:
		return 0, &ArgError{Position: i, Want: "number", Value: v}
	case float64:
		return n, nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, &ArgError{Position: i, Want: "number", Value: v}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, &ArgError{Position: i, Want: "number", Value: v}
		}
		return f, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, &ArgError{Position: i, Want: "number", Value: v}
}

// Int coerces args[i] to a whole number that fits in an int
func Int(args []any, i int) (int, error) {
	f, err := Number(args, i)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsNaN(f) {
		return 0, &ArgError{Position: i, Want: "integer", Value: args[i]}
	}
	// float64(math.MaxInt) rounds up to 2^63, which is itself out of range
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, &ArgError{Position: i, Want: "integer in range", Value: args[i]}
	}
	return int(f), nil
}

// String returns args[i] as text. Numbers and lists are rendered the way
// they appear in the trace; null is rejected.
func String(args []any, i int) (string, error) {
	v := args[i]
	if v == nil {
		return "", &ArgError{Position: i, Want: "string", Value: nil}
	}
	return Text(v), nil
}

// Text renders any plan value as display text
func Text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case fmt.Stringer:
		return s.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
