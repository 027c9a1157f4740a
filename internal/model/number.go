package model

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Float is a float64 that decodes from a JSON number or a numeric string,
// so "7" and 7 both give 7.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	v, ok := parseNumber(data)
	if !ok {
		return typeError(data, reflect.TypeOf(*f))
	}

	*f = Float(v)
	return nil
}

// Int is an int that decodes from a JSON integer, an integral number such
// as 5.0, or a numeric string.
type Int int

func (i *Int) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	text, ok := numberText(data)
	if !ok {
		return typeError(data, reflect.TypeOf(*i))
	}

	if n, err := strconv.ParseInt(text, 10, strconv.IntSize); err == nil {
		*i = Int(n)
		return nil
	}

	v, ok := parseNumber(data)
	if !ok || v != math.Trunc(v) || v < math.MinInt || v >= math.MaxInt {
		return typeError(data, reflect.TypeOf(*i))
	}

	*i = Int(v)
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// numberText returns the number a JSON value spells, unquoting strings.
func numberText(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", false
	}

	if data[0] != '"' {
		return string(data), data[0] == '-' || (data[0] >= '0' && data[0] <= '9')
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func parseNumber(data []byte) (float64, bool) {
	text, ok := numberText(data)
	if !ok {
		return 0, false
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// typeError reports data the way encoding/json reports a mismatch, so the
// decoder fills in the field path.
func typeError(data []byte, t reflect.Type) error {
	data = bytes.TrimSpace(data)

	value := "number " + string(data)
	if len(data) > 0 {
		switch data[0] {
		case '"':
			value = "string"
		case 't', 'f':
			value = "bool"
		case '[':
			value = "array"
		case '{':
			value = "object"
		}
	}

	return &json.UnmarshalTypeError{Value: value, Type: t}
}
