package query

import (
	"cmp"
	"reflect"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order is the direction of an in-memory sort.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// UnmarshalParam lets the query binder accept the order in any letter case,
// so "ASC" binds as Ascending. Other values are left for validation.
func (o *Order) UnmarshalParam(param string) error {
	*o = Order(strings.ToLower(strings.TrimSpace(param)))
	return nil
}

const (
	// DefaultLimit is the number of records returned when no limit is given.
	DefaultLimit = 50

	// MaxLimit is the largest accepted limit.
	MaxLimit = 200
)

// Options describes one list request after validation.
type Options struct {
	Filter Filter
	SortBy string
	Order  Order
	Limit  int
}

// Sort orders records in place by the field whose JSON name is field.
// Dotted names reach into nested objects ("budget.per_patient_payment").
//
// Missing, null, empty and false values compare as the number 0. Numbers
// sort before strings when a field mixes both. Records with equal keys keep
// their store order in either direction.
func Sort[T any](records []T, field string, order Order) {
	if field == "" || len(records) < 2 {
		return
	}

	path := strings.Split(field, ".")
	keyed := make([]keyedRecord[T], len(records))
	for i, r := range records {
		keyed[i] = keyedRecord[T]{key: keyOf(reflect.ValueOf(r), path), record: r}
	}

	slices.SortStableFunc(keyed, func(a, b keyedRecord[T]) int {
		c := a.key.compare(b.key)
		if order == Descending {
			return -c
		}
		return c
	})

	for i := range keyed {
		records[i] = keyed[i].record
	}
}

// Truncate returns at most limit records. A non-positive limit returns
// records unchanged.
func Truncate[T any](records []T, limit int) []T {
	if limit <= 0 || len(records) <= limit {
		return records
	}
	return records[:limit]
}

type keyedRecord[T any] struct {
	key    sortKey
	record T
}

// sortKey is a comparable projection of a field value. Numbers rank before
// strings.
type sortKey struct {
	isString bool
	num      float64
	str      string
}

var zeroKey = sortKey{}

func (k sortKey) compare(o sortKey) int {
	if k.isString != o.isString {
		if k.isString {
			return 1
		}
		return -1
	}
	if k.isString {
		return strings.Compare(k.str, o.str)
	}
	return cmp.Compare(k.num, o.num)
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	objectIDType = reflect.TypeOf(primitive.ObjectID{})
)

// keyOf walks path through v using JSON field names.
func keyOf(v reflect.Value, path []string) sortKey {
	for _, name := range path {
		v = indirect(v)
		if !v.IsValid() || v.Kind() != reflect.Struct {
			return zeroKey
		}
		field, ok := fieldByJSONName(v, name)
		if !ok {
			return zeroKey
		}
		v = field
	}
	return scalarKey(indirect(v))
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// fieldByJSONName finds the field tagged with name, descending into
// untagged embedded structs the way encoding/json flattens them.
func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == "-" {
			continue
		}
		if sf.Anonymous && tag == "" {
			embedded := indirect(v.Field(i))
			if embedded.IsValid() && embedded.Kind() == reflect.Struct {
				if f, ok := fieldByJSONName(embedded, name); ok {
					return f, true
				}
			}
			continue
		}
		if tag == "" {
			tag = sf.Name
		}
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func scalarKey(v reflect.Value) sortKey {
	if !v.IsValid() || !v.CanInterface() {
		return zeroKey
	}

	switch v.Type() {
	case timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return zeroKey
		}
		return sortKey{num: float64(t.UnixNano()) / float64(time.Second)}
	case objectIDType:
		oid := v.Interface().(primitive.ObjectID)
		if oid.IsZero() {
			return zeroKey
		}
		return sortKey{isString: true, str: oid.Hex()}
	}

	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return sortKey{num: v.Float()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return sortKey{num: float64(v.Int())}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return sortKey{num: float64(v.Uint())}
	case reflect.Bool:
		if v.Bool() {
			return sortKey{num: 1}
		}
		return zeroKey
	case reflect.String:
		if v.Len() == 0 {
			return zeroKey
		}
		return sortKey{isString: true, str: v.String()}
	default:
		// Lists and nested objects have no scalar ordering.
		return zeroKey
	}
}
