// Package query builds the predicates and orderings used to list records.
//
// A Filter is a conjunction of conditions built from request parameters.
// It renders to a MongoDB filter document for the real store and can be
// evaluated in-process against decoded documents by the in-memory store,
// following the same matching rules in both places.
package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operator is the comparison applied by a Condition.
type Operator string

const (
	// OpEquals matches documents whose field equals Value. As in MongoDB,
	// an array field matches when one of its elements equals Value.
	OpEquals Operator = "eq"

	// OpContains matches documents whose array field contains Value.
	OpContains Operator = "contains"
)

// Condition is one term of a Filter.
type Condition struct {
	Field    string
	Operator Operator
	Value    string
}

// Filter is an ordered conjunction of conditions. The zero value matches
// every document.
type Filter []Condition

// Equals appends an exact-match condition. An empty value means the
// parameter was not supplied, so the filter is returned unchanged.
func (f Filter) Equals(field, value string) Filter {
	if value == "" {
		return f
	}
	return append(f, Condition{Field: field, Operator: OpEquals, Value: value})
}

// Contains appends a membership condition on a list field. An empty value
// leaves the filter unchanged.
func (f Filter) Contains(field, value string) Filter {
	if value == "" {
		return f
	}
	return append(f, Condition{Field: field, Operator: OpContains, Value: value})
}

// BSON renders the filter as a MongoDB query document.
//
//	city=Austin, expertise=Oncology -> {city: "Austin", trial_expertise: {$in: ["Oncology"]}}
//
// The result is never nil, so it can be handed to the driver directly.
func (f Filter) BSON() bson.D {
	doc := bson.D{}
	for _, c := range f {
		switch c.Operator {
		case OpContains:
			doc = append(doc, bson.E{Key: c.Field, Value: bson.D{{Key: "$in", Value: bson.A{c.Value}}}})
		default:
			doc = append(doc, bson.E{Key: c.Field, Value: c.Value})
		}
	}
	return doc
}

// Match evaluates the filter against a decoded document.
func (f Filter) Match(doc map[string]interface{}) bool {
	for _, c := range f {
		value, ok := lookup(doc, c.Field)
		if !ok || !matchesValue(value, c.Value) {
			return false
		}
	}
	return true
}

// lookup resolves a dotted path ("timelines.hrec_to_siteinit_days") in a
// decoded document.
func lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = doc
	for _, key := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			current = next
		case primitive.M:
			next, ok := node[key]
			if !ok {
				return nil, false
			}
			current = next
		case primitive.D:
			found := false
			for _, e := range node {
				if e.Key == key {
					current, found = e.Value, true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return current, true
}

// matchesValue compares a stored value with a query string. Arrays match
// when any element matches.
func matchesValue(stored interface{}, want string) bool {
	switch v := stored.(type) {
	case string:
		return v == want
	case primitive.A:
		return anyMatches(v, want)
	case []interface{}:
		return anyMatches(v, want)
	case []string:
		for _, s := range v {
			if s == want {
				return true
			}
		}
	}
	return false
}

func anyMatches(values []interface{}, want string) bool {
	for _, item := range values {
		if s, ok := item.(string); ok && s == want {
			return true
		}
	}
	return false
}
