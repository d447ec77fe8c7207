package store

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Op int

const (
	OpEqual Op = iota
	OpArrayContains
)

// Query is a single-field predicate over a collection.
type Query struct {
	Field string
	Op    Op
	Value interface{}
}

func Where(field string, op Op, value interface{}) Query {
	return Query{Field: field, Op: op, Value: value}
}

// Matches evaluates the predicate against a decoded document.
func (q Query) Matches(doc map[string]interface{}) bool {
	v, ok := lookup(doc, q.Field)
	if !ok {
		return false
	}
	switch q.Op {
	case OpEqual:
		return v == q.Value
	case OpArrayContains:
		switch arr := v.(type) {
		case []interface{}:
			return containsValue(arr, q.Value)
		case primitive.A:
			return containsValue(arr, q.Value)
		case []string:
			for _, e := range arr {
				if e == q.Value {
					return true
				}
			}
		}
	}
	return false
}

// filter renders the predicate as a Mongo filter; equality on an array
// field matches any element, which is exactly array-contains.
func (q Query) filter() bson.M {
	return bson.M{q.Field: q.Value}
}

func containsValue(arr []interface{}, want interface{}) bool {
	for _, e := range arr {
		if e == want {
			return true
		}
	}
	return false
}

func lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case map[string]interface{}:
		return m, true
	case bson.M:
		return m, true
	}
	return nil, false
}
