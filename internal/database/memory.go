package database

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/deppfellow/trialbroker/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is a Store that keeps BSON documents in process memory.
//
// Documents go through the same BSON encoding as the Mongo driver, so
// records round-trip with the same field names and types. Data lives only
// as long as the process.
type Memory struct {
	name string

	mu          sync.RWMutex
	names       []string
	collections map[string][]bson.Raw
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store reporting name as its database.
func NewMemory(name string) *Memory {
	return &Memory{
		name:        name,
		collections: make(map[string][]bson.Raw),
	}
}

func (m *Memory) Name() string {
	return m.name
}

// InsertOne encodes doc, assigns an ObjectID when doc has no _id and
// appends it to collection, creating the collection on first use.
func (m *Memory) InsertOne(ctx context.Context, collection string, doc any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	var fields bson.D
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}

	var id any
	for _, field := range fields {
		if field.Key == "_id" {
			id = field.Value
			break
		}
	}
	if id == nil {
		oid := primitive.NewObjectID()
		id = oid
		fields = append(bson.D{{Key: "_id", Value: oid}}, fields...)
		if raw, err = bson.Marshal(fields); err != nil {
			return "", fmt.Errorf("encode document: %w", err)
		}
	}

	m.mu.Lock()
	if _, ok := m.collections[collection]; !ok {
		m.names = append(m.names, collection)
	}
	m.collections[collection] = append(m.collections[collection], raw)
	m.mu.Unlock()

	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(id), nil
}

// Find decodes the documents of collection matching filter into results,
// in insertion order.
func (m *Memory) Find(ctx context.Context, collection string, filter query.Filter, results any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := reflect.ValueOf(results)
	if out.Kind() != reflect.Ptr || out.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("results argument must be a pointer to a slice, got %T", results)
	}

	m.mu.RLock()
	docs := m.collections[collection]
	m.mu.RUnlock()

	sliceType := out.Elem().Type()
	elemType := sliceType.Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}

	matched := reflect.MakeSlice(sliceType, 0, len(docs))
	for _, raw := range docs {
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		if !filter.Match(doc) {
			continue
		}

		elem := reflect.New(elemType)
		if err := bson.Unmarshal(raw, elem.Interface()); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		if isPtr {
			matched = reflect.Append(matched, elem)
		} else {
			matched = reflect.Append(matched, elem.Elem())
		}
	}

	out.Elem().Set(matched)
	return nil
}

// ListCollectionNames returns the collections in creation order.
func (m *Memory) ListCollectionNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.names))
	copy(names, m.names)
	return names, nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close(context.Context) error {
	return nil
}
