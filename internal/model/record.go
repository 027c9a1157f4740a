// Package model declares the documents stored by the brokerage API.
//
// Each collection is an explicit struct. The `json` tags are the wire
// names, the `bson` tags the stored names (identical on purpose so filters
// and sort fields can be written once), and the `validate` tags the
// declared constraints.
package model

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/trialbroker/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// CollectionCTU holds Clinical Trial Units.
	CollectionCTU = "ctu"

	// CollectionSponsor holds trial sponsors.
	CollectionSponsor = "sponsor"
)

// Collections returns the collection names advertised by schema discovery.
func Collections() []string {
	return []string{CollectionCTU, CollectionSponsor}
}

// Record is implemented by every document type the API persists.
type Record interface {
	validation.Validatable

	// Collection names the store collection the record lives in.
	Collection() string

	// Normalize applies defaults that binding cannot, such as turning
	// explicit nulls into empty lists.
	Normalize()

	// Stamp discards client-supplied metadata and sets creation times.
	Stamp(now time.Time)
}

// Meta is the store-managed part of every record.
type Meta struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Stamp resets the id so the store assigns one, and records now as both
// creation and update time.
func (m *Meta) Stamp(now time.Time) {
	m.ID = primitive.NilObjectID
	m.CreatedAt = now
	m.UpdatedAt = now
}

// storeManaged captures the Meta keys of a request body so they never reach
// Meta. Embedded next to a record, its fields sit shallower than Meta's and
// take the keys.
type storeManaged struct {
	ID        json.RawMessage `json:"id"`
	CreatedAt json.RawMessage `json:"created_at"`
	UpdatedAt json.RawMessage `json:"updated_at"`
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
