// Package store is the client's only gateway to persisted documents.
// Three implementations share one contract: Remote speaks the hosted
// platform's REST protocol, Postgres backs self-hosted deployments,
// and Memory serves tests and offline development.
//
// Calls are at-least-once per invocation and there is no atomicity
// across documents; callers that need multi-document consistency have
// to build it themselves (see services.Submit).
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultPageSize is how many documents List returns when no limit
// query is given, matching the hosted platform's default.
const DefaultPageSize = 25

// Document is a stored record plus the system fields every backend
// maintains on its own.
type Document struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Data      map[string]any
}

// DocumentList is one page of results. Total counts every match, not
// just the page.
type DocumentList struct {
	Total     int
	Documents []Document
}

type Op string

const (
	OpEqual        Op = "equal"
	OpGreaterEqual Op = "greaterEqual"
	OpOrderAsc     Op = "orderAsc"
	OpOrderDesc    Op = "orderDesc"
	OpLimit        Op = "limit"
)

// System attributes addressable in queries alongside document data.
const (
	AttrCreatedAt = "$createdAt"
	AttrUpdatedAt = "$updatedAt"
)

// Query is a single filter, ordering, or paging instruction.
type Query struct {
	Op        Op
	Attribute string
	Values    []any
	Count     int
}

// Equal matches documents whose attribute equals any of the given
// values.
func Equal(attribute string, values ...any) Query {
	return Query{Op: OpEqual, Attribute: attribute, Values: values}
}

func GreaterEqual(attribute string, value any) Query {
	return Query{Op: OpGreaterEqual, Attribute: attribute, Values: []any{value}}
}

func OrderAsc(attribute string) Query {
	return Query{Op: OpOrderAsc, Attribute: attribute}
}

func OrderDesc(attribute string) Query {
	return Query{Op: OpOrderDesc, Attribute: attribute}
}

func Limit(n int) Query {
	return Query{Op: OpLimit, Count: n}
}

// Store is the remote document store adapter.
type Store interface {
	List(ctx context.Context, collection string, queries ...Query) (*DocumentList, error)
	Create(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
}

var (
	ErrNotFound = errors.New("store: document not found")
	// ErrConflict reports that a create violated a uniqueness
	// constraint owned by the backend.
	ErrConflict = errors.New("store: document conflict")
)

// RemoteError preserves the backend's own message so callers can show
// it verbatim.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("store: %s (status %d)", e.Message, e.Status)
}

func (e *RemoteError) Unwrap() error {
	switch e.Status {
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	}
	return nil
}

// NewID returns a fresh client-generated document identifier.
func NewID() string {
	return uuid.NewString()
}

// Decode copies a document's attributes into a typed value by JSON
// field name. System fields are not part of the data; callers copy
// them off the Document.
func Decode(doc Document, v any) error {
	b, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document data: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// Encode flattens a typed value into document attributes.
func Encode(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode attributes: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return data, nil
}
