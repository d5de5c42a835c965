package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store with the same filter, ordering, and
// paging semantics as the remote backends. Tests run against it, and
// it doubles as an offline development backend.
type Memory struct {
	mu     sync.Mutex
	seq    int
	docs   map[string][]*memDoc        // collection -> insertion order
	unique map[string][][]string       // collection -> attribute sets
	now    func() time.Time
}

type memDoc struct {
	doc Document
	seq int
}

func NewMemory() *Memory {
	return &Memory{
		docs:   map[string][]*memDoc{},
		unique: map[string][][]string{},
		now:    time.Now,
	}
}

// AddUnique registers a uniqueness constraint over the given
// attributes, mirroring an index the real backend would own. Create
// returns ErrConflict when a document with the same values exists.
func (m *Memory) AddUnique(collection string, attributes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unique[collection] = append(m.unique[collection], attributes)
}

func (m *Memory) List(ctx context.Context, collection string, queries ...Query) (*DocumentList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matches []*memDoc
	for _, d := range m.docs[collection] {
		if matchesAll(d.doc, queries) {
			matches = append(matches, d)
		}
	}

	// Stable ordering: requested orderings first, insertion order as
	// the final tiebreak.
	orders := orderQueries(queries)
	sort.SliceStable(matches, func(i, j int) bool {
		for _, q := range orders {
			c := compareValues(attrValue(matches[i].doc, q.Attribute), attrValue(matches[j].doc, q.Attribute))
			if c == 0 {
				continue
			}
			if q.Op == OpOrderDesc {
				return c > 0
			}
			return c < 0
		}
		return matches[i].seq < matches[j].seq
	})

	limit := DefaultPageSize
	for _, q := range queries {
		if q.Op == OpLimit && q.Count > 0 {
			limit = q.Count
		}
	}

	list := &DocumentList{Total: len(matches)}
	for i, d := range matches {
		if i >= limit {
			break
		}
		list.Documents = append(list.Documents, cloneDoc(d.doc))
	}
	return list, nil
}

func (m *Memory) Create(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = NewID()
	}
	for _, d := range m.docs[collection] {
		if d.doc.ID == id {
			return nil, fmt.Errorf("document %s already exists: %w", id, ErrConflict)
		}
	}

	normalized, err := normalize(data)
	if err != nil {
		return nil, err
	}
	if err := m.checkUnique(collection, id, normalized); err != nil {
		return nil, err
	}

	now := m.now()
	m.seq++
	doc := Document{ID: id, CreatedAt: now, UpdatedAt: now, Data: normalized}
	m.docs[collection] = append(m.docs[collection], &memDoc{doc: doc, seq: m.seq})
	out := cloneDoc(doc)
	return &out, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.find(collection, id)
	if d == nil {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}

	normalized, err := normalize(data)
	if err != nil {
		return nil, err
	}
	// Partial update: provided attributes merge over the stored ones.
	merged := map[string]any{}
	for k, v := range d.doc.Data {
		merged[k] = v
	}
	for k, v := range normalized {
		merged[k] = v
	}
	if err := m.checkUnique(collection, id, merged); err != nil {
		return nil, err
	}

	d.doc.Data = merged
	d.doc.UpdatedAt = m.now()
	out := cloneDoc(d.doc)
	return &out, nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	docs := m.docs[collection]
	for i, d := range docs {
		if d.doc.ID == id {
			m.docs[collection] = append(docs[:i:i], docs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("document %s: %w", id, ErrNotFound)
}

func (m *Memory) find(collection, id string) *memDoc {
	for _, d := range m.docs[collection] {
		if d.doc.ID == id {
			return d
		}
	}
	return nil
}

func (m *Memory) checkUnique(collection, id string, data map[string]any) error {
	for _, attrs := range m.unique[collection] {
		for _, d := range m.docs[collection] {
			if d.doc.ID == id {
				continue
			}
			same := true
			for _, attr := range attrs {
				if compareValues(d.doc.Data[attr], data[attr]) != 0 {
					same = false
					break
				}
			}
			if same {
				return fmt.Errorf("unique constraint on (%s): %w", strings.Join(attrs, ", "), ErrConflict)
			}
		}
	}
	return nil
}

func matchesAll(doc Document, queries []Query) bool {
	for _, q := range queries {
		switch q.Op {
		case OpEqual:
			hit := false
			for _, v := range q.Values {
				nv, err := normalizeValue(v)
				if err == nil && compareValues(attrValue(doc, q.Attribute), nv) == 0 {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		case OpGreaterEqual:
			if len(q.Values) == 0 {
				return false
			}
			nv, err := normalizeValue(q.Values[0])
			if err != nil || compareValues(attrValue(doc, q.Attribute), nv) < 0 {
				return false
			}
		}
	}
	return true
}

func orderQueries(queries []Query) []Query {
	var orders []Query
	for _, q := range queries {
		if q.Op == OpOrderAsc || q.Op == OpOrderDesc {
			orders = append(orders, q)
		}
	}
	return orders
}

func attrValue(doc Document, attribute string) any {
	switch attribute {
	case AttrCreatedAt:
		return doc.CreatedAt
	case AttrUpdatedAt:
		return doc.UpdatedAt
	case "$id":
		return doc.ID
	}
	return doc.Data[attribute]
}

// compareValues orders two JSON-normalized values. Values of
// different types are never equal; they order by type name so sorting
// stays deterministic. nil sorts first.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if ta, tb := fmt.Sprintf("%T", a), fmt.Sprintf("%T", b); ta != tb {
		return strings.Compare(ta, tb)
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1
			case av.After(bv):
				return 1
			}
			return 0
		}
	}
	return 0
}

func normalize(data map[string]any) (map[string]any, error) {
	out, err := Encode(data)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	wrapped, err := Encode(map[string]any{"v": v})
	if err != nil {
		return nil, err
	}
	return wrapped["v"], nil
}

func cloneDoc(doc Document) Document {
	data := make(map[string]any, len(doc.Data))
	for k, v := range doc.Data {
		data[k] = v
	}
	doc.Data = data
	return doc
}
