package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	ierr "github.com/relabs-tech/crudkit/core/errors"
)

// Memory is a store which keeps all documents in process memory. Identifiers
// are UUIDs.
type Memory struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memoryCollection)}
}

// Collection implements Store
func (m *Memory) Collection(ctx context.Context, name string) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		c = &memoryCollection{name: name, unique: make(map[string]bool)}
		m.collections[name] = c
	}
	return c, nil
}

// Close implements Store
func (m *Memory) Close(ctx context.Context) error {
	return nil
}

type memoryCollection struct {
	name   string
	mu     sync.RWMutex
	docs   []Document
	unique map[string]bool
}

// normalize deep copies doc into its JSON representation, numbers become float64
func normalize(doc Document) (Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var result Document
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = Document{}
	}
	return result, nil
}

func checkMemoryID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &ierr.CastError{Field: IDField, Value: id, Err: err}
	}
	return nil
}

func (c *memoryCollection) Name() string {
	return c.name
}

func (c *memoryCollection) EnsureUnique(ctx context.Context, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.docs {
		v, ok := lookup(c.docs[i], field)
		if !ok || v == nil {
			continue
		}
		for j := i + 1; j < len(c.docs); j++ {
			if w, ok := lookup(c.docs[j], field); ok && equal(v, w) {
				return &ierr.DuplicateKeyError{Field: field, Value: v}
			}
		}
	}
	c.unique[field] = true
	return nil
}

// checkUnique must be called with the lock held. skip is the index of the document
// being updated, or -1.
func (c *memoryCollection) checkUnique(doc Document, skip int) error {
	for field := range c.unique {
		v, ok := lookup(doc, field)
		if !ok || v == nil {
			continue
		}
		for i, other := range c.docs {
			if i == skip {
				continue
			}
			if w, ok := lookup(other, field); ok && equal(v, w) {
				return &ierr.DuplicateKeyError{Field: field, Value: v}
			}
		}
	}
	return nil
}

func (c *memoryCollection) indexOf(id string) int {
	for i, doc := range c.docs {
		if doc[IDField] == id {
			return i
		}
	}
	return -1
}

func (c *memoryCollection) Insert(ctx context.Context, doc Document) (Document, error) {
	stored, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	stored[IDField] = uuid.NewString()
	stored[VersionField] = float64(0)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUnique(stored, -1); err != nil {
		return nil, err
	}
	c.docs = append(c.docs, stored)
	return normalize(stored)
}

func (c *memoryCollection) matching(filter Filter) ([]Document, error) {
	conditions, err := filter.Conditions()
	if err != nil {
		return nil, err
	}
	var result []Document
	for _, doc := range c.docs {
		if Match(doc, conditions) {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (c *memoryCollection) Find(ctx context.Context, query Query) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	docs, err := c.matching(query.Filter)
	if err != nil {
		return nil, err
	}
	if len(query.Sort) > 0 {
		sort.SliceStable(docs, func(i, j int) bool {
			return query.Sort.Less(docs[i], docs[j])
		})
	}
	if query.Skip >= len(docs) {
		return []Document{}, nil
	}
	if query.Skip > 0 {
		docs = docs[query.Skip:]
	}
	if query.Limit > 0 && query.Limit < len(docs) {
		docs = docs[:query.Limit]
	}
	result := make([]Document, 0, len(docs))
	for _, doc := range docs {
		d, err := normalize(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

func (c *memoryCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	docs, err := c.matching(filter)
	return int64(len(docs)), err
}

func (c *memoryCollection) FindByID(ctx context.Context, id string) (Document, error) {
	if err := checkMemoryID(id); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	return normalize(c.docs[i])
}

func (c *memoryCollection) UpdateByID(ctx context.Context, id string, set Document) (Document, error) {
	if err := checkMemoryID(id); err != nil {
		return nil, err
	}
	changes, err := normalize(set)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	updated, err := normalize(c.docs[i])
	if err != nil {
		return nil, err
	}
	for k, v := range changes {
		if k == IDField || k == VersionField {
			continue
		}
		updated[k] = v
	}
	version, _ := toFloat(updated[VersionField])
	updated[VersionField] = version + 1
	if err := c.checkUnique(updated, i); err != nil {
		return nil, err
	}
	c.docs[i] = updated
	return normalize(updated)
}

func (c *memoryCollection) DeleteByID(ctx context.Context, id string) (Document, error) {
	if err := checkMemoryID(id); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	doc := c.docs[i]
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return doc, nil
}
