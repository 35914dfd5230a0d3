// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taxonomy/internal/models"
)

// MemoryCategoryStore keeps the category graph in process memory. It honors
// the same contract as CategoryStore and is used for tests and for running
// the CLI without a database.
type MemoryCategoryStore struct {
	mu       sync.RWMutex
	nodes    map[string]models.Category
	children map[string]map[string]string // parent -> child -> relation type
	parents  map[string]map[string]struct{}
	now      func() time.Time
}

var _ CategoryRepository = (*MemoryCategoryStore)(nil)

// NewMemoryCategoryStore returns an empty MemoryCategoryStore.
func NewMemoryCategoryStore() *MemoryCategoryStore {
	return &MemoryCategoryStore{
		nodes:    make(map[string]models.Category),
		children: make(map[string]map[string]string),
		parents:  make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// Save inserts c when its id is unknown and replaces the stored row otherwise.
func (s *MemoryCategoryStore) Save(_ context.Context, c *models.Category) (*models.Category, error) {
	if err := prepareSave(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row := *c
	row.Children = nil
	row.Depth = 0
	now := s.now()
	if existing, ok := s.nodes[row.ID]; ok {
		row.CreatedAt = existing.CreatedAt
	} else {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	s.nodes[row.ID] = row

	c.CreatedAt, c.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return &row, nil
}

// Find returns the category with the given id, or nil.
func (s *MemoryCategoryStore) Find(_ context.Context, id string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// FindByKey returns a category with the given key, or nil.
func (s *MemoryCategoryStore) FindByKey(_ context.Context, key string) (*models.Category, error) {
	return s.findFirst(func(c models.Category) bool { return c.Key == key }), nil
}

// FindByName returns a category with the given name, or nil.
func (s *MemoryCategoryStore) FindByName(_ context.Context, name string) (*models.Category, error) {
	return s.findFirst(func(c models.Category) bool { return c.Name == name }), nil
}

// FindByVariableName returns a category with the given variable name, or nil.
func (s *MemoryCategoryStore) FindByVariableName(_ context.Context, varName string) (*models.Category, error) {
	return s.findFirst(func(c models.Category) bool { return c.VariableName == varName }), nil
}

// findFirst returns the matching category with the lowest id.
func (s *MemoryCategoryStore) findFirst(match func(models.Category) bool) *models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *models.Category
	for _, c := range s.nodes {
		if !match(c) {
			continue
		}
		if found == nil || c.ID < found.ID {
			c := c
			found = &c
		}
	}
	return found
}

// Delete removes the category and every edge that references it.
func (s *MemoryCategoryStore) Delete(_ context.Context, c *models.Category) error {
	if c == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for childID := range s.children[c.ID] {
		delete(s.parents[childID], c.ID)
	}
	delete(s.children, c.ID)
	for parentID := range s.parents[c.ID] {
		delete(s.children[parentID], c.ID)
	}
	delete(s.parents, c.ID)
	delete(s.nodes, c.ID)
	return nil
}

// FindAll returns every category ordered by name.
func (s *MemoryCategoryStore) FindAll(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.Category, 0, len(s.nodes))
	for _, c := range s.nodes {
		items = append(items, c)
	}
	sortCategories(items, orderByName, false)
	return items, nil
}

// Search returns the categories selected by criteria.
func (s *MemoryCategoryStore) Search(_ context.Context, criteria models.SearchCriteria) ([]models.Category, error) {
	col, desc, err := parseOrder(criteria.OrderBy, criteria.Direction)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []string
	if criteria.RootID != "" {
		for id := range s.descendants(criteria.RootID) {
			if id != criteria.RootID {
				candidates = append(candidates, id)
			}
		}
	} else {
		for id := range s.nodes {
			candidates = append(candidates, id)
		}
	}

	filter := strings.ToLower(criteria.Filter)
	items := []models.Category{}
	for _, id := range candidates {
		c := s.nodes[id]
		if filter == "" || matchesFilter(filter, c.Name, c.Key, c.VariableName) {
			items = append(items, c)
		}
	}
	sortCategories(items, col, desc)
	return items, nil
}

// AddChild links child under parent.
func (s *MemoryCategoryStore) AddChild(_ context.Context, parent, child *models.Category, relationType string) error {
	if parent == nil || child == nil {
		return fmt.Errorf("%w: parent and child are required", ErrValidation)
	}
	if relationType == "" {
		relationType = models.DefaultRelationType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []string{parent.ID, child.ID} {
		if _, ok := s.nodes[id]; !ok {
			return fmt.Errorf("%w: unknown category %q", ErrValidation, id)
		}
	}
	if _, ok := s.children[parent.ID][child.ID]; ok {
		return nil
	}
	if parent.ID == child.ID {
		return &CycleError{ParentID: parent.ID, ChildID: child.ID}
	}
	if _, ok := s.descendants(child.ID)[parent.ID]; ok {
		return &CycleError{ParentID: parent.ID, ChildID: child.ID}
	}

	if s.children[parent.ID] == nil {
		s.children[parent.ID] = make(map[string]string)
	}
	s.children[parent.ID][child.ID] = relationType
	if s.parents[child.ID] == nil {
		s.parents[child.ID] = make(map[string]struct{})
	}
	s.parents[child.ID][parent.ID] = struct{}{}
	return nil
}

// GetChildren returns the direct children of parent in sibling order.
func (s *MemoryCategoryStore) GetChildren(_ context.Context, parent *models.Category) ([]models.Category, error) {
	if parent == nil {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.childrenOf(parent.ID), nil
}

// GetParents returns the direct parents of child ordered by name.
func (s *MemoryCategoryStore) GetParents(_ context.Context, child *models.Category) ([]models.Category, error) {
	if child == nil {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []models.Category{}
	for id := range s.parents[child.ID] {
		items = append(items, s.nodes[id])
	}
	sortCategories(items, orderByName, false)
	return items, nil
}

// RemoveChildren removes every edge below parent. The children stay.
func (s *MemoryCategoryStore) RemoveChildren(_ context.Context, parent *models.Category) error {
	if parent == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for childID := range s.children[parent.ID] {
		delete(s.parents[childID], parent.ID)
	}
	delete(s.children, parent.ID)
	return nil
}

// FindChildrenByFilter returns the direct children of parentID whose name
// or key contains filter, ignoring case.
func (s *MemoryCategoryStore) FindChildrenByFilter(_ context.Context, parentID, filter, orderBy string) ([]models.Category, error) {
	col, desc := orderBySiblings, false
	if orderBy != "" {
		c, d, err := parseOrder(orderBy, models.Ascending)
		if err != nil {
			return nil, err
		}
		col, desc = c, d
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	filter = strings.ToLower(filter)
	items := []models.Category{}
	for id := range s.children[parentID] {
		c := s.nodes[id]
		if matchesFilter(filter, c.Name, c.Key) {
			items = append(items, c)
		}
	}
	sortCategories(items, col, desc)
	return items, nil
}

// FindTopLevelCategories returns the categories that have no parent.
func (s *MemoryCategoryStore) FindTopLevelCategories(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topLevel(), nil
}

// HasDependencies reports whether c has at least one child.
func (s *MemoryCategoryStore) HasDependencies(_ context.Context, c *models.Category) (bool, error) {
	if c == nil {
		return false, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.children[c.ID]) > 0, nil
}

// SortChildren renumbers the children of parentID 1..n in their current order.
func (s *MemoryCategoryStore) SortChildren(_ context.Context, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for i, c := range s.childrenOf(parentID) {
		c.SortOrder = i + 1
		c.UpdatedAt = now
		s.nodes[c.ID] = c
	}
	return nil
}

// Reorder sets the sort order of many categories at once. Unknown ids are
// ignored.
func (s *MemoryCategoryStore) Reorder(_ context.Context, items []ReorderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, item := range items {
		c, ok := s.nodes[item.ID]
		if !ok {
			continue
		}
		c.SortOrder = item.Order
		c.UpdatedAt = now
		s.nodes[item.ID] = c
	}
	return nil
}

// NextSortOrder returns the sort order that places a new category after the
// existing children of parentID, or after the top-level categories when
// parentID is empty.
func (s *MemoryCategoryStore) NextSortOrder(_ context.Context, parentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	siblings := s.topLevel()
	if parentID != "" {
		siblings = s.childrenOf(parentID)
	}
	if len(siblings) == 0 {
		return 1, nil
	}
	maxOrder := siblings[0].SortOrder
	for _, c := range siblings[1:] {
		maxOrder = max(maxOrder, c.SortOrder)
	}
	return maxOrder + 1, nil
}

// childrenOf returns the direct children of id in sibling order.
// The caller must hold the lock.
func (s *MemoryCategoryStore) childrenOf(id string) []models.Category {
	items := []models.Category{}
	for childID := range s.children[id] {
		items = append(items, s.nodes[childID])
	}
	sortCategories(items, orderBySiblings, false)
	return items
}

// topLevel returns the categories without a parent in sibling order.
// The caller must hold the lock.
func (s *MemoryCategoryStore) topLevel() []models.Category {
	items := []models.Category{}
	for id, c := range s.nodes {
		if len(s.parents[id]) == 0 {
			items = append(items, c)
		}
	}
	sortCategories(items, orderBySiblings, false)
	return items
}

// descendants returns the ids reachable from id by following child edges.
// The caller must hold the lock.
func (s *MemoryCategoryStore) descendants(id string) map[string]struct{} {
	seen := make(map[string]struct{})
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for childID := range s.children[current] {
			if _, ok := seen[childID]; ok {
				continue
			}
			seen[childID] = struct{}{}
			queue = append(queue, childID)
		}
	}
	return seen
}

// matchesFilter reports whether any of fields contains the lower-cased filter.
func matchesFilter(filter string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), filter) {
			return true
		}
	}
	return false
}

// sortCategories orders items the way the SQL backend does. Ties always fall
// back to the id so results are deterministic.
func sortCategories(items []models.Category, col orderColumn, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		order := compareColumn(a, b, col)
		if desc {
			order = -order
		}
		if order != 0 {
			return order < 0
		}
		return a.ID < b.ID
	})
}

func compareColumn(a, b models.Category, col orderColumn) int {
	switch col {
	case orderBySiblings:
		if a.SortOrder != b.SortOrder {
			return cmp.Compare(a.SortOrder, b.SortOrder)
		}
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case orderByKey:
		return strings.Compare(a.Key, b.Key)
	case orderByVariableName:
		return strings.Compare(a.VariableName, b.VariableName)
	case orderBySortOrder:
		return cmp.Compare(a.SortOrder, b.SortOrder)
	case orderByCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case orderByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
}
