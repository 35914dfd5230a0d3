// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"taxonomy/internal/models"
	"taxonomy/internal/slug"
)

// CategoryRepository is the category hierarchy contract shared by every
// backend. Single-entity lookups return (nil, nil) when nothing matches.
type CategoryRepository interface {
	Save(ctx context.Context, c *models.Category) (*models.Category, error)
	Find(ctx context.Context, id string) (*models.Category, error)
	FindByKey(ctx context.Context, key string) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	FindByVariableName(ctx context.Context, varName string) (*models.Category, error)
	Delete(ctx context.Context, c *models.Category) error
	FindAll(ctx context.Context) ([]models.Category, error)
	Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Category, error)

	AddChild(ctx context.Context, parent, child *models.Category, relationType string) error
	GetChildren(ctx context.Context, parent *models.Category) ([]models.Category, error)
	GetParents(ctx context.Context, child *models.Category) ([]models.Category, error)
	RemoveChildren(ctx context.Context, parent *models.Category) error
	FindChildrenByFilter(ctx context.Context, parentID, filter, orderBy string) ([]models.Category, error)
	FindTopLevelCategories(ctx context.Context) ([]models.Category, error)
	HasDependencies(ctx context.Context, c *models.Category) (bool, error)

	SortChildren(ctx context.Context, parentID string) error
	Reorder(ctx context.Context, items []ReorderItem) error
	NextSortOrder(ctx context.Context, parentID string) (int, error)
}

// ReorderItem represents a single item in a reorder request.
type ReorderItem struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// prepareSave validates c and fills the attributes a save derives: a fresh
// id when none is set and a variable name from the display name.
func prepareSave(c *models.Category) error {
	if c == nil {
		return fmt.Errorf("%w: category is nil", ErrValidation)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.VariableName == "" {
		c.VariableName = slug.VariableName(c.Name)
	}
	return nil
}

// orderColumn identifies a sortable category attribute. The same names are
// accepted by both backends.
type orderColumn int

const (
	// orderBySiblings is the order of children under one parent: sort
	// order, then name. It cannot be requested by a search.
	orderBySiblings orderColumn = -1

	orderByName orderColumn = iota
	orderByKey
	orderByVariableName
	orderBySortOrder
	orderByCreatedAt
	orderByUpdatedAt
)

var orderColumns = map[string]orderColumn{
	"":                           orderByName,
	"name":                       orderByName,
	"category_name":              orderByName,
	"key":                        orderByKey,
	"category_key":               orderByKey,
	"variable_name":              orderByVariableName,
	"category_velocity_var_name": orderByVariableName,
	"sort_order":                 orderBySortOrder,
	"created_at":                 orderByCreatedAt,
	"updated_at":                 orderByUpdatedAt,
	"mod_date":                   orderByUpdatedAt,
}

// parseOrder resolves a search's column and direction.
func parseOrder(orderBy string, dir models.OrderDirection) (orderColumn, bool, error) {
	col, ok := orderColumns[strings.ToLower(strings.TrimSpace(orderBy))]
	if !ok {
		return 0, false, fmt.Errorf("%w: cannot order by %q", ErrValidation, orderBy)
	}
	switch models.OrderDirection(strings.ToUpper(string(dir))) {
	case "", models.Ascending:
		return col, false, nil
	case models.Descending:
		return col, true, nil
	default:
		return 0, false, fmt.Errorf("%w: unknown direction %q", ErrValidation, dir)
	}
}
