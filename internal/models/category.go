// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// DefaultRelationType is the relation stored on an edge when the caller
// does not name one.
const DefaultRelationType = "child"

// Category is a node in the category hierarchy. A category may have any
// number of parents; the parent/child relation is stored separately as edges.
type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	VariableName string    `json:"variable_name"`
	SortOrder    int       `json:"sort_order"`
	Description  string    `json:"description"`
	Keywords     string    `json:"keywords"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Virtual fields populated by tree helpers.
	Children []Category `json:"children,omitempty"`
	Depth    int        `json:"depth"`
}

// OrderDirection is the sort direction of a category search.
type OrderDirection string

const (
	Ascending  OrderDirection = "ASC"
	Descending OrderDirection = "DESC"
)

// SearchCriteria narrows a category search.
//
// RootID scopes the search to every descendant of that category (the root
// itself is never returned). Filter is matched case-insensitively as a
// substring of name, key or variable name. OrderBy names a column; the
// default is the category name.
type SearchCriteria struct {
	Filter    string
	RootID    string
	OrderBy   string
	Direction OrderDirection
}

// IsZero reports whether the criteria carry neither a filter nor a root.
func (c SearchCriteria) IsZero() bool {
	return c.Filter == "" && c.RootID == ""
}
