// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when a category is missing required
	// attributes or a search names an unknown column.
	ErrValidation = errors.New("category validation failed")

	// ErrCycle is matched by every *CycleError.
	ErrCycle = errors.New("category edge would create a cycle")
)

// CycleError reports an edge that was rejected because the child is the
// parent itself or one of its ancestors.
type CycleError struct {
	ParentID string
	ChildID  string
}

func (e *CycleError) Error() string {
	if e.ParentID == e.ChildID {
		return fmt.Sprintf("category %s cannot be its own child", e.ChildID)
	}
	return fmt.Sprintf("category %s is an ancestor of %s", e.ChildID, e.ParentID)
}

// Is lets errors.Is(err, ErrCycle) match.
func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}
