// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"taxonomy/internal/models"
)

// Tree returns the hierarchy below rootID as nested categories, or the whole
// forest of top-level categories when rootID is empty. A category with
// several parents appears under each of them.
func Tree(ctx context.Context, repo CategoryRepository, rootID string) ([]models.Category, error) {
	var roots []models.Category
	if rootID == "" {
		top, err := repo.FindTopLevelCategories(ctx)
		if err != nil {
			return nil, err
		}
		roots = top
	} else {
		root, err := repo.Find(ctx, rootID)
		if err != nil {
			return nil, err
		}
		if root == nil {
			return nil, nil
		}
		children, err := repo.GetChildren(ctx, root)
		if err != nil {
			return nil, err
		}
		roots = children
	}
	return buildTree(ctx, repo, roots, 0, map[string]bool{})
}

// buildTree recursively loads the children of each category. path holds the
// ids on the current branch and guards against walking a cycle forever.
func buildTree(ctx context.Context, repo CategoryRepository, cats []models.Category, depth int, path map[string]bool) ([]models.Category, error) {
	result := make([]models.Category, 0, len(cats))
	for _, c := range cats {
		if path[c.ID] {
			return nil, fmt.Errorf("build tree: %w", &CycleError{ParentID: c.ID, ChildID: c.ID})
		}
		children, err := repo.GetChildren(ctx, &c)
		if err != nil {
			return nil, err
		}

		path[c.ID] = true
		c.Depth = depth
		c.Children, err = buildTree(ctx, repo, children, depth+1, path)
		delete(path, c.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

// FlattenTree walks a category tree depth-first and returns it as a flat
// list with Depth set for indentation.
func FlattenTree(tree []models.Category) []models.Category {
	var result []models.Category
	flattenTree(tree, &result)
	return result
}

// flattenTree walks a category tree depth-first, appending to result.
func flattenTree(cats []models.Category, result *[]models.Category) {
	for _, c := range cats {
		children := c.Children
		c.Children = nil
		*result = append(*result, c)
		if len(children) > 0 {
			flattenTree(children, result)
		}
	}
}
