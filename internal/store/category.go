// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taxonomy/internal/models"
)

// CategoryStore manages the category graph in PostgreSQL. Nodes live in
// categories, parent/child relations in category_edges.
type CategoryStore struct {
	db *sql.DB
}

var _ CategoryRepository = (*CategoryStore)(nil)

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

// WithTx runs fn in a single transaction. Every CategoryStore call made with
// the context passed to fn joins that transaction.
func (s *CategoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.db, fn)
}

const categoryColumns = `c.id, c.name, c.category_key, c.variable_name, c.sort_order,
	c.description, c.keywords, c.active, c.created_at, c.updated_at`

// descendantsCTE selects every category reachable from $1 by following
// child edges. UNION keeps each id once.
const descendantsCTE = `WITH RECURSIVE descendants (id) AS (
		SELECT child_id FROM category_edges WHERE parent_id = $1
		UNION
		SELECT e.child_id FROM category_edges e
		JOIN descendants d ON e.parent_id = d.id
	)`

// siblingOrder orders children by sort order, then name.
const siblingOrder = `c.sort_order ASC, LOWER(c.name) COLLATE "C" ASC, c.id COLLATE "C" ASC`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Key, &c.VariableName, &c.SortOrder,
		&c.Description, &c.Keywords, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// queryCategories runs a query selecting categoryColumns and scans every row.
func (s *CategoryStore) queryCategories(ctx context.Context, op, query string, args ...any) ([]models.Category, error) {
	rows, err := conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// findOne returns the first category matched by a single-row query, or nil.
func (s *CategoryStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Category, error) {
	c, err := scanCategory(conn(ctx, s.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Save inserts c, or updates the stored row when c.ID already exists.
// A missing id is generated and written back to c.
func (s *CategoryStore) Save(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := prepareSave(c); err != nil {
		return nil, err
	}

	row := conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO categories AS c (id, name, category_key, variable_name, sort_order,
			description, keywords, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, category_key = EXCLUDED.category_key,
			variable_name = EXCLUDED.variable_name, sort_order = EXCLUDED.sort_order,
			description = EXCLUDED.description, keywords = EXCLUDED.keywords,
			active = EXCLUDED.active, updated_at = NOW()
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.Key, c.VariableName, c.SortOrder,
		c.Description, c.Keywords, c.Active,
	)
	saved, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("save category: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = saved.CreatedAt, saved.UpdatedAt
	return saved, nil
}

// Find retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) Find(ctx context.Context, id string) (*models.Category, error) {
	return s.findOne(ctx, "find category by id",
		`SELECT `+categoryColumns+` FROM categories c WHERE c.id = $1`, id)
}

// FindByKey retrieves a category by key. Returns nil if not found.
func (s *CategoryStore) FindByKey(ctx context.Context, key string) (*models.Category, error) {
	return s.findOne(ctx, "find category by key",
		`SELECT `+categoryColumns+` FROM categories c WHERE c.category_key = $1
		ORDER BY c.id COLLATE "C" LIMIT 1`, key)
}

// FindByName retrieves a category by name. Returns nil if not found.
func (s *CategoryStore) FindByName(ctx context.Context, name string) (*models.Category, error) {
	return s.findOne(ctx, "find category by name",
		`SELECT `+categoryColumns+` FROM categories c WHERE c.name = $1
		ORDER BY c.id COLLATE "C" LIMIT 1`, name)
}

// FindByVariableName retrieves a category by variable name. Returns nil if
// not found.
func (s *CategoryStore) FindByVariableName(ctx context.Context, varName string) (*models.Category, error) {
	return s.findOne(ctx, "find category by variable name",
		`SELECT `+categoryColumns+` FROM categories c WHERE c.variable_name = $1
		ORDER BY c.id COLLATE "C" LIMIT 1`, varName)
}

// Delete removes a category and every edge that references it.
// Deleting a category that does not exist is a no-op.
func (s *CategoryStore) Delete(ctx context.Context, c *models.Category) error {
	if c == nil {
		return nil
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, s.db)
		if _, err := db.ExecContext(ctx,
			`DELETE FROM category_edges WHERE parent_id = $1 OR child_id = $1`, c.ID); err != nil {
			return fmt.Errorf("delete category edges: %w", err)
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, c.ID); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

// FindAll returns every category ordered by name.
func (s *CategoryStore) FindAll(ctx context.Context) ([]models.Category, error) {
	return s.queryCategories(ctx, "list categories",
		`SELECT `+categoryColumns+` FROM categories c ORDER BY `+orderClause(orderByName, false))
}

// Search returns the categories selected by criteria. With a root, only its
// descendants at any depth are candidates; the filter is then applied to
// each candidate on its own.
func (s *CategoryStore) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Category, error) {
	col, desc, err := parseOrder(criteria.OrderBy, criteria.Direction)
	if err != nil {
		return nil, err
	}

	var (
		prefix string
		where  []string
		args   []any
	)
	if criteria.RootID != "" {
		args = append(args, criteria.RootID)
		prefix = descendantsCTE
		where = append(where, `c.id IN (SELECT id FROM descendants)`, `c.id <> $1`)
	}
	if criteria.Filter != "" {
		args = append(args, criteria.Filter)
		where = append(where, filterClause(len(args), "c.name", "c.category_key", "c.variable_name"))
	}

	query := prefix + ` SELECT ` + categoryColumns + ` FROM categories c`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ` + orderClause(col, desc)

	return s.queryCategories(ctx, "search categories", query, args...)
}

// AddChild links child under parent. The cycle check and the insert run in
// one transaction holding an advisory lock, so concurrent links cannot
// close a cycle between them.
func (s *CategoryStore) AddChild(ctx context.Context, parent, child *models.Category, relationType string) error {
	if parent == nil || child == nil {
		return fmt.Errorf("%w: parent and child are required", ErrValidation)
	}
	if relationType == "" {
		relationType = models.DefaultRelationType
	}

	return s.WithTx(ctx, func(ctx context.Context) error {
		db := conn(ctx, s.db)

		if _, err := db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext('category_edges'))`); err != nil {
			return fmt.Errorf("lock category edges: %w", err)
		}

		var known int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM categories WHERE id IN ($1, $2)`, parent.ID, child.ID).Scan(&known); err != nil {
			return fmt.Errorf("check categories: %w", err)
		}
		want := 2
		if parent.ID == child.ID {
			want = 1
		}
		if known != want {
			return fmt.Errorf("%w: unknown category in edge %s -> %s", ErrValidation, parent.ID, child.ID)
		}

		var exists bool
		if err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM category_edges WHERE parent_id = $1 AND child_id = $2)`,
			parent.ID, child.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check category edge: %w", err)
		}
		if exists {
			return nil
		}

		if parent.ID == child.ID {
			return &CycleError{ParentID: parent.ID, ChildID: child.ID}
		}
		var cyclic bool
		if err := db.QueryRowContext(ctx,
			descendantsCTE+` SELECT EXISTS(SELECT 1 FROM descendants WHERE id = $2)`,
			child.ID, parent.ID).Scan(&cyclic); err != nil {
			return fmt.Errorf("check category cycle: %w", err)
		}
		if cyclic {
			return &CycleError{ParentID: parent.ID, ChildID: child.ID}
		}

		if _, err := db.ExecContext(ctx, `
			INSERT INTO category_edges (parent_id, child_id, relation_type)
			VALUES ($1, $2, $3)
			ON CONFLICT (parent_id, child_id) DO NOTHING
		`, parent.ID, child.ID, relationType); err != nil {
			return fmt.Errorf("insert category edge: %w", err)
		}
		return nil
	})
}

// GetChildren returns the direct children of parent in sibling order.
func (s *CategoryStore) GetChildren(ctx context.Context, parent *models.Category) ([]models.Category, error) {
	if parent == nil {
		return nil, nil
	}
	return s.queryCategories(ctx, "list category children", `
		SELECT `+categoryColumns+`
		FROM categories c
		JOIN category_edges e ON e.child_id = c.id
		WHERE e.parent_id = $1
		ORDER BY `+siblingOrder, parent.ID)
}

// GetParents returns the direct parents of child ordered by name.
func (s *CategoryStore) GetParents(ctx context.Context, child *models.Category) ([]models.Category, error) {
	if child == nil {
		return nil, nil
	}
	return s.queryCategories(ctx, "list category parents", `
		SELECT `+categoryColumns+`
		FROM categories c
		JOIN category_edges e ON e.parent_id = c.id
		WHERE e.child_id = $1
		ORDER BY `+orderClause(orderByName, false), child.ID)
}

// RemoveChildren removes every edge below parent. The children stay.
func (s *CategoryStore) RemoveChildren(ctx context.Context, parent *models.Category) error {
	if parent == nil {
		return nil
	}
	if _, err := conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM category_edges WHERE parent_id = $1`, parent.ID); err != nil {
		return fmt.Errorf("remove category children: %w", err)
	}
	return nil
}

// FindChildrenByFilter returns the direct children of parentID whose name
// or key contains filter, ignoring case. An empty orderBy keeps sibling
// order.
func (s *CategoryStore) FindChildrenByFilter(ctx context.Context, parentID, filter, orderBy string) ([]models.Category, error) {
	order := siblingOrder
	if orderBy != "" {
		col, desc, err := parseOrder(orderBy, models.Ascending)
		if err != nil {
			return nil, err
		}
		order = orderClause(col, desc)
	}
	return s.queryCategories(ctx, "filter category children", `
		SELECT `+categoryColumns+`
		FROM categories c
		JOIN category_edges e ON e.child_id = c.id
		WHERE e.parent_id = $1 AND `+filterClause(2, "c.name", "c.category_key")+`
		ORDER BY `+order, parentID, filter)
}

// FindTopLevelCategories returns the categories that have no parent.
func (s *CategoryStore) FindTopLevelCategories(ctx context.Context) ([]models.Category, error) {
	return s.queryCategories(ctx, "list top level categories", `
		SELECT `+categoryColumns+`
		FROM categories c
		WHERE NOT EXISTS (SELECT 1 FROM category_edges e WHERE e.child_id = c.id)
		ORDER BY `+siblingOrder)
}

// HasDependencies reports whether c has at least one child.
func (s *CategoryStore) HasDependencies(ctx context.Context, c *models.Category) (bool, error) {
	if c == nil {
		return false, nil
	}
	var exists bool
	err := conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM category_edges WHERE parent_id = $1)`, c.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check category dependencies: %w", err)
	}
	return exists, nil
}

// SortChildren renumbers the children of parentID 1..n in their current
// order.
func (s *CategoryStore) SortChildren(ctx context.Context, parentID string) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		rows, err := conn(ctx, s.db).QueryContext(ctx, `
			SELECT c.id
			FROM categories c
			JOIN category_edges e ON e.child_id = c.id
			WHERE e.parent_id = $1
			ORDER BY `+siblingOrder+`
			FOR UPDATE OF c`, parentID)
		if err != nil {
			return fmt.Errorf("list children to sort: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan child id: %w", err)
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list children to sort: %w", err)
		}

		items := make([]ReorderItem, len(ids))
		for i, id := range ids {
			items[i] = ReorderItem{ID: id, Order: i + 1}
		}
		return s.Reorder(ctx, items)
	})
}

// Reorder updates sort_order for multiple categories in a transaction.
func (s *CategoryStore) Reorder(ctx context.Context, items []ReorderItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.WithTx(ctx, func(ctx context.Context) error {
		stmt, err := conn(ctx, s.db).PrepareContext(ctx,
			`UPDATE categories SET sort_order = $1, updated_at = NOW() WHERE id = $2`)
		if err != nil {
			return fmt.Errorf("prepare reorder: %w", err)
		}
		defer stmt.Close()

		for _, item := range items {
			if _, err := stmt.ExecContext(ctx, item.Order, item.ID); err != nil {
				return fmt.Errorf("reorder category %s: %w", item.ID, err)
			}
		}
		return nil
	})
}

// NextSortOrder returns the sort order that places a new category after the
// existing children of parentID, or after the top-level categories when
// parentID is empty.
func (s *CategoryStore) NextSortOrder(ctx context.Context, parentID string) (int, error) {
	var maxOrder sql.NullInt64
	var err error
	db := conn(ctx, s.db)
	if parentID == "" {
		err = db.QueryRowContext(ctx, `
			SELECT MAX(c.sort_order) FROM categories c
			WHERE NOT EXISTS (SELECT 1 FROM category_edges e WHERE e.child_id = c.id)
		`).Scan(&maxOrder)
	} else {
		err = db.QueryRowContext(ctx, `
			SELECT MAX(c.sort_order) FROM categories c
			JOIN category_edges e ON e.child_id = c.id
			WHERE e.parent_id = $1
		`, parentID).Scan(&maxOrder)
	}
	if err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64) + 1, nil
	}
	return 1, nil
}

// orderClause renders an ORDER BY list for col. The id breaks ties.
func orderClause(col orderColumn, desc bool) string {
	var expr string
	switch col {
	case orderByKey:
		expr = `c.category_key COLLATE "C"`
	case orderByVariableName:
		expr = `c.variable_name COLLATE "C"`
	case orderBySortOrder:
		expr = `c.sort_order`
	case orderByCreatedAt:
		expr = `c.created_at`
	case orderByUpdatedAt:
		expr = `c.updated_at`
	case orderBySiblings:
		return siblingOrder
	default:
		expr = `LOWER(c.name) COLLATE "C"`
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return expr + " " + dir + `, c.id COLLATE "C" ASC`
}

// filterClause matches the parameter $n as a case-insensitive substring of
// any of cols. strpos keeps % and _ in the filter literal.
func filterClause(n int, cols ...string) string {
	param := fmt.Sprintf("LOWER($%d::text)", n)
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("strpos(LOWER(%s), %s) > 0", col, param)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
