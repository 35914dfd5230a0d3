package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"taxonomy/internal/slug"
)

// SeedNode is one category of the development taxonomy. Children are
// referenced by name.
type SeedNode struct {
	Name     string
	Order    int
	Children []string
}

// SampleTaxonomy is the development data set. Audiobooks has two parents.
var SampleTaxonomy = []SeedNode{
	{Name: "Books", Order: 1, Children: []string{"Fiction", "Non-fiction", "Audiobooks"}},
	{Name: "Music", Order: 2, Children: []string{"Vinyl", "Audiobooks"}},
	{Name: "Fiction", Order: 1},
	{Name: "Non-fiction", Order: 2},
	{Name: "Audiobooks", Order: 3},
	{Name: "Vinyl", Order: 1},
}

// Seed populates the database with a small development taxonomy.
// It is a no-op when any category already exists.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]string, len(SampleTaxonomy))
	for _, n := range SampleTaxonomy {
		id := uuid.NewString()
		ids[n.Name] = id
		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, category_key, variable_name, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, id, n.Name, slug.Generate(n.Name), slug.VariableName(n.Name), n.Order)
		if err != nil {
			return fmt.Errorf("seed insert category %s: %w", n.Name, err)
		}
	}

	var edges int
	for _, n := range SampleTaxonomy {
		for _, child := range n.Children {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO category_edges (parent_id, child_id) VALUES ($1, $2)
			`, ids[n.Name], ids[child])
			if err != nil {
				return fmt.Errorf("seed link %s -> %s: %w", n.Name, child, err)
			}
			edges++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with development taxonomy",
		"categories", len(SampleTaxonomy),
		"edges", edges,
	)
	return nil
}
