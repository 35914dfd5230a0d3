// store_test.go provides the shared test harness for the category store.
// Every contract test runs against the in-memory backend and, when
// PostgreSQL is reachable, against CategoryStore inside a transaction that
// is rolled back when the test finishes.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"

	"taxonomy/internal/database"
	"taxonomy/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with the same defaults as config.Load.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "taxonomy")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "taxonomy")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// isolatedPostgres returns a CategoryStore and a context carrying a
// transaction in which both category tables start empty. Nothing the test
// writes is ever committed.
func isolatedPostgres(t *testing.T) (*CategoryStore, context.Context) {
	t.Helper()

	db := testDB(t)
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	t.Cleanup(func() { tx.Rollback() })

	for _, stmt := range []string{`DELETE FROM category_edges`, `DELETE FROM categories`} {
		if _, err := tx.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	return NewCategoryStore(db), context.WithValue(context.Background(), txKey{}, tx)
}

// forEachBackend runs fn once per backend as a subtest.
func forEachBackend(t *testing.T, fn func(t *testing.T, ctx context.Context, repo CategoryRepository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, context.Background(), NewMemoryCategoryStore())
	})
	t.Run("postgres", func(t *testing.T) {
		repo, ctx := isolatedPostgres(t)
		fn(t, ctx, repo)
	})
}

// newCategory saves a category whose key and variable name derive from name.
func newCategory(t *testing.T, ctx context.Context, repo CategoryRepository, name string, sortOrder int) *models.Category {
	t.Helper()

	c, err := repo.Save(ctx, &models.Category{
		Name:         name,
		Key:          "key_" + name,
		VariableName: "var_" + name,
		SortOrder:    sortOrder,
		Keywords:     "k1,k2,k3",
		Active:       true,
	})
	if err != nil {
		t.Fatalf("Save(%q): %v", name, err)
	}
	return c
}

// link adds an edge and fails the test on error.
func link(t *testing.T, ctx context.Context, repo CategoryRepository, parent, child *models.Category) {
	t.Helper()
	if err := repo.AddChild(ctx, parent, child, ""); err != nil {
		t.Fatalf("AddChild(%s, %s): %v", parent.Name, child.Name, err)
	}
}

// ids returns the ids of cats in order.
func ids(cats []models.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.ID
	}
	return out
}

// names returns the names of cats in order.
func names(cats []models.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}

// sameSet reports whether got and want hold the same ids, ignoring order.
func sameSet(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[string]int, len(got))
	for _, id := range got {
		seen[id]++
	}
	for _, id := range want {
		if seen[id] == 0 {
			return false
		}
		seen[id]--
	}
	return true
}

// reachable walks GetChildren from c and returns every id reached.
func reachable(t *testing.T, ctx context.Context, repo CategoryRepository, c *models.Category) map[string]bool {
	t.Helper()

	seen := map[string]bool{}
	queue := []models.Category{*c}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := repo.GetChildren(ctx, &current)
		if err != nil {
			t.Fatalf("GetChildren(%s): %v", current.Name, err)
		}
		for _, child := range children {
			if !seen[child.ID] {
				seen[child.ID] = true
				queue = append(queue, child)
			}
		}
	}
	return seen
}
