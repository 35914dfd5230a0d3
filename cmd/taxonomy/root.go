package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taxonomy/internal/cache"
	"taxonomy/internal/config"
	"taxonomy/internal/database"
	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

// errNeedsDatabase is returned by commands that only make sense against
// PostgreSQL when --memory is set.
var errNeedsDatabase = errors.New("this command requires PostgreSQL; drop --memory")

// app holds the state shared by every command of one invocation.
type app struct {
	out    io.Writer
	memory bool

	cfg  *config.Config
	db   *sql.DB
	repo store.CategoryRepository

	closers []func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "taxonomy",
		Short: "Manage a multi-parent category hierarchy",
		Long: `taxonomy is a command-line interface for a category hierarchy in which
a category may have several parents, as long as no category ever becomes
its own ancestor.

Categories live in PostgreSQL. With --memory the commands run against an
in-memory store preloaded with the development taxonomy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			return a.open(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVar(&a.memory, "memory", false, "use an in-memory store seeded with sample data")

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newAddCmd(a),
		newShowCmd(a),
		newDeleteCmd(a),
		newLinkCmd(a),
		newUnlinkChildrenCmd(a),
		newChildrenCmd(a),
		newParentsCmd(a),
		newTopCmd(a),
		newTreeCmd(a),
		newSearchCmd(a),
		newSortCmd(a),
		newReorderCmd(a),
	)
	return root
}

// open loads the configuration and connects the category store. A store
// that is already set is kept.
func (a *app) open(ctx context.Context) error {
	if a.repo != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if a.memory {
		mem := store.NewMemoryCategoryStore()
		if err := seedRepository(ctx, mem); err != nil {
			return err
		}
		a.repo = mem
		return nil
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	var repo store.CategoryRepository = store.NewCategoryStore(db)
	if cfg.CacheEnabled {
		client, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		repo = cache.NewCachedCategoryStore(repo, client, cfg.CacheTTL)
		slog.Debug("category cache enabled", "ttl", cfg.CacheTTL)
	}
	a.repo = repo
	return nil
}

// close releases connections in reverse order of opening.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// requireDB returns the PostgreSQL pool or errNeedsDatabase.
func (a *app) requireDB() (*sql.DB, error) {
	if a.db == nil {
		return nil, errNeedsDatabase
	}
	return a.db, nil
}

// mustFind loads a category by id and turns a miss into an error.
func (a *app) mustFind(ctx context.Context, id string) (*models.Category, error) {
	c, err := a.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %q not found", id)
	}
	return c, nil
}

// seedRepository loads the development taxonomy through the repository API.
func seedRepository(ctx context.Context, repo store.CategoryRepository) error {
	byName := make(map[string]*models.Category, len(database.SampleTaxonomy))
	for _, n := range database.SampleTaxonomy {
		c, err := repo.Save(ctx, &models.Category{
			Name:      n.Name,
			Key:       defaultKey(n.Name),
			SortOrder: n.Order,
			Active:    true,
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", n.Name, err)
		}
		byName[n.Name] = c
	}
	for _, n := range database.SampleTaxonomy {
		for _, child := range n.Children {
			if err := repo.AddChild(ctx, byName[n.Name], byName[child], ""); err != nil {
				return fmt.Errorf("seed link %s -> %s: %w", n.Name, child, err)
			}
		}
	}
	return nil
}
