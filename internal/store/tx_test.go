package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// cleanCategories removes committed test categories and their edges.
// Call in t.Cleanup().
func cleanCategories(t *testing.T, s *CategoryStore, cats ...*models.Category) {
	t.Helper()
	for _, c := range cats {
		if err := s.Delete(context.Background(), c); err != nil {
			t.Errorf("cleanup %s: %v", c.ID, err)
		}
	}
}

func TestCategoryStoreWithTxRollsBack(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	name := "test-rollback-" + uuid.NewString()[:8]
	errAbort := errors.New("abort")

	err := s.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.Save(ctx, &models.Category{Name: name}); err != nil {
			return err
		}
		found, err := s.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if found == nil {
			t.Error("expected category visible inside its transaction")
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("WithTx: got %v, want errAbort", err)
	}

	found, err := s.FindByName(ctx, name)
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if found != nil {
		cleanCategories(t, s, found)
		t.Error("expected rolled-back category to be absent")
	}
}

func TestCategoryStoreWithTxCommitsNestedCalls(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	parent := &models.Category{Name: "test-tx-parent-" + uuid.NewString()[:8]}
	child := &models.Category{Name: "test-tx-child-" + uuid.NewString()[:8]}
	t.Cleanup(func() { cleanCategories(t, s, parent, child) })

	err := s.WithTx(ctx, func(ctx context.Context) error {
		for _, c := range []*models.Category{parent, child} {
			if _, err := s.Save(ctx, c); err != nil {
				return err
			}
		}
		return s.AddChild(ctx, parent, child, "")
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}

	parents, err := s.GetParents(ctx, child)
	if err != nil {
		t.Fatalf("GetParents: %v", err)
	}
	if len(parents) != 1 || parents[0].ID != parent.ID {
		t.Errorf("expected committed edge, got %v", names(parents))
	}
}

func TestCategoryStoreConcurrentLinksCannotCycle(t *testing.T) {
	db := testDB(t)
	s := NewCategoryStore(db)
	ctx := context.Background()

	a, err := s.Save(ctx, &models.Category{Name: "test-race-a-" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := s.Save(ctx, &models.Category{Name: "test-race-b-" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() { cleanCategories(t, s, a, b) })

	assertOneLinkWins(t, s, a, b)
}

func TestMemoryCategoryStoreConcurrentLinksCannotCycle(t *testing.T) {
	s := NewMemoryCategoryStore()
	ctx := context.Background()
	a := newCategory(t, ctx, s, "a", 1)
	b := newCategory(t, ctx, s, "b", 1)

	assertOneLinkWins(t, s, a, b)
}

// assertOneLinkWins races a->b against b->a and expects exactly one to be
// rejected as a cycle.
func assertOneLinkWins(t *testing.T, repo CategoryRepository, a, b *models.Category) {
	t.Helper()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	pairs := [][2]*models.Category{{a, b}, {b, a}}
	for i, p := range pairs {
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = repo.AddChild(context.Background(), p[0], p[1], "")
		}()
	}
	wg.Wait()

	var cycles int
	for _, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, ErrCycle):
			cycles++
		default:
			t.Fatalf("AddChild: %v", err)
		}
	}
	if cycles != 1 {
		t.Errorf("expected exactly one cycle rejection, got errors %v", errs)
	}
}
