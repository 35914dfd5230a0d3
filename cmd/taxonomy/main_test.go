package main

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"taxonomy/internal/models"
	"taxonomy/internal/store"
)

// testApp returns an app over a memory store loaded with the sample taxonomy.
func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	mem := store.NewMemoryCategoryStore()
	if err := seedRepository(context.Background(), mem); err != nil {
		t.Fatalf("seedRepository: %v", err)
	}
	out := &bytes.Buffer{}
	return &app{out: out, repo: mem}, out
}

// brokenRepo fails the operations whose error is set.
type brokenRepo struct {
	*store.MemoryCategoryStore
	addChildErr error
	searchErr   error
}

func (r *brokenRepo) AddChild(ctx context.Context, parent, child *models.Category, relationType string) error {
	if r.addChildErr != nil {
		return r.addChildErr
	}
	return r.MemoryCategoryStore.AddChild(ctx, parent, child, relationType)
}

func (r *brokenRepo) Search(ctx context.Context, criteria models.SearchCriteria) ([]models.Category, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	return r.MemoryCategoryStore.Search(ctx, criteria)
}

// brokenApp is testApp over a brokenRepo.
func brokenApp(t *testing.T) (*app, *brokenRepo, *bytes.Buffer) {
	t.Helper()
	a, out := testApp(t)
	repo := &brokenRepo{MemoryCategoryStore: a.repo.(*store.MemoryCategoryStore)}
	a.repo = repo
	return a, repo, out
}

func outputLines(out *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
}

func execute(t *testing.T, a *app, args ...string) error {
	t.Helper()
	root := newRootCmd(a)
	root.SetOut(a.out)
	root.SetErr(a.out)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func byName(t *testing.T, a *app, name string) *models.Category {
	t.Helper()
	c, err := a.repo.FindByName(context.Background(), name)
	if err != nil {
		t.Fatalf("FindByName(%q): %v", name, err)
	}
	if c == nil {
		t.Fatalf("category %q not found", name)
	}
	return c
}

func TestRunMemoryTree(t *testing.T) {
	t.Setenv("APP_ENV", "testing")
	out := &bytes.Buffer{}

	if err := run(context.Background(), out, []string{"--memory", "tree"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	var got []string
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		// Drop the trailing id.
		got = append(got, line[:strings.LastIndex(line, " ")])
	}
	want := []string{
		"Books",
		"  Fiction",
		"  Non-fiction",
		"  Audiobooks",
		"Music",
		"  Vinyl",
		"  Audiobooks",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tree:\ngot  %q\nwant %q", got, want)
	}
}

func TestRunMigrateNeedsDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "testing")

	err := run(context.Background(), &bytes.Buffer{}, []string{"--memory", "migrate"})
	if !errors.Is(err, errNeedsDatabase) {
		t.Errorf("got %v, want errNeedsDatabase", err)
	}
}

func TestAddUnderParentGoesLast(t *testing.T) {
	a, out := testApp(t)
	books := byName(t, a, "Books")

	if err := execute(t, a, "add", "Poetry", "--parent", books.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	poetry := byName(t, a, "Poetry")
	if strings.TrimSpace(out.String()) != poetry.ID {
		t.Errorf("add printed %q, want the new id %q", out.String(), poetry.ID)
	}
	if poetry.Key != "poetry" || poetry.VariableName != "poetry" || !poetry.Active {
		t.Errorf("derived attributes: %+v", poetry)
	}
	if poetry.SortOrder != 4 {
		t.Errorf("sort order: got %d, want 4", poetry.SortOrder)
	}

	children, err := a.repo.GetChildren(context.Background(), books)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	if last := children[len(children)-1]; last.ID != poetry.ID {
		t.Errorf("expected Poetry last under Books, got %s", last.Name)
	}
}

func TestAddUnderParentRemovesCategoryWhenLinkFails(t *testing.T) {
	a, repo, _ := brokenApp(t)
	books := byName(t, a, "Books")
	repo.addChildErr = store.ErrValidation

	err := execute(t, a, "add", "Poetry", "--parent", books.ID)
	if !errors.Is(err, store.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}

	c, err := a.repo.FindByName(context.Background(), "Poetry")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if c != nil {
		t.Errorf("unlinked category left behind: %+v", c)
	}
}

func TestAddExplicitSort(t *testing.T) {
	a, _ := testApp(t)

	if err := execute(t, a, "add", "Maps", "--key", "atlas", "--sort", "7", "--inactive"); err != nil {
		t.Fatalf("add: %v", err)
	}
	maps := byName(t, a, "Maps")
	if maps.Key != "atlas" || maps.SortOrder != 7 || maps.Active {
		t.Errorf("got %+v", maps)
	}
}

func TestAddRejectsBlankName(t *testing.T) {
	a, _ := testApp(t)

	err := execute(t, a, "add", "   ")
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestLinkRejectsCycle(t *testing.T) {
	a, _ := testApp(t)
	books := byName(t, a, "Books")
	fiction := byName(t, a, "Fiction")

	err := execute(t, a, "link", fiction.ID, books.ID)
	if !errors.Is(err, store.ErrCycle) {
		t.Fatalf("got %v, want ErrCycle", err)
	}
	var cycle *store.CycleError
	if !errors.As(err, &cycle) || cycle.ParentID != fiction.ID || cycle.ChildID != books.ID {
		t.Errorf("cycle error: %+v", cycle)
	}
}

func TestLinkUnknownCategory(t *testing.T) {
	a, _ := testApp(t)
	books := byName(t, a, "Books")

	if err := execute(t, a, "link", books.ID, "missing"); err == nil {
		t.Error("expected error for unknown child")
	}
}

func TestDeleteRequiresForceForParents(t *testing.T) {
	a, out := testApp(t)
	music := byName(t, a, "Music")

	if err := execute(t, a, "delete", music.ID); err == nil {
		t.Fatal("expected delete of a parent without --force to fail")
	}
	if err := execute(t, a, "delete", music.ID, "--force"); err != nil {
		t.Fatalf("delete --force: %v", err)
	}
	if !strings.Contains(out.String(), "deleted Music") {
		t.Errorf("output: %q", out.String())
	}

	vinyl := byName(t, a, "Vinyl")
	top, err := a.repo.FindTopLevelCategories(context.Background())
	if err != nil {
		t.Fatalf("FindTopLevelCategories: %v", err)
	}
	var found bool
	for _, c := range top {
		found = found || c.ID == vinyl.ID
	}
	if !found {
		t.Error("orphaned Vinyl should be top-level")
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	a, out := testApp(t)

	if err := execute(t, a, "delete", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(out.String(), "nothing to delete") {
		t.Errorf("output: %q", out.String())
	}
}

func TestChildrenFilter(t *testing.T) {
	a, out := testApp(t)
	books := byName(t, a, "Books")

	if err := execute(t, a, "children", books.ID, "--filter", "FICTION"); err != nil {
		t.Fatalf("children: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Fiction") || !strings.Contains(got, "Non-fiction") || strings.Contains(got, "Audiobooks") {
		t.Errorf("children --filter: %q", got)
	}
}

func TestChildrenUnknownParent(t *testing.T) {
	for _, args := range [][]string{
		{"children", "missing"},
		{"children", "missing", "--filter", "fic"},
		{"children", "missing", "--order", "key"},
	} {
		a, out := testApp(t)
		err := execute(t, a, args...)
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("%v: got %v, want not found", args, err)
		}
		if out.Len() != 0 {
			t.Errorf("%v: unexpected output %q", args, out.String())
		}
	}
}

func TestTreeFlat(t *testing.T) {
	a, out := testApp(t)
	music := byName(t, a, "Music")

	if err := execute(t, a, "tree", "--flat"); err != nil {
		t.Fatalf("tree --flat: %v", err)
	}
	var got []string
	for _, line := range outputLines(out) {
		f := strings.Fields(line)
		// depth, id, sort, name, key
		got = append(got, f[0]+" "+f[3])
	}
	want := []string{
		"0 Books",
		"1 Fiction",
		"1 Non-fiction",
		"1 Audiobooks",
		"0 Music",
		"1 Vinyl",
		"1 Audiobooks",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tree --flat:\ngot  %q\nwant %q", got, want)
	}

	out.Reset()
	if err := execute(t, a, "tree", music.ID, "--flat"); err != nil {
		t.Fatalf("tree <root> --flat: %v", err)
	}
	lines := outputLines(out)
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "0 ") || !strings.Contains(lines[0], "Vinyl") {
		t.Errorf("tree <root> --flat: %q", lines)
	}
}

func TestShowByKey(t *testing.T) {
	a, out := testApp(t)

	if err := execute(t, a, "show", "--key", "non-fiction"); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), "Non-fiction") || !strings.Contains(out.String(), "nonFiction") {
		t.Errorf("show: %q", out.String())
	}

	if err := execute(t, a, "show", "--key", "missing"); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := execute(t, a, "show"); err == nil {
		t.Error("expected error without a lookup")
	}
}

func TestSearchRejectsUnknownOrder(t *testing.T) {
	a, _ := testApp(t)

	err := execute(t, a, "search", "--order", "password")
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestSearchWithoutCriteriaListsAll(t *testing.T) {
	a, repo, out := brokenApp(t)
	repo.searchErr = errors.New("search should not be called")

	if err := execute(t, a, "search"); err != nil {
		t.Fatalf("search: %v", err)
	}
	var got []string
	for _, line := range outputLines(out) {
		got = append(got, strings.Fields(line)[2])
	}
	want := []string{"Audiobooks", "Books", "Fiction", "Music", "Non-fiction", "Vinyl"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("search: got %q, want %q", got, want)
	}
}

func TestSearchUnderRoot(t *testing.T) {
	a, out := testApp(t)
	music := byName(t, a, "Music")

	if err := execute(t, a, "search", "--root", music.ID, "--desc"); err != nil {
		t.Fatalf("search: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "Vinyl") || !strings.Contains(lines[1], "Audiobooks") {
		t.Errorf("search: %q", lines)
	}
}

func TestSortAndReorder(t *testing.T) {
	a, _ := testApp(t)
	ctx := context.Background()
	music := byName(t, a, "Music")
	vinyl := byName(t, a, "Vinyl")
	audio := byName(t, a, "Audiobooks")

	if err := execute(t, a, "reorder", vinyl.ID+"=9", audio.ID+"=5"); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	children, _ := a.repo.GetChildren(ctx, music)
	if children[0].ID != audio.ID {
		t.Fatalf("after reorder expected Audiobooks first, got %s", children[0].Name)
	}

	if err := execute(t, a, "sort", music.ID); err != nil {
		t.Fatalf("sort: %v", err)
	}
	children, _ = a.repo.GetChildren(ctx, music)
	if children[0].SortOrder != 1 || children[1].SortOrder != 2 || children[0].ID != audio.ID {
		t.Errorf("after sort: %+v", children)
	}
}

func TestUnlinkChildren(t *testing.T) {
	a, _ := testApp(t)
	ctx := context.Background()
	books := byName(t, a, "Books")
	audio := byName(t, a, "Audiobooks")

	if err := execute(t, a, "unlink-children", books.ID); err != nil {
		t.Fatalf("unlink-children: %v", err)
	}
	children, _ := a.repo.GetChildren(ctx, books)
	if len(children) != 0 {
		t.Errorf("expected no children, got %d", len(children))
	}
	parents, _ := a.repo.GetParents(ctx, audio)
	if len(parents) != 1 || parents[0].Name != "Music" {
		t.Errorf("Audiobooks parents: %+v", parents)
	}
}

func TestParseReorder(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []store.ReorderItem
		wantErr bool
	}{
		{name: "pairs", args: []string{"a=1", "b=-2"}, want: []store.ReorderItem{{ID: "a", Order: 1}, {ID: "b", Order: -2}}},
		{name: "missing separator", args: []string{"a"}, wantErr: true},
		{name: "missing id", args: []string{"=3"}, wantErr: true},
		{name: "order not a number", args: []string{"a=first"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReorder(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
