package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"taxonomy/internal/models"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		c        models.Category
		parentID string
		order    int
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Long: `Create a category and optionally link it under a parent.

Without --key the key is derived from the name. Without --sort a category
added under a parent goes after its last sibling.

Examples:
  taxonomy add "Science Fiction" --parent 3f0c...
  taxonomy add Poetry --key poetry --sort 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c.Name = args[0]
			c.Active = !inactive
			if c.Key == "" {
				c.Key = defaultKey(c.Name)
			}

			var parent *models.Category
			if parentID != "" {
				p, err := a.mustFind(ctx, parentID)
				if err != nil {
					return err
				}
				parent = p
			}

			c.SortOrder = order
			if !cmd.Flags().Changed("sort") && parent != nil {
				next, err := a.repo.NextSortOrder(ctx, parent.ID)
				if err != nil {
					return err
				}
				c.SortOrder = next
			}

			saved, err := a.repo.Save(ctx, &c)
			if err != nil {
				return err
			}
			if parent != nil {
				if err := a.repo.AddChild(ctx, parent, saved, ""); err != nil {
					// Don't leave the new category behind as a top-level node.
					if derr := a.repo.Delete(ctx, saved); derr != nil {
						slog.Warn("remove unlinked category", "id", saved.ID, "error", derr)
					}
					return err
				}
			}
			fmt.Fprintln(a.out, saved.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&c.Key, "key", "", "category key (default: derived from name)")
	cmd.Flags().StringVar(&c.VariableName, "var", "", "variable name (default: derived from name)")
	cmd.Flags().StringVar(&c.Description, "description", "", "description")
	cmd.Flags().StringVar(&c.Keywords, "keywords", "", "comma-separated keywords")
	cmd.Flags().IntVar(&order, "sort", 0, "sort order among siblings")
	cmd.Flags().StringVar(&parentID, "parent", "", "id of the parent category")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "create the category as inactive")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var key, name, varName string

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one category",
		Long: `Show a category found by id, key, name or variable name.

Examples:
  taxonomy show 3f0c...
  taxonomy show --key books
  taxonomy show --var scienceFiction`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				c   *models.Category
				err error
			)
			switch {
			case len(args) == 1:
				c, err = a.repo.Find(ctx, args[0])
			case key != "":
				c, err = a.repo.FindByKey(ctx, key)
			case name != "":
				c, err = a.repo.FindByName(ctx, name)
			case varName != "":
				c, err = a.repo.FindByVariableName(ctx, varName)
			default:
				return errors.New("give an id or one of --key, --name, --var")
			}
			if err != nil {
				return err
			}
			if c == nil {
				return errors.New("category not found")
			}
			return printCategory(a.out, c)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "find by key")
	cmd.Flags().StringVar(&name, "name", "", "find by name")
	cmd.Flags().StringVar(&varName, "var", "", "find by variable name")
	cmd.MarkFlagsMutuallyExclusive("key", "name", "var")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long: `Delete a category and every edge that touches it. Its children are not
deleted; a child left without parents becomes top-level.

A category that still has children is only deleted with --force.

Examples:
  taxonomy delete 3f0c...
  taxonomy delete 3f0c... --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			c, err := a.repo.Find(ctx, args[0])
			if err != nil {
				return err
			}
			if c == nil {
				fmt.Fprintln(a.out, "nothing to delete")
				return nil
			}

			if !force {
				deps, err := a.repo.HasDependencies(ctx, c)
				if err != nil {
					return err
				}
				if deps {
					return fmt.Errorf("category %q has children; use --force to delete it anyway", c.Name)
				}
			}

			if err := a.repo.Delete(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %s\n", c.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "delete even when the category has children")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		criteria models.SearchCriteria
		desc     bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search categories",
		Long: `Search categories by a case-insensitive substring of name, key or
variable name, optionally restricted to the descendants of a root.

Examples:
  taxonomy search --filter fic
  taxonomy search --root 3f0c... --order key --desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if desc {
				criteria.Direction = models.Descending
			}

			var (
				cats []models.Category
				err  error
			)
			if criteria.IsZero() && criteria.OrderBy == "" && !desc {
				cats, err = a.repo.FindAll(cmd.Context())
			} else {
				cats, err = a.repo.Search(cmd.Context(), criteria)
			}
			if err != nil {
				return err
			}
			return printCategories(a.out, cats)
		},
	}

	cmd.Flags().StringVar(&criteria.Filter, "filter", "", "substring to match")
	cmd.Flags().StringVar(&criteria.RootID, "root", "", "only search descendants of this category")
	cmd.Flags().StringVar(&criteria.OrderBy, "order", "", "order by name, key, variable_name, sort_order, created_at or updated_at")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}
