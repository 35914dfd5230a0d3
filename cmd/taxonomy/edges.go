package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taxonomy/internal/store"
)

func newLinkCmd(a *app) *cobra.Command {
	var relation string

	cmd := &cobra.Command{
		Use:   "link <parent-id> <child-id>",
		Short: "Make one category a child of another",
		Long: `Add a parent/child edge. Linking an existing pair again does nothing.
A link that would make a category its own ancestor is rejected.

Example:
  taxonomy link 3f0c... 9a41...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parent, err := a.mustFind(ctx, args[0])
			if err != nil {
				return err
			}
			child, err := a.mustFind(ctx, args[1])
			if err != nil {
				return err
			}
			if err := a.repo.AddChild(ctx, parent, child, relation); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "linked %s -> %s\n", parent.Name, child.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&relation, "relation", "", "relation type stored on the edge (default \"child\")")
	return cmd
}

func newUnlinkChildrenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink-children <parent-id>",
		Short: "Remove every child edge of a category",
		Long: `Remove the edges from a category to all of its children. The children
themselves are kept.

Example:
  taxonomy unlink-children 3f0c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parent, err := a.mustFind(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.repo.RemoveChildren(ctx, parent); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed children of %s\n", parent.Name)
			return nil
		},
	}
}

func newChildrenCmd(a *app) *cobra.Command {
	var filter, orderBy string

	cmd := &cobra.Command{
		Use:   "children <parent-id>",
		Short: "List the direct children of a category",
		Long: `List direct children in sibling order (sort order, then name).
--filter keeps children whose name or key contains the text.

Examples:
  taxonomy children 3f0c...
  taxonomy children 3f0c... --filter fic --order key`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			parent, err := a.mustFind(ctx, args[0])
			if err != nil {
				return err
			}

			if filter != "" || orderBy != "" {
				cats, err := a.repo.FindChildrenByFilter(ctx, parent.ID, filter, orderBy)
				if err != nil {
					return err
				}
				return printCategories(a.out, cats)
			}

			cats, err := a.repo.GetChildren(ctx, parent)
			if err != nil {
				return err
			}
			return printCategories(a.out, cats)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "substring of name or key")
	cmd.Flags().StringVar(&orderBy, "order", "", "order by a category column instead of sibling order")
	return cmd
}

func newParentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parents <child-id>",
		Short: "List the direct parents of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			child, err := a.mustFind(ctx, args[0])
			if err != nil {
				return err
			}
			cats, err := a.repo.GetParents(ctx, child)
			if err != nil {
				return err
			}
			return printCategories(a.out, cats)
		},
	}
}

func newTopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "List categories that have no parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := a.repo.FindTopLevelCategories(cmd.Context())
			if err != nil {
				return err
			}
			return printCategories(a.out, cats)
		},
	}
}

func newTreeCmd(a *app) *cobra.Command {
	var flat bool

	cmd := &cobra.Command{
		Use:   "tree [root-id]",
		Short: "Display the hierarchy",
		Long: `Display the hierarchy below a category, or the whole hierarchy starting
at the top-level categories. A category with several parents is shown
under each of them.

--flat prints one category per line with its depth instead of indenting.

Examples:
  taxonomy tree
  taxonomy tree 3f0c... --flat`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rootID string
			if len(args) == 1 {
				rootID = args[0]
			}
			tree, err := store.Tree(cmd.Context(), a.repo, rootID)
			if err != nil {
				return err
			}
			if flat {
				return printFlatTree(a.out, store.FlattenTree(tree))
			}
			printTree(a.out, tree)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flat, "flat", false, "print depth, id, sort order, name and key per line")
	return cmd
}

func newSortCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sort <parent-id>",
		Short: "Renumber the children of a category 1..n",
		Long: `Rewrite the sort order of every child of a category to 1..n, keeping
their current relative order.

Example:
  taxonomy sort 3f0c...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.SortChildren(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "children sorted")
			return nil
		},
	}
}

func newReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <id>=<order>...",
		Short: "Set the sort order of several categories",
		Long: `Set explicit sort orders in one transaction.

Example:
  taxonomy reorder 3f0c...=2 9a41...=1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseReorder(args)
			if err != nil {
				return err
			}
			if err := a.repo.Reorder(cmd.Context(), items); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "reordered %d categories\n", len(items))
			return nil
		},
	}
}

// parseReorder parses id=order pairs.
func parseReorder(args []string) ([]store.ReorderItem, error) {
	items := make([]store.ReorderItem, 0, len(args))
	for _, arg := range args {
		id, order, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid reorder item %q, want <id>=<order>", arg)
		}
		n, err := strconv.Atoi(order)
		if err != nil {
			return nil, fmt.Errorf("invalid order in %q: %w", arg, err)
		}
		items = append(items, store.ReorderItem{ID: id, Order: n})
	}
	return items, nil
}
