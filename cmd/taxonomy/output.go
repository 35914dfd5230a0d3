package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"taxonomy/internal/models"
	"taxonomy/internal/slug"
)

// printCategories writes one category per line: id, sort order, name, key.
func printCategories(w io.Writer, cats []models.Category) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.ID, c.SortOrder, c.Name, c.Key)
	}
	return tw.Flush()
}

// printFlatTree writes a flattened tree one category per line, prefixed
// with its depth.
func printFlatTree(w io.Writer, flat []models.Category) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range flat {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", c.Depth, c.ID, c.SortOrder, c.Name, c.Key)
	}
	return tw.Flush()
}

// printCategory writes every attribute of c, one per line.
func printCategory(w io.Writer, c *models.Category) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", c.ID)
	fmt.Fprintf(tw, "name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "key:\t%s\n", c.Key)
	fmt.Fprintf(tw, "variable:\t%s\n", c.VariableName)
	fmt.Fprintf(tw, "sort:\t%d\n", c.SortOrder)
	fmt.Fprintf(tw, "active:\t%t\n", c.Active)
	if c.Description != "" {
		fmt.Fprintf(tw, "description:\t%s\n", c.Description)
	}
	if c.Keywords != "" {
		fmt.Fprintf(tw, "keywords:\t%s\n", c.Keywords)
	}
	return tw.Flush()
}

// printTree writes nested categories indented two spaces per level.
func printTree(w io.Writer, tree []models.Category) {
	for _, c := range tree {
		fmt.Fprintf(w, "%s%s %s\n", strings.Repeat("  ", c.Depth), c.Name, c.ID)
		printTree(w, c.Children)
	}
}

// defaultKey derives a category key from its display name.
func defaultKey(name string) string {
	return slug.Generate(name)
}
