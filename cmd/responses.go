/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/capitancloud/ai-text-companion/internal/companion/config"
	"github.com/capitancloud/ai-text-companion/internal/companion/simulator"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

// responsesCmd represents the responses command
var responsesCmd = &cobra.Command{
	Use:   "responses [category]",
	Short: "List the canned response categories",
	Long: `List the categories the simulated AI picks its replies from, in match order.

Each category is matched by lower-case keywords contained in the message; the
first match wins and "default" is used when nothing matches. Categories can be
overridden or added with .toml files in the configured response directories:

keywords = ["meteo", "pioggia"]
responses = ["Non posso vedere fuori, ma spero ci sia il sole!"]
priority = 40

The file name is the category name. Later directories take precedence.

With a category name, prints that category's replies.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "Response directories: %v\n", cfg.ResponseDirs)
		}

		catalog, err := simulator.LoadCatalog(cfg.ResponseDirs)
		if err != nil {
			return fmt.Errorf("loading response catalog: %w", err)
		}

		if len(args) > 0 {
			cat, ok := catalog.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown category: %s", args[0])
			}
			fmt.Printf("Category: %s\n", cat.Name)
			if len(cat.Keywords) > 0 {
				fmt.Printf("Keywords: %s\n", strings.Join(cat.Keywords, ", "))
			}
			for i, r := range cat.Responses {
				fmt.Printf("\n[%d] %s\n", i+1, r)
			}
			return nil
		}

		fmt.Println(catalogTable(catalog))
		return nil
	},
}

// catalogTable renders categories in match order, the fallback last
func catalogTable(c *simulator.Catalog) *table.Table {
	var rows [][]string
	for _, cat := range c.Categories() {
		rows = append(rows, []string{
			cat.Name,
			fmt.Sprintf("%d", cat.Priority),
			strings.Join(cat.Keywords, ", "),
			fmt.Sprintf("%d", len(cat.Responses)),
		})
	}
	fallback := c.Fallback()
	rows = append(rows, []string{fallback.Name, "-", "(no match)", fmt.Sprintf("%d", len(fallback.Responses))})

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("Category", "Priority", "Keywords", "Replies").
		Rows(rows...)
}

func init() {
	rootCmd.AddCommand(responsesCmd)
}
