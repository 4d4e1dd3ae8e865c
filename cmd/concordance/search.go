package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/imagination-concordance/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Run one search from the terminal",
	Long: `Run one search through the same pipeline the web service uses and print
the hits with their viewer links.

Examples:
  concordance search Norge
  concordance search --category Utopi --year-min 1850 "det nye Norge"
  concordance search --author Wergeland --author Collett luftskib --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringSlice("category", nil, "restrict to categories (repeatable)")
	searchCmd.Flags().StringSlice("author", nil, "restrict to authors (repeatable)")
	searchCmd.Flags().Int("year-min", 0, "first publication year (default from config)")
	searchCmd.Flags().Int("year-max", 0, "last publication year (default from config)")
	searchCmd.Flags().Bool("json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := newApplication(settings, logger)
	if err != nil {
		return err
	}
	defer app.flushAnalytics(logger)
	if _, err := app.loadCorpus(cmd.Context()); err != nil {
		return err
	}

	criteria := model.SearchCriteria{
		Query:   args[0],
		YearMin: settings.Filters.YearMin,
		YearMax: settings.Filters.YearMax,
	}
	criteria.Categories, _ = cmd.Flags().GetStringSlice("category")
	criteria.Authors, _ = cmd.Flags().GetStringSlice("author")
	if cmd.Flags().Changed("year-min") {
		criteria.YearMin, _ = cmd.Flags().GetInt("year-min")
	}
	if cmd.Flags().Changed("year-max") {
		criteria.YearMax, _ = cmd.Flags().GetInt("year-max")
	}

	result, err := app.searcher.Search(cmd.Context(), app.sessions.Create(), criteria)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printHits(result)
}

func printHits(result *model.SearchResult) error {
	if result.Empty {
		fmt.Println("No hits.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tAUTHOR\tYEAR\tCATEGORY\tTEXT")
	for _, hit := range result.Hits {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", hit.Title, hit.Author, hit.Year, hit.Category, hit.Text)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	for i, hit := range result.Hits {
		fmt.Printf("[%d] %s\n", i+1, hit.Link)
	}
	fmt.Printf("\n%d hits in %d documents (%d ms)\n", result.Total, result.Candidates, result.Took)
	return nil
}
