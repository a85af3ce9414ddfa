package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/torii-ai/kansa/model"
	"github.com/torii-ai/kansa/query"
)

var (
	queryFilters string
	queryPage    int
	queryLimit   int
	querySortBy  string
	querySortDir string
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryFilters, "filters", "f", "-", "Path to filters JSON, or - for stdin")
	queryCmd.Flags().IntVar(&queryPage, "page", 0, "Result page (default 1)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Page size (default 25)")
	queryCmd.Flags().StringVar(&querySortBy, "sort-by", "", "Sort field (default timestamp)")
	queryCmd.Flags().StringVar(&querySortDir, "sort-direction", "", "Sort direction (default desc)")
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Compile a filters file into the full search body",
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	data, err := readInput(queryFilters)
	if err != nil {
		return err
	}
	var f model.Filters
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse filters: %w", err)
	}
	if f.CompanyID == "" {
		return fmt.Errorf("filters.companyId is required")
	}
	opts := model.SearchOptions{
		Page:          queryPage,
		Limit:         queryLimit,
		SortBy:        querySortBy,
		SortDirection: querySortDir,
	}
	body := query.BuildSearchBody(opts, f, time.Now().UTC())
	return printJSON(cmd.OutOrStdout(), body)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
