package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/torii-ai/kansa/index"
)

var (
	indicesCompany string
	indicesStart   string
	indicesEnd     string
	indicesPattern string
)

func init() {
	rootCmd.AddCommand(indicesCmd)
	indicesCmd.Flags().StringVar(&indicesCompany, "company", "", "Company ID (required)")
	indicesCmd.Flags().StringVar(&indicesStart, "start", "", "Range start, RFC 3339 (default now-6mo)")
	indicesCmd.Flags().StringVar(&indicesEnd, "end", "", "Range end, RFC 3339 (default now)")
	indicesCmd.Flags().StringVar(&indicesPattern, "pattern", index.DefaultPattern, "Index naming pattern")
	indicesCmd.MarkFlagRequired("company")
}

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "Resolve the read indices covering a date range",
	RunE:  runIndices,
}

func runIndices(cmd *cobra.Command, args []string) error {
	var start, end *time.Time
	if indicesStart != "" {
		t, err := time.Parse(time.RFC3339, indicesStart)
		if err != nil {
			return fmt.Errorf("parse --start: %w", err)
		}
		start = &t
	}
	if indicesEnd != "" {
		t, err := time.Parse(time.RFC3339, indicesEnd)
		if err != nil {
			return fmt.Errorf("parse --end: %w", err)
		}
		end = &t
	}
	router := index.NewRouter(indicesPattern)
	fmt.Fprintln(cmd.OutOrStdout(), router.Read(indicesCompany, start, end, time.Now().UTC()))
	return nil
}
