package cli

import (
	"github.com/spf13/cobra"

	"github.com/torii-ai/kansa"
	"github.com/torii-ai/kansa/index"
)

func init() {
	rootCmd.AddCommand(templateCmd)
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Print the managed index template",
	Long: "Renders the index template the engine ensures at startup, using the\n" +
		"KANSA_* environment for pattern, shard, and replica settings.",
	RunE: runTemplate,
}

func runTemplate(cmd *cobra.Command, args []string) error {
	cfg, err := kansa.ConfigFromEnv()
	if err != nil {
		return err
	}
	router := index.NewRouter(cfg.IndexPattern)
	body := index.Template(router.Wildcard(), cfg.Shards, cfg.Replicas)
	return printJSON(cmd.OutOrStdout(), body)
}
