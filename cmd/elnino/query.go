package main

import (
	"github.com/spf13/cobra"

	"elnino/internal/query"
	"elnino/internal/sink"
)

var queryCmd = &cobra.Command{
	Use:   "query [flags] <db.mp|export.json> <jq>",
	Short: "Run a jq program over a saved type database",
	Example: `  elnino query types.mp '.types[] | select(.kind == "struct") | .name'
  elnino query types.json '.types[] | select(.name == "_LIST_ENTRY") | .c' --raw`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE:         runQuery,
}

func init() {
	queryCmd.Flags().Bool("raw", false, "print string results without quotes")
}

func runQuery(cmd *cobra.Command, args []string) error {
	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}
	q, err := query.Parse(args[1])
	if err != nil {
		return err
	}
	db, err := sink.ReadDatabase(args[0])
	if err != nil {
		return err
	}
	results, err := q.RunDatabase(cmd.Context(), db)
	if err != nil {
		return err
	}
	return query.Write(cmd.OutOrStdout(), results, raw)
}
