package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/searchlang"
	"github.com/kailas-cloud/searchlang/internal/repository/history"
	suggestuc "github.com/kailas-cloud/searchlang/internal/usecase/suggest"
	"github.com/kailas-cloud/searchlang/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "searchctl",
		Short: "Inspect and edit search-language queries",
		Long: `searchctl tokenizes, parses and rewrites search-language queries.
Every command prints JSON to stdout.`,
		SilenceUsage: true,
	}
	root.AddCommand(
		newTokensCmd(),
		newClausesCmd(),
		newParseCmd(),
		newDecomposeCmd(),
		newSuggestCmd(),
		newVersionCmd(),
	)
	return root
}

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [query]",
		Short: "Print the token sequence of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toks, err := searchlang.New().Tokenize(args[0])
			if err != nil {
				return err //nolint:wrapcheck // client errors are already prefixed
			}
			return printJSON(cmd.OutOrStdout(), toks)
		},
	}
}

func newClausesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clauses [query]",
		Short: "Print the pipe-separated clauses of a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := searchlang.New().Clauses(args[0])
			if err != nil {
				return err //nolint:wrapcheck // client errors are already prefixed
			}
			return printJSON(cmd.OutOrStdout(), cs)
		},
	}
}

func newParseCmd() *cobra.Command {
	var intentions string

	cmd := &cobra.Command{
		Use:   "parse [query]",
		Short: "Parse a query, optionally applying intentions",
		Long: `Parses a query and applies a JSON array of intentions, e.g.

  searchctl parse 'index=main error' -i '[{"name":"addterm","arg":{"host":"web01"}}]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := searchlang.ParseIntentions(intentions)
			if err != nil {
				return err //nolint:wrapcheck // client errors are already prefixed
			}
			res, err := searchlang.New().Parse(cmd.Context(), args[0], list...)
			if err != nil {
				return err //nolint:wrapcheck // client errors are already prefixed
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&intentions, "intentions", "i", "", "JSON array of intentions")
	return cmd
}

func newDecomposeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decompose [query]",
		Short: "Reduce the base search to intentions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := searchlang.New().Decompose(cmd.Context(), args[0])
			if err != nil {
				return err //nolint:wrapcheck // client errors are already prefixed
			}
			return printJSON(cmd.OutOrStdout(), d)
		},
	}
}

func newSuggestCmd() *cobra.Command {
	var historyPath string

	cmd := &cobra.Command{
		Use:   "suggest [query]",
		Short: "Suggest corrections for unknown commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var h suggestuc.History
			if historyPath != "" {
				store, err := history.Open(cmd.Context(), historyPath)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				defer func() { _ = store.Close() }()
				h = store
			}
			corrections, err := suggestuc.New(h).DidYouMean(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("suggest: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"corrections": corrections})
		},
	}
	cmd.Flags().StringVar(&historyPath, "history", "", "path to a command history database")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "searchctl %s\n", version.String())
		},
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, strings.TrimSpace(string(data)))
	return err //nolint:wrapcheck // write errors are reported as is
}
