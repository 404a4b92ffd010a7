package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/songlex/pkg/songlex"
	"github.com/cognicore/songlex/pkg/songlex/internalerr"
	"github.com/cognicore/songlex/pkg/songlex/lsa"
	"github.com/cognicore/songlex/pkg/songlex/report"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dbFlag string
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore(cmd.Context(), dbFlag)
			if err != nil {
				return err
			}
			a, err := ctx.analysis(st)
			if err != nil {
				if st != nil {
					st.Close()
				}
				return err
			}
			defer a.Close()

			res, err := a.Run(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag {
				return report.WriteJSON(cmd.OutOrStdout(), report.NewJSON(res))
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Summary(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database to store the run in")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Write the run as JSON")
	return cmd
}

func newDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Show descriptive statistics of the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withResult(cmd.Context(), func(res *songlex.Result) error {
				fmt.Fprint(cmd.OutOrStdout(), report.Describe(res))
				return nil
			})
		},
	}
}

func newSizesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "Show normalized body lengths and unparsed sizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.analysis(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			corpus, err := a.Load()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), report.Sizes(corpus))
			return nil
		},
	}
}

func newCrossRefCommand(ctx *commandContext) *cobra.Command {
	var wordsFlag bool

	cmd := &cobra.Command{
		Use:   "crossref",
		Short: "Cross-reference the corpus with the reference word lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withResult(cmd.Context(), func(res *songlex.Result) error {
				fmt.Fprint(cmd.OutOrStdout(), report.CrossRef(res, wordsFlag))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&wordsFlag, "words", false, "List every reference word with its attestation")
	return cmd
}

func newLSACommand(ctx *commandContext) *cobra.Command {
	var neighborsFlag string
	var clustersFlag int

	cmd := &cobra.Command{
		Use:   "lsa",
		Short: "Build the exploratory LSA space over species",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if clustersFlag > 0 {
				cfg.LSA.Clusters = clustersFlag
			}
			return ctx.withResult(cmd.Context(), func(res *songlex.Result) error {
				if res.Space == nil {
					return fmt.Errorf("lsa: no model built: %s", res.Skipped["lsa"])
				}
				out := cmd.OutOrStdout()
				fmt.Fprint(out, report.Model(res.Space, res.Clusters))

				query := strings.TrimSpace(neighborsFlag)
				if query == "" {
					return nil
				}
				ns, err := neighbors(res.Space, query, cfg.LSA.Neighbors)
				if err != nil {
					return err
				}
				fmt.Fprint(out, report.Neighbors(query, ns))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&neighborsFlag, "neighbors", "", "Show the nearest terms (or species) to this word")
	cmd.Flags().IntVar(&clustersFlag, "clusters", 0, "Number of term clusters, overrides the analysis file")
	return cmd
}

// neighbors looks query up as a term first, then as a species.
func neighbors(space *lsa.Space, query string, k int) ([]lsa.Neighbor, error) {
	query = strings.Join(strings.Fields(strings.ToLower(query)), " ")
	ns, err := space.Neighbors(query, k)
	if err == nil {
		return ns, nil
	}
	if !errors.Is(err, internalerr.ErrNotFound) {
		return nil, err
	}
	return space.DocNeighbors(query, k)
}
