package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/dynamize/strategy"
)

func newPlanCmd() *cobra.Command {
	var (
		name string
		n    int
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the digit vector and merge plan of each insertion",
		Example: `  dynabench plan --strategy skew-binary -n 16
  dynabench plan -n 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if n < 0 {
				return fmt.Errorf("-n must be non-negative, got %d", n)
			}
			s, err := strategy.ByName(name)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "N\tDIGITS\tELEMENTS\tPLAN")

			var d strategy.Digits
			for i := 1; i <= n; i++ {
				next, plan := s.PlanInsert(d)
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i, next, plan.Elements(s, d), plan)
				d = next
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&name, "strategy", "binary", fmt.Sprintf("merge strategy %v", strategy.Names()))
	cmd.Flags().IntVarP(&n, "num", "n", 16, "number of insertions")
	return cmd
}
