package main

import (
	"fmt"
	"sort"

	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the types and objects of the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			specs := a.framework.Registry().Specs()

			if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
				fmt.Fprint(out, graph.GenerateMermaid(specs))
				return nil
			}

			md := tui.DescribeTypes(specs) + seedsMarkdown(a)
			if plain, _ := cmd.Flags().GetBool("plain"); plain || !tui.IsTerminal() {
				fmt.Fprint(out, md)
				return nil
			}
			tui.PrintBanner(out)
			rendered, err := tui.NewRenderer()(md)
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
			return nil
		},
	}
	cmd.Flags().Bool("mermaid", false, "Print a Mermaid class diagram instead")
	cmd.Flags().Bool("plain", false, "Print raw markdown even on a terminal")
	return cmd
}

func seedsMarkdown(a *app) string {
	if len(a.seeds) == 0 {
		return ""
	}
	ids := make([]string, 0, len(a.seeds))
	for id := range a.seeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	md := "\n# Objects\n\n"
	for _, id := range ids {
		md += fmt.Sprintf("- `%s`\n", a.seeds[id])
	}
	return md
}
