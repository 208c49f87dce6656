package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List providers and models of the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := openWorkspace()
		reg, err := w.registry()
		if err != nil {
			return err
		}
		disp, err := w.dispatcher()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		fmt.Fprintln(tw, "PROVIDER\tMODEL\tAPI MODEL\tMAX TOKENS\tSKILLS\tBACKEND")
		for _, p := range reg.ListProviders() {
			if modelsProvider != "" && p.Name != modelsProvider {
				continue
			}
			backend := "simulated"
			if disp.HasBackend(p.Name) {
				backend = "live"
			}
			for _, m := range reg.ListModels(p.Name) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", p.Name, m.Name, m.APIModel(), m.MaxTokens, m.SkillsText(), backend)
			}
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "Only list this provider")
	rootCmd.AddCommand(modelsCmd)
}
