package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/promptbuild"
	"github.com/kayz/promptsmith/internal/session"
)

var (
	buildMode       string
	buildOutputPath string
	buildJSON       bool
	buildData       dataFlags
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the prompt of the working session",
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := promptbuild.ParseMode(buildMode)
		if err != nil {
			return err
		}
		return withSession(false, func(w *workspace, sess *session.Session) error {
			if err := buildData.attach(cmd.Context(), w, sess); err != nil {
				return err
			}
			p := sess.Render(mode)
			if missing := session.Unresolved(p); len(missing) > 0 {
				logger.Warn("Unresolved placeholders: %v", missing)
			}

			if buildJSON {
				return printJSON(p)
			}
			out := formatPrompt(p)
			if buildOutputPath == "" {
				fmt.Print(out)
				return nil
			}
			if err := os.WriteFile(buildOutputPath, []byte(out), 0644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			logger.Info("Prompt written to %s", buildOutputPath)
			return nil
		})
	},
}

func formatPrompt(p promptbuild.Prompt) string {
	if p.Mode != promptbuild.ModeRoles {
		return p.Text
	}
	return "=== SYSTEM ===\n" + p.System + "=== USER ===\n" + p.User
}

func init() {
	buildCmd.Flags().StringVar(&buildMode, "mode", "roles", "Assembly mode: roles or combined")
	buildCmd.Flags().StringVarP(&buildOutputPath, "output", "o", "", "Write output to file (default: stdout)")
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Print the prompt with its sections as JSON")
	buildCmd.Flags().StringVar(&buildData.file, "data", "", "Import a CSV, XLSX, JSON or text file for placeholder substitution")
	buildCmd.Flags().BoolVar(&buildData.graphql, "graphql", false, "Run the session's GraphQL query for placeholder substitution")
	rootCmd.AddCommand(buildCmd)
}
