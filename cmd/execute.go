package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/execute"
	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/promptbuild"
	"github.com/kayz/promptsmith/internal/session"
)

var (
	execMode        string
	execProvider    string
	execModel       string
	execModels      []string
	execRepeat      int
	execTemperature float64
	execMaxTokens   int
	execJSON        bool
	execData        dataFlags
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Send the assembled prompt to a generation backend",
	Long: `Send the assembled prompt to a generation backend.

Parameters come from the session's execution_* keys unless overridden by
flags. Without an API key for the provider, or when the call fails, a
simulated response is returned instead. Use --models or --repeat to run
several independent requests concurrently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := promptbuild.ParseMode(execMode)
		if err != nil {
			return err
		}
		return withSession(false, func(w *workspace, sess *session.Session) error {
			if err := execData.attach(cmd.Context(), w, sess); err != nil {
				return err
			}

			d, err := w.dispatcher()
			if err != nil {
				return err
			}
			history, err := w.openHistory()
			if err != nil {
				logger.Warn("History unavailable, executions will not be recorded: %v", err)
			} else {
				defer history.Close()
				d.SetRecorder(history)
			}

			base := execute.RequestFromStore(sess.Store, sess.Render(mode))
			if cmd.Flags().Changed("provider") {
				base.Provider = execProvider
			}
			if cmd.Flags().Changed("model") {
				base.Model = execModel
			}
			if cmd.Flags().Changed("temperature") {
				base.Temperature = execTemperature
			}
			if cmd.Flags().Changed("max-tokens") {
				base.MaxTokens = execMaxTokens
			}

			reqs := expandRequests(base)
			results, err := d.DispatchAll(cmd.Context(), reqs)
			if err != nil {
				return err
			}
			if execJSON {
				return printJSON(results)
			}
			for i, res := range results {
				printResult(reqs[i], res, len(results) > 1)
			}
			return nil
		})
	},
}

func expandRequests(base execute.Request) []execute.Request {
	var reqs []execute.Request
	models := execModels
	if len(models) == 0 {
		models = []string{base.Model}
	}
	repeat := execRepeat
	if repeat < 1 {
		repeat = 1
	}
	for _, m := range models {
		for i := 0; i < repeat; i++ {
			r := base
			r.Model = strings.TrimSpace(m)
			reqs = append(reqs, r)
		}
	}
	return reqs
}

func printResult(req execute.Request, res execute.Result, header bool) {
	if header {
		fmt.Printf("===== %s / %s =====\n", req.Provider, req.Model)
	}
	fmt.Println(res.Content)
	md := res.Metadata
	fmt.Printf("\n[execution %s] model=%s tokens=%d (prompt %d, completion %d) time=%.2fs",
		res.ExecutionID, md.Model, md.TotalTokens, md.PromptTokens, md.CompletionTokens, md.GenerationTime)
	if md.Simulated {
		fmt.Print(" simulated")
	}
	fmt.Println()
	if res.Err != nil {
		fmt.Printf("[error] %v\n", res.Err)
	}
	fmt.Println()
}

func init() {
	executeCmd.Flags().StringVar(&execMode, "mode", "roles", "Assembly mode: roles or combined")
	executeCmd.Flags().StringVar(&execProvider, "provider", "", "Override the provider (OpenAI, Anthropic, Custom)")
	executeCmd.Flags().StringVar(&execModel, "model", "", "Override the model")
	executeCmd.Flags().StringSliceVar(&execModels, "models", nil, "Run once per model, concurrently")
	executeCmd.Flags().IntVar(&execRepeat, "repeat", 1, "Run each request N times, concurrently")
	executeCmd.Flags().Float64Var(&execTemperature, "temperature", 0.7, "Override the temperature (0..1)")
	executeCmd.Flags().IntVar(&execMaxTokens, "max-tokens", 2000, "Override max tokens")
	executeCmd.Flags().BoolVar(&execJSON, "json", false, "Print results as JSON")
	executeCmd.Flags().StringVar(&execData.file, "data", "", "Import a data file for placeholder substitution")
	executeCmd.Flags().BoolVar(&execData.graphql, "graphql", false, "Run the session's GraphQL query for placeholder substitution")
	rootCmd.AddCommand(executeCmd)
}
