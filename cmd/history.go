package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/persist"
)

var (
	historyLimit     int
	versionName      string
	feedbackComment  string
	feedbackListOnly bool
)

// withHistory opens the history database for the duration of fn.
func withHistory(fn func(h *persist.Store) error) error {
	h, err := openWorkspace().openHistory()
	if err != nil {
		return err
	}
	defer h.Close()
	return fn(h)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded executions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List executions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *persist.Store) error {
			list, err := h.ListExecutions(historyLimit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No executions recorded.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer tw.Flush()
			fmt.Fprintln(tw, "ID\tTIME\tPROVIDER\tMODEL\tTOKENS\tSIMULATED")
			for _, e := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\t%v\n",
					e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Provider, e.Model,
					e.Metadata["total_tokens"], e.Simulated)
			}
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <execution-id>",
	Short: "Print one execution",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *persist.Store) error {
			e, err := h.GetExecution(args[0])
			if err != nil {
				return err
			}
			return printJSON(e)
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all recorded executions and their feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *persist.Store) error {
			if err := h.ClearExecutions(); err != nil {
				return err
			}
			fmt.Println("Execution history cleared.")
			return nil
		})
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Save and compare generated content",
}

var versionsSaveCmd = &cobra.Command{
	Use:   "save <execution-id>",
	Short: "Save the content of an execution as a named version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *persist.Store) error {
			e, err := h.GetExecution(args[0])
			if err != nil {
				return err
			}
			v := &persist.Version{
				Name:        versionName,
				ExecutionID: e.ID,
				Content:     e.Content,
				Metadata: map[string]any{
					"provider":      e.Provider,
					"model":         e.Model,
					"parameters":    e.Params,
					"system_prompt": e.SystemPrompt,
					"user_prompt":   e.UserPrompt,
				},
			}
			if err := h.SaveVersion(v); err != nil {
				return err
			}
			fmt.Printf("Saved version %s (%s)\n", v.Name, v.ID)
			return nil
		})
	},
}

var versionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *persist.Store) error {
			list, err := h.ListVersions()
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No saved versions.")
				return nil
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer tw.Flush()
			fmt.Fprintln(tw, "ID\tNAME\tMODEL\tSAVED")
			for _, v := range list {
				fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", v.ID, v.Name, v.Metadata["model"], v.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		})
	},
}

var versionsDiffCmd = &cobra.Command{
	Use:   "diff <version-a> <version-b>",
	Short: "Show a unified diff between two versions (by id or name)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *persist.Store) error {
			diff, err := h.DiffVersions(args[0], args[1])
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Println("Versions are identical.")
				return nil
			}
			fmt.Print(diff)
			return nil
		})
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback <execution-id> [rating 1-5]",
	Short: "Rate an execution, or list its feedback",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(func(h *persist.Store) error {
			if len(args) == 1 || feedbackListOnly {
				list, err := h.ListFeedback(args[0])
				if err != nil {
					return err
				}
				for _, f := range list {
					fmt.Printf("%d/5  %s  %s\n", f.Rating, f.CreatedAt.Local().Format("2006-01-02 15:04"), f.Comment)
				}
				return nil
			}
			if _, err := h.GetExecution(args[0]); err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}
			return h.RecordFeedback(&persist.Feedback{ExecutionID: args[0], Rating: rating, Comment: feedbackComment})
		})
	},
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of executions (0 for all)")
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyClearCmd)

	versionsSaveCmd.Flags().StringVar(&versionName, "name", "", "Version name (default: Version_<timestamp>)")
	versionsCmd.AddCommand(versionsSaveCmd, versionsListCmd, versionsDiffCmd)

	feedbackCmd.Flags().StringVar(&feedbackComment, "comment", "", "Feedback comment")
	feedbackCmd.Flags().BoolVar(&feedbackListOnly, "list", false, "List feedback instead of recording it")

	rootCmd.AddCommand(historyCmd, versionsCmd, feedbackCmd)
}
