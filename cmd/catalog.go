package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/session"
	"github.com/kayz/promptsmith/internal/state"
)

func toggleCmd(use, kind string, list func(*state.Store) []state.ToggleState, set func(*state.Store, string, bool) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [name on|off]",
		Short: "List " + kind + "s or switch one on or off",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <name> <on|off>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return withSession(false, func(_ *workspace, sess *session.Session) error {
					for _, t := range list(sess.Store) {
						mark := "[ ]"
						if t.Enabled {
							mark = "[x]"
						}
						fmt.Printf("%s %-22s %s\n", mark, t.Name, t.Description)
					}
					return nil
				})
			}

			var on bool
			switch strings.ToLower(args[1]) {
			case "on", "true", "enable":
				on = true
			case "off", "false", "disable":
			default:
				return fmt.Errorf("state must be on or off, got %q", args[1])
			}
			return withSession(true, func(_ *workspace, sess *session.Session) error {
				return set(sess.Store, args[0], on)
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(
		toggleCmd("workflow", "workflow", (*state.Store).WorkflowStates, (*state.Store).SetWorkflow),
		toggleCmd("agent", "agent", (*state.Store).AgentStates, (*state.Store).SetAgent),
	)
}
