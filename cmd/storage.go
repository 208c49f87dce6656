package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/session"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Save and load reusable prompt templates",
}

var templateSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the prompt fields of the working session as a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(w *workspace, sess *session.Session) error {
			path, err := w.files.SaveTemplate(args[0], sess.Store)
			if err != nil {
				return err
			}
			fmt.Printf("Template saved to %s\n", path)
			return nil
		})
	},
}

var templateLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Load a template into the working session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(w *workspace, sess *session.Session) error {
			if err := w.files.LoadTemplate(args[0], sess.Store); err != nil {
				return err
			}
			sess.Reloaded()
			fmt.Printf("Template %s loaded\n", args[0])
			return nil
		})
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := openWorkspace().files.ListTemplates()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No saved templates found.")
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openWorkspace().files.DeleteTemplate(args[0])
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Snapshot and restore the whole working session",
}

var sessionSaveCmd = &cobra.Command{
	Use:   "save [name]",
	Short: "Save the working session under a name (default: state_<timestamp>)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return withSession(false, func(w *workspace, sess *session.Session) error {
			info, err := w.files.SaveSession(name, sess.Store)
			if err != nil {
				return err
			}
			fmt.Printf("Session saved as %s (%s)\n", info.Name, info.Path)
			return nil
		})
	},
}

var sessionLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Replace the working session's values with a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(w *workspace, sess *session.Session) error {
			meta, err := w.files.LoadSession(args[0], sess.Store)
			if err != nil {
				return err
			}
			sess.Reloaded()
			fmt.Printf("Session %s loaded (saved %s)\n", args[0], meta.SavedAt)
			return nil
		})
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := openWorkspace().files.ListSessions()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No saved sessions found.")
			return nil
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()
		fmt.Fprintln(tw, "NAME\tSAVED AT\tID")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.Meta.SavedAt, s.Meta.ID)
		}
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openWorkspace().files.DeleteSession(args[0])
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the working session to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := openWorkspace()
		return w.saveSession(session.New(w.cfg.PromptBuild))
	},
}

func init() {
	templateCmd.AddCommand(templateSaveCmd, templateLoadCmd, templateListCmd, templateDeleteCmd)
	sessionCmd.AddCommand(sessionSaveCmd, sessionLoadCmd, sessionListCmd, sessionDeleteCmd, sessionResetCmd)
	rootCmd.AddCommand(templateCmd, sessionCmd)
}
