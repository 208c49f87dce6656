package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/session"
	"github.com/kayz/promptsmith/internal/state"
	"github.com/kayz/promptsmith/internal/structure"
)

var (
	structureView string
	addRole       string
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Inspect and edit the section ordering, toggles and roles",
}

var structureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sections in the current display mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(_ *workspace, sess *session.Session) error {
			printSections(sess, viewFor(sess))
			return nil
		})
	},
}

var structureMoveCmd = &cobra.Command{
	Use:   "move <section> <up|down>",
	Short: "Move a section one step",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir structure.Direction
		switch strings.ToLower(args[1]) {
		case "up":
			dir = structure.Up
		case "down":
			dir = structure.Down
		default:
			return fmt.Errorf("direction must be up or down, got %q", args[1])
		}
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			view := viewFor(sess)
			moved, err := sess.Sections.Move(args[0], dir, view)
			if err != nil {
				return err
			}
			if !moved {
				fmt.Printf("%s is already at the %s\n", args[0], map[structure.Direction]string{structure.Up: "top", structure.Down: "bottom"}[dir])
			}
			printSections(sess, view)
			return nil
		})
	},
}

func toggleSectionCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <section>",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(true, func(_ *workspace, sess *session.Session) error {
				return sess.Sections.SetEnabled(args[0], enabled)
			})
		},
	}
}

var structureRoleCmd = &cobra.Command{
	Use:   "role <section> <System|User>",
	Short: "Assign a section to the system or user message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Sections.SetRole(args[0], args[1])
		})
	},
}

var structureAddCmd = &cobra.Command{
	Use:   "add <section>",
	Short: "Add a custom section at the end",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Sections.AddCustom(args[0], addRole)
		})
	},
}

var structureRemoveCmd = &cobra.Command{
	Use:   "remove <section>",
	Short: "Remove a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Sections.Remove(args[0])
		})
	},
}

var structureResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default ordering, toggles and roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			sess.Sections.Reset()
			return nil
		})
	},
}

var structureShowCmd = &cobra.Command{
	Use:   "show <section>",
	Short: "Print one section's flags and its rendered text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(_ *workspace, sess *session.Session) error {
			sec, ok := sess.Sections.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%q: %w", args[0], structure.ErrUnknownSection)
			}
			fmt.Printf("%s\nposition: %d\nenabled:  %v\nrole:     %s\n", sec.Name, sec.Index+1, sec.Enabled, sec.Role)
			if !sess.Builder.Renderers().Known(sec.Name) {
				fmt.Println("content:  custom stub")
			}
			text := sess.Builder.RenderSection(sec.Name)
			if text == "" {
				fmt.Println("\n(renders empty with the current configuration)")
				return nil
			}
			fmt.Printf("\n%s", text)
			return nil
		})
	},
}

var structureViewCmd = &cobra.Command{
	Use:   "view <chronological|grouped>",
	Short: "Set the display mode used for listing and moving",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := state.DisplayChronological
		if structure.ParseView(args[0]) == structure.Grouped {
			mode = state.DisplayGrouped
		}
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Store.Set(state.KeyDisplayMode, mode)
		})
	},
}

var structurePresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List structure presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := structure.ListPresets(openWorkspace().cfg.PromptBuild.PresetsDir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No presets found.")
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var structureApplyPresetCmd = &cobra.Command{
	Use:   "apply-preset <name|path>",
	Short: "Replace the section layout with a YAML preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(w *workspace, sess *session.Session) error {
			var (
				p   *structure.Preset
				err error
			)
			if _, statErr := os.Stat(args[0]); statErr == nil {
				p, err = structure.LoadPreset(args[0])
			} else {
				p, err = structure.LoadPresetByName(w.cfg.PromptBuild.PresetsDir, args[0])
			}
			if err != nil {
				return err
			}
			if err := sess.Sections.Apply(p); err != nil {
				return err
			}
			printSections(sess, viewFor(sess))
			return nil
		})
	},
}

func viewFor(sess *session.Session) structure.View {
	if structureView != "" {
		return structure.ParseView(structureView)
	}
	return structure.ParseView(sess.Store.String(state.KeyDisplayMode))
}

func printSections(sess *session.Session, view structure.View) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	renderers := sess.Builder.Renderers()
	row := func(s structure.Section) {
		mark := "[ ]"
		if s.Enabled {
			mark = "[x]"
		}
		kind := ""
		if !renderers.Known(s.Name) {
			kind = "custom"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.Index+1, mark, s.Name, s.Role, kind)
	}

	if view == structure.Grouped {
		system, user := sess.Sections.Grouped()
		fmt.Fprintln(tw, "System Prompt Sections")
		for _, s := range system {
			row(s)
		}
		fmt.Fprintln(tw, "User Prompt Sections")
		for _, s := range user {
			row(s)
		}
		return
	}
	for _, s := range sess.Sections.Sections() {
		row(s)
	}
}

func init() {
	structureCmd.PersistentFlags().StringVar(&structureView, "view", "", "Override the display mode: chronological or grouped")
	structureAddCmd.Flags().StringVar(&addRole, "role", state.RoleUser, "Role of the new section: System or User")
	structureCmd.AddCommand(
		structureListCmd,
		structureMoveCmd,
		toggleSectionCmd("enable", true),
		toggleSectionCmd("disable", false),
		structureRoleCmd,
		structureAddCmd,
		structureRemoveCmd,
		structureResetCmd,
		structureShowCmd,
		structureViewCmd,
		structurePresetsCmd,
		structureApplyPresetCmd,
	)
	rootCmd.AddCommand(structureCmd)
}
