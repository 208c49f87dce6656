package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/session"
	"github.com/kayz/promptsmith/internal/state"
)

var setFromFile bool

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(_ *workspace, sess *session.Session) error {
			if len(args) == 0 {
				return printJSON(sess.Store.Snapshot())
			}
			v, ok := sess.Store.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown key %s", args[0])
			}
			if s, ok := v.(string); ok {
				fmt.Println(s)
				return nil
			}
			return printJSON(v)
		})
	},
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value of the working session.

String keys take the value verbatim. Other keys take JSON, for example:

  promptsmith set few_shot_enabled true
  promptsmith set examples '[{"input":"hi","output":"hello"}]'
  promptsmith set context --file context.md`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		var raw string
		switch {
		case setFromFile && len(args) == 2:
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			raw = string(data)
		case len(args) == 2:
			raw = args[1]
		default:
			return fmt.Errorf("value is required")
		}

		return withSession(true, func(_ *workspace, sess *session.Session) error {
			var v any = raw
			if kind, ok := sess.Store.KindOf(key); !ok || kind != state.KindString {
				v = parseValue(raw)
			}
			if err := sess.Store.Set(key, v); err != nil {
				return err
			}
			sess.Reloaded()
			return nil
		})
	},
}

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Edit the few-shot examples",
}

var exampleAddCmd = &cobra.Command{
	Use:   "add <input> <output>",
	Short: "Append an example",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			sess.Store.AddExample(state.Example{Input: args[0], Output: args[1]})
			return nil
		})
	},
}

var exampleRemoveCmd = &cobra.Command{
	Use:   "remove [index]",
	Short: "Remove an example by index, or the last one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			if len(args) == 0 {
				if !sess.Store.RemoveLastExample() {
					return fmt.Errorf("no examples to remove")
				}
				return nil
			}
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return sess.Store.RemoveExample(i)
		})
	},
}

var exampleUpdateCmd = &cobra.Command{
	Use:   "update <index> <input> <output>",
	Short: "Replace the example at index",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Store.UpdateExample(i, state.Example{Input: args[1], Output: args[2]})
		})
	},
}

var (
	criterionDescription string
	criterionWeight      int
)

var criterionCmd = &cobra.Command{
	Use:   "criterion",
	Short: "Edit the critic and evaluator criteria",
}

var criterionListCmd = &cobra.Command{
	Use:   "list <critic|evaluator>",
	Short: "List criteria with their index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := state.CriteriaKey(args[0])
		if err != nil {
			return err
		}
		return withSession(false, func(_ *workspace, sess *session.Session) error {
			for i, c := range sess.Store.Criteria(key) {
				fmt.Printf("%d. %s (weight %d) %s\n", i, c.Name, c.Weight, c.Description)
			}
			return nil
		})
	},
}

var criterionAddCmd = &cobra.Command{
	Use:   "add <critic|evaluator> <name>",
	Short: "Append a criterion; the weight is clamped to 1..5",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := state.CriteriaKey(args[0])
		if err != nil {
			return err
		}
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Store.AddCriterion(key, state.Criterion{
				Name:        args[1],
				Description: criterionDescription,
				Weight:      criterionWeight,
			})
		})
	},
}

var criterionRemoveCmd = &cobra.Command{
	Use:   "remove <critic|evaluator> <index>",
	Short: "Remove a criterion; the first one cannot be removed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := state.CriteriaKey(args[0])
		if err != nil {
			return err
		}
		i, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Store.RemoveCriterion(key, i)
		})
	},
}

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Bind imported fields to {{placeholders}}",
}

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List file and GraphQL mappings with their index",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(false, func(_ *workspace, sess *session.Session) error {
			for _, source := range []string{"file", "graphql"} {
				key, _ := state.MappingKey(source)
				for i, m := range sess.Store.Mappings(key) {
					fmt.Printf("%s %d. %s -> {{%s}}\n", source, i, m.Field, m.Placeholder)
				}
			}
			return nil
		})
	},
}

var mappingAddCmd = &cobra.Command{
	Use:   "add <file|graphql> <field> <placeholder>",
	Short: "Bind an imported field to a {{placeholder}}",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := state.MappingKey(args[0])
		if err != nil {
			return err
		}
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Store.AddMapping(key, state.Mapping{Field: args[1], Placeholder: args[2]})
		})
	},
}

var mappingRemoveCmd = &cobra.Command{
	Use:   "remove <file|graphql> <index>",
	Short: "Remove a mapping by index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := state.MappingKey(args[0])
		if err != nil {
			return err
		}
		i, err := parseIndex(args[1])
		if err != nil {
			return err
		}
		return withSession(true, func(_ *workspace, sess *session.Session) error {
			return sess.Store.RemoveMapping(key, i)
		})
	},
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}

func init() {
	setCmd.Flags().BoolVar(&setFromFile, "file", false, "Read the value from the named file")
	exampleCmd.AddCommand(exampleAddCmd, exampleUpdateCmd, exampleRemoveCmd)

	criterionAddCmd.Flags().StringVar(&criterionDescription, "description", "", "Criterion description")
	criterionAddCmd.Flags().IntVar(&criterionWeight, "weight", 3, "Weight 1..5")
	criterionCmd.AddCommand(criterionListCmd, criterionAddCmd, criterionRemoveCmd)

	mappingCmd.AddCommand(mappingListCmd, mappingAddCmd, mappingRemoveCmd)
	rootCmd.AddCommand(getCmd, setCmd, exampleCmd, criterionCmd, mappingCmd)
}
