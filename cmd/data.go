package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kayz/promptsmith/internal/dataimport"
	"github.com/kayz/promptsmith/internal/session"
	"github.com/kayz/promptsmith/internal/state"
)

var (
	dataPreviewRows int
	gqlEndpoint     string
	gqlQuery        string
	gqlQueryFile    bool
	gqlHeaders      map[string]string
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Inspect data sources used for placeholder substitution",
}

var dataFieldsCmd = &cobra.Command{
	Use:   "fields <file>",
	Short: "List the fields of a CSV, XLSX, JSON or text file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataimport.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s, %d records)\n", ds.Name, ds.Format, len(ds.Records))
		for _, f := range ds.Fields {
			fmt.Printf("  %s\n", f)
		}
		if dataPreviewRows > 0 {
			return printJSON(ds.Preview(dataPreviewRows))
		}
		return nil
	},
}

var dataGraphQLCmd = &cobra.Command{
	Use:   "graphql",
	Short: "Run a GraphQL query and list the fields of its data",
	Long: `Run a GraphQL query and list the fields of its data.

Endpoint, query and headers default to the working session's values. Values
given as flags are stored in the session on success.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(true, func(w *workspace, sess *session.Session) error {
			req := dataimport.GraphQLRequest{Endpoint: gqlEndpoint, Query: gqlQuery, Headers: gqlHeaders}
			if gqlQueryFile && gqlQuery != "" {
				q, err := readFileString(gqlQuery)
				if err != nil {
					return err
				}
				req.Query = q
			}
			res, err := queryGraphQL(cmd.Context(), w, sess, req)
			if err != nil {
				return err
			}
			for _, e := range res.Errors {
				fmt.Printf("warning: %s\n", e.Message)
			}
			for _, f := range res.Fields() {
				fmt.Println(f)
			}

			st := sess.Store
			if gqlEndpoint != "" {
				_ = st.Set(state.KeyGraphQLEndpoint, req.Endpoint)
			}
			if req.Query != "" {
				_ = st.Set(state.KeyGraphQLQuery, req.Query)
			}
			if len(gqlHeaders) > 0 {
				_ = st.Set(state.KeyGraphQLHeaders, gqlHeaders)
			}
			return nil
		})
	},
}

func init() {
	dataFieldsCmd.Flags().IntVar(&dataPreviewRows, "preview", 0, "Print the first N records")
	dataGraphQLCmd.Flags().StringVar(&gqlEndpoint, "endpoint", "", "GraphQL endpoint URL")
	dataGraphQLCmd.Flags().StringVar(&gqlQuery, "query", "", "GraphQL query text")
	dataGraphQLCmd.Flags().BoolVar(&gqlQueryFile, "query-file", false, "Treat --query as a path to a file holding the query")
	dataGraphQLCmd.Flags().StringToStringVar(&gqlHeaders, "header", nil, "Request header as key=value (repeatable)")
	dataCmd.AddCommand(dataFieldsCmd, dataGraphQLCmd)
	rootCmd.AddCommand(dataCmd)
}
