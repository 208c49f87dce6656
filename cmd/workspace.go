package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kayz/promptsmith/internal/ai"
	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/dataimport"
	"github.com/kayz/promptsmith/internal/execute"
	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/persist"
	"github.com/kayz/promptsmith/internal/session"
	"github.com/kayz/promptsmith/internal/state"
)

// workspace is the resolved storage of one CLI invocation.
type workspace struct {
	cfg   *config.Config
	files *persist.FileStore
}

func openWorkspace() *workspace {
	cfg := appConfig
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.PromptBuild.AuditDir = cfg.Storage.Resolve(cfg.PromptBuild.AuditDir)
	cfg.PromptBuild.PresetsDir = cfg.Storage.Resolve(cfg.PromptBuild.PresetsDir)
	return &workspace{
		cfg: cfg,
		files: persist.NewFileStore(
			cfg.Storage.Resolve(cfg.Storage.TemplatesDir),
			cfg.Storage.Resolve(cfg.Storage.SessionsDir),
		),
	}
}

// loadSession returns the working session, or a fresh one when none was
// saved yet.
func (w *workspace) loadSession() (*session.Session, error) {
	sess := session.New(w.cfg.PromptBuild)
	if !w.files.SessionExists(sessionName) {
		logger.Debug("Session %s not found, starting from defaults", sessionName)
		return sess, nil
	}
	if _, err := w.files.LoadSession(sessionName, sess.Store); err != nil {
		return nil, err
	}
	sess.Reloaded()
	return sess, nil
}

func (w *workspace) saveSession(sess *session.Session) error {
	_, err := w.files.SaveSession(sessionName, sess.Store)
	return err
}

// withSession loads the working session, runs fn and saves the session
// back when fn succeeds and save is set.
func withSession(save bool, fn func(w *workspace, sess *session.Session) error) error {
	w := openWorkspace()
	sess, err := w.loadSession()
	if err != nil {
		return err
	}
	if err := fn(w, sess); err != nil {
		return err
	}
	if save {
		return w.saveSession(sess)
	}
	return nil
}

func (w *workspace) openHistory() (*persist.Store, error) {
	return persist.NewStore(w.cfg.Storage.Resolve(w.cfg.Storage.HistoryDB))
}

func (w *workspace) registry() (*ai.Registry, error) {
	return ai.LoadRegistry(w.cfg.Storage.Resolve(w.cfg.AI.ModelsFile))
}

func (w *workspace) dispatcher() (*execute.Dispatcher, error) {
	reg, err := w.registry()
	if err != nil {
		return nil, err
	}
	return execute.NewDispatcher(w.cfg, reg), nil
}

// dataFlags are the import options shared by build and execute.
type dataFlags struct {
	file    string
	graphql bool
}

// attach imports the requested data into sess for placeholder substitution.
func (d dataFlags) attach(ctx context.Context, w *workspace, sess *session.Session) error {
	if d.file != "" {
		ds, err := dataimport.LoadFile(d.file)
		if err != nil {
			return err
		}
		sess.SetDataset(ds)
	}
	if d.graphql {
		res, err := queryGraphQL(ctx, w, sess, dataimport.GraphQLRequest{})
		if err != nil {
			return err
		}
		sess.SetGraphQLResult(res)
	}
	return nil
}

// queryGraphQL fills empty request fields from the session and runs it.
func queryGraphQL(ctx context.Context, w *workspace, sess *session.Session, req dataimport.GraphQLRequest) (*dataimport.GraphQLResult, error) {
	st := sess.Store
	if req.Endpoint == "" {
		req.Endpoint = st.String(state.KeyGraphQLEndpoint)
	}
	if req.Query == "" {
		req.Query = st.String(state.KeyGraphQLQuery)
	}
	if req.Headers == nil {
		req.Headers = st.StringMap(state.KeyGraphQLHeaders)
	}
	if req.Endpoint == "" || req.Query == "" {
		return nil, fmt.Errorf("graphql endpoint and query are required")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(w.cfg.GraphQL.TimeoutSeconds)*time.Second)
	defer cancel()
	return dataimport.NewGraphQLClient(w.cfg.GraphQL).Query(ctx, req)
}

// parseValue reads a CLI value as JSON when it parses, else as a string.
func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v
	}
	return raw
}

func readFileString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
