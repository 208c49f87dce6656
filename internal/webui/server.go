package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kayz/promptsmith/internal/config"
	"github.com/kayz/promptsmith/internal/cron"
	"github.com/kayz/promptsmith/internal/dataimport"
	"github.com/kayz/promptsmith/internal/execute"
	"github.com/kayz/promptsmith/internal/logger"
	"github.com/kayz/promptsmith/internal/persist"
	"github.com/kayz/promptsmith/internal/promptbuild"
	"github.com/kayz/promptsmith/internal/session"
	"github.com/kayz/promptsmith/internal/state"
	"github.com/kayz/promptsmith/internal/structure"
)

// Options wires a Server. Files, History and GraphQL are optional.
type Options struct {
	Config     *config.Config
	Session    *session.Session
	Dispatcher *execute.Dispatcher
	Files      *persist.FileStore
	History    *persist.Store
	GraphQL    *dataimport.GraphQLClient
	Tasks      *cron.Scheduler
}

// Server exposes one session over HTTP. Every request holds mu for its whole
// duration, so interactions are applied one at a time.
type Server struct {
	mu         sync.Mutex
	cfg        *config.Config
	session    *session.Session
	dispatcher *execute.Dispatcher
	files      *persist.FileStore
	history    *persist.Store
	graphql    *dataimport.GraphQLClient
	tasks      *cron.Scheduler
	hub        *hub
	startedAt  time.Time
}

func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sess := opts.Session
	if sess == nil {
		sess = session.New(cfg.PromptBuild)
	}
	return &Server{
		cfg:        cfg,
		session:    sess,
		dispatcher: opts.Dispatcher,
		files:      opts.Files,
		history:    opts.History,
		graphql:    opts.GraphQL,
		tasks:      opts.Tasks,
		hub:        newHub(),
		startedAt:  time.Now().UTC(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	mux.HandleFunc("GET /api/state", s.handleStateAll)
	mux.HandleFunc("GET /api/state/{key}", s.handleStateGet)
	mux.HandleFunc("PUT /api/state/{key}", s.mutating(s.handleStateSet))

	mux.HandleFunc("GET /api/structure", s.handleStructure)
	mux.HandleFunc("POST /api/structure/move", s.mutating(s.handleMove))
	mux.HandleFunc("POST /api/structure/enable", s.mutating(s.handleEnable))
	mux.HandleFunc("POST /api/structure/role", s.mutating(s.handleRole))
	mux.HandleFunc("POST /api/structure/sections", s.mutating(s.handleAddSection))
	mux.HandleFunc("GET /api/structure/sections/{name}", s.handleSection)
	mux.HandleFunc("DELETE /api/structure/sections/{name}", s.mutating(s.handleRemoveSection))
	mux.HandleFunc("POST /api/structure/reset", s.mutating(s.handleResetStructure))

	mux.HandleFunc("GET /api/workflows", s.handleToggles(false))
	mux.HandleFunc("POST /api/workflows", s.mutating(s.handleSetToggle(false)))
	mux.HandleFunc("GET /api/agents", s.handleToggles(true))
	mux.HandleFunc("POST /api/agents", s.mutating(s.handleSetToggle(true)))

	mux.HandleFunc("POST /api/examples", s.mutating(s.handleAddExample))
	mux.HandleFunc("PUT /api/examples/{index}", s.mutating(s.handleUpdateExample))
	mux.HandleFunc("DELETE /api/examples/{index}", s.mutating(s.handleRemoveExample))
	mux.HandleFunc("POST /api/criteria/{list}", s.mutating(s.handleAddCriterion))
	mux.HandleFunc("DELETE /api/criteria/{list}/{index}", s.mutating(s.handleRemoveCriterion))
	mux.HandleFunc("POST /api/mappings/{source}", s.mutating(s.handleAddMapping))
	mux.HandleFunc("DELETE /api/mappings/{source}/{index}", s.mutating(s.handleRemoveMapping))

	mux.HandleFunc("GET /api/prompt", s.handlePrompt)
	mux.HandleFunc("POST /api/execute", s.handleExecute)
	mux.HandleFunc("GET /api/history", s.handleHistory)

	mux.HandleFunc("GET /api/data/fields", s.handleDataFields)
	mux.HandleFunc("POST /api/data/graphql", s.mutating(s.handleGraphQL))

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleSaveSession)
	mux.HandleFunc("POST /api/sessions/{name}/load", s.mutating(s.handleLoadSession))
	mux.HandleFunc("DELETE /api/sessions/{name}", s.handleDeleteSession)

	mux.HandleFunc("GET /api/templates", s.handleListTemplates)
	mux.HandleFunc("POST /api/templates", s.handleSaveTemplate)
	mux.HandleFunc("POST /api/templates/{name}/load", s.mutating(s.handleLoadTemplate))
	mux.HandleFunc("DELETE /api/templates/{name}", s.handleDeleteTemplate)

	mux.HandleFunc("GET /api/tasks", s.handleTasks)

	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return logRequests(mux)
}

// httpError carries the status a handler wants to answer with.
type httpError struct {
	status int
	err    error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

func badRequest(err error) error { return &httpError{status: http.StatusBadRequest, err: err} }

type handlerFunc func(w http.ResponseWriter, r *http.Request) (any, error)

// mutating serializes a state-changing handler and pushes the new prompt to
// websocket subscribers when it succeeds.
func (s *Server) mutating(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		payload, err := h(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		s.broadcastLocked()
		writeJSON(w, http.StatusOK, payload)
	}
}

// reading serializes a handler that does not change the session.
func (s *Server) reading(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		payload, err := h(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(defaultIndexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	provider := s.session.Store.String(state.KeyExecProvider)
	s.mu.Unlock()

	status := map[string]any{
		"ok":          true,
		"started_at":  s.startedAt.Format(time.RFC3339),
		"uptime_sec":  int(time.Since(s.startedAt).Seconds()),
		"provider":    provider,
		"backend":     s.dispatcher != nil && s.dispatcher.HasBackend(provider),
		"subscribers": s.hub.count(),
	}
	if s.dispatcher != nil {
		status["provider_stats"] = s.dispatcher.ProviderStats(provider)
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStateAll(w http.ResponseWriter, r *http.Request) {
	s.reading(func(http.ResponseWriter, *http.Request) (any, error) {
		return s.session.Store.Snapshot(), nil
	})(w, r)
}

func (s *Server) handleStateGet(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		key := r.PathValue("key")
		v, ok := s.session.Store.Get(key)
		if !ok {
			return nil, &httpError{status: http.StatusNotFound, err: errors.New("unknown key " + key)}
		}
		return map[string]any{"key": key, "value": v}, nil
	})(w, r)
}

type setValueRequest struct {
	Value any `json:"value"`
}

func (s *Server) handleStateSet(_ http.ResponseWriter, r *http.Request) (any, error) {
	key := r.PathValue("key")
	var req setValueRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := s.session.Store.Set(key, req.Value); err != nil {
		return nil, badRequest(err)
	}
	if isStructureKey(key) {
		s.session.Reloaded()
	}
	v, _ := s.session.Store.Get(key)
	return map[string]any{"key": key, "value": v}, nil
}

func isStructureKey(key string) bool {
	switch key {
	case state.KeyPromptStructure, state.KeySectionRoles, state.KeySectionOrder:
		return true
	}
	return false
}

func (s *Server) structurePayload() map[string]any {
	system, user := s.session.Sections.Grouped()
	return map[string]any{
		"sections":     s.session.Sections.Sections(),
		"system":       system,
		"user":         user,
		"display_mode": s.session.Store.String(state.KeyDisplayMode),
	}
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	s.reading(func(http.ResponseWriter, *http.Request) (any, error) {
		return s.structurePayload(), nil
	})(w, r)
}

type moveRequest struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	View      string `json:"view"`
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		name := r.PathValue("name")
		sec, ok := s.session.Sections.Lookup(name)
		if !ok {
			return nil, &httpError{status: http.StatusNotFound, err: errors.New("unknown section " + name)}
		}
		return map[string]any{
			"section": sec,
			"custom":  !s.session.Builder.Renderers().Known(name),
			"text":    s.session.Builder.RenderSection(name),
		}, nil
	})(w, r)
}

func (s *Server) handleMove(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req moveRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	var dir structure.Direction
	switch strings.ToLower(req.Direction) {
	case "up":
		dir = structure.Up
	case "down":
		dir = structure.Down
	default:
		return nil, badRequest(errors.New("direction must be up or down"))
	}
	view := req.View
	if view == "" {
		view = s.session.Store.String(state.KeyDisplayMode)
	}
	moved, err := s.session.Sections.Move(req.Name, dir, structure.ParseView(view))
	if err != nil {
		return nil, badRequest(err)
	}
	payload := s.structurePayload()
	payload["moved"] = moved
	return payload, nil
}

type enableRequest struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

func (s *Server) handleEnable(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req enableRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := s.session.Sections.SetEnabled(req.Name, req.Enabled); err != nil {
		return nil, badRequest(err)
	}
	return s.structurePayload(), nil
}

type sectionRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (s *Server) handleRole(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req sectionRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := s.session.Sections.SetRole(req.Name, req.Role); err != nil {
		return nil, badRequest(err)
	}
	return s.structurePayload(), nil
}

func (s *Server) handleAddSection(_ http.ResponseWriter, r *http.Request) (any, error) {
	var req sectionRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = state.RoleUser
	}
	if err := s.session.Sections.AddCustom(req.Name, req.Role); err != nil {
		return nil, badRequest(err)
	}
	return s.structurePayload(), nil
}

func (s *Server) handleRemoveSection(_ http.ResponseWriter, r *http.Request) (any, error) {
	if err := s.session.Sections.Remove(r.PathValue("name")); err != nil {
		return nil, badRequest(err)
	}
	return s.structurePayload(), nil
}

func (s *Server) handleResetStructure(http.ResponseWriter, *http.Request) (any, error) {
	s.session.Sections.Reset()
	return s.structurePayload(), nil
}

func (s *Server) handleToggles(agents bool) http.HandlerFunc {
	return s.reading(func(http.ResponseWriter, *http.Request) (any, error) {
		if agents {
			return s.session.Store.AgentStates(), nil
		}
		return s.session.Store.WorkflowStates(), nil
	})
}

func (s *Server) handleSetToggle(agents bool) handlerFunc {
	return func(_ http.ResponseWriter, r *http.Request) (any, error) {
		var req enableRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		if agents {
			if err := s.session.Store.SetAgent(req.Name, req.Enabled); err != nil {
				return nil, badRequest(err)
			}
			return s.session.Store.AgentStates(), nil
		}
		if err := s.session.Store.SetWorkflow(req.Name, req.Enabled); err != nil {
			return nil, badRequest(err)
		}
		return s.session.Store.WorkflowStates(), nil
	}
}

type promptResponse struct {
	promptbuild.Prompt
	Unresolved []string `json:"unresolved,omitempty"`
}

func (s *Server) renderLocked(mode promptbuild.Mode) promptResponse {
	p := s.session.Render(mode)
	return promptResponse{Prompt: p, Unresolved: session.Unresolved(p)}
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		mode, err := promptbuild.ParseMode(r.URL.Query().Get("mode"))
		if err != nil {
			return nil, badRequest(err)
		}
		return s.renderLocked(mode), nil
	})(w, r)
}

type executeRequest struct {
	Mode string `json:"mode"`
}

type executeResponse struct {
	execute.Result
	Error string `json:"error,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		if s.dispatcher == nil {
			return nil, &httpError{status: http.StatusServiceUnavailable, err: errors.New("dispatcher is not initialized")}
		}
		var req executeRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		mode, err := promptbuild.ParseMode(req.Mode)
		if err != nil {
			return nil, badRequest(err)
		}
		p := s.session.Render(mode)
		res, err := s.dispatcher.Dispatch(r.Context(), execute.RequestFromStore(s.session.Store, p))
		if err != nil {
			return nil, badRequest(err)
		}
		out := executeResponse{Result: res}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		return out, nil
	})(w, r)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		if s.history == nil {
			return []*persist.Execution{}, nil
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := s.history.ListExecutions(limit)
		if err != nil {
			return nil, err
		}
		if list == nil {
			list = []*persist.Execution{}
		}
		return list, nil
	})(w, r)
}

func (s *Server) handleDataFields(w http.ResponseWriter, r *http.Request) {
	s.reading(func(http.ResponseWriter, *http.Request) (any, error) {
		out := map[string][]string{"file": {}, "graphql": {}}
		if ds := s.session.Dataset(); ds != nil {
			out["file"] = ds.Fields
		}
		if res := s.session.GraphQLResult(); res != nil {
			out["graphql"] = res.Fields()
		}
		return out, nil
	})(w, r)
}

func (s *Server) handleGraphQL(_ http.ResponseWriter, r *http.Request) (any, error) {
	if s.graphql == nil {
		return nil, &httpError{status: http.StatusServiceUnavailable, err: errors.New("graphql client is not initialized")}
	}
	var req dataimport.GraphQLRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	st := s.session.Store
	if req.Endpoint == "" {
		req.Endpoint = st.String(state.KeyGraphQLEndpoint)
	}
	if req.Query == "" {
		req.Query = st.String(state.KeyGraphQLQuery)
	}
	if req.Headers == nil {
		req.Headers = st.StringMap(state.KeyGraphQLHeaders)
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.GraphQL.TimeoutSeconds)*time.Second)
	defer cancel()
	res, err := s.graphql.Query(ctx, req)
	if err != nil {
		return nil, &httpError{status: http.StatusBadGateway, err: err}
	}
	s.session.SetGraphQLResult(res)
	_ = st.Set(state.KeyGraphQLEndpoint, req.Endpoint)
	_ = st.Set(state.KeyGraphQLQuery, req.Query)
	return map[string]any{"fields": res.Fields(), "errors": res.Errors}, nil
}

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) requireFiles() error {
	if s.files == nil {
		return &httpError{status: http.StatusServiceUnavailable, err: errors.New("file store is not initialized")}
	}
	return nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	s.reading(func(http.ResponseWriter, *http.Request) (any, error) {
		if err := s.requireFiles(); err != nil {
			return nil, err
		}
		list, err := s.files.ListSessions()
		if list == nil {
			list = []persist.SessionInfo{}
		}
		return list, err
	})(w, r)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		if err := s.requireFiles(); err != nil {
			return nil, err
		}
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		return s.files.SaveSession(req.Name, s.session.Store)
	})(w, r)
}

// SaveSession writes the live session to the file store. It is safe to call
// while requests are being served.
func (s *Server) SaveSession(name string) (persist.SessionInfo, error) {
	if err := s.requireFiles(); err != nil {
		return persist.SessionInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files.SaveSession(name, s.session.Store)
}

func (s *Server) handleTasks(w http.ResponseWriter, _ *http.Request) {
	if s.tasks == nil {
		writeJSON(w, http.StatusOK, []cron.TaskStatus{})
		return
	}
	writeJSON(w, http.StatusOK, s.tasks.Tasks())
}

func (s *Server) handleLoadSession(_ http.ResponseWriter, r *http.Request) (any, error) {
	if err := s.requireFiles(); err != nil {
		return nil, err
	}
	meta, err := s.files.LoadSession(r.PathValue("name"), s.session.Store)
	if err != nil {
		return nil, err
	}
	s.session.Reloaded()
	return meta, nil
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		if err := s.requireFiles(); err != nil {
			return nil, err
		}
		return map[string]bool{"deleted": true}, s.files.DeleteSession(r.PathValue("name"))
	})(w, r)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	s.reading(func(http.ResponseWriter, *http.Request) (any, error) {
		if err := s.requireFiles(); err != nil {
			return nil, err
		}
		list, err := s.files.ListTemplates()
		if list == nil {
			list = []string{}
		}
		return list, err
	})(w, r)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		if err := s.requireFiles(); err != nil {
			return nil, err
		}
		var req nameRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		path, err := s.files.SaveTemplate(req.Name, s.session.Store)
		return map[string]string{"path": path}, err
	})(w, r)
}

func (s *Server) handleLoadTemplate(_ http.ResponseWriter, r *http.Request) (any, error) {
	if err := s.requireFiles(); err != nil {
		return nil, err
	}
	if err := s.files.LoadTemplate(r.PathValue("name"), s.session.Store); err != nil {
		return nil, err
	}
	s.session.Reloaded()
	return s.structurePayload(), nil
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	s.reading(func(_ http.ResponseWriter, r *http.Request) (any, error) {
		if err := s.requireFiles(); err != nil {
			return nil, err
		}
		return map[string]bool{"deleted": true}, s.files.DeleteTemplate(r.PathValue("name"))
	})(w, r)
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest(errors.New("invalid json body"))
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var he *httpError
	switch {
	case errors.As(err, &he):
		status = he.status
	case errors.Is(err, persist.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, persist.ErrEmptyName):
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		logger.Warn("Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
