package webui

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kayz/promptsmith/internal/state"
)

// List routes edit examples, criteria and mappings through the store's list
// operations so their rules hold; PUT /api/state/{key} replaces whole lists.

func pathIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, badRequest(errors.New("index must be an integer"))
	}
	return i, nil
}

func (s *Server) listPayload(key string) (any, error) {
	v, _ := s.session.Store.Get(key)
	return map[string]any{"key": key, "value": v}, nil
}

func (s *Server) handleAddExample(_ http.ResponseWriter, r *http.Request) (any, error) {
	var ex state.Example
	if err := decodeBody(r, &ex); err != nil {
		return nil, err
	}
	s.session.Store.AddExample(ex)
	return s.listPayload(state.KeyExamples)
}

func (s *Server) handleUpdateExample(_ http.ResponseWriter, r *http.Request) (any, error) {
	i, err := pathIndex(r)
	if err != nil {
		return nil, err
	}
	var ex state.Example
	if err := decodeBody(r, &ex); err != nil {
		return nil, err
	}
	if err := s.session.Store.UpdateExample(i, ex); err != nil {
		return nil, badRequest(err)
	}
	return s.listPayload(state.KeyExamples)
}

func (s *Server) handleRemoveExample(_ http.ResponseWriter, r *http.Request) (any, error) {
	i, err := pathIndex(r)
	if err != nil {
		return nil, err
	}
	if err := s.session.Store.RemoveExample(i); err != nil {
		return nil, badRequest(err)
	}
	return s.listPayload(state.KeyExamples)
}

func (s *Server) handleAddCriterion(_ http.ResponseWriter, r *http.Request) (any, error) {
	key, err := state.CriteriaKey(r.PathValue("list"))
	if err != nil {
		return nil, badRequest(err)
	}
	var c state.Criterion
	if err := decodeBody(r, &c); err != nil {
		return nil, err
	}
	if c.Name == "" {
		return nil, badRequest(errors.New("criterion name is required"))
	}
	if err := s.session.Store.AddCriterion(key, c); err != nil {
		return nil, badRequest(err)
	}
	return s.listPayload(key)
}

func (s *Server) handleRemoveCriterion(_ http.ResponseWriter, r *http.Request) (any, error) {
	key, err := state.CriteriaKey(r.PathValue("list"))
	if err != nil {
		return nil, badRequest(err)
	}
	i, err := pathIndex(r)
	if err != nil {
		return nil, err
	}
	if err := s.session.Store.RemoveCriterion(key, i); err != nil {
		return nil, badRequest(err)
	}
	return s.listPayload(key)
}

func (s *Server) handleAddMapping(_ http.ResponseWriter, r *http.Request) (any, error) {
	key, err := state.MappingKey(r.PathValue("source"))
	if err != nil {
		return nil, badRequest(err)
	}
	var m state.Mapping
	if err := decodeBody(r, &m); err != nil {
		return nil, err
	}
	if err := s.session.Store.AddMapping(key, m); err != nil {
		return nil, badRequest(err)
	}
	return s.listPayload(key)
}

func (s *Server) handleRemoveMapping(_ http.ResponseWriter, r *http.Request) (any, error) {
	key, err := state.MappingKey(r.PathValue("source"))
	if err != nil {
		return nil, badRequest(err)
	}
	i, err := pathIndex(r)
	if err != nil {
		return nil, err
	}
	if err := s.session.Store.RemoveMapping(key, i); err != nil {
		return nil, badRequest(err)
	}
	return s.listPayload(key)
}
