// Package oadatest provides an in-memory OADA document tree served over
// httptest for tests of connections and probe kinds.
package oadatest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
)

const Token = "test-token"

// Server serves a JSON tree. GET /a/b returns the value at tree["a"]["b"];
// missing paths answer 404. Requests without "Bearer <Token>" answer 401.
type Server struct {
	*httptest.Server

	mu   sync.RWMutex
	tree map[string]interface{}

	requests int64
}

func NewServer(tree map[string]interface{}) *Server {
	if tree == nil {
		tree = map[string]interface{}{}
	}
	if _, ok := tree["bookmarks"]; !ok {
		tree["bookmarks"] = map[string]interface{}{}
	}

	s := &Server{tree: tree}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Requests returns the number of requests served so far.
func (s *Server) Requests() int64 {
	return atomic.LoadInt64(&s.requests)
}

// Set replaces the value at path, creating intermediate documents.
func (s *Server) Set(path string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := split(path)
	node := s.tree
	for _, p := range parts[:len(parts)-1] {
		next, ok := node[p].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			node[p] = next
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
}

func (s *Server) lookup(path string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var node interface{} = s.tree
	for _, p := range split(path) {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if node, ok = m[p]; !ok {
			return nil, false
		}
	}
	return node, true
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&s.requests, 1)

	if r.Header.Get("Authorization") != "Bearer "+Token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	value, ok := s.lookup(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(value)
}

func split(path string) []string {
	var out []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
