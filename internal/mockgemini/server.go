// Package mockgemini serves a minimal stand-in for the Gemini
// generateContent endpoint so the pipeline can run without credentials.
package mockgemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/shpitdev/outreach-email-pipeline/internal/generate"
)

// Call records a generateContent request made to the mock service.
type Call struct {
	Method string
	Path   string
	Prompt string
}

// Responder produces the completion for a prompt. A non-zero status makes the
// server answer with a Gemini-style error envelope instead.
type Responder func(prompt string) (text string, status int)

// StubResponder answers every prompt with generate.Stub.
func StubResponder(prompt string) (string, int) {
	out, _ := generate.Stub{}.Complete(context.Background(), prompt)
	return out, 0
}

// Server implements the subset of the Gemini API used by the gemini backend.
type Server struct {
	mu        sync.Mutex
	calls     []Call
	responder Responder
	apiKey    string
}

// New constructs a mock server. A nil responder uses StubResponder.
func New(responder Responder) *Server {
	if responder == nil {
		responder = StubResponder
	}
	return &Server{responder: responder}
}

// RequireAPIKey enforces that requests carry key via the x-goog-api-key
// header or the key query parameter. An empty key disables the check.
func (s *Server) RequireAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = strings.TrimSpace(key)
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

type generateRequest struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
	Index        int     `json:"index"`
}

type generateResponse struct {
	Candidates   []candidate `json:"candidates"`
	ModelVersion string      `json:"modelVersion"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	// /{version}/models/{model}:generateContent
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, ":generateContent") {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "unsupported path "+r.URL.Path)
		return
	}
	if !s.authorize(r) {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "API key not valid")
		return
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "read body")
		return
	}
	var req generateRequest
	if err := json.Unmarshal(b, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "invalid JSON payload")
		return
	}

	var sb strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			sb.WriteString(p.Text)
		}
	}
	prompt := sb.String()

	s.mu.Lock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Prompt: prompt})
	responder := s.responder
	s.mu.Unlock()

	text, status := responder(prompt)
	if status != 0 && status/100 != 2 {
		writeError(w, status, http.StatusText(status), text)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(generateResponse{
		Candidates: []candidate{{
			Content:      content{Role: "model", Parts: []part{{Text: text}}},
			FinishReason: "STOP",
		}},
		ModelVersion: "mock",
	})
}

func (s *Server) authorize(r *http.Request) bool {
	s.mu.Lock()
	expected := s.apiKey
	s.mu.Unlock()
	if expected == "" {
		return true
	}
	return r.Header.Get("x-goog-api-key") == expected || r.URL.Query().Get("key") == expected
}

func writeError(w http.ResponseWriter, code int, status, message string) {
	var env errorEnvelope
	env.Error.Code = code
	env.Error.Message = message
	env.Error.Status = status
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}
