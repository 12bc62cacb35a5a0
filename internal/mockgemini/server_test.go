package mockgemini_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shpitdev/outreach-email-pipeline/internal/mockgemini"
)

func post(t *testing.T, url, body string, header map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestMockGemini_StubResponse(t *testing.T) {
	t.Parallel()

	srv := mockgemini.New(nil)
	srv.RequireAPIKey("k")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	body := `{"contents":[{"role":"user","parts":[{"text":"Name: Ada\nProduct Name: Ledger\nSubject Line: [x]"}]}]}`
	resp := post(t, ts.URL+"/v1beta/models/m:generateContent", body, map[string]string{"x-goog-api-key": "k"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Candidates) != 1 || !strings.HasPrefix(out.Candidates[0].Content.Parts[0].Text, "Subject Line: ") {
		t.Fatalf("unexpected response: %#v", out)
	}

	calls := srv.Calls()
	if len(calls) != 1 || calls[0].Path != "/v1beta/models/m:generateContent" {
		t.Fatalf("unexpected calls: %#v", calls)
	}
}

func TestMockGemini_RejectsMissingKey(t *testing.T) {
	t.Parallel()

	srv := mockgemini.New(nil)
	srv.RequireAPIKey("k")
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/v1beta/models/m:generateContent", `{}`, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", resp.StatusCode)
	}
	if len(srv.Calls()) != 0 {
		t.Fatalf("unauthorized call must not be recorded")
	}
}

func TestMockGemini_ResponderError(t *testing.T) {
	t.Parallel()

	srv := mockgemini.New(func(string) (string, int) { return "overloaded", http.StatusServiceUnavailable })
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/v1beta/models/m:generateContent", `{"contents":[]}`, nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want 503", resp.StatusCode)
	}
	var env struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != http.StatusServiceUnavailable || env.Error.Message != "overloaded" {
		t.Fatalf("unexpected envelope: %#v", env)
	}
}

func TestMockGemini_UnknownPath(t *testing.T) {
	t.Parallel()

	srv := mockgemini.New(nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/v1beta/models/m:embedContent", `{}`, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d want 404", resp.StatusCode)
	}
}
