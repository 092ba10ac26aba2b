package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeService struct {
	answer   string
	askErr   error
	reset    bool
	resetErr error
}

func (f *fakeService) Ask(_ context.Context, _, _ string) (string, error) {
	return f.answer, f.askErr
}

func (f *fakeService) Reset(_ context.Context, _ string) (bool, error) {
	return f.reset, f.resetErr
}

func newTestServer(svc QueryService, apiKey string) *httptest.Server {
	s := NewHTTPServer(HTTPServerConfig{Port: 0, APIKey: apiKey}, svc)
	return httptest.NewServer(s.router)
}

func postJSON(t *testing.T, url, body, apiKey string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHandleAsk(t *testing.T) {
	ts := newTestServer(&fakeService{answer: "hello"}, "")
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/ask", `{"user":"u1","query":"hi"}`, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body askResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Answer != "hello" {
		t.Errorf("unexpected answer: %q", body.Answer)
	}
}

func TestHandleAsk_Validation(t *testing.T) {
	ts := newTestServer(&fakeService{}, "")
	defer ts.Close()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing user", `{"query":"hi"}`},
		{"missing query", `{"user":"u1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/v1/ask", tt.body, "")
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestHandleReset_NoActiveSession(t *testing.T) {
	ts := newTestServer(&fakeService{reset: false}, "")
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/reset", `{"user":"u1"}`, "")
	defer resp.Body.Close()

	var body resetResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Reset {
		t.Error("expected reset=false for unknown user")
	}
	if !strings.Contains(body.Message, "don't have an active conversation") {
		t.Errorf("unexpected message: %q", body.Message)
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	ts := newTestServer(&fakeService{answer: "ok"}, "sekrit")
	defer ts.Close()

	t.Run("healthz stays open", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/healthz")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("missing key rejected", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/v1/ask", `{"user":"u1","query":"hi"}`, "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/v1/ask", `{"user":"u1","query":"hi"}`, "wrong")
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("correct key accepted", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/v1/ask", `{"user":"u1","query":"hi"}`, "sekrit")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})
}
