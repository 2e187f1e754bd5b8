package translate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minios-linux/bitrans/config"
)

func chatServer(t *testing.T, handler func(w http.ResponseWriter, req chatRequest)) (*httptest.Server, config.Settings) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading body: %v", err)
		}
		var req chatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		handler(w, req)
	}))
	t.Cleanup(srv.Close)

	s := config.Default()
	s.APIURL = srv.URL
	s.APIKey = "sk-test"
	s.ToLang = "fr"
	s.MaxRetries = 0
	return srv, s
}

func reply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestTranslateOneSuccess(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		reply(w, http.StatusOK, `{"choices":[{"message":{"content":"  Bonjour  "}}]}`)
	}))
	defer srv.Close()

	s := config.Default()
	s.APIURL = srv.URL
	s.APIKey = "sk-test"
	s.ToLang = "fr"

	res := NewClient(ClientOptions{Timeout: 5 * time.Second}).TranslateOne(context.Background(), "Hello", s)
	if !res.Success || res.Text != "Bonjour" {
		t.Fatalf("result = %+v, want success with Bonjour", res)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotReq.Model != s.Model || gotReq.MaxTokens != s.MaxTokens || gotReq.Temperature != s.Temperature {
		t.Errorf("request parameters = %+v", gotReq)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "Hello" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if sys := gotReq.Messages[0].Content; !strings.Contains(sys, "French") || strings.Contains(sys, "{{toLang}}") {
		t.Errorf("system prompt not rendered: %q", sys)
	}
}

func TestTranslateOneFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{"api error payload", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, ErrAPI, "bad key"},
		{"string error payload", http.StatusBadRequest, `{"error":"nope"}`, ErrAPI, "nope"},
		{"plain status", http.StatusBadGateway, `upstream down`, ErrTransport, "502"},
		{"error in 200", http.StatusOK, `{"error":{"message":"quota"}}`, ErrAPI, "quota"},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrAPI, "No translation received from API"},
		{"invalid json", http.StatusOK, `not json`, ErrTransport, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, s := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
				reply(w, tt.status, tt.body)
			})
			res := NewClient(ClientOptions{}).TranslateOne(context.Background(), "Hello", s)
			if res.Success {
				t.Fatalf("expected failure, got %+v", res)
			}
			if !errors.Is(res.Error(), tt.want) {
				t.Errorf("error %v (kind %s) is not %v", res.Err, res.Err.Kind, tt.want)
			}
			if !strings.Contains(res.Err.Msg, tt.msg) {
				t.Errorf("message %q does not contain %q", res.Err.Msg, tt.msg)
			}
		})
	}
}

func TestTranslateOneGuards(t *testing.T) {
	var hits int32
	_, s := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		atomic.AddInt32(&hits, 1)
		reply(w, http.StatusOK, `{"choices":[{"message":{"content":"x"}}]}`)
	})
	c := NewClient(ClientOptions{})

	if res := c.TranslateOne(context.Background(), "   ", s); res.Success || res.Err.Kind != KindInput || res.Err.Msg != "Empty text" {
		t.Errorf("empty text: %+v", res)
	}
	noKey := s
	noKey.APIKey = ""
	if res := c.TranslateOne(context.Background(), "Hello", noKey); res.Success || res.Err.Kind != KindConfig {
		t.Errorf("missing key: %+v", res)
	}
	if res := c.TranslateBatch(context.Background(), nil, s); res.Success || res.Err.Kind != KindInput {
		t.Errorf("empty batch: %+v", res)
	}
	if n := atomic.LoadInt32(&hits); n != 0 {
		t.Errorf("server hit %d times", n)
	}
}

func TestTranslateOneTransportError(t *testing.T) {
	s := config.Default()
	s.APIKey = "sk-test"
	s.APIURL = "http://127.0.0.1:1/v1/chat/completions"

	res := NewClient(ClientOptions{Timeout: 2 * time.Second}).TranslateOne(context.Background(), "Hello", s)
	if res.Success || res.Err.Kind != KindTransport {
		t.Fatalf("result = %+v, want transport failure", res)
	}
	if !strings.HasPrefix(res.Err.Msg, "API request failed") {
		t.Errorf("message = %q", res.Err.Msg)
	}
}

func TestTranslateOneRetries(t *testing.T) {
	var hits int32
	_, s := chatServer(t, func(w http.ResponseWriter, _ chatRequest) {
		if atomic.AddInt32(&hits, 1) == 1 {
			reply(w, http.StatusServiceUnavailable, `{"error":{"message":"busy"}}`)
			return
		}
		reply(w, http.StatusOK, `{"choices":[{"message":{"content":"Bonjour"}}]}`)
	})

	c := NewClient(ClientOptions{MaxRetries: 2, RetryWait: time.Millisecond})
	res := c.TranslateOne(context.Background(), "Hello", s)
	if !res.Success || res.Text != "Bonjour" {
		t.Fatalf("result = %+v", res)
	}
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("hits = %d, want 2", n)
	}
}

func TestTranslateBatchRequest(t *testing.T) {
	var got chatRequest
	_, s := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		reply(w, http.StatusOK, `{"choices":[{"message":{"content":"[0] Bonjour\n[1] Monde"}}]}`)
	})

	lines := []Line{{Index: 4, Text: "Hello"}, {Index: 9, Text: "World", Indent: "  "}}
	res := NewClient(ClientOptions{}).TranslateBatch(context.Background(), lines, s)
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if parsed := ParseBatch(res.Text, 2); parsed[0] != "Bonjour" || parsed[1] != "Monde" {
		t.Errorf("parsed = %q", parsed)
	}
	if got.Messages[0].Content != BatchSystemPrompt {
		t.Errorf("system prompt = %q", got.Messages[0].Content)
	}
	user := got.Messages[1].Content
	for _, want := range []string{"[0] Hello", "[1] World", "to French"} {
		if !strings.Contains(user, want) {
			t.Errorf("batch prompt missing %q:\n%s", want, user)
		}
	}
}

func TestClientTest(t *testing.T) {
	var got chatRequest
	_, s := chatServer(t, func(w http.ResponseWriter, req chatRequest) {
		got = req
		reply(w, http.StatusOK, `{"choices":[{"message":{"content":"Bonjour, le monde !"}}]}`)
	})
	res := NewClient(ClientOptions{}).Test(context.Background(), s)
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if got.Messages[1].Content != TestText {
		t.Errorf("test text = %q", got.Messages[1].Content)
	}
}

func TestRenderPrompt(t *testing.T) {
	s := config.Default()
	s.ToLang = "de"
	s.FromLang = "auto"
	got := RenderPrompt("{{fromLang}} -> {{toLang}}", s)
	if got != "the source language (auto-detect) -> German" {
		t.Errorf("RenderPrompt = %q", got)
	}
}
