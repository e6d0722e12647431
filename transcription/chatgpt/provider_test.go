package chatgpt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/voicekit/oauth"
	"github.com/kbukum/voicekit/transcription"
)

type memoryStore struct {
	method oauth.Method
	creds  *oauth.Credentials
}

func (m *memoryStore) Method() (oauth.Method, error)            { return m.method, nil }
func (m *memoryStore) Credentials() (*oauth.Credentials, error) { return m.creds, nil }
func (m *memoryStore) SaveCredentials(creds *oauth.Credentials) error {
	m.creds = creds
	return nil
}

func loggedInManager() *oauth.Manager {
	return oauth.NewManager(oauth.Config{}, &memoryStore{
		method: oauth.MethodChatGPT,
		creds: &oauth.Credentials{
			AccessToken: "test-access",
			AccountID:   "acct-1",
			// Far future so no refresh is attempted.
			ExpiresAt: oauth.NowEpochSeconds() + 86400,
		},
	})
}

func TestProvider_Transcribe_Success(t *testing.T) {
	var gotAuth, gotAccount, gotBase64 string
	var gotFilePart string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccount = r.Header.Get("ChatGPT-Account-Id")
		gotBase64 = r.Header.Get("X-Codex-Base64")

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			raw, _ := io.ReadAll(file)
			gotFilePart = string(raw)
			file.Close()
		}

		_, _ = w.Write([]byte(`{"text":"  hello   world "}`))
	}))
	defer server.Close()

	p := NewProvider(Config{Endpoint: server.URL}, loggedInManager())

	var delta string
	result, err := p.Transcribe(context.Background(), []byte{1, 2, 3}, Options{
		OnDelta: func(text string) { delta = text },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "hello world" {
		t.Errorf("expected normalized text, got %q", result.Text)
	}
	if delta != "hello world" {
		t.Errorf("expected delta callback with normalized text, got %q", delta)
	}
	if gotAuth != "Bearer test-access" {
		t.Errorf("unexpected Authorization header: %q", gotAuth)
	}
	if gotAccount != "acct-1" {
		t.Errorf("unexpected account header: %q", gotAccount)
	}
	if gotBase64 != "1" {
		t.Errorf("unexpected base64 header: %q", gotBase64)
	}
	// [1 2 3] base64-encodes to AQID.
	if gotFilePart != "AQID" {
		t.Errorf("expected base64 audio in file part, got %q", gotFilePart)
	}
}

func TestProvider_Transcribe_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Token invalid"}}`))
	}))
	defer server.Close()

	p := NewProvider(Config{Endpoint: server.URL}, loggedInManager())

	_, err := p.Transcribe(context.Background(), []byte("audio"), Options{})
	terr, ok := transcription.AsError(err)
	if !ok {
		t.Fatalf("expected transcription error, got %v", err)
	}
	if terr.Kind != transcription.KindAuthentication {
		t.Errorf("expected authentication kind, got %s", terr.Kind)
	}
	if terr.Message != "Token invalid" {
		t.Errorf("expected backend message, got %q", terr.Message)
	}
}

func TestProvider_Transcribe_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewProvider(Config{Endpoint: server.URL}, loggedInManager())

	_, err := p.Transcribe(context.Background(), []byte("audio"), Options{})
	if kind := transcription.KindOf(err); kind != transcription.KindRateLimited {
		t.Errorf("expected rate_limited, got %s", kind)
	}
}

func TestProvider_Transcribe_ServerErrorIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := NewProvider(Config{Endpoint: server.URL}, loggedInManager())

	_, err := p.Transcribe(context.Background(), []byte("audio"), Options{})
	if kind := transcription.KindOf(err); kind != transcription.KindNetwork {
		t.Errorf("expected network, got %s", kind)
	}
}

func TestProvider_Transcribe_MalformedBodyIsInvalidResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	p := NewProvider(Config{Endpoint: server.URL}, loggedInManager())

	_, err := p.Transcribe(context.Background(), []byte("audio"), Options{})
	if kind := transcription.KindOf(err); kind != transcription.KindInvalidResponse {
		t.Errorf("expected invalid_response, got %s", kind)
	}
}

func TestProvider_Transcribe_NotLoggedIn(t *testing.T) {
	m := oauth.NewManager(oauth.Config{}, &memoryStore{method: oauth.MethodNone})
	p := NewProvider(Config{Endpoint: "http://unused"}, m)

	_, err := p.Transcribe(context.Background(), []byte("audio"), Options{})
	if kind := transcription.KindOf(err); kind != transcription.KindAuthentication {
		t.Errorf("expected authentication, got %s", kind)
	}
	if p.IsAvailable(context.Background()) {
		t.Error("expected provider unavailable without a login")
	}
}
