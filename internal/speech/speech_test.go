package speech

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/openai/openai-go/v3/option"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"blank", "   ", 10, nil},
		{"short", " hello ", 10, []string{"hello"}},
		{"punctuation", "One two. Three four.", 12, []string{"One two.", "Three four."}},
		{"whitespace", "alpha beta gamma", 11, []string{"alpha beta", "gamma"}},
		{"hard cut", "abcdefgh", 3, []string{"abc", "def", "gh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.text, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("part %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitSentences_RespectsLimit(t *testing.T) {
	text := strings.Repeat("Ceci est une phrase assez longue pour être découpée, ", 12)
	for _, part := range splitSentences(text, googleChunkLimit) {
		if n := len([]rune(part)); n > googleChunkLimit {
			t.Errorf("part has %d runes: %q", n, part)
		}
	}
}

type ttsRequest struct {
	lang, q, idx, total string
}

func newTTSServer(t *testing.T, reqs *[]ttsRequest) *httptest.Server {
	t.Helper()
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate_tts" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		mu.Lock()
		*reqs = append(*reqs, ttsRequest{q.Get("tl"), q.Get("q"), q.Get("idx"), q.Get("total")})
		mu.Unlock()
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3[" + q.Get("idx") + "]"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleSynthesizer(t *testing.T) {
	var reqs []ttsRequest
	srv := newTTSServer(t, &reqs)

	dir := t.TempDir()
	g := NewGoogleSynthesizer(srv.URL, time.Second)
	g.TempDir = dir

	text := strings.Repeat("word ", 30) + "end."
	audio, err := g.Synthesize(context.Background(), text, "FR")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if audio.MimeType != "audio/mpeg" {
		t.Errorf("MimeType: got %q", audio.MimeType)
	}
	if len(reqs) != 2 {
		t.Fatalf("requests: got %d, want 2", len(reqs))
	}
	if !bytes.Equal(audio.Data, []byte("ID3[0]ID3[1]")) {
		t.Errorf("audio not concatenated in order: %q", audio.Data)
	}
	for _, r := range reqs {
		if r.lang != "fr" || r.total != "2" {
			t.Errorf("request params: %+v", r)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temporary audio file left behind: %v", entries)
	}
}

func TestGoogleSynthesizer_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	dir := t.TempDir()
	g := NewGoogleSynthesizer(srv.URL, time.Second)
	g.TempDir = dir

	if _, err := g.Synthesize(context.Background(), " \n ", "en"); !errors.Is(err, ErrEmptyText) {
		t.Errorf("blank text: got %v, want ErrEmptyText", err)
	}
	if _, err := g.Synthesize(context.Background(), "hello", "en"); err == nil {
		t.Error("expected error on HTTP 403")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temporary audio file left behind after failure: %v", entries)
	}
}

func TestOpenAISynthesizer(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-openai"))
	}))
	defer srv.Close()

	s, err := NewOpenAISynthesizer(OpenAIOptions{APIKey: "test", BaseURL: srv.URL, Extra: []option.RequestOption{option.WithMaxRetries(0)}})
	if err != nil {
		t.Fatalf("NewOpenAISynthesizer failed: %v", err)
	}

	audio, err := s.Synthesize(context.Background(), "Bonjour", "fr")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if string(audio.Data) != "ID3-openai" {
		t.Errorf("Data: got %q", audio.Data)
	}
	if !strings.HasSuffix(gotPath, "/audio/speech") {
		t.Errorf("request path: got %s", gotPath)
	}

	if _, err := s.Synthesize(context.Background(), "", "fr"); !errors.Is(err, ErrEmptyText) {
		t.Errorf("blank text: got %v, want ErrEmptyText", err)
	}
}
