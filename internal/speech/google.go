package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultGoogleURL hosts the translate_tts endpoint.
	DefaultGoogleURL = "https://translate.google.com"

	// googleChunkLimit is the longest text the endpoint accepts per request.
	googleChunkLimit = 100
)

// GoogleSynthesizer speaks text with the Google Translate voice. Each chunk
// of text is fetched as MP3 and appended to a temporary file that is read
// back and removed once synthesis ends.
type GoogleSynthesizer struct {
	BaseURL    string
	HTTPClient *http.Client

	// TempDir is where the intermediate audio file is created ("" = os.TempDir()).
	TempDir string
}

// NewGoogleSynthesizer creates a synthesizer for baseURL (DefaultGoogleURL when empty).
func NewGoogleSynthesizer(baseURL string, timeout time.Duration) *GoogleSynthesizer {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GoogleSynthesizer{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Synthesize returns MP3 audio of text spoken in language.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text, language string) (*Audio, error) {
	parts := splitSentences(text, googleChunkLimit)
	if len(parts) == 0 {
		return nil, ErrEmptyText
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = "en"
	}

	f, err := os.CreateTemp(g.TempDir, "speech-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("create audio file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	for i, part := range parts {
		if err := g.fetch(ctx, f, part, language, i, len(parts)); err != nil {
			f.Close()
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(parts), err)
		}
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write audio file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	return &Audio{Data: data, MimeType: "audio/mpeg"}, nil
}

func (g *GoogleSynthesizer) fetch(ctx context.Context, w io.Writer, text, language string, idx, total int) error {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", language)
	q.Set("q", text)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(len([]rune(text))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (image-translate)")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("speech request: bad status %s", resp.Status)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	return nil
}
