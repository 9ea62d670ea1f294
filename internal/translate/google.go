package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultGoogleURL is the public endpoint used by the Google Translate web widget.
const DefaultGoogleURL = "https://translate.googleapis.com"

// GoogleTranslator calls the keyless Google Translate endpoint.
type GoogleTranslator struct {
	BaseURL     string
	HTTPClient  *http.Client
	ChunkSize   int
	Concurrency int
}

// NewGoogleTranslator creates a translator against baseURL (DefaultGoogleURL when empty).
func NewGoogleTranslator(baseURL string, timeout time.Duration) *GoogleTranslator {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleTranslator{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		HTTPClient:  &http.Client{Timeout: timeout},
		ChunkSize:   DefaultChunkSize,
		Concurrency: 4,
	}
}

// Translate translates text, splitting it into chunks that are translated
// concurrently and re-joined in their original order.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	source, target, skip, err := normalize(text, source, target)
	if err != nil {
		return "", err
	}
	if skip {
		return text, nil
	}

	chunks := splitChunks(text, g.ChunkSize)
	results := make([]string, len(chunks))

	group, gctx := errgroup.WithContext(ctx)
	if g.Concurrency > 0 {
		group.SetLimit(g.Concurrency)
	}
	for i, chunk := range chunks {
		group.Go(func() error {
			translated, err := g.translateChunk(gctx, chunk, source, target)
			if err != nil {
				return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
			}
			results[i] = translated
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", err
	}

	return strings.Join(results, ""), nil
}

func (g *GoogleTranslator) translateChunk(ctx context.Context, text, source, target string) (string, error) {
	// Leading/trailing whitespace is dropped by the service; keep it so that
	// chunk boundaries survive the round trip.
	lead := text[:len(text)-len(strings.TrimLeft(text, " \n\t\r"))]
	trail := text[len(strings.TrimRight(text, " \n\t\r")):]
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", strings.TrimSpace(text))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (image-translate)")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate request: bad status %s", resp.Status)
	}

	translated, err := parseGoogleResponse(body)
	if err != nil {
		return "", err
	}
	return lead + translated + trail, nil
}

// parseGoogleResponse extracts the translation from the nested-array payload:
//
//	[[["Bonjour le monde","Hello world",null,null,10]],null,"en",...]
func parseGoogleResponse(body []byte) (string, error) {
	var payload []any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(payload) == 0 {
		return "", fmt.Errorf("decode response: empty payload")
	}

	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("decode response: unexpected segment list %T", payload[0])
	}

	var sb strings.Builder
	for _, s := range segments {
		seg, ok := s.([]any)
		if !ok || len(seg) == 0 {
			continue
		}
		if part, ok := seg[0].(string); ok {
			sb.WriteString(part)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("decode response: no translated text")
	}
	return sb.String(), nil
}
