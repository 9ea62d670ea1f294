// Package grammar checks and corrects text with a LanguageTool server.
package grammar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf16"
)

// DefaultURL is the public LanguageTool API.
const DefaultURL = "https://api.languagetool.org"

// ErrEmptyText is returned when there is nothing to check.
var ErrEmptyText = errors.New("no text to check")

// Match is a single issue reported by the checker. Offset and Length are
// measured in UTF-16 code units of the checked text, as LanguageTool
// reports them; characters outside the BMP count twice.
type Match struct {
	Message      string   `json:"message"`
	Offset       int      `json:"offset"`
	Length       int      `json:"length"`
	Replacements []string `json:"replacements"`
	RuleID       string   `json:"rule_id"`
	Category     string   `json:"category"`
}

// Result is the outcome of a grammar check.
type Result struct {
	// Original is the checked text.
	Original string `json:"original"`

	// Corrected is Original with the first suggested replacement of every
	// non-overlapping match applied.
	Corrected string `json:"corrected"`

	// Language is the language the checker used.
	Language string `json:"language"`

	Matches []Match `json:"matches"`
}

// Checker checks text written in language ("auto" lets the checker decide).
type Checker interface {
	Check(ctx context.Context, text, language string) (*Result, error)
}

// LanguageToolClient talks to the LanguageTool HTTP API (v2).
type LanguageToolClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewLanguageToolClient creates a client for baseURL (DefaultURL when empty).
func NewLanguageToolClient(baseURL string, timeout time.Duration) *LanguageToolClient {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LanguageToolClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type checkResponse struct {
	Language struct {
		Code         string `json:"code"`
		DetectedLang struct {
			Code string `json:"code"`
		} `json:"detectedLanguage"`
	} `json:"language"`
	Matches []struct {
		Message      string `json:"message"`
		Offset       int    `json:"offset"`
		Length       int    `json:"length"`
		Replacements []struct {
			Value string `json:"value"`
		} `json:"replacements"`
		Rule struct {
			ID       string `json:"id"`
			Category struct {
				ID string `json:"id"`
			} `json:"category"`
		} `json:"rule"`
	} `json:"matches"`
}

// Check posts text to /v2/check and applies the suggested corrections.
func (c *LanguageToolClient) Check(ctx context.Context, text, language string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = "auto"
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("language", language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/check", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grammar request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grammar request: bad status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload checkResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	matches := make([]Match, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		reps := make([]string, 0, len(m.Replacements))
		for _, r := range m.Replacements {
			reps = append(reps, r.Value)
		}
		matches = append(matches, Match{
			Message:      m.Message,
			Offset:       m.Offset,
			Length:       m.Length,
			Replacements: reps,
			RuleID:       m.Rule.ID,
			Category:     m.Rule.Category.ID,
		})
	}

	used := payload.Language.Code
	if payload.Language.DetectedLang.Code != "" && language == "auto" {
		used = payload.Language.DetectedLang.Code
	}

	return &Result{
		Original:  text,
		Corrected: Correct(text, matches),
		Language:  used,
		Matches:   matches,
	}, nil
}

// Correct applies the first replacement of each match to text, reading
// offsets as UTF-16 code units. Matches
// without replacements, out-of-range matches and matches overlapping an
// earlier one are skipped.
func Correct(text string, matches []Match) string {
	units := utf16.Encode([]rune(text))

	ordered := make([]Match, 0, len(matches))
	for _, m := range matches {
		if len(m.Replacements) == 0 || m.Offset < 0 || m.Length < 0 || m.Offset+m.Length > len(units) {
			continue
		}
		ordered = append(ordered, m)
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Offset < ordered[j].Offset })

	var sb strings.Builder
	pos := 0
	for _, m := range ordered {
		if m.Offset < pos {
			continue
		}
		sb.WriteString(string(utf16.Decode(units[pos:m.Offset])))
		sb.WriteString(m.Replacements[0])
		pos = m.Offset + m.Length
	}
	sb.WriteString(string(utf16.Decode(units[pos:])))
	return sb.String()
}
