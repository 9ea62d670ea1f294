package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIOptions configure the OpenAI speech backend.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Extra   []option.RequestOption
}

// OpenAISynthesizer speaks text through the audio/speech endpoint. The model
// picks the pronunciation from the text itself, so language is not sent.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAISynthesizer creates a synthesizer using the OpenAI SDK.
func NewOpenAISynthesizer(opts OpenAIOptions) (*OpenAISynthesizer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: api key required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "tts-1"
	}
	voice := strings.TrimSpace(opts.Voice)
	if voice == "" {
		voice = "alloy"
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if strings.TrimSpace(opts.BaseURL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}
	requestOpts = append(requestOpts, opts.Extra...)

	client := openai.NewClient(requestOpts...)
	return &OpenAISynthesizer{client: &client, model: model, voice: voice}, nil
}

// Synthesize returns MP3 audio of text.
func (o *OpenAISynthesizer) Synthesize(ctx context.Context, text, _ string) (*Audio, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return nil, ErrEmptyText
	}

	params := openai.AudioSpeechNewParams{
		Model: openai.SpeechModel(o.model),
		Input: input,
		Voice: openai.AudioSpeechNewParamsVoice(o.voice),
	}
	params.ResponseFormat = openai.AudioSpeechNewParamsResponseFormat("mp3")

	resp, err := o.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai speech: read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("openai speech: empty audio")
	}
	return &Audio{Data: data, MimeType: "audio/mpeg"}, nil
}
