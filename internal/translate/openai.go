package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIOptions configure the chat-completion translator.
type OpenAIOptions struct {
	APIKey  string
	BaseURL string
	Model   string
	Extra   []option.RequestOption
}

// OpenAITranslator translates with a chat completion model.
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslator creates a translator using the OpenAI SDK.
func NewOpenAITranslator(opts OpenAIOptions) (*OpenAITranslator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai: api key required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}

	requestOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if strings.TrimSpace(opts.BaseURL) != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(strings.TrimRight(opts.BaseURL, "/")+"/"))
	}
	requestOpts = append(requestOpts, opts.Extra...)

	client := openai.NewClient(requestOpts...)
	return &OpenAITranslator{client: &client, model: model}, nil
}

const translatePrompt = "You are a translation engine. Translate the user's text from %s to %s. " +
	"Reply with the translation only, preserving line breaks. Do not add notes or quotes."

// Translate translates text in a single completion request.
func (o *OpenAITranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	source, target, skip, err := normalize(text, source, target)
	if err != nil {
		return "", err
	}
	if skip {
		return text, nil
	}

	from := source
	if from == Auto {
		from = "the detected source language"
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(fmt.Sprintf(translatePrompt, from, target)),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai translate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai translate: empty response")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("openai translate: empty translation")
	}
	return out, nil
}
