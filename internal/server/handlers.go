package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ironsheep/image-translate/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "text_recognize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_unload":
		return s.handleImageUnload(args)

	case "text_recognize":
		return s.handleTextRecognize(ctx, args)
	case "text_recognize_region":
		return s.handleTextRecognizeRegion(ctx, args)
	case "image_annotate_text":
		return s.handleImageAnnotateText(ctx, args)

	case "language_detect":
		return s.handleLanguageDetect(args)
	case "text_translate":
		return s.handleTextTranslate(ctx, args)
	case "grammar_check":
		return s.handleGrammarCheck(ctx, args)
	case "text_to_speech":
		return s.handleTextToSpeech(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func requireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text is required")
	}
	return nil
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type imageUnloadResult struct {
	Released string `json:"released"`
	Cached   int    `json:"cached"`
}

func (s *Server) handleImageUnload(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		s.cache.Clear()
		return &imageUnloadResult{Released: "all", Cached: s.cache.Len()}, nil
	}
	s.cache.Evict(a.Path)
	return &imageUnloadResult{Released: a.Path, Cached: s.cache.Len()}, nil
}

// === Text Recognition Handlers ===

type textRecognizeArgs struct {
	Path            string   `json:"path"`
	Languages       []string `json:"languages"`
	DefaultLanguage string   `json:"default_language"`
}

func (s *Server) handleTextRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textRecognizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	langs, err := s.svc.ResolveLanguages(a.Languages, a.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return s.svc.RecognizeImage(ctx, img, langs)
}

type textRecognizeRegionArgs struct {
	textRecognizeArgs
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (s *Server) handleTextRecognizeRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textRecognizeRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	langs, err := s.svc.ResolveLanguages(a.Languages, a.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	region := imaging.Region{X1: a.X1, Y1: a.Y1, X2: a.X2, Y2: a.Y2}
	return s.svc.RecognizeRegion(ctx, img, region, langs)
}

type imageAnnotateTextArgs struct {
	textRecognizeArgs
	Thickness float64 `json:"thickness"`
	Color     string  `json:"color"`
	Labels    *bool   `json:"labels"`
}

type annotateResult struct {
	*imaging.EncodedImage
	Text      string `json:"text"`
	Fragments int    `json:"fragments"`
}

func (s *Server) handleImageAnnotateText(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageAnnotateTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	style := imaging.DefaultBoxStyle()
	if a.Thickness > 0 {
		style.Thickness = a.Thickness
	}
	if a.Labels != nil {
		style.Labels = *a.Labels
	}
	if a.Color != "" {
		c, err := imaging.ParseColor(a.Color)
		if err != nil {
			return nil, err
		}
		style.Color = c
	}

	langs, err := s.svc.ResolveLanguages(a.Languages, a.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	ext, err := s.svc.RecognizeImage(ctx, img, langs)
	if err != nil {
		return nil, err
	}
	annotated, err := s.svc.AnnotateImage(img, ext, style)
	if err != nil {
		return nil, err
	}
	return &annotateResult{EncodedImage: annotated, Text: ext.Text, Fragments: len(ext.Fragments)}, nil
}

// === Language Handlers ===

type textArgs struct {
	Text string `json:"text"`
}

func (s *Server) handleLanguageDetect(args json.RawMessage) (interface{}, error) {
	var a textArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.svc.Detect(a.Text), nil
}

type textTranslateArgs struct {
	Text   string `json:"text"`
	Target string `json:"target"`
}

func (s *Server) handleTextTranslate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textTranslateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireText(a.Text); err != nil {
		return nil, err
	}
	if a.Target == "" {
		a.Target = s.svc.TargetLanguage()
	}
	out, err := s.svc.TranslateText(ctx, a.Text, a.Target)
	if err != nil {
		return nil, err
	}
	return map[string]string{"translation": out, "target": a.Target}, nil
}

type languageTextArgs struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) handleGrammarCheck(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a languageTextArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireText(a.Text); err != nil {
		return nil, err
	}
	return s.svc.Grammar(ctx, a.Text, a.Language)
}

type textToSpeechArgs struct {
	languageTextArgs
	OutputPath string `json:"output_path"`
}

type speechResult struct {
	MimeType    string `json:"mime_type"`
	Bytes       int    `json:"bytes"`
	Language    string `json:"language"`
	Path        string `json:"path,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
}

func (s *Server) handleTextToSpeech(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a textToSpeechArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := requireText(a.Text); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.svc.Detect(a.Text).Code
	}

	audio, err := s.svc.Speak(ctx, a.Text, a.Language)
	if err != nil {
		return nil, err
	}

	res := &speechResult{MimeType: audio.MimeType, Bytes: len(audio.Data), Language: a.Language}
	if a.OutputPath != "" {
		if err := os.WriteFile(a.OutputPath, audio.Data, 0644); err != nil {
			return nil, fmt.Errorf("write audio: %w", err)
		}
		res.Path = a.OutputPath
		return res, nil
	}
	res.AudioBase64 = base64.StdEncoding.EncodeToString(audio.Data)
	return res, nil
}
