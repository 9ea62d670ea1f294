package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func languagesProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Languages present in the image, as display names (\"French\") or ISO 639-1 codes (\"fr\"). Empty uses default_language.",
	}
}

func defaultLanguageProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Language used when languages is empty (default: the server's default image language)",
	}
}

func textProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func coordinateProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The image stays cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		{
			Name:        "image_unload",
			Description: "Release a cached image. Without a path, every cached image is released.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path previously passed to another tool (optional)",
					},
				},
				"required": []string{},
			},
		},

		// Text Recognition
		{
			Name:        "text_recognize",
			Description: "Extract all text from an image. Returns the text (one line per fragment) plus every fragment with its confidence and four-corner bounding box.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":             pathProperty(),
					"languages":        languagesProperty(),
					"default_language": defaultLanguageProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "text_recognize_region",
			Description: "Extract text from a rectangular region of an image. Bounding boxes are reported in full-image coordinates.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":             pathProperty(),
					"x1":               coordinateProperty("Left edge X coordinate (0-based)"),
					"y1":               coordinateProperty("Top edge Y coordinate (0-based)"),
					"x2":               coordinateProperty("Right edge X coordinate (exclusive)"),
					"y2":               coordinateProperty("Bottom edge Y coordinate (exclusive)"),
					"languages":        languagesProperty(),
					"default_language": defaultLanguageProperty(),
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
		{
			Name:        "image_annotate_text",
			Description: "Recognize text and return the image as base64-encoded PNG with every text fragment outlined.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":             pathProperty(),
					"languages":        languagesProperty(),
					"default_language": defaultLanguageProperty(),
					"thickness": map[string]interface{}{
						"type":        "number",
						"description": "Outline width in pixels (default 2)",
						"default":     2,
					},
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as #RRGGBB. Omit to give each box its own color.",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Number each box (default true)",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},

		// Language
		{
			Name:        "language_detect",
			Description: "Detect the language of a piece of text. Returns \"Unknown\" when it cannot be determined.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": textProperty("Text to analyze"),
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "text_translate",
			Description: "Translate text into another language. The source language is detected automatically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":   textProperty("Text to translate"),
					"target": textProperty("Target language name or ISO 639-1 code (default: the server's translation language)"),
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "grammar_check",
			Description: "Check grammar and spelling. Returns the corrected text and every issue found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":     textProperty("Text to check"),
					"language": textProperty("Language name or code; omit to detect automatically"),
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "text_to_speech",
			Description: "Synthesize speech from text as MP3. Writes the audio to output_path when given, otherwise returns it base64-encoded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text":        textProperty("Text to speak"),
					"language":    textProperty("Language name or code; omit to detect from the text"),
					"output_path": textProperty("Optional file path for the MP3"),
				},
				"required": []string{"text"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
