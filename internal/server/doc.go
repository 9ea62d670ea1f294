// Package server implements the MCP (Model Context Protocol) server that
// exposes text recognition, translation, grammar checking and speech.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - image_load: Load image and get metadata
//   - image_unload: Release one cached image, or all of them
//
// Text Recognition:
//   - text_recognize: Extract all text with per-fragment boxes
//   - text_recognize_region: Extract text from a rectangle
//   - image_annotate_text: Outline recognized text on the image
//
// Language:
//   - language_detect: Identify the language of a text
//   - text_translate: Translate text into a target language
//   - grammar_check: Correct grammar and spelling
//   - text_to_speech: Synthesize MP3 audio
//
// Languages may be given as display names ("French") or ISO 639-1 codes
// ("fr"); both resolve against the configured language table.
//
// # Image Caching
//
// Images are cached by path and reused across tool calls until image_unload
// releases them or the server exits.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The underlying error string
//
// Unlike the web interface, tools report backend failures as errors rather
// than substituting fallback text.
//
// # Usage
//
//	srv := server.New(svc, version)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
