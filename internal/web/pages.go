package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ironsheep/image-translate/internal/config"
	"github.com/ironsheep/image-translate/internal/pipeline"
	"github.com/ironsheep/image-translate/internal/speech"
)

const (
	pageRecognize = "recognize"
	pageTranslate = "translate"

	modeText  = "text"
	modeImage = "image"

	mainTemplate = "index.html"
)

// pageData is everything index.html renders.
type pageData struct {
	Page      string
	Languages []config.Language

	// Selected holds the chosen image languages.
	Selected        map[string]bool
	DefaultLanguage string
	Target          string

	// Mode is the translation input, text or image.
	Mode string

	Detect, Grammar, Speak, Boxes bool

	Input       string
	Report      *pipeline.Report
	Translation string
	Audio       *speech.Audio
	Error       string
}

func (s *Server) newPage(page string) *pageData {
	return &pageData{
		Page:            page,
		Languages:       s.svc.Languages(),
		Selected:        map[string]bool{},
		DefaultLanguage: s.svc.DefaultLanguage(),
		Target:          s.svc.TargetLanguage(),
		Mode:            modeText,
		Detect:          true,
	}
}

// Extracted is the recognized text, or "" before any upload.
func (p *pageData) Extracted() string {
	if p.Report == nil || p.Report.Extraction == nil {
		return ""
	}
	return p.Report.Extraction.Text
}

func (s *Server) recognizePageHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, mainTemplate, s.newPage(pageRecognize))
}

func (s *Server) translatePageHandler(ctx echo.Context) error {
	page := s.newPage(pageTranslate)
	if ctx.QueryParam("mode") == modeImage {
		page.Mode = modeImage
	}
	return ctx.Render(http.StatusOK, mainTemplate, page)
}

// readImageForm fills the shared image form fields of page and returns a
// pipeline request for the upload.
func (s *Server) readImageForm(ctx echo.Context, page *pageData) (pipeline.Request, error) {
	selected := formValues(ctx, "languages")
	for _, name := range selected {
		page.Selected[name] = true
	}
	if def := strings.TrimSpace(ctx.FormValue("default_language")); def != "" {
		page.DefaultLanguage = def
	}
	page.Detect = formFlag(ctx, "detect")
	page.Grammar = formFlag(ctx, "grammar")
	page.Speak = formFlag(ctx, "speak")
	page.Boxes = formFlag(ctx, "boxes")

	data, err := readUpload(ctx, "image")
	if err != nil {
		return pipeline.Request{}, err
	}
	return pipeline.Request{
		Image:           data,
		Languages:       selected,
		DefaultLanguage: page.DefaultLanguage,
		Detect:          page.Detect,
		Grammar:         page.Grammar,
		Speak:           page.Speak,
		Boxes:           page.Boxes,
	}, nil
}

func (s *Server) recognizeHandler(ctx echo.Context) error {
	page := s.newPage(pageRecognize)
	req, err := s.readImageForm(ctx, page)
	if err != nil {
		page.Error = errorMessage(err)
		return ctx.Render(http.StatusBadRequest, mainTemplate, page)
	}
	if target := strings.TrimSpace(ctx.FormValue("target")); target != "" {
		page.Target = target
		req.Target = target
	}

	report, err := s.svc.Process(ctx.Request().Context(), req)
	if err != nil {
		slog.Error("recognizeHandler: failed to process image", "error", err)
		page.Error = "Text recognition failed: " + err.Error()
		return ctx.Render(http.StatusUnprocessableEntity, mainTemplate, page)
	}
	page.Report = report
	page.Audio = report.Audio
	page.Translation = report.Translation
	return ctx.Render(http.StatusOK, mainTemplate, page)
}

func (s *Server) translateTextHandler(ctx echo.Context) error {
	page := s.newPage(pageTranslate)
	page.Input = ctx.FormValue("text")
	if target := strings.TrimSpace(ctx.FormValue("target")); target != "" {
		page.Target = target
	}
	page.Speak = formFlag(ctx, "speak")

	reqCtx := ctx.Request().Context()
	page.Translation = s.svc.Translate(reqCtx, page.Input, page.Target)

	if page.Speak && page.Translation != pipeline.TranslationFailed {
		audio, err := s.svc.Speak(reqCtx, page.Translation, page.Target)
		if err != nil {
			page.Error = "Speech synthesis failed: " + err.Error()
		} else {
			page.Audio = audio
		}
	}
	return ctx.Render(http.StatusOK, mainTemplate, page)
}

func (s *Server) translateImageHandler(ctx echo.Context) error {
	page := s.newPage(pageTranslate)
	page.Mode = modeImage
	req, err := s.readImageForm(ctx, page)
	if err != nil {
		page.Error = errorMessage(err)
		return ctx.Render(http.StatusBadRequest, mainTemplate, page)
	}
	if target := strings.TrimSpace(ctx.FormValue("target")); target != "" {
		page.Target = target
	}
	req.Target = page.Target

	report, err := s.svc.Process(ctx.Request().Context(), req)
	if err != nil {
		slog.Error("translateImageHandler: failed to process image", "error", err)
		page.Error = "Text recognition failed: " + err.Error()
		return ctx.Render(http.StatusUnprocessableEntity, mainTemplate, page)
	}
	page.Report = report
	page.Input = report.Extraction.Text
	page.Translation = report.Translation
	page.Audio = report.Audio
	return ctx.Render(http.StatusOK, mainTemplate, page)
}

func errorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
