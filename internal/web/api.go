package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ironsheep/image-translate/internal/imaging"
	"github.com/ironsheep/image-translate/internal/langdetect"
	"github.com/ironsheep/image-translate/internal/ocr"
	"github.com/ironsheep/image-translate/internal/pipeline"
	"github.com/ironsheep/image-translate/internal/speech"
	"github.com/ironsheep/image-translate/internal/translate"
)

type textRequest struct {
	Text string `json:"text" form:"text" validate:"required"`
}

type translateRequest struct {
	Text   string `json:"text" form:"text"`
	Target string `json:"target" form:"target"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Target      string `json:"target"`
}

type grammarRequest struct {
	Text     string `json:"text" form:"text" validate:"required"`
	Language string `json:"language" form:"language"`
}

type speechRequest struct {
	Text     string `json:"text" form:"text" validate:"required"`
	Language string `json:"language" form:"language"`
}

func bindAndValidate(ctx echo.Context, req interface{}) error {
	if err := ctx.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return ctx.Validate(req)
}

// apiRecognizeHandler accepts the same multipart form as the recognize page
// and returns the report as JSON. Speech, when requested, is included as
// base64 under "audio".
func (s *Server) apiRecognizeHandler(ctx echo.Context) error {
	data, err := readUpload(ctx, "image")
	if err != nil {
		return err
	}
	req := pipeline.Request{
		Image:           data,
		Languages:       formValues(ctx, "languages"),
		DefaultLanguage: ctx.FormValue("default_language"),
		Target:          strings.TrimSpace(ctx.FormValue("target")),
		Detect:          formFlag(ctx, "detect"),
		Grammar:         formFlag(ctx, "grammar"),
		Speak:           formFlag(ctx, "speak"),
		Boxes:           formFlag(ctx, "boxes"),
	}

	report, err := s.svc.Process(ctx.Request().Context(), req)
	if err != nil {
		return processError(err)
	}
	return ctx.JSON(http.StatusOK, report)
}

func (s *Server) apiDetectHandler(ctx echo.Context) error {
	var req textRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s.svc.Detect(req.Text))
}

func (s *Server) apiTranslateHandler(ctx echo.Context) error {
	var req translateRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}
	if req.Target == "" {
		req.Target = s.svc.TargetLanguage()
	}
	out, err := s.svc.TranslateText(ctx.Request().Context(), req.Text, req.Target)
	if err != nil {
		slog.Error("apiTranslateHandler: translation failed", "error", err, "target", req.Target)
		if errors.Is(err, pipeline.ErrUnknownLanguage) || errors.Is(err, translate.ErrUnsupportedLanguage) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, pipeline.TranslationFailed)
	}
	return ctx.JSON(http.StatusOK, translateResponse{Translation: out, Target: req.Target})
}

func (s *Server) apiGrammarHandler(ctx echo.Context) error {
	var req grammarRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}
	res, err := s.svc.Grammar(ctx.Request().Context(), req.Text, req.Language)
	if err != nil {
		slog.Error("apiGrammarHandler: grammar check failed", "error", err)
		if errors.Is(err, pipeline.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, pipeline.GrammarFailed)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (s *Server) apiSpeechHandler(ctx echo.Context) error {
	var req speechRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}
	if req.Language == "" {
		req.Language = s.svc.Detect(req.Text).Code
	}
	audio, err := s.svc.Speak(ctx.Request().Context(), req.Text, req.Language)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, speech.ErrEmptyText):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadGateway, "speech synthesis failed")
	}
	return ctx.Blob(http.StatusOK, audio.MimeType, audio.Data)
}

func (s *Server) apiLanguagesHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"languages":        s.svc.Languages(),
		"default_language": s.svc.DefaultLanguage(),
		"target_language":  s.svc.TargetLanguage(),
		"unknown":          langdetect.UnknownName,
	})
}

// processError maps pipeline failures to HTTP errors.
func processError(err error) error {
	switch {
	case errors.Is(err, pipeline.ErrUnknownLanguage),
		errors.Is(err, imaging.ErrEmptyImage),
		errors.Is(err, ocr.ErrNoLanguages):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	slog.Error("processError: request failed", "error", err)
	return echo.NewHTTPError(http.StatusUnprocessableEntity, "Text recognition failed: "+err.Error())
}
