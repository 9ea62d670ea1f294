package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ironsheep/image-translate/internal/pipeline"
	"github.com/ironsheep/image-translate/internal/pipeline/pipelinetest"
)

func newTestEcho(t *testing.T) (*echo.Echo, *pipelinetest.Fakes) {
	t.Helper()
	svc, fakes := pipelinetest.NewService(t)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter_total", Help: "test"}))
	s := NewServer(svc, Options{Gatherer: reg, Version: "test"})
	return s.NewEcho(), fakes
}

// multipartBody builds a form with an "image" file plus the given fields.
func multipartBody(t *testing.T, image []byte, fields map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if image != nil {
		fw, err := w.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("CreateFormFile failed: %v", err)
		}
		fw.Write(image)
	}
	for k, values := range fields {
		for _, v := range values {
			if err := w.WriteField(k, v); err != nil {
				t.Fatalf("WriteField failed: %v", err)
			}
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("multipart close failed: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestRootRedirects(t *testing.T) {
	e, _ := newTestEcho(t)
	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/recognize" {
		t.Errorf("got %d -> %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPages(t *testing.T) {
	e, _ := newTestEcho(t)

	tests := []struct {
		path string
		want []string
	}{
		{"/recognize", []string{"Image Text Recognition", "Select image languages", `capture="environment"`, "Korean"}},
		{"/translate", []string{"Text Translation", "Enter text to translate", `action="/translate/text"`}},
		{"/translate?mode=image", []string{"Upload an image to translate", `action="/translate/image"`}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(e, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status: got %d", rec.Code)
			}
			for _, w := range tt.want {
				if !strings.Contains(rec.Body.String(), w) {
					t.Errorf("page missing %q", w)
				}
			}
		})
	}
}

func TestRecognizeForm(t *testing.T) {
	e, fakes := newTestEcho(t)

	body, ctype := multipartBody(t, pipelinetest.PNG(t, 80, 40), map[string][]string{
		"languages":        {"French", "German"},
		"default_language": {"English"},
		"detect":           {"on"},
		"grammar":          {"on"},
		"speak":            {"on"},
		"boxes":            {"on"},
	})
	req := httptest.NewRequest(http.MethodPost, "/recognize", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := serve(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	page := rec.Body.String()
	for _, w := range []string{
		"Extracted Text",
		"The quick brown fox jumps over teh lazy dog",
		"Detected language: <strong>English</strong>",
		"Corrected Text",
		"data:image/png;base64,",
		"data:audio/mpeg;base64,",
		"Copy Text",
	} {
		if !strings.Contains(page, w) {
			t.Errorf("page missing %q", w)
		}
	}
	if strings.Join(fakes.Engine.Languages, ",") != "fr,de" {
		t.Errorf("OCR languages: %v", fakes.Engine.Languages)
	}
}

func TestRecognizeForm_NoImage(t *testing.T) {
	e, _ := newTestEcho(t)
	body, ctype := multipartBody(t, nil, map[string][]string{"default_language": {"English"}})
	req := httptest.NewRequest(http.MethodPost, "/recognize", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := serve(e, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "no image uploaded") {
		t.Errorf("got %d", rec.Code)
	}
}

func TestTranslateTextForm(t *testing.T) {
	e, fakes := newTestEcho(t)

	req := httptest.NewRequest(http.MethodPost, "/translate/text", strings.NewReader("text=hello+world&target=Spanish"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := serve(e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "es:hello world") {
		t.Errorf("translation missing from page")
	}

	fakes.Translator.Err = pipelinetest.ErrBackend
	rec = serve(e, func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/translate/text", strings.NewReader("text=hello&target=Spanish"))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		return r
	}())
	if !strings.Contains(rec.Body.String(), pipeline.TranslationFailed) {
		t.Errorf("fallback message missing from page")
	}
}

func TestTranslateImageForm(t *testing.T) {
	e, _ := newTestEcho(t)

	body, ctype := multipartBody(t, pipelinetest.PNG(t, 80, 40), map[string][]string{
		"default_language": {"English"},
		"target":           {"Italian"},
	})
	req := httptest.NewRequest(http.MethodPost, "/translate/image", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := serve(e, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "it:The quick brown fox") {
		t.Errorf("translated text missing from page")
	}
}

func TestAPIRecognize(t *testing.T) {
	e, _ := newTestEcho(t)

	body, ctype := multipartBody(t, pipelinetest.PNG(t, 80, 40), map[string][]string{
		"languages[]": {"en"},
		"detect":      {"true"},
		"target":      {"fr"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/recognize", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := serve(e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var report pipeline.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Extraction == nil || len(report.Extraction.Fragments) != 2 {
		t.Fatalf("extraction: %+v", report.Extraction)
	}
	if report.Language != "English" || !strings.HasPrefix(report.Translation, "fr:") {
		t.Errorf("report: language=%q translation=%q", report.Language, report.Translation)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("missing request id header")
	}
}

func TestAPIRecognize_Speak(t *testing.T) {
	e, fakes := newTestEcho(t)

	body, ctype := multipartBody(t, pipelinetest.PNG(t, 80, 40), map[string][]string{
		"languages": {"English"},
		"speak":     {"on"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/recognize", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	rec := serve(e, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}

	var report pipeline.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Audio == nil {
		t.Fatalf("audio missing: %s", rec.Body.String())
	}
	if report.Audio.MimeType != "audio/mpeg" || string(report.Audio.Data) != "MP3:"+fakes.Synthesizer.Text {
		t.Errorf("audio: %s %q", report.Audio.MimeType, report.Audio.Data)
	}
	if !strings.Contains(rec.Body.String(), `"mime_type":"audio/mpeg"`) {
		t.Errorf("audio should be encoded in the JSON body: %s", rec.Body.String())
	}
}

func TestAPIRecognize_UnknownLanguage(t *testing.T) {
	e, _ := newTestEcho(t)
	body, ctype := multipartBody(t, pipelinetest.PNG(t, 8, 8), map[string][]string{"languages": {"Klingon"}})
	req := httptest.NewRequest(http.MethodPost, "/api/recognize", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	if rec := serve(e, req); rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d", rec.Code)
	}
}

func TestAPIDetect(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := serve(e, jsonRequest(http.MethodPost, "/api/detect", `{"text":"Der schnelle braune Fuchs springt über den faulen Hund und läuft in den Wald."}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	var got struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Code != "de" || got.Name != "German" {
		t.Errorf("got %+v", got)
	}

	if rec := serve(e, jsonRequest(http.MethodPost, "/api/detect", `{"text":""}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("empty text: got %d", rec.Code)
	}
}

func TestAPITranslate(t *testing.T) {
	e, fakes := newTestEcho(t)

	rec := serve(e, jsonRequest(http.MethodPost, "/api/translate", `{"text":"hello","target":"ja"}`))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"translation":"ja:hello"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(e, jsonRequest(http.MethodPost, "/api/translate", `{"text":"hello","target":"Klingon"}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown target: got %d", rec.Code)
	}

	fakes.Translator.Err = pipelinetest.ErrBackend
	rec = serve(e, jsonRequest(http.MethodPost, "/api/translate", `{"text":"hello","target":"ja"}`))
	if rec.Code != http.StatusBadGateway || !strings.Contains(rec.Body.String(), pipeline.TranslationFailed) {
		t.Errorf("backend failure: got %d %s", rec.Code, rec.Body.String())
	}

	if rec := serve(e, jsonRequest(http.MethodPost, "/api/translate", `{`)); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body: got %d", rec.Code)
	}
}

func TestAPIGrammar(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := serve(e, jsonRequest(http.MethodPost, "/api/grammar", `{"text":"teh end","language":"English"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"corrected":"the end"`) {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestAPISpeech(t *testing.T) {
	e, fakes := newTestEcho(t)

	rec := serve(e, jsonRequest(http.MethodPost, "/api/speech", `{"text":"hola","language":"Spanish"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderContentType) != "audio/mpeg" || rec.Body.String() != "MP3:hola" {
		t.Errorf("got %q %q", rec.Header().Get(echo.HeaderContentType), rec.Body.String())
	}
	if fakes.Synthesizer.Language != "es" {
		t.Errorf("language: got %q", fakes.Synthesizer.Language)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e, _ := newTestEcho(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("healthz: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "test_counter_total") {
		t.Errorf("metrics: %d", rec.Code)
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/api/languages", nil))
	if !strings.Contains(rec.Body.String(), `"name":"Chinese","code":"zh"`) {
		t.Errorf("languages: %s", rec.Body.String())
	}
}

func TestBodyLimit(t *testing.T) {
	svc, _ := pipelinetest.NewService(t)
	e := NewServer(svc, Options{UploadLimit: "1K", Gatherer: prometheus.NewRegistry()}).NewEcho()

	body, ctype := multipartBody(t, bytes.Repeat([]byte{0}, 4096), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/recognize", body)
	req.Header.Set(echo.HeaderContentType, ctype)
	if rec := serve(e, req); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", rec.Code)
	}
}
