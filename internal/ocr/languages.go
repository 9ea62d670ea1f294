package ocr

import (
	"fmt"
	"strings"
)

// tesseractCodes maps ISO 639-1 codes to Tesseract traineddata names.
var tesseractCodes = map[string]string{
	"ar": "ara",
	"de": "deu",
	"en": "eng",
	"es": "spa",
	"fr": "fra",
	"hi": "hin",
	"it": "ita",
	"ja": "jpn",
	"ko": "kor",
	"nl": "nld",
	"pl": "pol",
	"pt": "por",
	"ru": "rus",
	"sv": "swe",
	"tr": "tur",
	"uk": "ukr",
	"zh": "chi_sim",
}

// TesseractCode returns the Tesseract language name for an ISO 639-1 code.
// Codes that already look like Tesseract names ("eng", "chi_tra") pass through.
func TesseractCode(code string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(code))
	if name, ok := tesseractCodes[c]; ok {
		return name, nil
	}
	if len(c) >= 3 {
		return c, nil
	}
	return "", fmt.Errorf("unsupported OCR language: %q", code)
}

// TesseractCodes maps every code and drops duplicates, keeping order.
func TesseractCodes(codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, ErrNoLanguages
	}
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		name, err := TesseractCode(code)
		if err != nil {
			return nil, err
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out, nil
}
