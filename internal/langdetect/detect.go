// Package langdetect guesses the natural language of a piece of text.
package langdetect

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

// UnknownName is the display name reported when no language can be determined.
const UnknownName = "Unknown"

// Detection is the outcome of a language guess.
type Detection struct {
	// Code is the ISO 639-1 code, empty when unknown.
	Code string `json:"code"`

	// Name is the English language name, or "Unknown".
	Name string `json:"name"`

	// Confidence is the detector's confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Reliable reports whether the detector considers the guess trustworthy.
	Reliable bool `json:"reliable"`
}

// Known reports whether a language was determined.
func (d Detection) Known() bool {
	return d.Code != ""
}

var unknown = Detection{Name: UnknownName}

// supported maps the ISO 639-1 codes the application offers to detector languages.
var supported = map[string]whatlanggo.Lang{
	"en": whatlanggo.Eng,
	"fr": whatlanggo.Fra,
	"es": whatlanggo.Spa,
	"de": whatlanggo.Deu,
	"it": whatlanggo.Ita,
	"pt": whatlanggo.Por,
	"nl": whatlanggo.Nld,
	"ru": whatlanggo.Rus,
	"zh": whatlanggo.Cmn,
	"ja": whatlanggo.Jpn,
	"ko": whatlanggo.Kor,
	"ar": whatlanggo.Arb,
	"hi": whatlanggo.Hin,
	"pl": whatlanggo.Pol,
	"sv": whatlanggo.Swe,
	"tr": whatlanggo.Tur,
	"uk": whatlanggo.Ukr,
}

// Detector guesses languages, optionally restricted to a set of candidates.
type Detector struct {
	options whatlanggo.Options
}

// New creates a detector. When candidates is non-empty, only those ISO 639-1
// codes can be reported; unrecognized candidate codes are ignored.
func New(candidates []string) *Detector {
	d := &Detector{}
	if len(candidates) == 0 {
		return d
	}

	whitelist := make(map[whatlanggo.Lang]bool, len(candidates))
	for _, code := range candidates {
		if lang, ok := supported[strings.ToLower(code)]; ok {
			whitelist[lang] = true
		}
	}
	if len(whitelist) > 0 {
		d.options.Whitelist = whitelist
	}
	return d
}

// Detect guesses the language of text. Empty input and undetermined text
// yield a Detection named "Unknown".
func (d *Detector) Detect(text string) Detection {
	if strings.TrimSpace(text) == "" {
		return unknown
	}

	info := whatlanggo.DetectWithOptions(text, d.options)
	if info.Lang < 0 {
		return unknown
	}

	code := info.Lang.Iso6391()
	if code == "" {
		return unknown
	}

	return Detection{
		Code:       code,
		Name:       info.Lang.String(),
		Confidence: info.Confidence,
		Reliable:   info.IsReliable(),
	}
}
