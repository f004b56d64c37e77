package rag

import "fmt"

// Language selects the answer language.
type Language string

const (
	// LanguageAuto lets the model mirror the question's language.
	LanguageAuto    Language = "auto"
	LanguageSpanish Language = "spanish"
	LanguageEnglish Language = "english"
)

// ParseLanguage validates a language name. Empty defaults to spanish, the
// corpus language.
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageAuto, LanguageSpanish, LanguageEnglish:
		return Language(s), nil
	case "":
		return LanguageSpanish, nil
	}
	return "", fmt.Errorf("unsupported language %q (want auto, spanish or english)", s)
}

// AskRequest is a single question against the corpus.
type AskRequest struct {
	Query  string `json:"query"`
	K      int    `json:"k"`
	Rerank bool   `json:"rerank"`
	Stream bool   `json:"stream"`
	// Temperature is a pointer so an explicit 0 survives decoding; only
	// an absent field falls back to the default.
	Temperature *float64 `json:"temperature"`
	Language    Language `json:"language"`
}

const (
	defaultK           = 12
	defaultTemperature = 1.0
)

// Validate applies defaults and rejects malformed requests. It must pass
// before any retrieval happens.
func (r *AskRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query is required")
	}
	if r.K == 0 {
		r.K = defaultK
	}
	if r.K < 0 {
		return fmt.Errorf("k must be positive, got %d", r.K)
	}
	if r.Temperature == nil {
		t := defaultTemperature
		r.Temperature = &t
	}
	if *r.Temperature < 0 || *r.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %g", *r.Temperature)
	}
	lang, err := ParseLanguage(string(r.Language))
	if err != nil {
		return err
	}
	r.Language = lang
	return nil
}
