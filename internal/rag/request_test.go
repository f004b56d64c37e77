package rag

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestValidateKeepsExplicitZeroTemperature(t *testing.T) {
	req := AskRequest{Query: "q", Temperature: floatPtr(0)}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Temperature == nil || *req.Temperature != 0 {
		t.Fatalf("explicit zero temperature coerced to %v", req.Temperature)
	}
}

func TestValidateDefaults(t *testing.T) {
	req := AskRequest{Query: "¿qué dice el artículo?"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.K != 12 {
		t.Fatalf("default k = %d, want 12", req.K)
	}
	if req.Temperature == nil || *req.Temperature != 1.0 {
		t.Fatalf("default temperature = %v, want 1.0", req.Temperature)
	}
	if req.Language != LanguageSpanish {
		t.Fatalf("default language = %s, want spanish", req.Language)
	}
	if req.Rerank || req.Stream {
		t.Fatal("rerank and stream must default to false")
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		req  AskRequest
	}{
		{"missing query", AskRequest{}},
		{"negative k", AskRequest{Query: "q", K: -3}},
		{"negative temperature", AskRequest{Query: "q", Temperature: floatPtr(-0.1)}},
		{"temperature too high", AskRequest{Query: "q", Temperature: floatPtr(2.5)}},
		{"unknown language", AskRequest{Query: "q", Language: "german"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestParseLanguage(t *testing.T) {
	for _, valid := range []string{"auto", "spanish", "english", ""} {
		if _, err := ParseLanguage(valid); err != nil {
			t.Errorf("ParseLanguage(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseLanguage("klingon"); err == nil {
		t.Fatal("expected error for unknown language")
	}
}
