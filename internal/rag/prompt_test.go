package rag

import (
	"strings"
	"testing"

	"github.com/veridianlabs/lexrag/internal/corpus"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

func sampleContexts() []vectorstore.ScoredChunk {
	return []vectorstore.ScoredChunk{
		{Chunk: corpus.Chunk{Text: "primer fragmento", Metadata: corpus.Metadata{Source: "ley.pdf", Page: 0, TotalPages: 9}}, Score: 0.9},
		{Chunk: corpus.Chunk{Text: "segundo fragmento", Metadata: corpus.Metadata{Source: "ley.pdf", Page: 3, TotalPages: 9}}, Score: 0.7},
	}
}

func TestBuildPromptNumbersContexts(t *testing.T) {
	p := buildPrompt("¿qué regula la ley?", sampleContexts(), LanguageSpanish)

	if p.SystemPrompt == "" {
		t.Fatal("expected system prompt")
	}
	if !strings.Contains(p.SystemPrompt, "spanish") {
		t.Fatal("system prompt missing target language")
	}
	if len(p.Messages) != 1 || p.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages %+v", p.Messages)
	}
	user := p.Messages[0].Content
	for _, want := range []string{
		"Question: ¿qué regula la ley?",
		"[1] (ley.pdf, page 1)",
		"primer fragmento",
		"[2] (ley.pdf, page 4)",
		"segundo fragmento",
		"Answer in spanish in markdown format:",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q\n%s", want, user)
		}
	}
}

func TestBuildPromptAutoLanguage(t *testing.T) {
	p := buildPrompt("question", sampleContexts(), LanguageAuto)
	if !strings.Contains(p.Messages[0].Content, "the same language as the question") {
		t.Fatal("auto language not spelled out for the model")
	}
}
