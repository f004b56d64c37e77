package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veridianlabs/lexrag/internal/llm"
)

func TestComplete(t *testing.T) {
	var gotVersion, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		json.NewEncoder(w).Encode(map[string]any{
			"model":       "claude-test",
			"stop_reason": "end_turn",
			"content": []map[string]string{
				{"type": "text", "text": "respuesta"},
			},
			"usage": map[string]int{"input_tokens": 11, "output_tokens": 3},
		})
	}))
	defer srv.Close()

	c := New("sk-ant", "claude-test", srv.URL)
	resp, err := c.Complete(context.Background(), &llm.Prompt{
		SystemPrompt: "sys",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "pregunta"}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if gotKey != "sk-ant" || gotVersion == "" {
		t.Fatalf("auth headers missing: key=%q version=%q", gotKey, gotVersion)
	}
	if resp.Content != "respuesta" || resp.StopReason != "end_turn" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: message_start\n")
		fmt.Fprint(w, "data: {\"type\":\"message_start\",\"message\":{\"model\":\"claude-test\"}}\n\n")
		for _, tok := range []string{"El", " contrato"} {
			fmt.Fprint(w, "event: content_block_delta\n")
			fmt.Fprintf(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":%q}}\n\n", tok)
		}
		fmt.Fprint(w, "event: message_delta\n")
		fmt.Fprint(w, "data: {\"type\":\"message_delta\",\"delta\":{\"stop_reason\":\"end_turn\"}}\n\n")
		fmt.Fprint(w, "event: message_stop\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer srv.Close()

	c := New("sk-ant", "claude-test", srv.URL)
	var deltas []string
	resp, err := c.Stream(context.Background(), &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "q"}},
	}, nil, func(text string) {
		deltas = append(deltas, text)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(deltas) != 2 || deltas[0] != "El" {
		t.Fatalf("unexpected deltas: %v", deltas)
	}
	if resp.Content != "El contrato" || resp.Model != "claude-test" || resp.StopReason != "end_turn" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
