package llm

import "testing"

func TestStripThinkingTags(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no tags", "plain answer", "plain answer"},
		{"single block", "<think>reasoning</think>the answer", "the answer"},
		{"multiple blocks", "<think>a</think>x<think>b</think>y", "xy"},
		{"unclosed tag", "prefix <think>dangling", "prefix"},
		{"surrounding whitespace", "  <think>r</think>  answer  ", "answer"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripThinkingTags(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
