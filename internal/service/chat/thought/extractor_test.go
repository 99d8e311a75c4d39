package thought

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantClean   string
		wantThought string
	}{
		{
			name:        "single span",
			raw:         "a<think>x</think>b",
			wantClean:   "ab",
			wantThought: "x",
		},
		{
			name:      "no span returns input unchanged",
			raw:       "  plain text  ",
			wantClean: "  plain text  ",
		},
		{
			name:        "multiple spans joined with blank line",
			raw:         "<think> first </think>Answer<think>\nsecond\n</think> done",
			wantClean:   "Answer done",
			wantThought: "first\n\nsecond",
		},
		{
			name:        "case insensitive tags",
			raw:         "<THINK>loud</Think>\n\nquiet",
			wantClean:   "quiet",
			wantThought: "loud",
		},
		{
			name:        "non greedy across spans",
			raw:         "<think>a</think>keep<think>b</think>",
			wantClean:   "keep",
			wantThought: "a\n\nb",
		},
		{
			name:      "empty span is dropped from thought",
			raw:       "<think>   </think>text",
			wantClean: "text",
		},
		{
			name:      "unclosed span is left alone",
			raw:       "<think>never closed",
			wantClean: "<think>never closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.raw)
			assert.Equal(t, tt.wantClean, got.CleanText)
			assert.Equal(t, tt.wantThought, got.ThoughtText)
		})
	}
}

func TestExtract_ResendHasNoThoughts(t *testing.T) {
	first := Extract("<think>plan</think>Result")
	second := Extract(first.CleanText)
	assert.Equal(t, "Result", second.CleanText)
	assert.False(t, second.HasThought())
}

func TestMergeThoughts(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming string
		want     string
	}{
		{"empty incoming", "kept", "", "kept"},
		{"blank incoming", "kept", "  \n", "kept"},
		{"empty existing", "", "new", "new"},
		{"incoming already contained", "alpha beta gamma", "beta", "alpha beta gamma"},
		{"existing contained in incoming", "beta", "alpha beta gamma", "alpha beta gamma"},
		{"disjoint blocks", "one", "two", "one\n\ntwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeThoughts(tt.existing, tt.incoming))
		})
	}
}

func TestMergeThoughts_Idempotent(t *testing.T) {
	acc := ""
	for i := 0; i < 3; i++ {
		acc = MergeThoughts(acc, "step one")
		acc = MergeThoughts(acc, "step two")
	}
	assert.Equal(t, "step one\n\nstep two", acc)
}

func TestSplitPending(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSettled string
		wantPending string
	}{
		{name: "no tags", raw: "hello", wantSettled: "hello"},
		{name: "closed span", raw: "<think>a</think>b", wantSettled: "<think>a</think>b"},
		{name: "open span", raw: "<think>still going", wantSettled: "", wantPending: "still going"},
		{name: "open after closed", raw: "<think>a</think>b<THINK>c", wantSettled: "<think>a</think>b", wantPending: "c"},
		{name: "multibyte before span", raw: "café <think>é", wantSettled: "café ", wantPending: "é"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settled, pending := SplitPending(tt.raw)
			assert.Equal(t, tt.wantSettled, settled)
			assert.Equal(t, tt.wantPending, pending)
		})
	}
}
