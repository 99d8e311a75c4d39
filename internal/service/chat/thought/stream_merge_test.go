package thought

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeStreamingThoughts(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		incoming string
		want     string
	}{
		{"pure delta", "Hello", " world", "Hello world"},
		{"cumulative resend", "Hello", "Hello world", "Hello world"},
		{"tail overlap", "abc", "bcde", "abcde"},
		{"empty existing", "", "start", "start"},
		{"empty incoming", "kept", "", "kept"},
		{"identical resend", "same", "same", "same"},
		{"incoming is a tail of existing", "the quick fox", "fox", "the quick fox"},
		{"multibyte overlap", "naïve ca", "café", "naïve café"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeStreamingThoughts(tt.existing, tt.incoming, 0))
		})
	}
}

func TestMerger_ReportsKind(t *testing.T) {
	m := NewMerger(0)

	assert.Equal(t, MergeUnchanged, m.Merge("a", "").Kind)
	assert.Equal(t, MergeReplaced, m.Merge("Hello", "Hello world").Kind)

	spliced := m.Merge("abc", "bcde")
	assert.Equal(t, MergeSpliced, spliced.Kind)
	assert.Equal(t, 2, spliced.Overlap)

	assert.Equal(t, MergeAppended, m.Merge("Hello", " world").Kind)
}

func TestMerger_WindowBoundsOverlapSearch(t *testing.T) {
	existing := strings.Repeat("x", 10) + "abcdef"
	incoming := "abcdefTAIL"

	narrow := NewMerger(3).Merge(existing, incoming)
	assert.Equal(t, MergeAppended, narrow.Kind)
	assert.Equal(t, existing+incoming, narrow.Text)

	wide := NewMerger(8).Merge(existing, incoming)
	assert.Equal(t, MergeSpliced, wide.Kind)
	assert.Equal(t, strings.Repeat("x", 10)+"abcdefTAIL", wide.Text)
}

func TestMergeStreamingThoughts_NoSeparators(t *testing.T) {
	acc := ""
	for _, delta := range []string{"I ", "think ", "so."} {
		acc = MergeStreamingThoughts(acc, delta, 0)
	}
	assert.NotContains(t, acc, "\n\n")
	assert.Equal(t, "I think so.", acc)
}
