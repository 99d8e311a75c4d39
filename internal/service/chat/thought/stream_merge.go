package thought

import "strings"

// DefaultMaxOverlapSearch bounds how many trailing bytes of the accumulated
// text are compared against the head of an incoming delta.
const DefaultMaxOverlapSearch = 256

// MergeKind records which rule MergeStreamingThoughts applied.
type MergeKind string

const (
	// MergeUnchanged: incoming was empty.
	MergeUnchanged MergeKind = "unchanged"
	// MergeReplaced: incoming was a cumulative re-send (or existing was empty).
	MergeReplaced MergeKind = "replaced"
	// MergeSpliced: incoming overlapped the tail of existing.
	MergeSpliced MergeKind = "spliced"
	// MergeAppended: no overlap was found and incoming was appended as-is.
	// A delta that legitimately repeats the boundary lands here too, so
	// callers may want to log it.
	MergeAppended MergeKind = "appended"
)

// MergeResult is the outcome of Merger.Merge.
type MergeResult struct {
	Text    string
	Kind    MergeKind
	Overlap int
}

// Merger folds streamed reasoning deltas into an accumulator.
type Merger struct {
	// MaxOverlapSearch is the overlap window in bytes. Zero or negative
	// means DefaultMaxOverlapSearch.
	MaxOverlapSearch int
}

// NewMerger returns a Merger with the given window.
func NewMerger(maxOverlapSearch int) Merger {
	return Merger{MaxOverlapSearch: maxOverlapSearch}
}

func (m Merger) window() int {
	if m.MaxOverlapSearch <= 0 {
		return DefaultMaxOverlapSearch
	}
	return m.MaxOverlapSearch
}

// Merge handles pure deltas, cumulative re-sends, and deltas that repeat the
// tail of existing. It never inserts separators: the result reads as one
// flowing text.
func (m Merger) Merge(existing, incoming string) MergeResult {
	if incoming == "" {
		return MergeResult{Text: existing, Kind: MergeUnchanged}
	}
	if existing == "" || strings.HasPrefix(incoming, existing) {
		return MergeResult{Text: incoming, Kind: MergeReplaced}
	}

	if k := longestOverlap(existing, incoming, m.window()); k > 0 {
		return MergeResult{Text: existing + incoming[k:], Kind: MergeSpliced, Overlap: k}
	}

	return MergeResult{Text: existing + incoming, Kind: MergeAppended}
}

// MergeStreamingThoughts is Merge without the bookkeeping.
func MergeStreamingThoughts(existing, incoming string, maxOverlapSearch int) string {
	return NewMerger(maxOverlapSearch).Merge(existing, incoming).Text
}

// longestOverlap returns the length of the longest suffix of existing that
// is also a prefix of incoming, looking at no more than limit bytes.
func longestOverlap(existing, incoming string, limit int) int {
	max := len(existing)
	if len(incoming) < max {
		max = len(incoming)
	}
	if limit < max {
		max = limit
	}
	for k := max; k > 0; k-- {
		if existing[len(existing)-k:] == incoming[:k] {
			return k
		}
	}
	return 0
}
