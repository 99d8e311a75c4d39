package streamplan

import (
	"log/slog"
	"strings"

	"loom/internal/domain/models/chat"
	"loom/internal/service/chat/thought"
)

// Step is the outcome of feeding one chunk to a TurnStream.
type Step struct {
	Transition chat.Transition `json:"transition"`
	Answer     string          `json:"answer"`
	Thought    string          `json:"thought"`
	MessageID  string          `json:"message_id,omitempty"`
}

// Snapshot is the accumulated view of a turn.
type Snapshot struct {
	State     chat.StreamState `json:"state"`
	Answer    string           `json:"answer"`
	Thought   string           `json:"thought"`
	MessageID string           `json:"message_id,omitempty"`
	Chunks    int              `json:"chunks"`
}

// TurnStream owns the state of one streaming turn: the planner state, the
// raw answer text and the reasoning accumulator. It is not safe for
// concurrent use; the turn that created it feeds it one chunk at a time.
type TurnStream struct {
	logger *slog.Logger
	merger thought.Merger

	state     chat.StreamState
	rawAnswer strings.Builder
	reasoning string
	messageID string
	chunks    int
}

// NewTurnStream starts an empty turn.
func NewTurnStream(merger thought.Merger, logger *slog.Logger) *TurnStream {
	return &TurnStream{logger: logger, merger: merger}
}

// Consume folds one chunk into the turn and plans its rendering.
func (t *TurnStream) Consume(chunk chat.Chunk) Step {
	t.chunks++

	if chunk.MessageID != "" {
		t.messageID = chunk.MessageID
	}

	if chunk.ReasoningDelta != "" {
		res := t.merger.Merge(t.reasoning, chunk.ReasoningDelta)
		if res.Kind == thought.MergeAppended {
			t.logger.Debug("reasoning delta appended without overlap",
				"chunk", t.chunks,
				"existing_len", len(t.reasoning),
				"delta_len", len(chunk.ReasoningDelta),
			)
		}
		t.reasoning = res.Text
	}
	t.rawAnswer.WriteString(chunk.TextDelta)

	answer, thoughtText := t.view()

	tr := Plan(t.state, chat.StreamEvent{
		HasDelta:         chunk.TextDelta != "" || chunk.ReasoningDelta != "",
		HasMessageID:     t.messageID != "",
		HasAnswerContent: strings.TrimSpace(answer) != "",
	})
	t.state = tr.Next

	return Step{
		Transition: tr,
		Answer:     answer,
		Thought:    thoughtText,
		MessageID:  t.messageID,
	}
}

// Snapshot returns the accumulated turn.
func (t *TurnStream) Snapshot() Snapshot {
	answer, thoughtText := t.view()
	return Snapshot{
		State:     t.state,
		Answer:    answer,
		Thought:   thoughtText,
		MessageID: t.messageID,
		Chunks:    t.chunks,
	}
}

// view splits the raw answer into visible text and inline thoughts, and
// merges those with the separately streamed reasoning.
func (t *TurnStream) view() (answer, thoughtText string) {
	settled, pending := thought.SplitPending(t.rawAnswer.String())
	ext := thought.Extract(settled)

	inline := ext.ThoughtText
	if p := strings.TrimSpace(pending); p != "" {
		inline = thought.MergeThoughts(inline, p)
	}

	return ext.CleanText, thought.MergeThoughts(t.reasoning, inline)
}
