package chat

// RenderAction is what the renderer should do with an incoming chunk.
type RenderAction string

const (
	ActionNoop           RenderAction = "noop"
	ActionFirstChunk     RenderAction = "first_chunk"
	ActionWaitForMessage RenderAction = "wait_for_message"
	ActionUpdateExisting RenderAction = "update_existing"
)

// StreamState is threaded through one streaming turn.
type StreamState struct {
	HasStartedResponse        bool `json:"has_started_response"`
	HasEverShownAnswerContent bool `json:"has_ever_shown_answer_content"`
}

// StreamEvent is the planner's view of one incoming chunk.
type StreamEvent struct {
	HasDelta         bool `json:"has_delta"`
	HasMessageID     bool `json:"has_message_id"`
	HasAnswerContent bool `json:"has_answer_content"`
}

// Transition is the planner's decision for one event.
type Transition struct {
	Action       RenderAction `json:"action"`
	ForceRefresh bool         `json:"force_refresh"`
	Next         StreamState  `json:"next_state"`
}

// Chunk is one incremental piece of a streamed response as delivered by the
// ingestion loop. MessageID is the renderer-side identity of the message
// being updated, once one exists.
type Chunk struct {
	TextDelta      string `json:"text_delta,omitempty"`
	ReasoningDelta string `json:"reasoning_delta,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
}

// ResponseMode says whether an exchange is streamed.
type ResponseMode string

const (
	ModeStream    ResponseMode = "stream"
	ModeNonStream ResponseMode = "non_stream"
)
