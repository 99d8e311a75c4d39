package streamplan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loom/internal/domain/models/chat"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		state chat.StreamState
		event chat.StreamEvent
		want  chat.Transition
	}{
		{
			name:  "no delta is a noop",
			state: chat.StreamState{HasStartedResponse: true},
			event: chat.StreamEvent{HasMessageID: true, HasAnswerContent: true},
			want: chat.Transition{
				Action: chat.ActionNoop,
				Next:   chat.StreamState{HasStartedResponse: true},
			},
		},
		{
			name:  "first chunk thinking only",
			event: chat.StreamEvent{HasDelta: true},
			want: chat.Transition{
				Action: chat.ActionFirstChunk,
				Next:   chat.StreamState{HasStartedResponse: true},
			},
		},
		{
			name:  "first chunk with answer never forces refresh",
			event: chat.StreamEvent{HasDelta: true, HasMessageID: true, HasAnswerContent: true},
			want: chat.Transition{
				Action: chat.ActionFirstChunk,
				Next:   chat.StreamState{HasStartedResponse: true, HasEverShownAnswerContent: true},
			},
		},
		{
			name:  "started without identity waits",
			state: chat.StreamState{HasStartedResponse: true},
			event: chat.StreamEvent{HasDelta: true, HasAnswerContent: true},
			want: chat.Transition{
				Action: chat.ActionWaitForMessage,
				Next:   chat.StreamState{HasStartedResponse: true, HasEverShownAnswerContent: true},
			},
		},
		{
			name:  "wait keeps earlier answer flag",
			state: chat.StreamState{HasStartedResponse: true, HasEverShownAnswerContent: true},
			event: chat.StreamEvent{HasDelta: true},
			want: chat.Transition{
				Action: chat.ActionWaitForMessage,
				Next:   chat.StreamState{HasStartedResponse: true, HasEverShownAnswerContent: true},
			},
		},
		{
			name:  "first answer content forces refresh",
			state: chat.StreamState{HasStartedResponse: true},
			event: chat.StreamEvent{HasDelta: true, HasMessageID: true, HasAnswerContent: true},
			want: chat.Transition{
				Action:       chat.ActionUpdateExisting,
				ForceRefresh: true,
				Next:         chat.StreamState{HasStartedResponse: true, HasEverShownAnswerContent: true},
			},
		},
		{
			name:  "later answer content does not force",
			state: chat.StreamState{HasStartedResponse: true, HasEverShownAnswerContent: true},
			event: chat.StreamEvent{HasDelta: true, HasMessageID: true, HasAnswerContent: true},
			want: chat.Transition{
				Action: chat.ActionUpdateExisting,
				Next:   chat.StreamState{HasStartedResponse: true, HasEverShownAnswerContent: true},
			},
		},
		{
			name:  "thinking update",
			state: chat.StreamState{HasStartedResponse: true},
			event: chat.StreamEvent{HasDelta: true, HasMessageID: true},
			want: chat.Transition{
				Action: chat.ActionUpdateExisting,
				Next:   chat.StreamState{HasStartedResponse: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Plan(tt.state, tt.event))
		})
	}
}

func TestReplay_ForceRefreshFlipsOnce(t *testing.T) {
	events := []chat.StreamEvent{
		{HasDelta: true},
		{HasDelta: true, HasMessageID: true},
		{HasDelta: true, HasMessageID: true, HasAnswerContent: true},
		{HasDelta: true, HasMessageID: true, HasAnswerContent: true},
		{HasMessageID: true},
	}

	got := Replay(events)

	actions := make([]chat.RenderAction, len(got))
	forced := make([]bool, len(got))
	for i, tr := range got {
		actions[i] = tr.Action
		forced[i] = tr.ForceRefresh
	}

	assert.Equal(t, []chat.RenderAction{
		chat.ActionFirstChunk,
		chat.ActionUpdateExisting,
		chat.ActionUpdateExisting,
		chat.ActionUpdateExisting,
		chat.ActionNoop,
	}, actions)
	assert.Equal(t, []bool{false, false, true, false, false}, forced)

	assert.Equal(t, got, Replay(events), "replay must be deterministic")
}
