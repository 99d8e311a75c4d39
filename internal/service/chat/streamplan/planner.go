// Package streamplan decides how each chunk of a streamed turn is rendered.
package streamplan

import "loom/internal/domain/models/chat"

// Plan maps the current turn state and one incoming event to a render
// action and the next state. It is pure: replaying the same events from the
// zero state always yields the same transitions.
func Plan(state chat.StreamState, event chat.StreamEvent) chat.Transition {
	if !event.HasDelta {
		return chat.Transition{Action: chat.ActionNoop, Next: state}
	}

	if !state.HasStartedResponse {
		return chat.Transition{
			Action: chat.ActionFirstChunk,
			Next: chat.StreamState{
				HasStartedResponse:        true,
				HasEverShownAnswerContent: event.HasAnswerContent,
			},
		}
	}

	next := chat.StreamState{
		HasStartedResponse:        true,
		HasEverShownAnswerContent: state.HasEverShownAnswerContent || event.HasAnswerContent,
	}

	if !event.HasMessageID {
		return chat.Transition{Action: chat.ActionWaitForMessage, Next: next}
	}

	return chat.Transition{
		Action:       chat.ActionUpdateExisting,
		ForceRefresh: event.HasAnswerContent && !state.HasEverShownAnswerContent,
		Next:         next,
	}
}

// Replay runs Plan over a sequence of events from the zero state.
func Replay(events []chat.StreamEvent) []chat.Transition {
	var state chat.StreamState
	out := make([]chat.Transition, 0, len(events))
	for _, ev := range events {
		tr := Plan(state, ev)
		out = append(out, tr)
		state = tr.Next
	}
	return out
}
