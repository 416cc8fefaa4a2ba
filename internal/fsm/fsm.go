// Package fsm models the capture session lifecycle as explicit state transitions.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateStarting   State = "starting"
	StateListening  State = "listening"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
	StateError      State = "error"
)

const (
	EventStart   Event = "start"
	EventListen  Event = "listen"
	EventCapture Event = "capture"
	EventStop    Event = "stop"
	EventResolve Event = "resolve"
	EventFail    Event = "fail"
	EventReset   Event = "reset"
)

// Active reports whether a state belongs to a live capture session.
// StateProcessing counts: the session still owns the gateway round trip.
func Active(s State) bool {
	switch s {
	case StateStarting, StateListening, StateRecording, StateProcessing:
		return true
	default:
		return false
	}
}

// Recording reports whether external observers should see an in-progress capture.
func Recording(s State) bool {
	switch s {
	case StateStarting, StateListening, StateRecording:
		return true
	default:
		return false
	}
}

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateStarting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateStarting:
		switch event {
		case EventListen:
			return StateListening, nil
		case EventCapture:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventResolve:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
