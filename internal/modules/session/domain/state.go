package domain

type State string

const (
	StateIdle         State = "idle"
	StateActive       State = "active"
	StatePaused       State = "paused"
	StateRescheduling State = "rescheduling"
	StateCompleted    State = "completed"
)

type Event string

const (
	EventStart           Event = "start"
	EventAdvance         Event = "advance"
	EventFinish          Event = "finish"
	EventPause           Event = "pause"
	EventResume          Event = "resume"
	EventBeginReschedule Event = "begin_reschedule"
	EventEndReschedule   Event = "end_reschedule"
)

// transitions is the complete table of legal moves; anything absent is rejected.
var transitions = map[State]map[Event]State{
	StateIdle: {
		EventStart: StateActive,
	},
	StateActive: {
		EventAdvance:         StateActive,
		EventFinish:          StateCompleted,
		EventPause:           StatePaused,
		EventBeginReschedule: StateRescheduling,
	},
	StatePaused: {
		EventResume: StateActive,
	},
	StateRescheduling: {
		EventEndReschedule: StateActive,
	},
	StateCompleted: {},
}

// Next returns the state reached from s on ev.
func (s State) Next(ev Event) (State, error) {
	if next, ok := transitions[s][ev]; ok {
		return next, nil
	}
	return s, &InvalidStateError{Current: s, Required: RequiredState(ev)}
}

// RequiredState is the state an event is legal from.
func RequiredState(ev Event) State {
	for from, events := range transitions {
		if _, ok := events[ev]; ok {
			return from
		}
	}
	return ""
}

func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Apply moves the session along ev, leaving it untouched on error.
func (s *Session) Apply(ev Event) error {
	next, err := s.State.Next(ev)
	if err != nil {
		return err
	}
	s.State = next
	return nil
}
