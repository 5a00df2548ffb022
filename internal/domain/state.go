package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// State values encode the intended order of progression.
type State int

const (
	StateCancel          State = 0
	StateApply           State = 10
	StateWait            State = 100
	StateReject          State = 110
	StateExamined        State = 210
	StateExaminedWarning State = 220
	StateTransact        State = 300
	StateCoinReady       State = 400
	StateCoinDone        State = 410
	StateDone            State = 500
)

var stateNames = map[State]string{
	StateCancel:          "cancel",
	StateApply:           "apply",
	StateWait:            "wait",
	StateReject:          "reject",
	StateExamined:        "examined",
	StateExaminedWarning: "examined_warning",
	StateTransact:        "transact",
	StateCoinReady:       "coin_ready",
	StateCoinDone:        "coin_done",
	StateDone:            "done",
}

var CompletedStates = []State{StateDone, StateReject, StateCancel}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

func (s State) Valid() bool {
	_, ok := stateNames[s]
	return ok
}

func (s State) IsCompleted() bool {
	for _, c := range CompletedStates {
		if s == c {
			return true
		}
	}
	return false
}

func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *State) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type edge struct {
	from, to State
}

type rule struct {
	actors []Actor
	// channel restricts the edge to coin (true) or non-coin (false) channels.
	channel *bool
}

var (
	coinOnly = ptr(true)
	fiatOnly = ptr(false)
)

func ptr(b bool) *bool { return &b }

var transitions = map[edge]rule{
	{StateApply, StateWait}:               {actors: []Actor{ActorSystem}},
	{StateWait, StateExamined}:            {actors: []Actor{ActorWorker}},
	{StateWait, StateExaminedWarning}:     {actors: []Actor{ActorWorker}},
	{StateExamined, StateTransact}:        {actors: []Actor{ActorWorker}},
	{StateExaminedWarning, StateTransact}: {actors: []Actor{ActorWorker}},
	{StateTransact, StateCoinReady}:       {actors: []Actor{ActorWorker}, channel: coinOnly},
	{StateCoinReady, StateCoinDone}:       {actors: []Actor{ActorWorker}, channel: coinOnly},
	{StateCoinDone, StateDone}:            {actors: []Actor{ActorWorker}, channel: coinOnly},
	{StateTransact, StateDone}:            {actors: []Actor{ActorWorker}, channel: fiatOnly},
}

var (
	rejectActors = []Actor{ActorOperator, ActorWorker}
	cancelActors = []Actor{ActorOperator, ActorRequester}
)

// RequiresTxID reports whether entering s needs a transfer reference.
func (s State) RequiresTxID() bool {
	return s == StateCoinDone || s == StateDone
}

// CheckTransition validates moving w into state to on behalf of actor.
// It returns ErrIllegalTransition wrapped with the reason on failure.
func CheckTransition(w *Withdrawal, to State, actor Actor) error {
	from := w.State
	if !to.Valid() {
		return fmt.Errorf("%w: unknown target %s", ErrIllegalTransition, to)
	}
	if from.IsCompleted() {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, from)
	}

	var r rule
	switch to {
	case StateReject:
		r = rule{actors: rejectActors}
	case StateCancel:
		r = rule{actors: cancelActors}
	default:
		var ok bool
		r, ok = transitions[edge{from, to}]
		if !ok {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
		}
	}

	if r.channel != nil && *r.channel != w.AddressType.IsCoin() {
		return fmt.Errorf("%w: %s -> %s not allowed for %s", ErrIllegalTransition, from, to, w.AddressType)
	}
	for _, a := range r.actors {
		if a == actor {
			return nil
		}
	}
	return fmt.Errorf("%w: %s may not move %s -> %s", ErrIllegalTransition, actor, from, to)
}
