package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		name    string
		channel ChannelType
		from    State
		to      State
		actor   Actor
		ok      bool
	}{
		{"enqueue after create", ChannelBank, StateApply, StateWait, ActorSystem, true},
		{"worker cannot enqueue", ChannelBank, StateApply, StateWait, ActorWorker, false},
		{"examined", ChannelBank, StateWait, StateExamined, ActorWorker, true},
		{"examined warning", ChannelSatoshi, StateWait, StateExaminedWarning, ActorWorker, true},
		{"operator cannot examine", ChannelBank, StateWait, StateExamined, ActorOperator, false},
		{"skip examination", ChannelBank, StateWait, StateTransact, ActorWorker, false},
		{"warning still transacts", ChannelBank, StateExaminedWarning, StateTransact, ActorWorker, true},
		{"coin ready", ChannelSatoshi, StateTransact, StateCoinReady, ActorWorker, true},
		{"coin done", ChannelProtoshares, StateCoinReady, StateCoinDone, ActorWorker, true},
		{"coin finished", ChannelSatoshi, StateCoinDone, StateDone, ActorWorker, true},
		{"coin skips confirmations", ChannelSatoshi, StateTransact, StateDone, ActorWorker, false},
		{"bank done", ChannelBank, StateTransact, StateDone, ActorWorker, true},
		{"bank has no coin steps", ChannelBank, StateTransact, StateCoinReady, ActorWorker, false},
		{"backwards", ChannelBank, StateTransact, StateWait, ActorSystem, false},
		{"operator rejects", ChannelBank, StateExamined, StateReject, ActorOperator, true},
		{"worker fails transfer", ChannelSatoshi, StateCoinReady, StateReject, ActorWorker, true},
		{"requester cannot reject", ChannelBank, StateWait, StateReject, ActorRequester, false},
		{"requester cancels", ChannelBank, StateApply, StateCancel, ActorRequester, true},
		{"worker cannot cancel", ChannelBank, StateWait, StateCancel, ActorWorker, false},
		{"done is terminal", ChannelBank, StateDone, StateReject, ActorOperator, false},
		{"reject is terminal", ChannelBank, StateReject, StateCancel, ActorOperator, false},
		{"cancel is terminal", ChannelBank, StateCancel, StateWait, ActorSystem, false},
		{"unknown target", ChannelBank, StateWait, State(999), ActorWorker, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Withdrawal{AddressType: tt.channel, State: tt.from}
			err := CheckTransition(w, tt.to, tt.actor)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			}
		})
	}
}

func TestTransitionsOnlyMoveForward(t *testing.T) {
	for e := range transitions {
		assert.Greater(t, int(e.to), int(e.from), "%s -> %s", e.from, e.to)
	}
}

func TestCompletedStates(t *testing.T) {
	for s := range stateNames {
		want := s == StateDone || s == StateReject || s == StateCancel
		assert.Equal(t, want, s.IsCompleted(), s.String())
	}
}

func TestStateJSON(t *testing.T) {
	data, err := json.Marshal(StateExaminedWarning)
	require.NoError(t, err)
	assert.JSONEq(t, `"examined_warning"`, string(data))

	var s State
	require.NoError(t, json.Unmarshal([]byte(`"coin_ready"`), &s))
	assert.Equal(t, StateCoinReady, s)

	assert.Error(t, json.Unmarshal([]byte(`"shipped"`), &s))
}

func TestRequiresTxID(t *testing.T) {
	assert.True(t, StateDone.RequiresTxID())
	assert.True(t, StateCoinDone.RequiresTxID())
	assert.False(t, StateTransact.RequiresTxID())
	assert.False(t, StateReject.RequiresTxID())
}
