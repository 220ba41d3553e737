package types_test

import (
	"errors"
	"testing"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMoveCommand(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantAction types.Action
		wantErr    error
	}{
		{
			name:       "forward",
			body:       `{"action":"FORWARD","receiver_id":"actor-b","remarks":"please review","expected_version":1}`,
			wantAction: types.ActionForward,
		},
		{
			name:       "verify with pin",
			body:       `{"action":"VERIFY","pin":"1234","remarks":"checked","expected_version":2}`,
			wantAction: types.ActionVerify,
		},
		{
			name:       "approve with pin",
			body:       `{"action":"APPROVE","pin":"0000","remarks":"approved","expected_version":3}`,
			wantAction: types.ActionApprove,
		},
		{
			name:       "reject with pin",
			body:       `{"action":"REJECT","pin":"9876","remarks":"not in order","expected_version":3}`,
			wantAction: types.ActionReject,
		},
		{
			name:       "revert",
			body:       `{"action":"REVERT","remarks":"missing annex","expected_version":4}`,
			wantAction: types.ActionRevert,
		},
		{
			name:    "unknown field",
			body:    `{"action":"REVERT","remarks":"x","expected_version":4,"priority":"HIGH"}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "pin on forward is foreign",
			body:    `{"action":"FORWARD","receiver_id":"b","pin":"1234","remarks":"x","expected_version":1}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "receiver on verify is foreign",
			body:    `{"action":"VERIFY","receiver_id":"b","pin":"1234","remarks":"x","expected_version":1}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "missing remarks",
			body:    `{"action":"REVERT","expected_version":4}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "blank remarks",
			body:    `{"action":"REVERT","remarks":"   ","expected_version":4}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "missing expected version",
			body:    `{"action":"REVERT","remarks":"x"}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "missing pin",
			body:    `{"action":"APPROVE","remarks":"x","expected_version":1}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "malformed pin",
			body:    `{"action":"APPROVE","pin":"12a4","remarks":"x","expected_version":1}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "missing receiver",
			body:    `{"action":"FORWARD","remarks":"x","expected_version":1}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "created cannot be requested",
			body:    `{"action":"CREATED","remarks":"x","expected_version":1}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "missing action",
			body:    `{"remarks":"x","expected_version":1}`,
			wantErr: types.ErrValidation,
		},
		{
			name:    "not json",
			body:    `action=FORWARD`,
			wantErr: types.ErrValidation,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := types.DecodeMoveCommand("file-1", []byte(tc.body))
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "unexpected error %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantAction, cmd.Action())
			assert.Equal(t, "file-1", cmd.Common().FileID)
		})
	}
}

func TestDecodeMoveCommandFields(t *testing.T) {
	cmd, err := types.DecodeMoveCommand("file-9",
		[]byte(`{"action":"FORWARD","receiver_id":"actor-c","remarks":"for action","expected_version":7}`))
	require.NoError(t, err)

	forward, ok := cmd.(*types.ForwardCommand)
	require.True(t, ok)
	assert.Equal(t, "actor-c", forward.ReceiverID)
	assert.Equal(t, "for action", forward.Remarks)
	assert.Equal(t, int64(7), forward.ExpectedVersion)

	cmd, err = types.DecodeMoveCommand("file-9",
		[]byte(`{"action":"VERIFY","pin":"4321","remarks":"ok","expected_version":8}`))
	require.NoError(t, err)
	gated, ok := cmd.(types.PinGated)
	require.True(t, ok)
	assert.Equal(t, "4321", gated.Pin())
}

func TestErrorKinds(t *testing.T) {
	err := types.Conflict("file %s changed", "f1")
	assert.True(t, errors.Is(err, types.ErrConflict))
	assert.False(t, errors.Is(err, types.ErrNotFound))
	assert.Equal(t, types.KindConflict, types.KindOf(err))
	assert.Equal(t, types.ErrorKind(""), types.KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "file f1 changed")
}

func TestMovementHolderAfter(t *testing.T) {
	testCases := []struct {
		name     string
		movement types.Movement
		want     string
	}{
		{"created", types.Movement{Action: types.ActionCreated, ActorID: "a"}, "a"},
		{"forward", types.Movement{Action: types.ActionForward, ActorID: "a", ReceiverID: "b"}, "b"},
		{"verify", types.Movement{Action: types.ActionVerify, ActorID: "b"}, "b"},
		{"revert to sender", types.Movement{Action: types.ActionRevert, ActorID: "c", ReceiverID: "b"}, "b"},
		{"revert to creator", types.Movement{Action: types.ActionRevert, ActorID: "b"}, "creator"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.movement.HolderAfter("creator"))
		})
	}
}
