package business

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	testCases := []struct {
		role   string
		action types.Action
		want   bool
	}{
		{role: "STAFF", action: types.ActionForward, want: true},
		{role: "STAFF", action: types.ActionRevert, want: true},
		{role: "STAFF", action: types.ActionVerify, want: false},
		{role: "STAFF", action: types.ActionApprove, want: false},
		{role: "board_member", action: types.ActionVerify, want: true},
		{role: "BOARD_MEMBER", action: types.ActionReject, want: true},
		{role: "PRESIDENT", action: types.ActionApprove, want: true},
		{role: "ADMIN", action: types.ActionApprove, want: true},
		{role: "GUEST", action: types.ActionForward, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.role+"_"+string(tc.action), func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Allows(tc.role, tc.action))
		})
	}

	assert.False(t, policy.MayForwardTo("STAFF", "President"))
	assert.True(t, policy.MayForwardTo("STAFF", "TREASURER"))
	assert.True(t, policy.MayForwardTo("BOARD_MEMBER", "PRESIDENT"))
	assert.False(t, policy.MayForwardTo("GUEST", "TREASURER"))

	assert.True(t, policy.MayRemoveAttachments("ADMIN"))
	assert.False(t, policy.MayRemoveAttachments("BOARD_MEMBER"))
	assert.True(t, policy.MayManageActors("admin"))
	assert.False(t, policy.MayManageActors("STAFF"))
}

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy([]byte(`
roles:
  staff:
    actions: [FORWARD, REVERT, VERIFY]
    restricted: true
  chair:
    actions: [VERIFY, APPROVE, REJECT, FORWARD, REVERT]
    remove_attachments: true
designations:
  chairperson:
    top_of_chain: true
`))
	require.NoError(t, err)

	assert.True(t, policy.Allows("STAFF", types.ActionVerify))
	assert.True(t, policy.KnowsRole("Chair"))
	assert.False(t, policy.KnowsRole("ADMIN"))
	assert.False(t, policy.MayForwardTo("STAFF", "CHAIRPERSON"))
	assert.True(t, policy.MayForwardTo("STAFF", "PRESIDENT"))
	assert.True(t, policy.MayRemoveAttachments("CHAIR"))
}

func TestParsePolicyRejectsBadDocuments(t *testing.T) {
	_, err := ParsePolicy([]byte(`roles: {}`))
	require.Error(t, err)

	_, err = ParsePolicy([]byte(`roles: {STAFF: {actions: [PUBLISH]}}`))
	require.ErrorContains(t, err, `unknown action "PUBLISH"`)

	_, err = ParsePolicy([]byte(`roles: [`))
	require.ErrorContains(t, err, "parse workflow policy")
	assert.Contains(t, errors.Cause(err).Error(), "yaml:")
}

func TestLoadPolicy(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("roles:\n  CLERK:\n    actions: [FORWARD]\n"), 0o600))

	policy, err = LoadPolicy(path)
	require.NoError(t, err)
	assert.True(t, policy.Allows("CLERK", types.ActionForward))

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "read workflow policy")
	assert.IsType(t, &fs.PathError{}, errors.Cause(err))
}
