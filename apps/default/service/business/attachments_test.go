package business

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/antinvestor/service-filemovement/apps/default/service/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memo(name, content string) *types.BlobUpload {
	return &types.BlobUpload{Name: name, ContentType: "text/plain", Size: int64(len(content)), Content: []byte(content)}
}

func TestAddAttachments(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	file := f.createFile(t, clerkID)
	moved := f.move(t, clerkID, forward(file.ID, 1, boardID))

	added, err := f.attachments.Add(ctx, actorCtx(boardID), file.ID, []*types.BlobUpload{memo("minutes.txt", "board minutes")})
	require.NoError(t, err)
	require.Len(t, added, 1)

	attachment := added[0]
	assert.Equal(t, file.ID, attachment.FileID)
	assert.Equal(t, moved.Movement.ID, attachment.AddedByMovementID)
	assert.Equal(t, boardID, attachment.AddedBy)
	assert.Equal(t, utils.CreateHash([]byte("board minutes")), attachment.Checksum)
	assert.True(t, strings.HasSuffix(attachment.BlobRef, "/"+attachment.ID+"/minutes.txt"))

	stored, err := f.db.GetAttachment(ctx, attachment.ID)
	require.NoError(t, err)
	assert.Equal(t, attachment.BlobRef, stored.BlobRef)

	// attaching outside a move leaves the version alone
	unchanged, err := f.db.GetFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unchanged.Version)
}

func TestAddAttachmentsFollowLatestMovement(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	file := f.createFile(t, clerkID)

	early, err := f.attachments.Add(ctx, actorCtx(clerkID), file.ID, []*types.BlobUpload{memo("draft.txt", "draft")})
	require.NoError(t, err)
	created, err := f.db.LastRecord(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, early[0].AddedByMovementID)

	forwarded := f.move(t, clerkID, forward(file.ID, 1, boardID))
	returned := f.move(t, boardID, revert(file.ID, 2))

	late, err := f.attachments.Add(ctx, actorCtx(clerkID), file.ID, []*types.BlobUpload{memo("reply.txt", "reply")})
	require.NoError(t, err)
	assert.NotEqual(t, forwarded.Movement.ID, late[0].AddedByMovementID)
	assert.Equal(t, returned.Movement.ID, late[0].AddedByMovementID)

	stored, err := f.db.GetAttachment(ctx, late[0].ID)
	require.NoError(t, err)
	assert.Equal(t, returned.Movement.ID, stored.AddedByMovementID)
}

func TestAddAttachmentsRules(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	file := f.createFile(t, clerkID)
	f.move(t, clerkID, forward(file.ID, 1, boardID))

	_, err := f.attachments.Add(ctx, actorCtx(clerkID), file.ID, []*types.BlobUpload{memo("a.txt", "a")})
	require.ErrorIs(t, err, types.ErrForbidden)

	_, err = f.attachments.Add(ctx, actorCtx(boardID), file.ID, nil)
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = f.attachments.Add(ctx, actorCtx(boardID), file.ID, []*types.BlobUpload{memo("big.txt", strings.Repeat("x", 2048))})
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = f.attachments.Add(ctx, actorCtx(boardID), file.ID, []*types.BlobUpload{memo("empty.txt", "")})
	require.ErrorIs(t, err, types.ErrValidation)

	_, err = f.attachments.Add(ctx, actorCtx(boardID), "missing", []*types.BlobUpload{memo("a.txt", "a")})
	require.ErrorIs(t, err, types.ErrNotFound)

	f.move(t, boardID, verify(file.ID, 2, boardPin))
	f.move(t, boardID, approve(file.ID, 3, boardPin))

	_, err = f.attachments.Add(ctx, actorCtx(boardID), file.ID, []*types.BlobUpload{memo("late.txt", "late")})
	require.ErrorIs(t, err, types.ErrInvalidTransition)
}

func TestRemoveAttachment(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	file := f.createFile(t, clerkID)

	added, err := f.attachments.Add(ctx, actorCtx(clerkID), file.ID, []*types.BlobUpload{memo("draft.txt", "draft")})
	require.NoError(t, err)
	attachmentID := added[0].ID

	require.ErrorIs(t, f.attachments.Remove(ctx, actorCtx(clerkID), attachmentID), types.ErrForbidden)
	require.ErrorIs(t, f.attachments.Remove(ctx, actorCtx(adminID), "missing"), types.ErrNotFound)

	require.NoError(t, f.attachments.Remove(ctx, actorCtx(adminID), attachmentID))

	_, err = f.db.GetAttachment(ctx, attachmentID)
	require.ErrorIs(t, err, types.ErrNotFound)

	// removal leaves the trail untouched
	assert.Len(t, f.history(t, file.ID), 1)
}

func TestRemoveAttachmentOnTerminalFile(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	file := f.createFile(t, clerkID)
	f.move(t, clerkID, forward(file.ID, 1, boardID))

	added, err := f.attachments.Add(ctx, actorCtx(boardID), file.ID, []*types.BlobUpload{memo("kept.txt", "kept")})
	require.NoError(t, err)

	f.move(t, boardID, verify(file.ID, 2, boardPin))
	f.move(t, boardID, reject(file.ID, 3, boardPin))

	require.ErrorIs(t, f.attachments.Remove(ctx, actorCtx(adminID), added[0].ID), types.ErrInvalidTransition)
}

func TestOpenAttachment(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	file := f.createFile(t, clerkID)

	added, err := f.attachments.Add(ctx, actorCtx(clerkID), file.ID, []*types.BlobUpload{memo("letter.txt", "dear board")})
	require.NoError(t, err)
	f.move(t, clerkID, forward(file.ID, 1, boardID))

	for _, reader := range []string{clerkID, boardID, adminID} {
		attachment, content, release, oErr := f.attachments.Open(ctx, actorCtx(reader), added[0].ID)
		require.NoError(t, oErr)
		data, rErr := io.ReadAll(content)
		release()
		require.NoError(t, rErr)
		assert.Equal(t, "dear board", string(data))
		assert.Equal(t, added[0].ID, attachment.ID)
	}

	_, _, _, err = f.attachments.Open(ctx, actorCtx(secondID), added[0].ID)
	require.ErrorIs(t, err, types.ErrForbidden)

	_, _, _, err = f.attachments.Open(ctx, actorCtx(clerkID), "missing")
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestOpenPuc(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored, err := f.attachments.StoreBlobs(ctx, actorCtx(clerkID), []*types.BlobUpload{memo("puc.txt", "primary document")})
	require.NoError(t, err)

	file, err := f.workflow.CreateFile(ctx, actorCtx(clerkID), &types.CreateFileRequest{
		Subject:        "Tender",
		Priority:       types.PriorityMedium,
		PucDocumentRef: stored[0].BlobRef,
	})
	require.NoError(t, err)

	opened, content, release, err := f.attachments.OpenPuc(ctx, actorCtx(clerkID), file.ID)
	require.NoError(t, err)
	defer release()
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "primary document", string(data))
	assert.Equal(t, file.ID, opened.ID)

	missing := f.createFile(t, clerkID)
	_, _, _, err = f.attachments.OpenPuc(ctx, actorCtx(clerkID), missing.ID)
	require.ErrorIs(t, err, types.ErrNotFound)
}
