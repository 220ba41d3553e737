package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/business"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/connection"
	"github.com/antinvestor/service-filemovement/apps/default/service/tests"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/frame/frametests/definition"
	"github.com/rs/xid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type WorkflowRepositoryTestSuite struct {
	tests.BaseTestSuite
}

func TestWorkflowRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(WorkflowRepositoryTestSuite))
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, *types.FileHolderChanged) error { return nil }

type workflowEnv struct {
	db       storage.Database
	workflow business.WorkflowService
	mailbox  business.MailboxService
	audit    business.AuditTrailService
}

func (suite *WorkflowRepositoryTestSuite) newEnv(t *testing.T, dep *definition.DependancyOption) (*workflowEnv, context.Context) {
	svc, ctx := suite.CreateService(t, dep)

	db := connection.NewWorkflowDatabase(svc)
	policy := business.DefaultPolicy()
	pins := business.NewPinHasher(4)
	lookup := business.NewActorLookup(db, 16, time.Minute)
	cursors := business.NewCursorManager("repository-secret")
	limits := business.PageLimits{Default: 20, Max: 100}

	actors := []*types.Actor{
		{ID: "clerk", Name: "Amina", Role: "STAFF", Designation: "CLERK", Department: "REGISTRY"},
		{ID: "board", Name: "Baraka", Role: "BOARD_MEMBER", Designation: "TREASURER", Department: "BOARD"},
		{ID: "president", Name: "Pendo", Role: "PRESIDENT", Designation: "PRESIDENT", Department: "BOARD"},
	}
	for _, actor := range actors {
		require.NoError(t, db.SaveActor(ctx, actor))
	}
	hash, err := pins.Hash("1234")
	require.NoError(t, err)
	require.NoError(t, db.SetActorPin(ctx, "board", hash))
	require.NoError(t, db.SetActorPin(ctx, "president", hash))

	return &workflowEnv{
		db: db,
		workflow: business.NewWorkflowService(db, lookup, policy, pins, noopNotifier{}, cursors,
			business.WorkflowSettings{FileNumberPrefix: "FM", Limits: limits}),
		mailbox: business.NewMailboxService(db, cursors, limits),
		audit:   business.NewAuditTrailService(db, cursors, limits),
	}, ctx
}

func (env *workflowEnv) create(t *testing.T, ctx context.Context, creatorID string) *types.File {
	t.Helper()
	file, err := env.workflow.CreateFile(ctx, types.ActorContext{ActorID: creatorID}, &types.CreateFileRequest{
		Subject:        "Procurement of laptops",
		Priority:       types.PriorityMedium,
		PucDocumentRef: "documents/2026/03/puc/laptops.pdf",
	})
	require.NoError(t, err)
	return file
}

func (suite *WorkflowRepositoryTestSuite) TestWorkflowRepository() {
	testCases := []struct {
		name     string
		testFunc func(t *testing.T, dep *definition.DependancyOption)
	}{
		{
			name: "file_moves_to_approval",
			testFunc: func(t *testing.T, dep *definition.DependancyOption) {
				env, ctx := suite.newEnv(t, dep)
				file := env.create(t, ctx, "clerk")

				stored, err := env.db.GetFile(ctx, file.ID)
				require.NoError(t, err)
				require.Equal(t, types.StatusDraft, stored.Status)
				require.Equal(t, file.Version, stored.Version)
				require.True(t, file.CreatedAt.Equal(stored.CreatedAt),
					"returned %s, stored %s", file.CreatedAt, stored.CreatedAt)

				moved, err := env.workflow.ApplyMove(ctx, types.ActorContext{ActorID: "clerk"}, &types.ForwardCommand{
					MoveCommon: types.MoveCommon{FileID: file.ID, Remarks: "for checking", ExpectedVersion: file.Version},
					ReceiverID: "board",
				})
				require.NoError(t, err)

				verified, err := env.workflow.ApplyMove(ctx, types.ActorContext{ActorID: "board"}, &types.VerifyCommand{
					MoveCommon: types.MoveCommon{FileID: file.ID, Remarks: "figures agree", ExpectedVersion: moved.File.Version},
					PIN:        "1234",
				})
				require.NoError(t, err)

				_, err = env.workflow.ApplyMove(ctx, types.ActorContext{ActorID: "board"}, &types.ForwardCommand{
					MoveCommon: types.MoveCommon{FileID: file.ID, Remarks: "stale", ExpectedVersion: moved.File.Version},
					ReceiverID: "president",
				})
				require.ErrorIs(t, err, types.ErrConflict)

				approved, err := env.workflow.ApplyMove(ctx, types.ActorContext{ActorID: "board"}, &types.ApproveCommand{
					MoveCommon: types.MoveCommon{FileID: file.ID, Remarks: "approved", ExpectedVersion: verified.File.Version},
					PIN:        "1234",
				})
				require.NoError(t, err)
				require.Equal(t, types.StatusApproved, approved.File.Status)

				var sequence []int64
				for movement, iterErr := range env.audit.ListByFile(ctx, file.ID, "", 2) {
					require.NoError(t, iterErr)
					sequence = append(sequence, movement.SequenceNumber)
				}
				require.Equal(t, []int64{1, 2, 3, 4}, sequence)

				last, err := env.db.LastRecord(ctx, file.ID)
				require.NoError(t, err)
				require.Equal(t, types.ActionApprove, last.Action)
				require.Equal(t, approved.Movement.ID, last.ID)
				require.True(t, approved.Movement.Timestamp.Equal(last.Timestamp),
					"returned %s, stored %s", approved.Movement.Timestamp, last.Timestamp)

				forward, err := env.db.LastForwardTo(ctx, file.ID, "board")
				require.NoError(t, err)
				require.Equal(t, "clerk", forward.ActorID)
			},
		},
		{
			name: "mailboxes_follow_the_holder",
			testFunc: func(t *testing.T, dep *definition.DependancyOption) {
				env, ctx := suite.newEnv(t, dep)
				draft := env.create(t, ctx, "clerk")
				sent := env.create(t, ctx, "clerk")

				_, err := env.workflow.ApplyMove(ctx, types.ActorContext{ActorID: "clerk"}, &types.ForwardCommand{
					MoveCommon: types.MoveCommon{FileID: sent.ID, Remarks: "kindly review", ExpectedVersion: sent.Version},
					ReceiverID: "board",
				})
				require.NoError(t, err)

				drafts, err := env.mailbox.Drafts(ctx, "clerk", "", 0)
				require.NoError(t, err)
				require.Len(t, drafts.Files, 1)
				require.Equal(t, draft.ID, drafts.Files[0].File.ID)

				outbox, err := env.mailbox.Outbox(ctx, "clerk", "", 0)
				require.NoError(t, err)
				require.Len(t, outbox.Files, 1)
				require.Equal(t, sent.ID, outbox.Files[0].File.ID)

				inbox, err := env.mailbox.Inbox(ctx, "board", "", 0)
				require.NoError(t, err)
				require.Len(t, inbox.Files, 1)
				require.Equal(t, "kindly review", inbox.Files[0].LastRemark)

				stats, err := env.mailbox.Stats(ctx, "clerk")
				require.NoError(t, err)
				require.EqualValues(t, 1, stats.Drafts)
				require.EqualValues(t, 1, stats.Outbox)
				require.EqualValues(t, 1, stats.Created[types.StatusDraft])
				require.EqualValues(t, 1, stats.Created[types.StatusInTransit])
				require.EqualValues(t, 0, stats.Created[types.StatusApproved])
			},
		},
		{
			name: "attachments_only_change_on_open_files",
			testFunc: func(t *testing.T, dep *definition.DependancyOption) {
				env, ctx := suite.newEnv(t, dep)
				file := env.create(t, ctx, "clerk")
				created, err := env.db.LastRecord(ctx, file.ID)
				require.NoError(t, err)

				attachment := &types.Attachment{
					ID:                xid.New().String(),
					Name:      "quotation.pdf",
					BlobRef:   "documents/2026/03/q/quotation.pdf",
					SizeBytes: 42,
					AddedBy:   "clerk",
					CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
				}
				require.ErrorIs(t, env.db.AddAttachments(ctx, file.ID, "board", []*types.Attachment{attachment}), types.ErrForbidden)
				require.NoError(t, env.db.AddAttachments(ctx, file.ID, "clerk", []*types.Attachment{attachment}))
				require.Equal(t, file.ID, attachment.FileID)

				listed, err := env.db.ListAttachments(ctx, file.ID)
				require.NoError(t, err)
				require.Len(t, listed, 1)
				require.Equal(t, attachment.BlobRef, listed[0].BlobRef)
				require.Equal(t, created.ID, listed[0].AddedByMovementID)

				require.NoError(t, env.db.RemoveAttachment(ctx, attachment.ID))
				_, err = env.db.GetAttachment(ctx, attachment.ID)
				require.ErrorIs(t, err, types.ErrNotFound)

				_, err = env.db.GetAttachment(ctx, "missing")
				require.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "actors_keep_their_pin",
			testFunc: func(t *testing.T, dep *definition.DependancyOption) {
				env, ctx := suite.newEnv(t, dep)

				board, err := env.db.GetActor(ctx, "board")
				require.NoError(t, err)
				require.True(t, board.HasPin())
				require.NotNil(t, board.PinSetAt)

				board.Designation = "CHAIR"
				require.NoError(t, env.db.SaveActor(ctx, board))

				updated, err := env.db.GetActor(ctx, "board")
				require.NoError(t, err)
				require.Equal(t, "CHAIR", updated.Designation)
				require.True(t, updated.HasPin())

				require.ErrorIs(t, env.db.SetActorPin(ctx, "ghost", "hash"), types.ErrNotFound)
				_, err = env.db.GetActor(ctx, "ghost")
				require.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "actor_directory_pages_by_id",
			testFunc: func(t *testing.T, dep *definition.DependancyOption) {
				env, ctx := suite.newEnv(t, dep)

				first, err := env.db.ListActors(ctx, "", 2)
				require.NoError(t, err)
				require.Len(t, first, 2)
				require.Equal(t, "board", first[0].ID)
				require.Equal(t, "clerk", first[1].ID)
				require.True(t, first[0].HasPin())

				rest, err := env.db.ListActors(ctx, first[1].ID, 2)
				require.NoError(t, err)
				require.Len(t, rest, 1)
				require.Equal(t, "president", rest[0].ID)
			},
		},
		{
			name: "registration_checks_profiles",
			testFunc: func(t *testing.T, dep *definition.DependancyOption) {
				env, ctx := suite.newEnv(t, dep)
				require.NoError(t, env.db.SaveActor(ctx, &types.Actor{ID: "root", Name: "Root", Role: "ADMIN", Designation: "ADMINISTRATOR"}))

				profiles := business.NewProfileVerifier(suite.GetProfileCli(ctx, "known-profile"))
				lookup := business.NewActorLookup(env.db, 8, time.Minute)
				actors := business.NewActorService(env.db, lookup, business.DefaultPolicy(), business.NewPinHasher(4),
					business.NewCursorManager("actors"), business.PageLimits{}, profiles)

				registered, err := actors.Register(ctx, types.ActorContext{ActorID: "root"}, &types.Actor{
					ID: "known-profile", Name: "Imani", Role: "board_member", Designation: "AUDITOR",
				})
				require.NoError(t, err)
				require.Equal(t, "BOARD_MEMBER", registered.Role)

				_, err = actors.Register(ctx, types.ActorContext{ActorID: "root"}, &types.Actor{
					ID: "unknown-profile", Name: "Juma", Role: "STAFF", Designation: "CLERK",
				})
				require.ErrorIs(t, err, types.ErrNotFound)
			},
		},
	}

	suite.WithTestDependancies(suite.T(), func(t *testing.T, dep *definition.DependancyOption) {
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				tc.testFunc(t, dep)
			})
		}
	})
}
