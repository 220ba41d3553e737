package business

import (
	"context"
	"testing"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/business/mocks"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/memory"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/provider/local"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

const (
	clerkID     = "clerk-a"
	boardID     = "board-b"
	secondID    = "board-c"
	presidentID = "president-p"
	adminID     = "admin-x"

	boardPin  = "1234"
	secondPin = "2345"
	adminPin  = "9999"
)

type fixture struct {
	db          *memory.Database
	lookup      *ActorLookup
	policy      *Policy
	pins        PinHasher
	cursors     *CursorManager
	notifier    *mocks.MockNotificationDispatcher
	workflow    WorkflowService
	mailbox     MailboxService
	audit       AuditTrailService
	actors      ActorService
	attachments AttachmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		db:       memory.NewDatabase(),
		policy:   DefaultPolicy(),
		pins:     NewPinHasher(bcrypt.MinCost),
		cursors:  NewCursorManager("test-secret"),
		notifier: mocks.NewMockNotificationDispatcher(ctrl),
	}
	f.lookup = NewActorLookup(f.db, 64, time.Minute)

	limits := PageLimits{Default: 20, Max: 100}
	provider := local.NewProvider("LOCAL", t.TempDir())

	f.workflow = NewWorkflowService(f.db, f.lookup, f.policy, f.pins, f.notifier, f.cursors,
		WorkflowSettings{FileNumberPrefix: "FM", Limits: limits})
	f.mailbox = NewMailboxService(f.db, f.cursors, limits)
	f.audit = NewAuditTrailService(f.db, f.cursors, limits)
	f.actors = NewActorService(f.db, f.lookup, f.policy, f.pins, f.cursors, limits, nil)
	f.attachments = NewAttachmentService(f.db, provider, f.lookup, f.policy, 1024)

	f.addActor(t, &types.Actor{ID: clerkID, Name: "Amina", Role: "STAFF", Designation: "CLERK", Department: "REGISTRY"}, "")
	f.addActor(t, &types.Actor{ID: boardID, Name: "Baraka", Role: "BOARD_MEMBER", Designation: "TREASURER", Department: "BOARD"}, boardPin)
	f.addActor(t, &types.Actor{ID: secondID, Name: "Chege", Role: "BOARD_MEMBER", Designation: "SECRETARY", Department: "BOARD"}, secondPin)
	f.addActor(t, &types.Actor{ID: presidentID, Name: "Pendo", Role: "PRESIDENT", Designation: "PRESIDENT", Department: "BOARD"}, "")
	f.addActor(t, &types.Actor{ID: adminID, Name: "Zawadi", Role: "ADMIN", Designation: "ADMINISTRATOR", Department: "ICT"}, adminPin)
	return f
}

func (f *fixture) addActor(t *testing.T, actor *types.Actor, pin string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.db.SaveActor(ctx, actor))
	if pin != "" {
		hash, err := f.pins.Hash(pin)
		require.NoError(t, err)
		require.NoError(t, f.db.SetActorPin(ctx, actor.ID, hash))
	}
}

// allowNotifications accepts any number of holder change notifications.
func (f *fixture) allowNotifications() {
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func actorCtx(actorID string) types.ActorContext {
	return types.ActorContext{ActorID: actorID}
}

func (f *fixture) createFile(t *testing.T, creatorID string) *types.File {
	t.Helper()
	file, err := f.workflow.CreateFile(context.Background(), actorCtx(creatorID), &types.CreateFileRequest{
		Subject:        "Budget approval",
		Priority:       types.PriorityHigh,
		PucDocumentRef: "documents/2026/01/puc/budget.pdf",
	})
	require.NoError(t, err)
	return file
}

func forward(fileID string, version int64, receiverID string) *types.ForwardCommand {
	return &types.ForwardCommand{
		MoveCommon: types.MoveCommon{FileID: fileID, Remarks: "please review", ExpectedVersion: version},
		ReceiverID: receiverID,
	}
}

func revert(fileID string, version int64) *types.RevertCommand {
	return &types.RevertCommand{
		MoveCommon: types.MoveCommon{FileID: fileID, Remarks: "needs more work", ExpectedVersion: version},
	}
}

func verify(fileID string, version int64, pin string) *types.VerifyCommand {
	return &types.VerifyCommand{
		MoveCommon: types.MoveCommon{FileID: fileID, Remarks: "checked", ExpectedVersion: version},
		PIN:        pin,
	}
}

func approve(fileID string, version int64, pin string) *types.ApproveCommand {
	return &types.ApproveCommand{
		MoveCommon: types.MoveCommon{FileID: fileID, Remarks: "approved", ExpectedVersion: version},
		PIN:        pin,
	}
}

func reject(fileID string, version int64, pin string) *types.RejectCommand {
	return &types.RejectCommand{
		MoveCommon: types.MoveCommon{FileID: fileID, Remarks: "declined", ExpectedVersion: version},
		PIN:        pin,
	}
}

func (f *fixture) move(t *testing.T, actorID string, cmd types.MoveCommand) *types.MoveResult {
	t.Helper()
	result, err := f.workflow.ApplyMove(context.Background(), actorCtx(actorID), cmd)
	require.NoError(t, err)
	return result
}

func (f *fixture) history(t *testing.T, fileID string) []*types.Movement {
	t.Helper()
	var movements []*types.Movement
	for movement, err := range f.audit.ListByFile(context.Background(), fileID, "", 2) {
		require.NoError(t, err)
		movements = append(movements, movement)
	}
	return movements
}
