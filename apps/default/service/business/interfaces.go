package business

import (
	"context"
	"io"
	"iter"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
)

// WorkflowService creates files and moves them between holders.
type WorkflowService interface {
	CreateFile(ctx context.Context, actor types.ActorContext, request *types.CreateFileRequest) (*types.File, error)
	ApplyMove(ctx context.Context, actor types.ActorContext, command types.MoveCommand) (*types.MoveResult, error)
	GetHistory(ctx context.Context, actor types.ActorContext, fileID string, cursor string, limit int) (*types.HistoryPage, error)
}

// AuditTrailService reads a file's movements in sequence order.
type AuditTrailService interface {
	// ListByFile yields movements after cursor lazily, fetching at most limit
	// per round trip, until the trail is exhausted.
	ListByFile(ctx context.Context, fileID string, cursor string, limit int) iter.Seq2[*types.Movement, error]
	LastRecord(ctx context.Context, fileID string) (*types.Movement, error)
	CursorAfter(fileID string, movement *types.Movement) string
}

type MailboxService interface {
	Inbox(ctx context.Context, holderID string, cursor string, limit int) (*types.MailboxPage, error)
	Outbox(ctx context.Context, holderID string, cursor string, limit int) (*types.MailboxPage, error)
	Drafts(ctx context.Context, holderID string, cursor string, limit int) (*types.MailboxPage, error)
	Stats(ctx context.Context, holderID string) (*types.MailboxStats, error)
}

type AttachmentService interface {
	// StoreBlobs uploads content and returns attachment rows that are not yet
	// bound to a file.
	StoreBlobs(ctx context.Context, actor types.ActorContext, blobs []*types.BlobUpload) ([]*types.Attachment, error)
	// DiscardBlobs deletes the content of attachments that never reached the
	// database.
	DiscardBlobs(ctx context.Context, attachments ...*types.Attachment)
	Add(ctx context.Context, actor types.ActorContext, fileID string, blobs []*types.BlobUpload) ([]*types.Attachment, error)
	Remove(ctx context.Context, actor types.ActorContext, attachmentID string) error
	Open(ctx context.Context, actor types.ActorContext, attachmentID string) (*types.Attachment, io.Reader, func(), error)
	// OpenPuc streams the primary document of a file.
	OpenPuc(ctx context.Context, actor types.ActorContext, fileID string) (*types.File, io.Reader, func(), error)
}

type ActorService interface {
	Register(ctx context.Context, caller types.ActorContext, actor *types.Actor) (*types.Actor, error)
	Get(ctx context.Context, actorID string) (*types.Actor, error)
	// List pages through the directory, marking who the caller may forward to.
	List(ctx context.Context, caller types.ActorContext, cursor string, limit int) (*types.ActorPage, error)
	SetPin(ctx context.Context, actor types.ActorContext, pin string, currentPin string) error
	// Seed registers actors without an authorising caller, used at start up.
	Seed(ctx context.Context, actors ...*types.Actor) error
}

//go:generate mockgen -destination=mocks/notification_dispatcher_mock.go -package=mocks . NotificationDispatcher,ProfileVerifier

// NotificationDispatcher is told about holder changes after they commit.
// Delivery is best effort.
type NotificationDispatcher interface {
	Notify(ctx context.Context, event *types.FileHolderChanged) error
}

// ProfileVerifier confirms an actor id refers to a known profile.
type ProfileVerifier interface {
	Exists(ctx context.Context, profileID string) (bool, error)
}
