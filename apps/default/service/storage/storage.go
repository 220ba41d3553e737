package storage

import (
	"context"
	"io"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"gocloud.dev/blob"
)

// Database is the system of record for files, their attachments, their
// movements and the actors that move them.
type Database interface {
	FileStore
	AuditTrail
	AttachmentLedger
	ActorDirectory

	// CreateFile persists a new file, its CREATED movement and any initial
	// attachments as one unit.
	CreateFile(ctx context.Context, file *types.File, created *types.Movement, attachments []*types.Attachment) error

	// CommitTransition applies a transition atomically. It fails with a
	// conflict when the stored file version is no longer t.ExpectedVersion or
	// the movement does not directly follow the last recorded one.
	CommitTransition(ctx context.Context, t *types.Transition) error
}

type FileStore interface {
	GetFile(ctx context.Context, fileID string) (*types.File, error)
	ListMailbox(ctx context.Context, query *types.MailboxQuery) ([]*types.File, error)
	CountMailbox(ctx context.Context, holderID string, kind types.MailboxKind) (int64, error)
	CountCreated(ctx context.Context, creatorID string) (map[types.FileStatus]int64, error)
}

type AuditTrail interface {
	Append(ctx context.Context, movement *types.Movement) error
	ListByFile(ctx context.Context, fileID string, afterSequence int64, limit int) ([]*types.Movement, error)
	LastRecord(ctx context.Context, fileID string) (*types.Movement, error)
	LastRecords(ctx context.Context, fileIDs []string) (map[string]*types.Movement, error)
	// LastForwardTo finds the most recent FORWARD that delivered the file to receiverID.
	LastForwardTo(ctx context.Context, fileID string, receiverID string) (*types.Movement, error)
}

type AttachmentLedger interface {
	GetAttachment(ctx context.Context, attachmentID string) (*types.Attachment, error)
	ListAttachments(ctx context.Context, fileID string) ([]*types.Attachment, error)
	// AddAttachments stores attachments against a file that is still open and
	// held by holderID, binding each one to the file's latest movement.
	AddAttachments(ctx context.Context, fileID string, holderID string, attachments []*types.Attachment) error
	// RemoveAttachment deletes the attachment row while its file is still open.
	RemoveAttachment(ctx context.Context, attachmentID string) error
}

type ActorDirectory interface {
	GetActor(ctx context.Context, actorID string) (*types.Actor, error)
	SaveActor(ctx context.Context, actor *types.Actor) error
	SetActorPin(ctx context.Context, actorID string, pinHash string) error
	// ListActors returns up to limit actors ordered by id, starting after afterID.
	ListActors(ctx context.Context, afterID string, limit int) ([]*types.Actor, error)
}

// Provider stores document blobs in an object store bucket.
type Provider interface {
	Name() string
	PrivateBucket() string
	Setup(ctx context.Context) error
	Init(ctx context.Context, bucketName string) (*blob.Bucket, error)
	UploadBlob(ctx context.Context, bucket string, key string, content io.Reader, contentType string) (int64, error)
	DownloadBlob(ctx context.Context, bucket string, key string) (io.Reader, func(), error)
	// DeleteBlob removes key; a key that is already gone is not an error.
	DeleteBlob(ctx context.Context, bucket string, key string) error
}
