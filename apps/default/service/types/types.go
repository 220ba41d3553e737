package types

import (
	"time"
)

// Priority of a file as set by its creator.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// FileStatus is the coarse lifecycle bucket of a file.
type FileStatus string

const (
	StatusDraft     FileStatus = "DRAFT"
	StatusInTransit FileStatus = "IN_TRANSIT"
	StatusApproved  FileStatus = "APPROVED"
	StatusRejected  FileStatus = "REJECTED"
)

// Terminal reports whether no further movement may be appended.
func (s FileStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []FileStatus{StatusDraft, StatusInTransit, StatusApproved, StatusRejected}

// Action is the kind of movement recorded against a file.
type Action string

const (
	ActionCreated Action = "CREATED"
	ActionVerify  Action = "VERIFY"
	ActionForward Action = "FORWARD"
	ActionRevert  Action = "REVERT"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
)

// RequiresPin reports whether the action is behind the PIN gate.
func (a Action) RequiresPin() bool {
	return a == ActionVerify || a == ActionApprove || a == ActionReject
}

// Position is the designation and department an actor held at a point in time.
type Position struct {
	Designation string `json:"designation,omitempty" yaml:"designation"`
	Department  string `json:"department,omitempty" yaml:"department"`
}

type File struct {
	ID                    string     `json:"id"`
	FileNumber            string     `json:"file_number"`
	Subject               string     `json:"subject"`
	Description           string     `json:"description,omitempty"`
	Priority              Priority   `json:"priority"`
	Type                  string     `json:"type,omitempty"`
	Status                FileStatus `json:"status"`
	IsVerified            bool       `json:"is_verified"`
	CurrentHolderID       string     `json:"current_holder_id"`
	CurrentHolderPosition Position   `json:"current_holder_position"`
	CreatorID             string     `json:"creator_id"`
	CreatedAt             time.Time  `json:"created_at"`
	PucDocumentRef        string     `json:"puc_document_ref,omitempty"`
	Version               int64      `json:"version"`
}

// Clone returns a copy that can be mutated without touching the receiver.
func (f *File) Clone() *File {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

type Attachment struct {
	ID                string    `json:"id"`
	FileID            string    `json:"file_id"`
	Name              string    `json:"name"`
	BlobRef           string    `json:"blob_ref"`
	AddedByMovementID string    `json:"added_by_movement_id,omitempty"`
	SizeBytes         int64     `json:"size_bytes"`
	ContentType       string    `json:"content_type,omitempty"`
	Checksum          string    `json:"checksum,omitempty"`
	AddedBy           string    `json:"added_by"`
	CreatedAt         time.Time `json:"created_at"`
}

// Movement is one committed transition in a file's audit trail.
type Movement struct {
	ID                  string    `json:"id"`
	FileID              string    `json:"file_id"`
	SequenceNumber      int64     `json:"sequence_number"`
	Action              Action    `json:"action"`
	ActorID             string    `json:"actor_id"`
	ActorPosition       Position  `json:"actor_position"`
	ReceiverID          string    `json:"receiver_id,omitempty"`
	ReceiverPosition    Position  `json:"receiver_position,omitempty"`
	Remarks             string    `json:"remarks,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
	AttachmentsAddedIDs []string  `json:"attachments_added_ids,omitempty"`
}

// HolderAfter returns who holds the file once this movement is applied.
// creatorID resolves REVERT records whose receiver was left empty.
func (m *Movement) HolderAfter(creatorID string) string {
	switch m.Action {
	case ActionForward:
		return m.ReceiverID
	case ActionRevert:
		if m.ReceiverID == "" {
			return creatorID
		}
		return m.ReceiverID
	default:
		return m.ActorID
	}
}

// Actor is an office holder known to the workflow.
type Actor struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	Designation string     `json:"designation"`
	Department  string     `json:"department"`
	PinHash     string     `json:"-"`
	PinSetAt    *time.Time `json:"pin_set_at,omitempty"`
}

func (a *Actor) Position() Position {
	return Position{Designation: a.Designation, Department: a.Department}
}

func (a *Actor) HasPin() bool {
	return a.PinHash != ""
}

// ActorContext identifies the authenticated caller of an operation.
type ActorContext struct {
	ActorID string
}

// FileHolderChanged is published whenever a committed movement hands a file to a new holder.
type FileHolderChanged struct {
	FileID      string    `json:"file_id"`
	FileNumber  string    `json:"file_number"`
	NewHolderID string    `json:"new_holder_id"`
	Action      Action    `json:"action"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Transition is the unit of work committed atomically for one ApplyMove.
type Transition struct {
	File            *File
	ExpectedVersion int64
	Movement        *Movement
	Attachments     []*Attachment
}

// BlobUpload is raw content submitted by a client before it is stored.
type BlobUpload struct {
	Name        string
	ContentType string
	Size        int64
	Content     []byte
}

type CreateFileRequest struct {
	Subject        string   `json:"subject"`
	Description    string   `json:"description,omitempty"`
	Priority       Priority `json:"priority"`
	Type           string   `json:"type,omitempty"`
	PucDocumentRef string   `json:"puc_document_ref"`

	Attachments []*Attachment `json:"-"`
}

// MoveResult is what a successful ApplyMove hands back to the caller.
type MoveResult struct {
	File        *File         `json:"file"`
	Movement    *Movement     `json:"movement"`
	Attachments []*Attachment `json:"attachments,omitempty"`
}

type HistoryPage struct {
	File        *File         `json:"file"`
	Movements   []*Movement   `json:"movements"`
	Attachments []*Attachment `json:"attachments"`
	NextCursor  string        `json:"next_cursor,omitempty"`
}

// MailboxEntry is a file in a mailbox view enriched from its latest movement.
type MailboxEntry struct {
	File       *File  `json:"file"`
	LastRemark string `json:"last_remark,omitempty"`
	LastAction Action `json:"last_action,omitempty"`
	LastSender string `json:"last_sender,omitempty"`
}

type MailboxPage struct {
	Files      []*MailboxEntry `json:"files"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type MailboxStats struct {
	Inbox   int64                `json:"inbox"`
	Drafts  int64                `json:"drafts"`
	Outbox  int64                `json:"outbox"`
	Created map[FileStatus]int64 `json:"created"`
}

// ActorSummary is a directory entry as shown to other actors.
type ActorSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Designation string `json:"designation"`
	Department  string `json:"department,omitempty"`
	HasPin      bool   `json:"has_pin"`
	// EligibleRecipient reports whether the caller may forward files to this actor.
	EligibleRecipient bool `json:"eligible_recipient"`
}

type ActorPage struct {
	Actors     []*ActorSummary `json:"actors"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// MailboxKind names one of the derived mailbox views.
type MailboxKind string

const (
	MailboxInbox  MailboxKind = "inbox"
	MailboxOutbox MailboxKind = "outbox"
	MailboxDrafts MailboxKind = "drafts"
)

// PageKey is the keyset position after which a mailbox page starts.
type PageKey struct {
	CreatedAt time.Time
	ID        string
}

// MailboxQuery selects one page of a mailbox view from the store.
type MailboxQuery struct {
	HolderID string
	Kind     MailboxKind
	After    *PageKey
	Limit    int
}
