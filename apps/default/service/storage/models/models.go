package models

import (
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/lib/pq"
	"github.com/pitabwire/frame"
)

// File is the stored state of a document in circulation.
type File struct {
	frame.BaseModel

	FileNumber  string `gorm:"type:varchar(64);uniqueIndex"`
	Subject     string `gorm:"type:TEXT"`
	Description string `gorm:"type:TEXT"`
	Priority    string `gorm:"type:varchar(10)"`
	Type        string `gorm:"type:TEXT"`

	Status     string `gorm:"type:varchar(20);index"`
	IsVerified bool

	CurrentHolderID   string `gorm:"type:varchar(50);index"`
	HolderDesignation string `gorm:"type:TEXT"`
	HolderDepartment  string `gorm:"type:TEXT"`

	CreatorID      string `gorm:"type:varchar(50);index"`
	PucDocumentRef string `gorm:"type:TEXT"`

	// Revision is the optimistic concurrency token exposed as the file version.
	Revision int64 `gorm:"not null;default:1"`
}

func (f *File) ToApi() *types.File {
	return &types.File{
		ID:              f.GetID(),
		FileNumber:      f.FileNumber,
		Subject:         f.Subject,
		Description:     f.Description,
		Priority:        types.Priority(f.Priority),
		Type:            f.Type,
		Status:          types.FileStatus(f.Status),
		IsVerified:      f.IsVerified,
		CurrentHolderID: f.CurrentHolderID,
		CurrentHolderPosition: types.Position{
			Designation: f.HolderDesignation,
			Department:  f.HolderDepartment,
		},
		CreatorID:      f.CreatorID,
		CreatedAt:      f.CreatedAt.UTC(),
		PucDocumentRef: f.PucDocumentRef,
		Version:        f.Revision,
	}
}

// stampCreated keeps a creation time chosen by the workflow. BaseModel's
// create hook only assigns its own clock to rows at version zero.
func stampCreated(base *frame.BaseModel, at time.Time) {
	if at.IsZero() {
		return
	}
	base.CreatedAt = at
	base.ModifiedAt = at
	if base.Version == 0 {
		base.Version = 1
	}
}

func (f *File) Fill(tf *types.File) {
	f.ID = tf.ID
	stampCreated(&f.BaseModel, tf.CreatedAt)
	f.FileNumber = tf.FileNumber
	f.Subject = tf.Subject
	f.Description = tf.Description
	f.Priority = string(tf.Priority)
	f.Type = tf.Type
	f.Status = string(tf.Status)
	f.IsVerified = tf.IsVerified
	f.CurrentHolderID = tf.CurrentHolderID
	f.HolderDesignation = tf.CurrentHolderPosition.Designation
	f.HolderDepartment = tf.CurrentHolderPosition.Department
	f.CreatorID = tf.CreatorID
	f.PucDocumentRef = tf.PucDocumentRef
	f.Revision = tf.Version
}

type Attachment struct {
	frame.BaseModel

	FileID            string `gorm:"type:varchar(50);index"`
	Name              string `gorm:"type:TEXT"`
	BlobRef           string `gorm:"type:TEXT"`
	AddedByMovementID string `gorm:"type:varchar(50)"`
	SizeBytes         int64
	ContentType       string `gorm:"type:TEXT"`
	Checksum          string `gorm:"type:varchar(64)"`
	AddedBy           string `gorm:"type:varchar(50)"`
}

func (a *Attachment) ToApi() *types.Attachment {
	return &types.Attachment{
		ID:                a.GetID(),
		FileID:            a.FileID,
		Name:              a.Name,
		BlobRef:           a.BlobRef,
		AddedByMovementID: a.AddedByMovementID,
		SizeBytes:         a.SizeBytes,
		ContentType:       a.ContentType,
		Checksum:          a.Checksum,
		AddedBy:           a.AddedBy,
		CreatedAt:         a.CreatedAt.UTC(),
	}
}

func (a *Attachment) Fill(ta *types.Attachment) {
	a.ID = ta.ID
	stampCreated(&a.BaseModel, ta.CreatedAt)
	a.FileID = ta.FileID
	a.Name = ta.Name
	a.BlobRef = ta.BlobRef
	a.AddedByMovementID = ta.AddedByMovementID
	a.SizeBytes = ta.SizeBytes
	a.ContentType = ta.ContentType
	a.Checksum = ta.Checksum
	a.AddedBy = ta.AddedBy
}

// Movement is an append only audit row; (file_id, sequence_number) is unique.
type Movement struct {
	frame.BaseModel

	FileID         string `gorm:"type:varchar(50);uniqueIndex:idx_movements_file_sequence"`
	SequenceNumber int64  `gorm:"uniqueIndex:idx_movements_file_sequence"`
	Action         string `gorm:"type:varchar(20)"`

	ActorID             string `gorm:"type:varchar(50);index"`
	ActorDesignation    string `gorm:"type:TEXT"`
	ActorDepartment     string `gorm:"type:TEXT"`
	ReceiverID          string `gorm:"type:varchar(50);index"`
	ReceiverDesignation string `gorm:"type:TEXT"`
	ReceiverDepartment  string `gorm:"type:TEXT"`

	Remarks             string         `gorm:"type:TEXT"`
	AttachmentsAddedIDs pq.StringArray `gorm:"type:text[]"`
}

func (m *Movement) ToApi() *types.Movement {
	return &types.Movement{
		ID:             m.GetID(),
		FileID:         m.FileID,
		SequenceNumber: m.SequenceNumber,
		Action:         types.Action(m.Action),
		ActorID:        m.ActorID,
		ActorPosition: types.Position{
			Designation: m.ActorDesignation,
			Department:  m.ActorDepartment,
		},
		ReceiverID: m.ReceiverID,
		ReceiverPosition: types.Position{
			Designation: m.ReceiverDesignation,
			Department:  m.ReceiverDepartment,
		},
		Remarks:             m.Remarks,
		Timestamp:           m.CreatedAt.UTC(),
		AttachmentsAddedIDs: []string(m.AttachmentsAddedIDs),
	}
}

func (m *Movement) Fill(tm *types.Movement) {
	m.ID = tm.ID
	stampCreated(&m.BaseModel, tm.Timestamp)
	m.FileID = tm.FileID
	m.SequenceNumber = tm.SequenceNumber
	m.Action = string(tm.Action)
	m.ActorID = tm.ActorID
	m.ActorDesignation = tm.ActorPosition.Designation
	m.ActorDepartment = tm.ActorPosition.Department
	m.ReceiverID = tm.ReceiverID
	m.ReceiverDesignation = tm.ReceiverPosition.Designation
	m.ReceiverDepartment = tm.ReceiverPosition.Department
	m.Remarks = tm.Remarks
	m.AttachmentsAddedIDs = pq.StringArray(tm.AttachmentsAddedIDs)
}

// Actor holds the workflow role of a profile and its PIN hash.
type Actor struct {
	frame.BaseModel

	Name        string `gorm:"type:TEXT"`
	Role        string `gorm:"type:varchar(50)"`
	Designation string `gorm:"type:TEXT"`
	Department  string `gorm:"type:TEXT"`
	PinHash     string `gorm:"type:TEXT"`
	PinSetAt    *time.Time
}

func (a *Actor) ToApi() *types.Actor {
	return &types.Actor{
		ID:          a.GetID(),
		Name:        a.Name,
		Role:        a.Role,
		Designation: a.Designation,
		Department:  a.Department,
		PinHash:     a.PinHash,
		PinSetAt:    a.PinSetAt,
	}
}

func (a *Actor) Fill(ta *types.Actor) {
	a.ID = ta.ID
	a.Name = ta.Name
	a.Role = ta.Role
	a.Designation = ta.Designation
	a.Department = ta.Department
	a.PinHash = ta.PinHash
	a.PinSetAt = ta.PinSetAt
}
