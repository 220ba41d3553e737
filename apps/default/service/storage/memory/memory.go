// Package memory keeps the workflow store in process memory. It honours the
// same atomicity and ordering rules as the database backed store and is used
// for local runs and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
)

type Database struct {
	mu          sync.RWMutex
	files       map[string]*types.File
	fileNumbers map[string]string
	movements   map[string][]*types.Movement
	attachments map[string]*types.Attachment
	actors      map[string]*types.Actor
}

func NewDatabase() *Database {
	return &Database{
		files:       map[string]*types.File{},
		fileNumbers: map[string]string{},
		movements:   map[string][]*types.Movement{},
		attachments: map[string]*types.Attachment{},
		actors:      map[string]*types.Actor{},
	}
}

var _ storage.Database = (*Database)(nil)

func cloneMovement(m *types.Movement) *types.Movement {
	c := *m
	c.AttachmentsAddedIDs = slices.Clone(m.AttachmentsAddedIDs)
	return &c
}

func cloneAttachment(a *types.Attachment) *types.Attachment {
	c := *a
	return &c
}

func cloneActor(a *types.Actor) *types.Actor {
	c := *a
	if a.PinSetAt != nil {
		at := *a.PinSetAt
		c.PinSetAt = &at
	}
	return &c
}

func (d *Database) GetFile(_ context.Context, fileID string) (*types.File, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	file, ok := d.files[fileID]
	if !ok {
		return nil, types.NotFound("file %s", fileID)
	}
	return file.Clone(), nil
}

// actedOn reports whether holderID appears as the actor of any movement of fileID.
func (d *Database) actedOn(fileID, holderID string) bool {
	for _, m := range d.movements[fileID] {
		if m.ActorID == holderID {
			return true
		}
	}
	return false
}

func (d *Database) inMailbox(file *types.File, holderID string, kind types.MailboxKind) bool {
	switch kind {
	case types.MailboxDrafts:
		return file.CurrentHolderID == holderID && file.CreatorID == holderID && file.Status == types.StatusDraft
	case types.MailboxOutbox:
		return file.CurrentHolderID != holderID && d.actedOn(file.ID, holderID)
	default:
		return file.CurrentHolderID == holderID && file.Status == types.StatusInTransit
	}
}

func before(file *types.File, key *types.PageKey) bool {
	if key == nil {
		return true
	}
	if file.CreatedAt.Equal(key.CreatedAt) {
		return file.ID < key.ID
	}
	return file.CreatedAt.Before(key.CreatedAt)
}

func (d *Database) ListMailbox(_ context.Context, query *types.MailboxQuery) ([]*types.File, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	matched := make([]*types.File, 0)
	for _, file := range d.files {
		if d.inMailbox(file, query.HolderID, query.Kind) && before(file, query.After) {
			matched = append(matched, file)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}

	result := make([]*types.File, 0, len(matched))
	for _, file := range matched {
		result = append(result, file.Clone())
	}
	return result, nil
}

func (d *Database) CountMailbox(_ context.Context, holderID string, kind types.MailboxKind) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var total int64
	for _, file := range d.files {
		if d.inMailbox(file, holderID, kind) {
			total++
		}
	}
	return total, nil
}

func (d *Database) CountCreated(_ context.Context, creatorID string) (map[types.FileStatus]int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	counts := make(map[types.FileStatus]int64, len(types.AllStatuses))
	for _, status := range types.AllStatuses {
		counts[status] = 0
	}
	for _, file := range d.files {
		if file.CreatorID == creatorID {
			counts[file.Status]++
		}
	}
	return counts, nil
}

func (d *Database) CreateFile(_ context.Context, file *types.File, created *types.Movement, attachments []*types.Attachment) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.files[file.ID]; ok {
		return types.Conflict("file %s already exists", file.ID)
	}
	if _, ok := d.fileNumbers[file.FileNumber]; ok {
		return types.Conflict("file number %s is already taken", file.FileNumber)
	}
	if err := d.checkSequence(created); err != nil {
		return err
	}

	d.files[file.ID] = file.Clone()
	d.fileNumbers[file.FileNumber] = file.ID
	d.movements[file.ID] = []*types.Movement{cloneMovement(created)}
	for _, attachment := range attachments {
		d.attachments[attachment.ID] = cloneAttachment(attachment)
	}
	return nil
}

func (d *Database) CommitTransition(_ context.Context, t *types.Transition) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.files[t.File.ID]
	if !ok {
		return types.NotFound("file %s", t.File.ID)
	}
	if stored.Version != t.ExpectedVersion {
		return types.Conflict("file %s is no longer at version %d", t.File.ID, t.ExpectedVersion)
	}
	if err := d.checkSequence(t.Movement); err != nil {
		return err
	}

	updated := stored.Clone()
	updated.Status = t.File.Status
	updated.IsVerified = t.File.IsVerified
	updated.CurrentHolderID = t.File.CurrentHolderID
	updated.CurrentHolderPosition = t.File.CurrentHolderPosition
	updated.Version = t.File.Version

	d.files[t.File.ID] = updated
	d.movements[t.File.ID] = append(d.movements[t.File.ID], cloneMovement(t.Movement))
	for _, attachment := range t.Attachments {
		d.attachments[attachment.ID] = cloneAttachment(attachment)
	}
	return nil
}

func (d *Database) checkSequence(movement *types.Movement) error {
	expected := int64(len(d.movements[movement.FileID])) + 1
	if movement.SequenceNumber != expected {
		return types.Conflict("audit trail of file %s expects sequence %d got %d",
			movement.FileID, expected, movement.SequenceNumber)
	}
	return nil
}

func (d *Database) Append(_ context.Context, movement *types.Movement) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkSequence(movement); err != nil {
		return err
	}
	d.movements[movement.FileID] = append(d.movements[movement.FileID], cloneMovement(movement))
	return nil
}

func (d *Database) ListByFile(_ context.Context, fileID string, afterSequence int64, limit int) ([]*types.Movement, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*types.Movement, 0, limit)
	for _, m := range d.movements[fileID] {
		if m.SequenceNumber <= afterSequence {
			continue
		}
		if len(result) == limit {
			break
		}
		result = append(result, cloneMovement(m))
	}
	return result, nil
}

func (d *Database) LastRecord(_ context.Context, fileID string) (*types.Movement, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	trail := d.movements[fileID]
	if len(trail) == 0 {
		return nil, types.NotFound("movements for file %s", fileID)
	}
	return cloneMovement(trail[len(trail)-1]), nil
}

func (d *Database) LastRecords(_ context.Context, fileIDs []string) (map[string]*types.Movement, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make(map[string]*types.Movement, len(fileIDs))
	for _, fileID := range fileIDs {
		trail := d.movements[fileID]
		if len(trail) > 0 {
			result[fileID] = cloneMovement(trail[len(trail)-1])
		}
	}
	return result, nil
}

func (d *Database) LastForwardTo(_ context.Context, fileID string, receiverID string) (*types.Movement, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	trail := d.movements[fileID]
	for i := len(trail) - 1; i >= 0; i-- {
		if trail[i].Action == types.ActionForward && trail[i].ReceiverID == receiverID {
			return cloneMovement(trail[i]), nil
		}
	}
	return nil, types.NotFound("forward of file %s to %s", fileID, receiverID)
}

func (d *Database) GetAttachment(_ context.Context, attachmentID string) (*types.Attachment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	attachment, ok := d.attachments[attachmentID]
	if !ok {
		return nil, types.NotFound("attachment %s", attachmentID)
	}
	return cloneAttachment(attachment), nil
}

func (d *Database) ListAttachments(_ context.Context, fileID string) ([]*types.Attachment, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*types.Attachment, 0)
	for _, attachment := range d.attachments {
		if attachment.FileID == fileID {
			result = append(result, cloneAttachment(attachment))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (d *Database) openFile(fileID string) (*types.File, error) {
	file, ok := d.files[fileID]
	if !ok {
		return nil, types.NotFound("file %s", fileID)
	}
	if file.Status.Terminal() {
		return nil, types.InvalidTransition("file %s is %s", fileID, file.Status)
	}
	return file, nil
}

func (d *Database) AddAttachments(_ context.Context, fileID string, holderID string, attachments []*types.Attachment) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.openFile(fileID)
	if err != nil {
		return err
	}
	if file.CurrentHolderID != holderID {
		return types.Forbidden("file %s is no longer held by %s", fileID, holderID)
	}
	trail := d.movements[fileID]
	if len(trail) == 0 {
		return types.NotFound("movements for file %s", fileID)
	}

	for _, attachment := range attachments {
		attachment.FileID = fileID
		attachment.AddedByMovementID = trail[len(trail)-1].ID
		d.attachments[attachment.ID] = cloneAttachment(attachment)
	}
	return nil
}

func (d *Database) RemoveAttachment(_ context.Context, attachmentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	attachment, ok := d.attachments[attachmentID]
	if !ok {
		return types.NotFound("attachment %s", attachmentID)
	}
	if _, err := d.openFile(attachment.FileID); err != nil {
		return err
	}
	delete(d.attachments, attachmentID)
	return nil
}

func (d *Database) GetActor(_ context.Context, actorID string) (*types.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	actor, ok := d.actors[actorID]
	if !ok {
		return nil, types.NotFound("actor %s", actorID)
	}
	return cloneActor(actor), nil
}

func (d *Database) SaveActor(_ context.Context, actor *types.Actor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	saved := cloneActor(actor)
	if existing, ok := d.actors[actor.ID]; ok {
		saved.PinHash = existing.PinHash
		saved.PinSetAt = existing.PinSetAt
	} else {
		saved.PinHash = ""
		saved.PinSetAt = nil
	}
	d.actors[actor.ID] = saved
	return nil
}

func (d *Database) ListActors(_ context.Context, afterID string, limit int) ([]*types.Actor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.actors))
	for id := range d.actors {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	result := make([]*types.Actor, 0, len(ids))
	for _, id := range ids {
		result = append(result, cloneActor(d.actors[id]))
	}
	return result, nil
}

func (d *Database) SetActorPin(_ context.Context, actorID string, pinHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	actor, ok := d.actors[actorID]
	if !ok {
		return types.NotFound("actor %s", actorID)
	}
	updated := cloneActor(actor)
	updated.PinHash = pinHash
	now := time.Now().UTC()
	updated.PinSetAt = &now
	d.actors[actorID] = updated
	return nil
}
