package connection

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/models"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage/repository"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/frame"
	"github.com/pkg/errors"
)

// Database implements storage.Database on top of the gorm repositories.
type Database struct {
	provider repository.DBProvider

	FileRepository       repository.FileRepository
	MovementRepository   repository.MovementRepository
	AttachmentRepository repository.AttachmentRepository
	ActorRepository      repository.ActorRepository
}

// NewWorkflowDatabase opens the workflow store on the service datastore.
func NewWorkflowDatabase(provider repository.DBProvider) storage.Database {
	return &Database{
		provider:             provider,
		FileRepository:       repository.NewFileRepository(provider),
		MovementRepository:   repository.NewMovementRepository(provider),
		AttachmentRepository: repository.NewAttachmentRepository(provider),
		ActorRepository:      repository.NewActorRepository(provider),
	}
}

func notFoundOr(err error, format string, args ...any) error {
	if frame.ErrorIsNoRows(err) {
		return types.NotFound(format, args...)
	}
	return err
}

func (d *Database) GetFile(ctx context.Context, fileID string) (*types.File, error) {
	file, err := d.FileRepository.GetByID(ctx, fileID)
	if err != nil {
		return nil, notFoundOr(err, "file %s", fileID)
	}
	return file.ToApi(), nil
}

func (d *Database) ListMailbox(ctx context.Context, query *types.MailboxQuery) ([]*types.File, error) {
	fileList, err := d.FileRepository.ListMailbox(ctx, query)
	if err != nil {
		return nil, err
	}
	result := make([]*types.File, 0, len(fileList))
	for _, file := range fileList {
		result = append(result, file.ToApi())
	}
	return result, nil
}

func (d *Database) CountMailbox(ctx context.Context, holderID string, kind types.MailboxKind) (int64, error) {
	return d.FileRepository.CountMailbox(ctx, holderID, kind)
}

func (d *Database) CountCreated(ctx context.Context, creatorID string) (map[types.FileStatus]int64, error) {
	counts, err := d.FileRepository.CountCreatedByStatus(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	result := make(map[types.FileStatus]int64, len(types.AllStatuses))
	for _, status := range types.AllStatuses {
		result[status] = counts[string(status)]
	}
	return result, nil
}

func (d *Database) CreateFile(ctx context.Context, file *types.File, created *types.Movement, attachments []*types.Attachment) error {
	return repository.InTransaction(ctx, d.provider, func(tx repository.DBProvider) error {
		fileModel := &models.File{}
		fileModel.Fill(file)
		err := repository.NewFileRepository(tx).Create(ctx, fileModel)
		if err != nil {
			if repository.IsUniqueViolation(err) {
				return types.Conflict("file number %s is already taken", file.FileNumber)
			}
			return err
		}

		err = appendMovement(ctx, repository.NewMovementRepository(tx), created)
		if err != nil {
			return err
		}

		return repository.NewAttachmentRepository(tx).Create(ctx, attachmentModels(attachments)...)
	})
}

func (d *Database) CommitTransition(ctx context.Context, t *types.Transition) error {
	return repository.InTransaction(ctx, d.provider, func(tx repository.DBProvider) error {
		fileModel := &models.File{}
		fileModel.Fill(t.File)

		err := repository.NewFileRepository(tx).CompareAndSwap(ctx, fileModel, t.ExpectedVersion)
		if errors.Is(err, repository.ErrStaleRevision) {
			return types.Conflict("file %s is no longer at version %d", t.File.ID, t.ExpectedVersion)
		}
		if err != nil {
			return err
		}

		err = appendMovement(ctx, repository.NewMovementRepository(tx), t.Movement)
		if err != nil {
			return err
		}

		return repository.NewAttachmentRepository(tx).Create(ctx, attachmentModels(t.Attachments)...)
	})
}

func appendMovement(ctx context.Context, repo repository.MovementRepository, movement *types.Movement) error {
	movementModel := &models.Movement{}
	movementModel.Fill(movement)
	err := repo.Append(ctx, movementModel)
	if errors.Is(err, repository.ErrSequenceGap) {
		return &types.Error{Kind: types.KindConflict, Message: "audit trail sequence gap", Err: err}
	}
	return err
}

func attachmentModels(attachments []*types.Attachment) []*models.Attachment {
	result := make([]*models.Attachment, 0, len(attachments))
	for _, attachment := range attachments {
		model := &models.Attachment{}
		model.Fill(attachment)
		result = append(result, model)
	}
	return result
}

func (d *Database) Append(ctx context.Context, movement *types.Movement) error {
	return appendMovement(ctx, d.MovementRepository, movement)
}

func (d *Database) ListByFile(ctx context.Context, fileID string, afterSequence int64, limit int) ([]*types.Movement, error) {
	movementList, err := d.MovementRepository.ListByFile(ctx, fileID, afterSequence, limit)
	if err != nil {
		return nil, err
	}
	result := make([]*types.Movement, 0, len(movementList))
	for _, movement := range movementList {
		result = append(result, movement.ToApi())
	}
	return result, nil
}

func (d *Database) LastRecord(ctx context.Context, fileID string) (*types.Movement, error) {
	movement, err := d.MovementRepository.Last(ctx, fileID)
	if err != nil {
		return nil, notFoundOr(err, "movements for file %s", fileID)
	}
	return movement.ToApi(), nil
}

func (d *Database) LastRecords(ctx context.Context, fileIDs []string) (map[string]*types.Movement, error) {
	movementList, err := d.MovementRepository.LastForFiles(ctx, fileIDs)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*types.Movement, len(movementList))
	for _, movement := range movementList {
		result[movement.FileID] = movement.ToApi()
	}
	return result, nil
}

func (d *Database) LastForwardTo(ctx context.Context, fileID string, receiverID string) (*types.Movement, error) {
	movement, err := d.MovementRepository.LastForwardTo(ctx, fileID, receiverID)
	if err != nil {
		return nil, notFoundOr(err, "forward of file %s to %s", fileID, receiverID)
	}
	return movement.ToApi(), nil
}

func (d *Database) GetAttachment(ctx context.Context, attachmentID string) (*types.Attachment, error) {
	attachment, err := d.AttachmentRepository.GetByID(ctx, attachmentID)
	if err != nil {
		return nil, notFoundOr(err, "attachment %s", attachmentID)
	}
	return attachment.ToApi(), nil
}

func (d *Database) ListAttachments(ctx context.Context, fileID string) ([]*types.Attachment, error) {
	attachmentList, err := d.AttachmentRepository.ListByFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	result := make([]*types.Attachment, 0, len(attachmentList))
	for _, attachment := range attachmentList {
		result = append(result, attachment.ToApi())
	}
	return result, nil
}

// lockOpenFile share locks the file for the rest of the transaction and
// rejects files that already reached a terminal state.
func lockOpenFile(ctx context.Context, tx repository.DBProvider, fileID string) (*models.File, error) {
	file, err := repository.NewFileRepository(tx).GetForShare(ctx, fileID)
	if err != nil {
		return nil, notFoundOr(err, "file %s", fileID)
	}
	if types.FileStatus(file.Status).Terminal() {
		return nil, types.InvalidTransition("file %s is %s", fileID, file.Status)
	}
	return file, nil
}

func (d *Database) AddAttachments(ctx context.Context, fileID string, holderID string, attachments []*types.Attachment) error {
	return repository.InTransaction(ctx, d.provider, func(tx repository.DBProvider) error {
		file, err := lockOpenFile(ctx, tx, fileID)
		if err != nil {
			return err
		}
		if file.CurrentHolderID != holderID {
			return types.Forbidden("file %s is no longer held by %s", fileID, holderID)
		}

		last, err := repository.NewMovementRepository(tx).Last(ctx, fileID)
		if err != nil {
			return notFoundOr(err, "movements for file %s", fileID)
		}
		for _, attachment := range attachments {
			attachment.FileID = fileID
			attachment.AddedByMovementID = last.ID
		}
		return repository.NewAttachmentRepository(tx).Create(ctx, attachmentModels(attachments)...)
	})
}

func (d *Database) RemoveAttachment(ctx context.Context, attachmentID string) error {
	return repository.InTransaction(ctx, d.provider, func(tx repository.DBProvider) error {
		attachmentRepo := repository.NewAttachmentRepository(tx)
		attachment, err := attachmentRepo.GetByID(ctx, attachmentID)
		if err != nil {
			return notFoundOr(err, "attachment %s", attachmentID)
		}
		if _, err = lockOpenFile(ctx, tx, attachment.FileID); err != nil {
			return err
		}
		return attachmentRepo.Delete(ctx, attachmentID)
	})
}

func (d *Database) GetActor(ctx context.Context, actorID string) (*types.Actor, error) {
	actor, err := d.ActorRepository.GetByID(ctx, actorID)
	if err != nil {
		return nil, notFoundOr(err, "actor %s", actorID)
	}
	return actor.ToApi(), nil
}

func (d *Database) SaveActor(ctx context.Context, actor *types.Actor) error {
	actorModel := &models.Actor{}
	actorModel.Fill(actor)
	return d.ActorRepository.Save(ctx, actorModel)
}

func (d *Database) ListActors(ctx context.Context, afterID string, limit int) ([]*types.Actor, error) {
	actorList, err := d.ActorRepository.List(ctx, afterID, limit)
	if err != nil {
		return nil, err
	}
	result := make([]*types.Actor, 0, len(actorList))
	for _, actor := range actorList {
		result = append(result, actor.ToApi())
	}
	return result, nil
}

func (d *Database) SetActorPin(ctx context.Context, actorID string, pinHash string) error {
	err := d.ActorRepository.SetPin(ctx, actorID, pinHash)
	if repository.IsActorMissing(err) {
		return types.NotFound("actor %s", actorID)
	}
	return err
}
