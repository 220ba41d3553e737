package business

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/config"
	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/antinvestor/service-filemovement/apps/default/service/utils"
	"github.com/pitabwire/util"
	"github.com/rs/xid"
)

const (
	createdRemark          = "File created"
	fileNumberSuffixLength = 8
	fileNumberAttempts     = 3
)

// WorkflowSettings tunes the engine from service configuration.
type WorkflowSettings struct {
	FileNumberPrefix string
	NotifyOnRevert   bool
	Limits           PageLimits
}

func NewWorkflowSettings(cfg *config.MovementConfig) WorkflowSettings {
	return WorkflowSettings{
		FileNumberPrefix: cfg.FileNumberPrefix,
		NotifyOnRevert:   cfg.NotifyOnRevert,
		Limits:           PageLimits{Default: cfg.DefaultPageLimit, Max: cfg.MaxPageLimit},
	}
}

type workflowService struct {
	db       storage.Database
	actors   *ActorLookup
	policy   *Policy
	pins     PinHasher
	notifier NotificationDispatcher
	cursors  *CursorManager
	settings WorkflowSettings
}

func NewWorkflowService(
	db storage.Database,
	actors *ActorLookup,
	policy *Policy,
	pins PinHasher,
	notifier NotificationDispatcher,
	cursors *CursorManager,
	settings WorkflowSettings,
) WorkflowService {
	return &workflowService{
		db:       db,
		actors:   actors,
		policy:   policy,
		pins:     pins,
		notifier: notifier,
		cursors:  cursors,
		settings: settings,
	}
}

// now is truncated to the precision PostgreSQL keeps, so cursors built from
// an in memory value match the stored one.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (ws *workflowService) newFileNumber(at time.Time) string {
	prefix := ws.settings.FileNumberPrefix
	if prefix == "" {
		prefix = "FM"
	}
	return fmt.Sprintf("%s-%d-%s", prefix, at.Year(), utils.GenerateReference(fileNumberSuffixLength))
}

func validateCreateRequest(request *types.CreateFileRequest) error {
	if request == nil {
		return types.Validation("create request is required")
	}
	request.Subject = strings.TrimSpace(request.Subject)
	if request.Subject == "" {
		return types.Validation("subject is required")
	}
	if !request.Priority.Valid() {
		return types.Validation("priority must be one of LOW, MEDIUM or HIGH")
	}
	if strings.TrimSpace(request.PucDocumentRef) == "" {
		return types.Validation("puc document is required")
	}
	return nil
}

func (ws *workflowService) CreateFile(ctx context.Context, actor types.ActorContext, request *types.CreateFileRequest) (*types.File, error) {
	if err := validateCreateRequest(request); err != nil {
		return nil, err
	}

	creator, err := ws.actors.Lookup(ctx, actor.ActorID)
	if err != nil {
		if types.KindOf(err) == types.KindNotFound {
			return nil, types.Forbidden("actor %s is not registered", actor.ActorID)
		}
		return nil, err
	}

	createdAt := now()
	file := &types.File{
		ID:                    xid.New().String(),
		Subject:               request.Subject,
		Description:           strings.TrimSpace(request.Description),
		Priority:              request.Priority,
		Type:                  strings.TrimSpace(request.Type),
		Status:                types.StatusDraft,
		CurrentHolderID:       creator.ID,
		CurrentHolderPosition: creator.Position(),
		CreatorID:             creator.ID,
		CreatedAt:             createdAt,
		PucDocumentRef:        request.PucDocumentRef,
		Version:               1,
	}

	created := &types.Movement{
		ID:             xid.New().String(),
		FileID:         file.ID,
		SequenceNumber: 1,
		Action:         types.ActionCreated,
		ActorID:        creator.ID,
		ActorPosition:  creator.Position(),
		Remarks:        createdRemark,
		Timestamp:      createdAt,
	}

	for _, attachment := range request.Attachments {
		attachment.FileID = file.ID
		attachment.AddedByMovementID = ""
	}

	for attempt := 1; ; attempt++ {
		file.FileNumber = ws.newFileNumber(createdAt)
		err = ws.db.CreateFile(ctx, file, created, request.Attachments)
		if err == nil {
			break
		}
		if types.KindOf(err) != types.KindConflict || attempt >= fileNumberAttempts {
			return nil, err
		}
		util.Log(ctx).WithField("file_number", file.FileNumber).Debug("file number taken, drawing another")
	}

	transitionsTotal.WithLabelValues(string(types.ActionCreated)).Inc()
	util.Log(ctx).
		WithField("file_id", file.ID).
		WithField("file_number", file.FileNumber).
		WithField("creator_id", creator.ID).
		Info("file created")

	return file, nil
}

func (ws *workflowService) ApplyMove(ctx context.Context, actor types.ActorContext, command types.MoveCommand) (*types.MoveResult, error) {
	var action types.Action
	if command != nil {
		action = command.Action()
	}

	result, err := ws.applyMove(ctx, actor, command)
	if err != nil {
		kind := string(types.KindOf(err))
		if kind == "" {
			kind = "INTERNAL"
		}
		transitionFailuresTotal.WithLabelValues(string(action), kind).Inc()
		util.Log(ctx).WithError(err).
			WithField("actor_id", actor.ActorID).
			WithField("action", action).
			Debug("move rejected")
		return nil, err
	}

	transitionsTotal.WithLabelValues(string(action)).Inc()
	util.Log(ctx).
		WithField("file_id", result.File.ID).
		WithField("action", action).
		WithField("sequence", result.Movement.SequenceNumber).
		WithField("holder_id", result.File.CurrentHolderID).
		Info("file moved")

	ws.notify(ctx, result)
	return result, nil
}

// actorFor loads the acting holder. PIN gated actions always read the store
// so a freshly changed PIN takes effect at once.
func (ws *workflowService) actorFor(ctx context.Context, actorID string, action types.Action) (*types.Actor, error) {
	var (
		actor *types.Actor
		err   error
	)
	if action.RequiresPin() {
		actor, err = ws.actors.Fresh(ctx, actorID)
	} else {
		actor, err = ws.actors.Lookup(ctx, actorID)
	}
	if err != nil {
		if types.KindOf(err) == types.KindNotFound {
			return nil, types.Forbidden("actor %s is not registered", actorID)
		}
		return nil, err
	}
	return actor, nil
}

// revertSource finds the FORWARD that handed the file to its current holder.
func (ws *workflowService) revertSource(ctx context.Context, file *types.File) (*types.Movement, error) {
	last, err := ws.db.LastRecord(ctx, file.ID)
	if err != nil && types.KindOf(err) != types.KindNotFound {
		return nil, err
	}
	if last != nil && last.Action == types.ActionForward && last.ReceiverID == file.CurrentHolderID {
		return last, nil
	}

	forward, err := ws.db.LastForwardTo(ctx, file.ID, file.CurrentHolderID)
	if err != nil {
		if types.KindOf(err) == types.KindNotFound {
			return nil, types.InvalidTransition("file %s was never forwarded to its current holder", file.ID)
		}
		return nil, err
	}
	return forward, nil
}

func (ws *workflowService) applyMove(ctx context.Context, actor types.ActorContext, command types.MoveCommand) (*types.MoveResult, error) {
	if err := types.ValidateMoveCommand(command); err != nil {
		return nil, err
	}
	action := command.Action()
	common := command.Common()

	file, err := ws.db.GetFile(ctx, common.FileID)
	if err != nil {
		return nil, err
	}
	if file.Status.Terminal() {
		return nil, types.InvalidTransition("file %s is %s", file.ID, file.Status)
	}
	if file.CurrentHolderID != actor.ActorID {
		// A caller working from an older version lost a race or is retrying a
		// move that already committed.
		if common.ExpectedVersion < file.Version {
			return nil, types.Conflict("file %s moved on to version %d", file.ID, file.Version)
		}
		return nil, types.Forbidden("only the current holder may act on file %s", file.ID)
	}
	if common.ExpectedVersion != file.Version {
		return nil, types.Conflict("file %s is at version %d, not %d", file.ID, file.Version, common.ExpectedVersion)
	}

	holder, err := ws.actorFor(ctx, actor.ActorID, action)
	if err != nil {
		return nil, err
	}
	if !ws.policy.Allows(holder.Role, action) {
		return nil, types.Forbidden("role %s may not %s", holder.Role, action)
	}

	var (
		recipient *types.Actor
		source    *types.Movement
	)
	switch action {
	case types.ActionVerify:
		if file.IsVerified {
			return nil, types.InvalidTransition("file %s is already verified", file.ID)
		}
	case types.ActionApprove, types.ActionReject:
		if !file.IsVerified {
			return nil, types.InvalidTransition("file %s must be verified before %s", file.ID, action)
		}
	case types.ActionRevert:
		source, err = ws.revertSource(ctx, file)
		if err != nil {
			return nil, err
		}
	case types.ActionForward:
		receiverID := command.(*types.ForwardCommand).ReceiverID
		if receiverID == actor.ActorID {
			return nil, types.Validation("a file cannot be forwarded to its current holder")
		}
		recipient, err = ws.actors.Lookup(ctx, receiverID)
		if err != nil {
			return nil, err
		}
		if !ws.policy.MayForwardTo(holder.Role, recipient.Designation) {
			return nil, types.Forbidden("role %s may not forward to designation %s", holder.Role, recipient.Designation)
		}
	}

	if gated, ok := command.(types.PinGated); ok {
		if err = checkPin(ws.pins, holder, gated.Pin()); err != nil {
			return nil, err
		}
	}

	next := file.Clone()
	next.Version = file.Version + 1
	movement := &types.Movement{
		ID:             xid.New().String(),
		FileID:         file.ID,
		SequenceNumber: next.Version,
		Action:         action,
		ActorID:        holder.ID,
		ActorPosition:  holder.Position(),
		Remarks:        strings.TrimSpace(common.Remarks),
		Timestamp:      now(),
	}

	switch action {
	case types.ActionVerify:
		next.IsVerified = true
	case types.ActionForward:
		next.CurrentHolderID = recipient.ID
		next.CurrentHolderPosition = recipient.Position()
		next.IsVerified = false
		next.Status = types.StatusInTransit
		movement.ReceiverID = recipient.ID
		movement.ReceiverPosition = recipient.Position()
	case types.ActionRevert:
		next.CurrentHolderID = source.ActorID
		next.CurrentHolderPosition = source.ActorPosition
		next.IsVerified = false
		if source.ActorID != file.CreatorID {
			movement.ReceiverID = source.ActorID
			movement.ReceiverPosition = source.ActorPosition
		}
	case types.ActionApprove:
		next.Status = types.StatusApproved
	case types.ActionReject:
		next.Status = types.StatusRejected
	}

	for _, attachment := range common.Attachments {
		attachment.FileID = file.ID
		attachment.AddedByMovementID = movement.ID
		movement.AttachmentsAddedIDs = append(movement.AttachmentsAddedIDs, attachment.ID)
	}

	err = ws.db.CommitTransition(ctx, &types.Transition{
		File:            next,
		ExpectedVersion: file.Version,
		Movement:        movement,
		Attachments:     common.Attachments,
	})
	if err != nil {
		return nil, err
	}

	return &types.MoveResult{File: next, Movement: movement, Attachments: common.Attachments}, nil
}

// notify hands holder changes to the dispatcher. The move is already
// committed, so failures are only logged and counted.
func (ws *workflowService) notify(ctx context.Context, result *types.MoveResult) {
	if ws.notifier == nil {
		return
	}

	switch result.Movement.Action {
	case types.ActionForward:
	case types.ActionRevert:
		if !ws.settings.NotifyOnRevert {
			return
		}
	default:
		return
	}

	event := &types.FileHolderChanged{
		FileID:      result.File.ID,
		FileNumber:  result.File.FileNumber,
		NewHolderID: result.File.CurrentHolderID,
		Action:      result.Movement.Action,
		OccurredAt:  result.Movement.Timestamp,
	}

	err := ws.notifier.Notify(context.WithoutCancel(ctx), event)
	if err != nil {
		notificationFailuresTotal.Inc()
		util.Log(ctx).WithError(err).
			WithField("file_id", event.FileID).
			WithField("holder_id", event.NewHolderID).
			Warn("could not dispatch holder change")
	}
}

func (ws *workflowService) GetHistory(ctx context.Context, actor types.ActorContext, fileID string, cursor string, limit int) (*types.HistoryPage, error) {
	after, err := ws.cursors.DecodeHistory(fileID, cursor)
	if err != nil {
		return nil, err
	}
	limit = ws.settings.Limits.Clamp(limit)

	file, err := ws.db.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err = mayRead(ctx, ws.db, ws.actors, ws.policy, actor, file); err != nil {
		return nil, err
	}

	movements, err := ws.db.ListByFile(ctx, fileID, after, limit+1)
	if err != nil {
		return nil, err
	}

	attachments, err := ws.db.ListAttachments(ctx, fileID)
	if err != nil {
		return nil, err
	}

	page := &types.HistoryPage{File: file, Movements: movements, Attachments: attachments}
	if len(movements) > limit {
		page.Movements = movements[:limit]
		page.NextCursor = ws.cursors.EncodeHistory(fileID, page.Movements[limit-1].SequenceNumber)
	}
	return page, nil
}
