package business

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
)

type mailboxService struct {
	db      storage.Database
	cursors *CursorManager
	limits  PageLimits
}

func NewMailboxService(db storage.Database, cursors *CursorManager, limits PageLimits) MailboxService {
	return &mailboxService{db: db, cursors: cursors, limits: limits}
}

func (ms *mailboxService) Inbox(ctx context.Context, holderID string, cursor string, limit int) (*types.MailboxPage, error) {
	return ms.page(ctx, types.MailboxInbox, holderID, cursor, limit)
}

func (ms *mailboxService) Outbox(ctx context.Context, holderID string, cursor string, limit int) (*types.MailboxPage, error) {
	return ms.page(ctx, types.MailboxOutbox, holderID, cursor, limit)
}

func (ms *mailboxService) Drafts(ctx context.Context, holderID string, cursor string, limit int) (*types.MailboxPage, error) {
	return ms.page(ctx, types.MailboxDrafts, holderID, cursor, limit)
}

func (ms *mailboxService) page(ctx context.Context, kind types.MailboxKind, holderID string, cursor string, limit int) (*types.MailboxPage, error) {
	if holderID == "" {
		return nil, types.Validation("holder id is required")
	}
	after, err := ms.cursors.DecodeMailbox(kind, cursor)
	if err != nil {
		return nil, err
	}
	limit = ms.limits.Clamp(limit)

	files, err := ms.db.ListMailbox(ctx, &types.MailboxQuery{
		HolderID: holderID,
		Kind:     kind,
		After:    after,
		Limit:    limit + 1,
	})
	if err != nil {
		return nil, err
	}

	page := &types.MailboxPage{Files: []*types.MailboxEntry{}}
	if len(files) > limit {
		files = files[:limit]
		last := files[limit-1]
		page.NextCursor = ms.cursors.EncodeMailbox(kind, types.PageKey{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	if len(files) == 0 {
		return page, nil
	}

	fileIDs := make([]string, 0, len(files))
	for _, file := range files {
		fileIDs = append(fileIDs, file.ID)
	}
	lastRecords, err := ms.db.LastRecords(ctx, fileIDs)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		entry := &types.MailboxEntry{File: file}
		if record, ok := lastRecords[file.ID]; ok {
			entry.LastRemark = record.Remarks
			entry.LastAction = record.Action
			entry.LastSender = record.ActorID
		}
		page.Files = append(page.Files, entry)
	}
	return page, nil
}

func (ms *mailboxService) Stats(ctx context.Context, holderID string) (*types.MailboxStats, error) {
	if holderID == "" {
		return nil, types.Validation("holder id is required")
	}

	stats := &types.MailboxStats{}
	var err error
	if stats.Inbox, err = ms.db.CountMailbox(ctx, holderID, types.MailboxInbox); err != nil {
		return nil, err
	}
	if stats.Drafts, err = ms.db.CountMailbox(ctx, holderID, types.MailboxDrafts); err != nil {
		return nil, err
	}
	if stats.Outbox, err = ms.db.CountMailbox(ctx, holderID, types.MailboxOutbox); err != nil {
		return nil, err
	}
	if stats.Created, err = ms.db.CountCreated(ctx, holderID); err != nil {
		return nil, err
	}
	if stats.Created == nil {
		stats.Created = map[types.FileStatus]int64{}
	}
	for _, status := range types.AllStatuses {
		if _, ok := stats.Created[status]; !ok {
			stats.Created[status] = 0
		}
	}
	return stats, nil
}
