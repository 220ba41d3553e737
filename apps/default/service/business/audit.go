package business

import (
	"context"
	"iter"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
)

type auditTrailService struct {
	store   storage.AuditTrail
	cursors *CursorManager
	limits  PageLimits
}

func NewAuditTrailService(store storage.AuditTrail, cursors *CursorManager, limits PageLimits) AuditTrailService {
	return &auditTrailService{store: store, cursors: cursors, limits: limits}
}

func (as *auditTrailService) ListByFile(ctx context.Context, fileID string, cursor string, limit int) iter.Seq2[*types.Movement, error] {
	return func(yield func(*types.Movement, error) bool) {
		after, err := as.cursors.DecodeHistory(fileID, cursor)
		if err != nil {
			yield(nil, err)
			return
		}
		limit = as.limits.Clamp(limit)

		for {
			if err = ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			page, pErr := as.store.ListByFile(ctx, fileID, after, limit)
			if pErr != nil {
				yield(nil, pErr)
				return
			}

			for _, movement := range page {
				if !yield(movement, nil) {
					return
				}
				after = movement.SequenceNumber
			}

			if len(page) < limit {
				return
			}
		}
	}
}

func (as *auditTrailService) LastRecord(ctx context.Context, fileID string) (*types.Movement, error) {
	return as.store.LastRecord(ctx, fileID)
}

// CursorAfter returns the cursor that resumes listing after movement.
func (as *auditTrailService) CursorAfter(fileID string, movement *types.Movement) string {
	return as.cursors.EncodeHistory(fileID, movement.SequenceNumber)
}
