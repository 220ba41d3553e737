package business

import (
	"context"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
)

// registeredActor resolves actorID, reporting unknown actors as Forbidden.
func registeredActor(ctx context.Context, actors *ActorLookup, actorID string) (*types.Actor, error) {
	actor, err := actors.Lookup(ctx, actorID)
	if err != nil {
		if types.KindOf(err) == types.KindNotFound {
			return nil, types.Forbidden("actor %s is not registered", actorID)
		}
		return nil, err
	}
	return actor, nil
}

// mayRead allows the creator, the holder, anyone the file was forwarded to
// and actors entitled to manage attachments.
func mayRead(ctx context.Context, db storage.Database, actors *ActorLookup, policy *Policy, actor types.ActorContext, file *types.File) error {
	if actor.ActorID == file.CreatorID || actor.ActorID == file.CurrentHolderID {
		return nil
	}

	_, err := db.LastForwardTo(ctx, file.ID, actor.ActorID)
	if err == nil {
		return nil
	}
	if types.KindOf(err) != types.KindNotFound {
		return err
	}

	reader, err := registeredActor(ctx, actors, actor.ActorID)
	if err != nil {
		return err
	}
	if policy.MayRemoveAttachments(reader.Role) {
		return nil
	}
	return types.Forbidden("actor %s has not handled file %s", actor.ActorID, file.ID)
}
