package business

import (
	"context"
	"strings"
	"time"

	"github.com/antinvestor/service-filemovement/apps/default/service/storage"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/pitabwire/util"
)

// ActorLookup reads actors through a short lived cache. Callers that must see
// the latest PIN state use Fresh.
type ActorLookup struct {
	store storage.ActorDirectory
	cache *expirable.LRU[string, *types.Actor]
}

func NewActorLookup(store storage.ActorDirectory, size int, ttl time.Duration) *ActorLookup {
	if size <= 0 {
		size = 1
	}
	return &ActorLookup{
		store: store,
		cache: expirable.NewLRU[string, *types.Actor](size, nil, ttl),
	}
}

func copyActor(a *types.Actor) *types.Actor {
	c := *a
	return &c
}

// Lookup returns the actor, served from cache when possible.
func (l *ActorLookup) Lookup(ctx context.Context, actorID string) (*types.Actor, error) {
	if actor, ok := l.cache.Get(actorID); ok {
		actorCacheLookups.WithLabelValues("hit").Inc()
		return copyActor(actor), nil
	}
	actorCacheLookups.WithLabelValues("miss").Inc()
	return l.Fresh(ctx, actorID)
}

// Fresh reads the actor from the store and refreshes the cache.
func (l *ActorLookup) Fresh(ctx context.Context, actorID string) (*types.Actor, error) {
	actor, err := l.store.GetActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	l.cache.Add(actorID, copyActor(actor))
	return actor, nil
}

func (l *ActorLookup) Forget(actorID string) {
	l.cache.Remove(actorID)
}

type actorService struct {
	store    storage.ActorDirectory
	lookup   *ActorLookup
	policy   *Policy
	pins     PinHasher
	cursors  *CursorManager
	limits   PageLimits
	profiles ProfileVerifier
}

// NewActorService returns the actor registry. profiles may be nil, in which
// case actor ids are not checked against the profile service.
func NewActorService(
	store storage.ActorDirectory,
	lookup *ActorLookup,
	policy *Policy,
	pins PinHasher,
	cursors *CursorManager,
	limits PageLimits,
	profiles ProfileVerifier,
) ActorService {
	return &actorService{
		store:    store,
		lookup:   lookup,
		policy:   policy,
		pins:     pins,
		cursors:  cursors,
		limits:   limits,
		profiles: profiles,
	}
}

func (as *actorService) validate(actor *types.Actor) error {
	if actor == nil {
		return types.Validation("actor is required")
	}
	actor.ID = strings.TrimSpace(actor.ID)
	actor.Name = strings.TrimSpace(actor.Name)
	if actor.ID == "" {
		return types.Validation("actor id is required")
	}
	if actor.Name == "" {
		return types.Validation("actor name is required")
	}
	if !as.policy.KnowsRole(actor.Role) {
		return types.Validation("role %q is not defined by the workflow policy", actor.Role)
	}
	actor.Role = normalise(actor.Role)
	actor.Designation = strings.TrimSpace(actor.Designation)
	actor.Department = strings.TrimSpace(actor.Department)
	return nil
}

func (as *actorService) Register(ctx context.Context, caller types.ActorContext, actor *types.Actor) (*types.Actor, error) {
	callerActor, err := as.lookup.Fresh(ctx, caller.ActorID)
	if err != nil {
		if types.KindOf(err) == types.KindNotFound {
			return nil, types.Forbidden("caller %s is not a registered actor", caller.ActorID)
		}
		return nil, err
	}
	if !as.policy.MayManageActors(callerActor.Role) {
		return nil, types.Forbidden("role %s may not manage actors", callerActor.Role)
	}

	if err = as.validate(actor); err != nil {
		return nil, err
	}

	if as.profiles != nil {
		exists, pErr := as.profiles.Exists(ctx, actor.ID)
		if pErr != nil {
			return nil, pErr
		}
		if !exists {
			return nil, types.NotFound("profile %s does not exist", actor.ID)
		}
	}

	if err = as.store.SaveActor(ctx, actor); err != nil {
		return nil, err
	}
	as.lookup.Forget(actor.ID)

	util.Log(ctx).
		WithField("actor_id", actor.ID).
		WithField("role", actor.Role).
		WithField("registered_by", caller.ActorID).
		Info("actor registered")

	return as.lookup.Fresh(ctx, actor.ID)
}

func (as *actorService) Get(ctx context.Context, actorID string) (*types.Actor, error) {
	return as.lookup.Lookup(ctx, actorID)
}

func (as *actorService) List(ctx context.Context, caller types.ActorContext, cursor string, limit int) (*types.ActorPage, error) {
	callerActor, err := as.lookup.Lookup(ctx, caller.ActorID)
	if err != nil {
		if types.KindOf(err) == types.KindNotFound {
			return nil, types.Forbidden("caller %s is not a registered actor", caller.ActorID)
		}
		return nil, err
	}

	after, err := as.cursors.DecodeActors(cursor)
	if err != nil {
		return nil, err
	}
	limit = as.limits.Clamp(limit)

	actors, err := as.store.ListActors(ctx, after, limit+1)
	if err != nil {
		return nil, err
	}

	page := &types.ActorPage{Actors: make([]*types.ActorSummary, 0, min(len(actors), limit))}
	if len(actors) > limit {
		actors = actors[:limit]
		page.NextCursor = as.cursors.EncodeActors(actors[limit-1].ID)
	}

	mayForward := as.policy.Allows(callerActor.Role, types.ActionForward)
	for _, actor := range actors {
		page.Actors = append(page.Actors, &types.ActorSummary{
			ID:          actor.ID,
			Name:        actor.Name,
			Role:        actor.Role,
			Designation: actor.Designation,
			Department:  actor.Department,
			HasPin:      actor.HasPin(),
			EligibleRecipient: mayForward && actor.ID != callerActor.ID &&
				as.policy.MayForwardTo(callerActor.Role, actor.Designation),
		})
	}
	return page, nil
}

func (as *actorService) SetPin(ctx context.Context, actor types.ActorContext, pin string, currentPin string) error {
	if err := types.ValidatePin(pin); err != nil {
		return err
	}

	stored, err := as.lookup.Fresh(ctx, actor.ActorID)
	if err != nil {
		return err
	}

	if stored.HasPin() {
		if currentPin == "" {
			return types.Unauthorized("current pin is required to replace an existing pin")
		}
		if err = as.pins.Compare(stored.PinHash, currentPin); err != nil {
			return err
		}
	}

	hash, err := as.pins.Hash(pin)
	if err != nil {
		return err
	}
	if err = as.store.SetActorPin(ctx, actor.ActorID, hash); err != nil {
		return err
	}
	as.lookup.Forget(actor.ActorID)

	util.Log(ctx).WithField("actor_id", actor.ActorID).Info("actor pin updated")
	return nil
}

func (as *actorService) Seed(ctx context.Context, actors ...*types.Actor) error {
	for _, actor := range actors {
		if err := as.validate(actor); err != nil {
			return err
		}

		_, err := as.store.GetActor(ctx, actor.ID)
		if err == nil {
			continue
		}
		if types.KindOf(err) != types.KindNotFound {
			return err
		}

		if err = as.store.SaveActor(ctx, actor); err != nil {
			return err
		}
		as.lookup.Forget(actor.ID)
		util.Log(ctx).WithField("actor_id", actor.ID).WithField("role", actor.Role).Info("seeded actor")
	}
	return nil
}
