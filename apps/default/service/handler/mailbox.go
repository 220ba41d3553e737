package handler

import (
	"net/http"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/util"
)

// MailboxPage implements GET /v1/mailbox/{kind}
func (s *Server) MailboxPage(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	cursor, limit, err := pageParams(req)
	if err != nil {
		return errorResponse(ctx, err)
	}

	var page *types.MailboxPage
	switch kind := types.MailboxKind(pathVar(req, "kind")); kind {
	case types.MailboxInbox:
		page, err = s.Mailbox.Inbox(ctx, actor.ActorID, cursor, limit)
	case types.MailboxOutbox:
		page, err = s.Mailbox.Outbox(ctx, actor.ActorID, cursor, limit)
	case types.MailboxDrafts:
		page, err = s.Mailbox.Drafts(ctx, actor.ActorID, cursor, limit)
	default:
		err = types.NotFound("no %q mailbox", kind)
	}
	if err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: page}
}

// MailboxStats implements GET /v1/mailbox/stats
func (s *Server) MailboxStats(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	stats, err := s.Mailbox.Stats(ctx, actor.ActorID)
	if err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: stats}
}
