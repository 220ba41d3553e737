package handler

import (
	"encoding/json"
	"net/http"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/util"
)

type actorRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
}

type pinRequest struct {
	Pin        string `json:"pin"`
	CurrentPin string `json:"current_pin,omitempty"`
}

func decodeJSON(req *http.Request, v any) error {
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &types.Error{Kind: types.KindValidation, Message: "malformed request body", Err: err}
	}
	return nil
}

// CurrentActor implements GET /v1/actors/me
func (s *Server) CurrentActor(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	registered, err := s.Actors.Get(ctx, actor.ActorID)
	if err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: registered}
}

// ListActors implements GET /v1/actors. Each entry says whether the caller
// may forward a file to that actor.
func (s *Server) ListActors(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	caller, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	cursor, limit, err := pageParams(req)
	if err != nil {
		return errorResponse(ctx, err)
	}

	page, err := s.Actors.List(ctx, caller, cursor, limit)
	if err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: page}
}

// RegisterActor implements PUT /v1/actors/{actorId}, creating or updating
// the actor's role and position.
func (s *Server) RegisterActor(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	caller, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	var body actorRequest
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(ctx, err)
	}

	registered, err := s.Actors.Register(ctx, caller, &types.Actor{
		ID:          pathVar(req, "actorId"),
		Name:        body.Name,
		Role:        body.Role,
		Designation: body.Designation,
		Department:  body.Department,
	})
	if err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: registered}
}

// SetPin implements PUT /v1/actors/me/pin
func (s *Server) SetPin(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	var body pinRequest
	if err := decodeJSON(req, &body); err != nil {
		return errorResponse(ctx, err)
	}

	if err := s.Actors.SetPin(ctx, actor, body.Pin, body.CurrentPin); err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusNoContent}
}
