package handler

import (
	"errors"
	"net/http"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/frame"
)

// ActorResolver identifies the caller of a request.
type ActorResolver func(req *http.Request) (types.ActorContext, error)

var errNoClaims = errors.New("request carries no authentication claims")

// ClaimsActorResolver uses the subject of the verified access token.
func ClaimsActorResolver(req *http.Request) (types.ActorContext, error) {
	claims := frame.ClaimsFromContext(req.Context())
	if claims == nil {
		return types.ActorContext{}, errNoClaims
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return types.ActorContext{}, err
	}
	if subject == "" {
		return types.ActorContext{}, errNoClaims
	}
	return types.ActorContext{ActorID: subject}, nil
}

func (s *Server) actor(req *http.Request) (types.ActorContext, bool) {
	resolve := s.ResolveActor
	if resolve == nil {
		resolve = ClaimsActorResolver
	}
	actor, err := resolve(req)
	if err != nil {
		return types.ActorContext{}, false
	}
	return actor, true
}
