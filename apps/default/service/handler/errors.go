package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/antinvestor/gomatrixserverlib/spec"
	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/util"
)

// errorBody is a matrix style error extended with the workflow error kind.
type errorBody struct {
	spec.MatrixError
	Kind types.ErrorKind `json:"kind,omitempty"`
}

var kindStatus = map[types.ErrorKind]int{
	types.KindNotFound:          http.StatusNotFound,
	types.KindForbidden:         http.StatusForbidden,
	types.KindUnauthorized:      http.StatusUnauthorized,
	types.KindPinNotConfigured:  http.StatusPreconditionRequired,
	types.KindInvalidTransition: http.StatusUnprocessableEntity,
	types.KindConflict:          http.StatusConflict,
	types.KindValidation:        http.StatusBadRequest,
}

// errorResponse maps a workflow error onto its HTTP status and body.
func errorResponse(ctx context.Context, err error) util.JSONResponse {
	var e *types.Error
	kind := types.KindOf(err)
	status, known := kindStatus[kind]
	if !known {
		util.Log(ctx).WithError(err).Error("request failed")
		return util.JSONResponse{
			Code: http.StatusInternalServerError,
			JSON: spec.Unknown("Internal server error"),
		}
	}

	message := err.Error()
	if errors.As(err, &e) && e.Message != "" {
		message = e.Message
	}

	var matrixErr spec.MatrixError
	switch kind {
	case types.KindNotFound:
		matrixErr = spec.NotFound(message)
	case types.KindForbidden:
		matrixErr = spec.Forbidden(message)
	case types.KindValidation:
		matrixErr = spec.BadJSON(message)
	default:
		matrixErr = spec.Unknown(message)
	}

	return util.JSONResponse{
		Code: status,
		JSON: errorBody{MatrixError: matrixErr, Kind: kind},
	}
}

func unauthenticated() util.JSONResponse {
	return util.JSONResponse{
		Code: http.StatusUnauthorized,
		JSON: spec.Unknown("Unauthorised"),
	}
}
