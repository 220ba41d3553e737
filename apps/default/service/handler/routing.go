package handler

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/antinvestor/gomatrixserverlib/spec"
	"github.com/antinvestor/service-filemovement/apps/default/service/business"
	"github.com/gorilla/mux"
	"github.com/pitabwire/util"
)

const PublicAPIPathPrefix = "/v1/"

// Server exposes the workflow over JSON HTTP.
type Server struct {
	Workflow     business.WorkflowService
	Mailbox      business.MailboxService
	Attachments  business.AttachmentService
	Actors       business.ActorService
	ResolveActor ActorResolver

	// MaxUploadBytes bounds a whole multipart request body.
	MaxUploadBytes int64
}

// SetupRoutes registers every workflow endpoint on a new router.
func (s *Server) SetupRoutes() *mux.Router {
	router := mux.NewRouter().SkipClean(true)
	router.NotFoundHandler = NotFoundCORSHandler
	router.MethodNotAllowedHandler = NotAllowedHandler

	v1 := router.PathPrefix(PublicAPIPathPrefix).Subrouter()
	v1.NotFoundHandler = NotFoundCORSHandler
	v1.MethodNotAllowedHandler = NotAllowedHandler

	v1.Handle("/files", CreateHandler(s.CreateFile)).Methods(http.MethodPost, http.MethodOptions)
	v1.Handle("/files/{fileId}/history", CreateHandler(s.GetHistory)).Methods(http.MethodGet, http.MethodOptions)
	v1.Handle("/files/{fileId}/moves", CreateHandler(s.ApplyMove)).Methods(http.MethodPost, http.MethodOptions)
	v1.Handle("/files/{fileId}/attachments", CreateHandler(s.AddAttachments)).Methods(http.MethodPost, http.MethodOptions)
	v1.Handle("/files/{fileId}/puc", WrapHandlerInCORS(http.HandlerFunc(s.DownloadPuc))).Methods(http.MethodGet, http.MethodOptions)

	v1.Handle("/attachments/{attachmentId}/content", WrapHandlerInCORS(http.HandlerFunc(s.DownloadAttachment))).Methods(http.MethodGet, http.MethodOptions)
	v1.Handle("/attachments/{attachmentId}", CreateHandler(s.RemoveAttachment)).Methods(http.MethodDelete, http.MethodOptions)

	v1.Handle("/mailbox/stats", CreateHandler(s.MailboxStats)).Methods(http.MethodGet, http.MethodOptions)
	v1.Handle("/mailbox/{kind}", CreateHandler(s.MailboxPage)).Methods(http.MethodGet, http.MethodOptions)

	v1.Handle("/actors", CreateHandler(s.ListActors)).Methods(http.MethodGet, http.MethodOptions)
	v1.Handle("/actors/me", CreateHandler(s.CurrentActor)).Methods(http.MethodGet, http.MethodOptions)
	v1.Handle("/actors/me/pin", CreateHandler(s.SetPin)).Methods(http.MethodPut, http.MethodOptions)
	v1.Handle("/actors/{actorId}", CreateHandler(s.RegisterActor)).Methods(http.MethodPut, http.MethodOptions)

	return router
}

// WrapHandlerInCORS adds CORS headers to all responses, including all error
// responses.
// Handles OPTIONS requests directly.
func WrapHandlerInCORS(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusOK)
		} else {
			h.ServeHTTP(w, r)
		}
	}
}

var NotAllowedHandler = WrapHandlerInCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	unrecognizedErr, _ := json.Marshal(spec.Unrecognized("Unrecognized request")) // nolint:misspell
	_, _ = w.Write(unrecognizedErr)                                               // nolint:misspell
}))

var NotFoundCORSHandler = WrapHandlerInCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	unrecognizedErr, _ := json.Marshal(spec.Unrecognized("Unrecognized request")) // nolint:misspell
	_, _ = w.Write(unrecognizedErr)                                               // nolint:misspell
}))

// CreateHandler creates an HTTP handler from a JSON response function
func CreateHandler(f func(*http.Request) util.JSONResponse) http.Handler {
	return WrapHandlerInCORS(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		req = util.RequestWithLogging(req)
		response := f(req)

		for key, value := range response.Headers {
			if values, ok := value.([]string); ok {
				for _, v := range values {
					w.Header().Add(key, v)
				}
			} else if str, ok := value.(string); ok {
				w.Header().Add(key, str)
			}
		}

		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}

		w.WriteHeader(response.Code)
		if response.JSON != nil {
			encoder := json.NewEncoder(w)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(response.JSON); err != nil {
				util.Log(req.Context()).WithError(err).Error("Failed to write JSON response")
			}
		}
	}))
}

// pathVar returns a decoded mux path variable.
func pathVar(req *http.Request, name string) string {
	value := mux.Vars(req)[name]
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}
