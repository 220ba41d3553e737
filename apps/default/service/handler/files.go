package handler

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
	"github.com/pitabwire/util"
)

func pageParams(req *http.Request) (string, int, error) {
	query := req.URL.Query()
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return "", 0, types.Validation("limit must be a positive number")
		}
		limit = parsed
	}
	return query.Get("cursor"), limit, nil
}

// CreateFile implements POST /v1/files. The request is multipart: the
// primary document under "puc", optional documents under "attachments" and
// the remaining fields as form values.
func (s *Server) CreateFile(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	if !isMultipart(req) {
		return errorResponse(ctx, types.Validation("files are created with a multipart request carrying the puc document"))
	}
	if err := s.parseMultipart(req); err != nil {
		return errorResponse(ctx, err)
	}

	puc, err := uploadsFrom(req, pucField)
	if err != nil {
		return errorResponse(ctx, err)
	}
	if len(puc) != 1 {
		return errorResponse(ctx, types.Validation("exactly one puc document is required"))
	}
	extra, err := uploadsFrom(req, attachmentsField)
	if err != nil {
		return errorResponse(ctx, err)
	}

	request := &types.CreateFileRequest{
		Subject:     req.FormValue("subject"),
		Description: req.FormValue("description"),
		Priority:    types.Priority(req.FormValue("priority")),
		Type:        req.FormValue("type"),
	}

	storedPuc, err := s.Attachments.StoreBlobs(ctx, actor, puc)
	if err != nil {
		return errorResponse(ctx, err)
	}
	request.PucDocumentRef = storedPuc[0].BlobRef

	if len(extra) > 0 {
		request.Attachments, err = s.Attachments.StoreBlobs(ctx, actor, extra)
		if err != nil {
			s.Attachments.DiscardBlobs(ctx, storedPuc...)
			return errorResponse(ctx, err)
		}
	}

	file, err := s.Workflow.CreateFile(ctx, actor, request)
	if err != nil {
		s.Attachments.DiscardBlobs(ctx, append(storedPuc, request.Attachments...)...)
		return errorResponse(ctx, err)
	}

	return util.JSONResponse{
		Code: http.StatusCreated,
		JSON: map[string]any{"file": file, "attachments": request.Attachments},
	}
}

// GetHistory implements GET /v1/files/{fileId}/history
func (s *Server) GetHistory(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	cursor, limit, err := pageParams(req)
	if err != nil {
		return errorResponse(ctx, err)
	}

	page, err := s.Workflow.GetHistory(ctx, actor, pathVar(req, "fileId"), cursor, limit)
	if err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: page}
}

// ApplyMove implements POST /v1/files/{fileId}/moves. The body is the JSON
// move request, or a multipart request carrying it under "command" next to
// the documents submitted with the move.
func (s *Server) ApplyMove(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}
	fileID := pathVar(req, "fileId")

	var (
		body    []byte
		uploads []*types.BlobUpload
		err     error
	)
	if isMultipart(req) {
		if err = s.parseMultipart(req); err != nil {
			return errorResponse(ctx, err)
		}
		body = []byte(req.FormValue(commandField))
		uploads, err = uploadsFrom(req, attachmentsField)
	} else {
		body, err = io.ReadAll(req.Body)
		if err != nil {
			err = &types.Error{Kind: types.KindValidation, Message: "could not read move request", Err: err}
		}
	}
	if err != nil {
		return errorResponse(ctx, err)
	}

	command, err := types.DecodeMoveCommand(fileID, body)
	if err != nil {
		return errorResponse(ctx, err)
	}

	if len(uploads) > 0 {
		stored, sErr := s.Attachments.StoreBlobs(ctx, actor, uploads)
		if sErr != nil {
			return errorResponse(ctx, sErr)
		}
		command.Common().Attachments = stored
	}

	result, err := s.Workflow.ApplyMove(ctx, actor, command)
	if err != nil {
		s.Attachments.DiscardBlobs(ctx, command.Common().Attachments...)
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusOK, JSON: result}
}

// AddAttachments implements POST /v1/files/{fileId}/attachments
func (s *Server) AddAttachments(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}
	if !isMultipart(req) {
		return errorResponse(ctx, types.Validation("attachments are uploaded with a multipart request"))
	}
	if err := s.parseMultipart(req); err != nil {
		return errorResponse(ctx, err)
	}

	uploads, err := uploadsFrom(req, attachmentsField)
	if err != nil {
		return errorResponse(ctx, err)
	}

	attachments, err := s.Attachments.Add(ctx, actor, pathVar(req, "fileId"), uploads)
	if err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusCreated, JSON: map[string]any{"attachments": attachments}}
}

// RemoveAttachment implements DELETE /v1/attachments/{attachmentId}
func (s *Server) RemoveAttachment(req *http.Request) util.JSONResponse {
	ctx := req.Context()
	actor, ok := s.actor(req)
	if !ok {
		return unauthenticated()
	}

	if err := s.Attachments.Remove(ctx, actor, pathVar(req, "attachmentId")); err != nil {
		return errorResponse(ctx, err)
	}
	return util.JSONResponse{Code: http.StatusNoContent}
}

func writeJSONResponse(w http.ResponseWriter, req *http.Request, response util.JSONResponse) {
	CreateHandler(func(*http.Request) util.JSONResponse { return response }).ServeHTTP(w, req)
}

func stream(w http.ResponseWriter, req *http.Request, name, contentType string, content io.Reader, release func()) {
	defer release()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, content); err != nil {
		util.Log(req.Context()).WithError(err).Warn("document download interrupted")
	}
}

// DownloadAttachment implements GET /v1/attachments/{attachmentId}/content
func (s *Server) DownloadAttachment(w http.ResponseWriter, req *http.Request) {
	req = util.RequestWithLogging(req)

	actor, ok := s.actor(req)
	if !ok {
		writeJSONResponse(w, req, unauthenticated())
		return
	}

	attachment, content, release, err := s.Attachments.Open(req.Context(), actor, pathVar(req, "attachmentId"))
	if err != nil {
		writeJSONResponse(w, req, errorResponse(req.Context(), err))
		return
	}
	stream(w, req, attachment.Name, attachment.ContentType, content, release)
}

// DownloadPuc implements GET /v1/files/{fileId}/puc
func (s *Server) DownloadPuc(w http.ResponseWriter, req *http.Request) {
	req = util.RequestWithLogging(req)

	actor, ok := s.actor(req)
	if !ok {
		writeJSONResponse(w, req, unauthenticated())
		return
	}

	file, content, release, err := s.Attachments.OpenPuc(req.Context(), actor, pathVar(req, "fileId"))
	if err != nil {
		writeJSONResponse(w, req, errorResponse(req.Context(), err))
		return
	}
	stream(w, req, file.FileNumber, "", content, release)
}
