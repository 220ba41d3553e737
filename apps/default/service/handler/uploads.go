package handler

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/antinvestor/service-filemovement/apps/default/service/types"
)

const (
	multipartMemory = 8 << 20

	attachmentsField = "attachments"
	pucField         = "puc"
	commandField     = "command"
)

func isMultipart(req *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	return err == nil && strings.HasPrefix(mediaType, "multipart/")
}

func (s *Server) parseMultipart(req *http.Request) error {
	if s.MaxUploadBytes > 0 {
		req.Body = http.MaxBytesReader(nil, req.Body, s.MaxUploadBytes)
	}
	if err := req.ParseMultipartForm(multipartMemory); err != nil {
		return &types.Error{Kind: types.KindValidation, Message: "malformed multipart request", Err: err}
	}
	return nil
}

func readUpload(header *multipart.FileHeader) (*types.BlobUpload, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	return &types.BlobUpload{
		Name:        header.Filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		Content:     content,
	}, nil
}

// uploadsFrom reads every file sent under field.
func uploadsFrom(req *http.Request, field string) ([]*types.BlobUpload, error) {
	if req.MultipartForm == nil {
		return nil, nil
	}
	headers := req.MultipartForm.File[field]
	uploads := make([]*types.BlobUpload, 0, len(headers))
	for _, header := range headers {
		upload, err := readUpload(header)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}
