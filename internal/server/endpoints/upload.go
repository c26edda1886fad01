package endpoints

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/session"
	"github.com/wallsified/pdf-o-matico/internal/svcctx"
)

// uploadMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const uploadMemory = 32 << 20

// UploadEndpoint handles POST /api/sessions/{id}/upload with multipart file upload.
type UploadEndpoint struct{ sessionGroup }

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Upload PDF files
//	@Tags		sessions
//	@Accept		mpfd
//	@Produce	json
//	@Param		id		path		string	true	"Session ID"
//	@Param		files	formData	file	true	"PDF files"
//	@Success	200		{object}	session.State
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Failure	413		{object}	ErrorResponse
//	@Router		/api/sessions/{id}/upload [post]
func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r)
	if !ok {
		return
	}

	if limit := svcctx.MaxUploadBytesFrom(r.Context()); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	var headers []*multipart.FileHeader
	err := r.ParseMultipartForm(uploadMemory)
	switch {
	case err == nil:
		defer r.MultipartForm.RemoveAll()
		headers = r.MultipartForm.File["files"]
	case errors.Is(err, http.ErrNotMultipart):
		// no form at all is the same as selecting no file
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}

	files := make([]session.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to open uploaded file: %v", err))
			return
		}
		defer f.Close()
		files = append(files, session.File{Name: fh.Filename, Reader: f})
	}

	if err := s.Upload(r.Context(), files); err != nil {
		writeSessionError(w, err, s)
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file.pdf>...",
		Short: "Upload PDF files into a session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp session.State
			if err := client.Upload(cmd.Context(), "/api/sessions/"+args[0]+"/upload", args[1:], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
