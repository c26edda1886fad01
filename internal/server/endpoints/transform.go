package endpoints

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/cobra"

	"github.com/wallsified/pdf-o-matico/internal/api"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// maxParamsBytes bounds the transform request body.
const maxParamsBytes = 64 << 10

// paramsSchema describes the transform body. Values are checked by the
// tools themselves so their errors reach the session state.
const paramsSchema = `{
	"type": "object",
	"properties": {
		"ranges": {"type": "string", "maxLength": 4096},
		"angle": {"type": "integer"}
	},
	"additionalProperties": false
}`

var compileParamsSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("params.json", strings.NewReader(paramsSchema)); err != nil {
		return nil, fmt.Errorf("failed to load params schema: %w", err)
	}
	schema, err := compiler.Compile("params.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile params schema: %w", err)
	}
	return schema, nil
})

// decodeParams validates body against the params schema and decodes it.
// An empty body means no parameters.
func decodeParams(body []byte) (tools.Params, error) {
	var params tools.Params
	if len(bytes.TrimSpace(body)) == 0 {
		return params, nil
	}

	schema, err := compileParamsSchema()
	if err != nil {
		return params, err
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return params, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return params, fmt.Errorf("invalid parameters: %w", err)
	}
	if err := json.Unmarshal(body, &params); err != nil {
		return params, fmt.Errorf("invalid parameters: %w", err)
	}
	return params, nil
}

// TransformEndpoint handles POST /api/sessions/{id}/transform.
type TransformEndpoint struct{ sessionGroup }

var _ api.Endpoint = (*TransformEndpoint)(nil)

func (e *TransformEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/sessions/{id}/transform", e.handler
}

func (e *TransformEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Run the session's tool
//	@Description	Returns the artifact as an attachment. Uploads are released whatever the outcome.
//	@Tags			sessions
//	@Accept			json
//	@Produce		application/pdf,application/zip,json
//	@Param			id		path		string			true	"Session ID"
//	@Param			request	body		tools.Params	false	"Operation parameters"
//	@Success		200		{file}		file			"Artifact"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/sessions/{id}/transform [post]
func (e *TransformEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	s, ok := lookupSession(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxParamsBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read body: %v", err))
		return
	}
	if len(body) > maxParamsBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	params, err := decodeParams(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: "invalid_request"})
		return
	}
	if err := s.SetParams(params); err != nil {
		writeSessionError(w, err, s)
		return
	}

	artifact, err := s.Transform(r.Context())
	if err != nil {
		writeSessionError(w, err, s)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

func (e *TransformEndpoint) Command(getServerURL func() string) *cobra.Command {
	var params tools.Params
	var outDir string
	cmd := &cobra.Command{
		Use:   "transform <id>",
		Short: "Run a session's tool and save the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			f, err := client.Download(cmd.Context(), "/api/sessions/"+args[0]+"/transform", params)
			if err != nil {
				return err
			}
			saved, err := api.Save(outDir, f)
			if err != nil {
				return err
			}
			return api.Output(saved)
		},
	}
	cmd.Flags().StringVar(&params.Ranges, "ranges", "", "Page ranges, e.g. \"1-3,5\" (split, extract)")
	cmd.Flags().IntVar(&params.Angle, "angle", tools.DefaultAngle, "Rotation angle: 90, 180 or 270 (rotate)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the result to")
	return cmd
}
