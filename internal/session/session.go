// Package session drives the upload → validate → transform → cleanup
// lifecycle shared by every tool. One Session serves one tool; the tool
// supplies preconditions and the transform, the session owns state and the
// transient files.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wallsified/pdf-o-matico/internal/pdf"
	"github.com/wallsified/pdf-o-matico/internal/store"
	"github.com/wallsified/pdf-o-matico/internal/tools"
)

// ErrBusy is returned when an operation starts while a transform is running.
var ErrBusy = errors.New("session is processing")

// Store is the transient storage a session persists uploads to.
type Store interface {
	Put(sessionID, name string, data []byte) (*store.Entry, error)
	Read(e *store.Entry) ([]byte, error)
	Release(e *store.Entry) error
	Purge(sessionID string) error
}

// File is one uploaded file as received from the client.
type File struct {
	Name   string
	Reader io.Reader
}

// upload is a persisted, validated document.
type upload struct {
	entry *store.Entry
	pages int
}

// State is a snapshot of a session for clients.
type State struct {
	ID         string       `json:"id" yaml:"id"`
	Tool       string       `json:"tool" yaml:"tool"`
	Processing bool         `json:"processing" yaml:"processing"`
	Processed  bool         `json:"processed" yaml:"processed"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind  string       `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Params     tools.Params `json:"params" yaml:"params"`
	Files      []string     `json:"files" yaml:"files"`
	TotalPages int          `json:"total_pages,omitempty" yaml:"total_pages,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at" yaml:"updated_at"`
}

// Config configures a Session.
type Config struct {
	ID     string
	Tool   tools.Tool
	Engine pdf.Engine
	Store  Store
	Logger *slog.Logger

	// Now overrides the clock (tests)
	Now func() time.Time
}

// Session is the lifecycle state for one tool.
type Session struct {
	id     string
	tool   tools.Tool
	multi  bool
	engine pdf.Engine
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	closed     bool
	processing bool
	processed  bool
	err        error
	params     tools.Params
	uploads    []*upload
	updatedAt  time.Time
}

// New creates an idle session.
func New(cfg Config) (*Session, error) {
	if cfg.ID == "" {
		return nil, errors.New("session id is required")
	}
	if cfg.Tool == nil {
		return nil, errors.New("tool is required")
	}
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	info := cfg.Tool.Info()
	return &Session{
		id:        cfg.ID,
		tool:      cfg.Tool,
		multi:     info.Multi,
		engine:    cfg.Engine,
		store:     cfg.Store,
		logger:    logger.With("session", cfg.ID, "tool", info.Name),
		now:       now,
		updatedAt: now(),
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Tool returns the tool this session drives.
func (s *Session) Tool() tools.Tool { return s.tool }

// SetParams replaces the operation parameters used by the next transform.
// The parameters of a running transform cannot be changed.
func (s *Session) SetParams(params tools.Params) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.closedErr()
	}
	if s.processing {
		return ErrBusy
	}
	s.params = params
	s.updatedAt = s.now()
	return nil
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:         s.id,
		Tool:       tools.Name(s.tool),
		Processing: s.processing,
		Processed:  s.processed,
		Params:     s.params,
		Files:      make([]string, 0, len(s.uploads)),
		UpdatedAt:  s.updatedAt,
	}
	if s.err != nil {
		st.Error = s.err.Error()
		st.ErrorKind = tools.KindOf(s.err)
	}
	for _, u := range s.uploads {
		st.Files = append(st.Files, u.entry.Name)
	}
	if !s.multi && len(s.uploads) == 1 {
		st.TotalPages = s.uploads[0].pages
	}
	return st
}

// Upload validates and persists files. Error and processed flags are
// cleared first, even when the upload then fails. Any invalid file rejects
// the whole batch and nothing from it is kept. A failed upload to a
// single-file tool also drops the file accepted before it; merge keeps
// earlier batches.
func (s *Session) Upload(ctx context.Context, files []File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.closedErr()
	}
	if s.processing {
		return ErrBusy
	}
	s.err = nil
	s.processed = false
	s.updatedAt = s.now()

	err := s.upload(ctx, files)
	if err != nil {
		s.err = err
		s.logger.Warn("upload failed", "error", err)
	}
	return err
}

type validated struct {
	name  string
	data  []byte
	pages int
}

func (s *Session) upload(ctx context.Context, files []File) (err error) {
	if len(files) == 0 {
		return tools.Errorf(tools.ErrNoFileSelected, "No file was selected.")
	}
	if !s.multi {
		defer func() {
			if err != nil {
				s.release(s.uploads)
				s.uploads = nil
			}
		}()
	}
	if !s.multi && len(files) > 1 {
		s.logger.Debug("single-file tool received several files, keeping the first", "count", len(files))
		files = files[:1]
	}

	batch := make([]validated, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := s.validate(f)
		if err != nil {
			return err
		}
		batch = append(batch, v)
	}

	written := make([]*upload, 0, len(batch))
	for _, v := range batch {
		entry, err := s.store.Put(s.id, v.name, v.data)
		if err != nil {
			s.release(written)
			return tools.Wrap(tools.ErrProcessing, err, "An error occurred while saving the upload")
		}
		written = append(written, &upload{entry: entry, pages: v.pages})
	}

	if s.multi {
		s.uploads = append(s.uploads, written...)
	} else {
		// A replaced upload under the same name was already overwritten on disk.
		var stale []*upload
		for _, u := range s.uploads {
			if u.entry.Path != written[0].entry.Path {
				stale = append(stale, u)
			}
		}
		s.release(stale)
		s.uploads = written
	}

	for _, u := range written {
		s.logger.Info("upload accepted", "file", u.entry.Name, "pages", u.pages)
	}
	return nil
}

func (s *Session) validate(f File) (validated, error) {
	if f.Reader == nil {
		return validated{}, tools.Errorf(tools.ErrNoFileSelected, "No file was selected.")
	}
	data, err := io.ReadAll(f.Reader)
	if err != nil {
		return validated{}, tools.Wrap(tools.ErrProcessing, err, "An error occurred while reading the upload")
	}

	doc, err := s.engine.Read(data)
	if err != nil {
		msg := "Invalid file type. Please upload a valid PDF file."
		if errors.Is(err, pdf.ErrEmptyDocument) {
			msg = "The provided PDF is empty or corrupted."
		}
		if s.multi {
			msg = fmt.Sprintf("Invalid file %s. Please upload valid PDF files.", f.Name)
		}
		return validated{}, &tools.Error{Kind: tools.ErrInvalidPDF, Msg: msg, Err: err}
	}
	return validated{name: f.Name, data: data, pages: doc.PageCount()}, nil
}

// Transform runs the tool over the uploaded documents. Whatever the
// outcome, the uploads are released afterwards and must be uploaded again
// for another attempt.
func (s *Session) Transform(ctx context.Context) (*tools.Artifact, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, s.closedErr()
	}
	if s.processing {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.err = nil
	s.processed = false
	s.processing = true
	s.updatedAt = s.now()
	uploads := s.uploads
	s.uploads = nil
	params := s.params
	s.mu.Unlock()

	defer func() {
		s.release(uploads)
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		// Close during the transform leaves the purge to us.
		if closed {
			if err := s.store.Purge(s.id); err != nil {
				s.logger.Error("failed to purge closed session", "error", err)
			}
		}
	}()

	start := time.Now()
	artifact, err := s.transform(ctx, uploads, params)

	s.mu.Lock()
	s.processing = false
	s.err = err
	s.processed = err == nil
	s.updatedAt = s.now()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("transform failed", "error", err, "kind", tools.KindOf(err))
		return nil, err
	}
	s.logger.Info("transform complete",
		"artifact", artifact.Name,
		"bytes", len(artifact.Data),
		"duration", time.Since(start))
	return artifact, nil
}

func (s *Session) transform(ctx context.Context, uploads []*upload, params tools.Params) (*tools.Artifact, error) {
	if err := s.tool.Check(params, len(uploads)); err != nil {
		return nil, err
	}

	inputs := make([]tools.Input, 0, len(uploads))
	for _, u := range uploads {
		data, err := s.store.Read(u.entry)
		if err != nil {
			return nil, tools.Wrap(tools.ErrProcessing, err, "An error occurred while loading the upload")
		}
		doc, err := s.engine.Read(data)
		if err != nil {
			return nil, tools.Wrap(tools.ErrProcessing, err, "An error occurred while loading the upload")
		}
		inputs = append(inputs, tools.Input{Name: u.entry.Name, Doc: doc})
	}

	artifact, err := s.tool.Run(ctx, s.engine, inputs, params)
	if err != nil {
		var te *tools.Error
		if !errors.As(err, &te) {
			err = tools.Wrap(tools.ErrProcessing, err, "An error occurred during processing")
		}
		return nil, err
	}
	return artifact, nil
}

func (s *Session) release(uploads []*upload) {
	for _, u := range uploads {
		if err := s.store.Release(u.entry); err != nil {
			s.logger.Error("failed to release upload", "file", u.entry.Name, "error", err)
		}
	}
}

// Close releases every upload the session still holds and removes its
// transient files. Later calls on the session fail with ErrNotFound. A
// running transform keeps its files until it finishes.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	if s.processing {
		s.mu.Unlock()
		return nil
	}
	uploads := s.uploads
	s.uploads = nil
	s.mu.Unlock()

	s.release(uploads)
	return s.store.Purge(s.id)
}

// retire closes the session to new work if it is not running and has been
// untouched since before cutoff. It reports whether it did.
func (s *Session) retire(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.processing || !s.updatedAt.Before(cutoff) {
		return false
	}
	s.closed = true
	return true
}

func (s *Session) closedErr() error {
	return fmt.Errorf("%w: %s", ErrNotFound, s.id)
}
