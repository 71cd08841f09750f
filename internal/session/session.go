// Package session holds the conversational state for one dataset: the
// shared store, the cached question suggestions keyed by schema
// fingerprint, the dataset context narrative, and the current query result
// with its derived views. State lives on an explicit Session object so
// multiple sessions (and parallel tests) can coexist.
package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/datachat-labs/datachat/internal/ingest"
	"github.com/datachat-labs/datachat/internal/llm"
	"github.com/datachat-labs/datachat/internal/store"
)

// Generator is the text-generation collaborator surface the session needs.
type Generator interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
	CompleteJSON(ctx context.Context, req llm.Request, out any) error
}

// Session coordinates one conversational tabular query session.
type Session struct {
	id      string
	store   *store.Store
	ingest  *ingest.Coordinator
	gen     Generator
	logger  *slog.Logger
	context string

	questions questionCache
	result    *Result
	askFlight flight
}

// New creates a session over an opened store.
func New(st *store.Store, gen Generator, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		store:  st,
		ingest: ingest.New(st, logger),
		gen:    gen,
		logger: logger.With("session", id),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Store returns the session's relational store.
func (s *Session) Store() *store.Store { return s.store }

// Ingest returns the session's ingestion coordinator.
func (s *Session) Ingest() *ingest.Coordinator { return s.ingest }

// Generator returns the session's text-generation collaborator.
func (s *Session) Generator() Generator { return s.gen }

// SetContext replaces the free-text dataset narrative embedded verbatim in
// query prompts.
func (s *Session) SetContext(text string) { s.context = text }

// Context returns the dataset narrative.
func (s *Session) Context() string { return s.context }

// Upload ingests one artifact into the session store.
func (s *Session) Upload(ctx context.Context, path string) ([]string, error) {
	return s.ingest.Upload(ctx, path)
}

// UploadAll ingests a batch of artifacts.
func (s *Session) UploadAll(ctx context.Context, paths []string) []ingest.UploadResult {
	return s.ingest.UploadAll(ctx, paths)
}

// Schema returns a fresh snapshot of the session store.
func (s *Session) Schema(ctx context.Context) ([]store.Table, error) {
	return s.store.Snapshot(ctx)
}
