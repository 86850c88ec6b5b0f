// Package docservice is the single entry point used by the CLI, HTTP, and
// MCP surfaces. It coordinates the scanner, the transition rules, and the
// folder manager, and turns per-document failures into structured results.
package docservice

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/starford/doclife/internal/apperr"
	"github.com/starford/doclife/internal/folders"
	"github.com/starford/doclife/internal/models"
	"github.com/starford/doclife/internal/scanner"
	"github.com/starford/doclife/internal/telemetry"
)

// TransitionFunc is called after each document transition is applied.
type TransitionFunc func(outcome models.TransitionOutcome)

// Service coordinates scanning and folder operations.
type Service struct {
	scanner *scanner.Scanner
	folders *folders.Manager
	logger  *slog.Logger
	inst    *telemetry.Instruments

	// mu serializes mutating operations within this process.
	mu           sync.Mutex
	onTransition TransitionFunc
}

// NewService creates a new document service.
func NewService(sc *scanner.Scanner, fm *folders.Manager, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		scanner: sc,
		folders: fm,
		logger:  logger,
		inst:    telemetry.NewInstruments(nil, nil),
	}
}

// OnTransition registers a callback invoked after every applied transition.
func (s *Service) OnTransition(fn TransitionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTransition = fn
}

// Scanner returns the underlying scanner.
func (s *Service) Scanner() *scanner.Scanner {
	return s.scanner
}

// ManagedDocuments lists every managed document path.
func (s *Service) ManagedDocuments(_ context.Context) ([]string, error) {
	docs, err := s.scanner.ManagedDocuments()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(docs), nil
}

// Scan evaluates every managed document.
func (s *Service) Scan(ctx context.Context, rng string) (*models.ScanResult, error) {
	ctx, end := s.inst.Start(ctx, "scan", attribute.String("range", rng))
	res, err := s.scanner.Scan(ctx, rng)
	end(err)
	if err != nil {
		return nil, err
	}
	s.inst.RecordScan(ctx, res)
	return res, nil
}

// Completion returns checklist counts for one document. A missing document
// yields a result with zero counts and the error field set.
func (s *Service) Completion(_ context.Context, path string) models.Completion {
	c, err := s.scanner.Completion(path)
	if err != nil {
		c = models.Completion{Path: path, Error: errorText(err)}
	}
	return c
}

// Status returns the detected lifecycle state of one document.
func (s *Service) Status(_ context.Context, path string) models.Status {
	st, err := s.scanner.Status(path)
	if err != nil {
		st = models.Status{Path: path, Error: errorText(err)}
	}
	return st
}

// EnsureFolders creates the lifecycle subfolders under dir.
func (s *Service) EnsureFolders(_ context.Context, dir string) models.FolderResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := models.FolderResult{BaseDir: dir, Created: []string{}}
	created, err := s.folders.EnsureLifecycleFolders(dir)
	res.Created = nonNilSlice(created)
	if err != nil {
		res.Error = errorText(err)
		return res
	}
	if len(created) > 0 {
		s.logger.Info("lifecycle folders created",
			slog.String("base_dir", dir),
			slog.Any("created", created))
	}
	return res
}

// errorText renders err for a structured result, collapsing well-known
// sentinels to their short form.
func errorText(err error) string {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return apperr.ErrNotFound.Error()
	case errors.Is(err, apperr.ErrInvalidDirectory):
		return apperr.ErrInvalidDirectory.Error()
	case errors.Is(err, apperr.ErrInvalidPath):
		return apperr.ErrInvalidPath.Error()
	case errors.Is(err, apperr.ErrEphemeral):
		return apperr.ErrEphemeral.Error()
	default:
		return err.Error()
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
