package docservice

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/starford/doclife/internal/folders"
	"github.com/starford/doclife/internal/models"
)

// Plan reports the transitions Apply would perform without touching disk.
func (s *Service) Plan(ctx context.Context, rng string) (*models.ApplyResult, error) {
	return s.Apply(ctx, rng, true)
}

// Apply rescans and materializes every pending transition: after checking
// that the destination is free, the status header is rewritten, then the
// file moves into its target folder. A failing
// document is recorded and the remaining documents are still processed;
// there is no rollback of documents already transitioned.
func (s *Service) Apply(ctx context.Context, rng string, dryRun bool) (_ *models.ApplyResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := "apply"
	if dryRun {
		op = "plan"
	}
	ctx, end := s.inst.Start(ctx, op, attribute.String("range", rng))
	defer func() { end(err) }()

	res, err := s.scanner.Scan(ctx, rng)
	if err != nil {
		return nil, err
	}
	s.inst.RecordScan(ctx, res)

	out := &models.ApplyResult{
		DryRun:      dryRun,
		CodeChanges: res.CodeChanges,
		Transitions: []models.TransitionOutcome{},
	}
	for _, doc := range res.Documents {
		if !doc.NeedsTransition {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		outcome := models.TransitionOutcome{
			Path:   doc.Path,
			From:   doc.State,
			To:     doc.TargetState,
			Reason: doc.Reason,
		}
		if dryRun {
			outcome.NewPath = folders.TargetPath(doc.Path, doc.TargetState)
			out.Transitions = append(out.Transitions, outcome)
			continue
		}

		outcome = s.transition(outcome)
		s.inst.RecordTransition(ctx, outcome)
		if outcome.Error != "" {
			out.Failed++
		} else {
			out.Applied++
			if s.onTransition != nil {
				s.onTransition(outcome)
			}
		}
		out.Transitions = append(out.Transitions, outcome)
	}
	return out, nil
}

func (s *Service) transition(o models.TransitionOutcome) models.TransitionOutcome {
	if err := s.folders.CheckTarget(o.Path, o.To); err != nil {
		o.Error = err.Error()
		s.logger.Warn("transition: destination occupied",
			slog.String("path", o.Path),
			slog.String("target", string(o.To)),
			slog.String("error", err.Error()))
		return o
	}

	hdr, err := s.folders.UpdateStatusHeader(o.Path, o.To)
	if err != nil {
		o.Error = err.Error()
		s.logger.Warn("transition: header update failed",
			slog.String("path", o.Path),
			slog.String("error", err.Error()))
		return o
	}
	o.HeaderUpdated = hdr.Updated

	mv, err := s.folders.MoveToLifecycleFolder(o.Path, o.To)
	if err != nil {
		o.Error = err.Error()
		s.logger.Warn("transition: move failed",
			slog.String("path", o.Path),
			slog.String("target", string(o.To)),
			slog.String("error", err.Error()))
		return o
	}
	o.Moved = mv.Moved
	o.NewPath = mv.To

	s.logger.Info("transition applied",
		slog.String("path", o.Path),
		slog.String("new_path", o.NewPath),
		slog.String("from", string(o.From)),
		slog.String("to", string(o.To)),
		slog.String("reason", o.Reason))
	return o
}
