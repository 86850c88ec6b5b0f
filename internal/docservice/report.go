package docservice

import (
	"context"

	"github.com/starford/doclife/internal/lifecycle"
	"github.com/starford/doclife/internal/models"
)

// Report wraps a scan with per-state and per-source counts.
func (s *Service) Report(ctx context.Context, rng string) (*models.Report, error) {
	res, err := s.Scan(ctx, rng)
	if err != nil {
		return nil, err
	}
	return BuildReport(res), nil
}

// BuildReport aggregates a scan result. Every state appears in ByState,
// zero-filled, so reports are comparable across runs.
func BuildReport(res *models.ScanResult) *models.Report {
	sum := models.Summary{
		ByState:  make(map[lifecycle.State]int, len(lifecycle.States)),
		BySource: make(map[lifecycle.Source]int),
	}
	for _, st := range lifecycle.States {
		sum.ByState[st] = 0
	}
	for _, d := range res.Documents {
		sum.Total++
		sum.ByState[d.State]++
		sum.BySource[d.Source]++
		if d.NeedsTransition {
			sum.NeedsTransition++
		}
		if d.Error != "" {
			sum.Errors++
		}
	}
	return &models.Report{
		Summary:     sum,
		CodeChanges: res.CodeChanges,
		Documents:   nonNilSlice(res.Documents),
	}
}
