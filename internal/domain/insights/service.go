package insights

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/chirohq/chiro/pkg/clock"
)

type Service struct {
	insights  InsightRepository
	runs      RunRepository
	analyzers []Analyzer
	clk       clock.Clock
}

func NewService(insights InsightRepository, runs RunRepository, clk clock.Clock, analyzers ...Analyzer) *Service {
	return &Service{insights: insights, runs: runs, analyzers: analyzers, clk: clk}
}

// RunAll invokes every registered analyzer. One analyzer failing is
// recorded on its run row and does not stop the others.
func (s *Service) RunAll(ctx context.Context) ([]*Run, error) {
	var out []*Run
	for _, a := range s.analyzers {
		run := s.runOne(ctx, a)
		if err := s.runs.Create(ctx, run); err != nil {
			return out, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (s *Service) runOne(ctx context.Context, a Analyzer) *Run {
	run := &Run{Analyzer: a.Name(), StartedAt: s.clk.Now()}

	findings, err := a.Analyze(ctx)
	if err != nil {
		msg := err.Error()
		run.Status = RunFailed
		run.Error = &msg
		run.FinishedAt = s.clk.Now()
		log.Warn().Str("analyzer", a.Name()).Err(err).Msg("analyzer failed")
		return run
	}

	for i := range findings {
		findings[i].Analyzer = a.Name()
		if err := s.insights.Create(ctx, &findings[i]); err != nil {
			msg := err.Error()
			run.Status = RunFailed
			run.Error = &msg
			run.FinishedAt = s.clk.Now()
			return run
		}
		run.InsightCount++
	}
	run.Status = RunSucceeded
	run.FinishedAt = s.clk.Now()
	return run
}

func (s *Service) ListInsights(ctx context.Context, kind string, limit, offset int) ([]*Insight, int, error) {
	return s.insights.List(ctx, kind, limit, offset)
}

func (s *Service) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]*Insight, error) {
	return s.insights.ListBySubject(ctx, subjectID)
}

func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]*Run, int, error) {
	return s.runs.List(ctx, limit, offset)
}
