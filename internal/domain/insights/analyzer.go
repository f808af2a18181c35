package insights

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chirohq/chiro/pkg/clock"
)

// Analyzer is a black-box insight producer. Implementations read whatever
// data they need and return findings; the orchestrator persists them.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context) ([]Insight, error)
}

// ProviderNoShowRate is a provider's appointment outcome tally over a window.
type ProviderNoShowRate struct {
	ProviderID uuid.UUID
	Total      int
	NoShows    int
}

type NoShowStatsReader interface {
	ProviderNoShowRates(ctx context.Context, since time.Time) ([]ProviderNoShowRate, error)
}

// noShowWindow is how far back the anomaly analyzer looks.
const noShowWindow = 90 * 24 * time.Hour

// minSampleSize keeps providers with a handful of appointments from being
// flagged on noise.
const minSampleSize = 10

type noShowAnalyzer struct {
	stats NoShowStatsReader
	clk   clock.Clock
}

// NewNoShowAnalyzer flags providers whose no-show rate runs at least twice
// the practice average.
func NewNoShowAnalyzer(stats NoShowStatsReader, clk clock.Clock) Analyzer {
	return &noShowAnalyzer{stats: stats, clk: clk}
}

func (a *noShowAnalyzer) Name() string { return "no_show_anomaly" }

func (a *noShowAnalyzer) Analyze(ctx context.Context) ([]Insight, error) {
	rates, err := a.stats.ProviderNoShowRates(ctx, a.clk.Now().Add(-noShowWindow))
	if err != nil {
		return nil, err
	}

	// The sample floor applies to the baseline too: a provider too small to
	// flag is too small to skew the practice average.
	var totalAppts, totalNoShows int
	for _, r := range rates {
		if r.Total < minSampleSize {
			continue
		}
		totalAppts += r.Total
		totalNoShows += r.NoShows
	}
	if totalAppts == 0 {
		return nil, nil
	}
	avg := float64(totalNoShows) / float64(totalAppts)

	var out []Insight
	for _, r := range rates {
		if r.Total < minSampleSize {
			continue
		}
		rate := float64(r.NoShows) / float64(r.Total)
		if avg > 0 && rate >= 2*avg {
			providerID := r.ProviderID
			out = append(out, Insight{
				Kind:      "no_show_anomaly",
				SubjectID: &providerID,
				Score:     rate,
				Summary: fmt.Sprintf("no-show rate %.0f%% vs practice average %.0f%% over the last 90 days",
					rate*100, avg*100),
			})
		}
	}
	return out, nil
}

// PatientLastVisit is a returning patient's most recent visit.
type PatientLastVisit struct {
	PatientID  uuid.UUID
	LastVisit  time.Time
	VisitCount int
}

type VisitRecencyReader interface {
	// PatientLastVisits returns last-visit info for patients with at least
	// minVisits completed appointments.
	PatientLastVisits(ctx context.Context, minVisits int) ([]PatientLastVisit, error)
}

const (
	churnMinVisits   = 3
	churnQuietPeriod = 60 * 24 * time.Hour
)

type churnAnalyzer struct {
	visits VisitRecencyReader
	clk    clock.Clock
}

// NewChurnAnalyzer flags established patients who have gone quiet. The
// score grows with the gap beyond the 60-day threshold, capped at 1.
func NewChurnAnalyzer(visits VisitRecencyReader, clk clock.Clock) Analyzer {
	return &churnAnalyzer{visits: visits, clk: clk}
}

func (a *churnAnalyzer) Name() string { return "churn_risk" }

func (a *churnAnalyzer) Analyze(ctx context.Context) ([]Insight, error) {
	patients, err := a.visits.PatientLastVisits(ctx, churnMinVisits)
	if err != nil {
		return nil, err
	}

	now := a.clk.Now()
	var out []Insight
	for _, p := range patients {
		gap := now.Sub(p.LastVisit)
		if gap < churnQuietPeriod {
			continue
		}
		score := float64(gap-churnQuietPeriod) / float64(churnQuietPeriod)
		if score > 1 {
			score = 1
		}
		patientID := p.PatientID
		out = append(out, Insight{
			Kind:      "churn_risk",
			SubjectID: &patientID,
			Score:     score,
			Summary: fmt.Sprintf("no visit in %d days after %d prior visits",
				int(gap.Hours()/24), p.VisitCount),
		})
	}
	return out, nil
}
