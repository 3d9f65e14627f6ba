package domain

import "time"

const (
	DefaultHistoryDepth = 6
	SnapshotLabelLayout = "15:04"
)

type Ranking struct {
	Rank   int
	Volume float64
}

// Snapshot is an immutable capture of per-symbol rank and volume.
type Snapshot struct {
	Label      string
	CapturedAt time.Time
	Rankings   map[string]Ranking
}

// NewSnapshot ranks records in the order given; at should already be in the
// location the label is meant for.
func NewSnapshot(res FetchResult, at time.Time) Snapshot {
	rankings := make(map[string]Ranking, len(res.Records))
	rank := 0
	for _, t := range res.Records {
		if _, dup := rankings[t.Symbol]; dup {
			continue
		}
		rank++
		rankings[t.Symbol] = Ranking{Rank: rank, Volume: t.QuoteVolume}
	}
	return Snapshot{
		Label:      at.Truncate(time.Minute).Format(SnapshotLabelLayout),
		CapturedAt: at,
		Rankings:   rankings,
	}
}
