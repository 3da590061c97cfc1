// Package resolve turns user queries into candidate references by dispatching
// identifiers to the matching metadata source and fanning free-text searches
// out to every source.
package resolve

import (
	"context"

	"github.com/matsen/bibref/internal/arxiv"
	"github.com/matsen/bibref/internal/crossref"
	"github.com/matsen/bibref/internal/ident"
	"github.com/matsen/bibref/internal/reference"
)

// Source is a remote metadata provider.
type Source interface {
	// Name identifies the source in candidate lists and cache rows.
	Name() string
	// Lookup fetches the record for an identifier.
	Lookup(ctx context.Context, id ident.Identifier) (reference.Reference, error)
	// Search runs a free-text query and returns ranked candidates.
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// ArXivSource adapts the arXiv client to Source.
type ArXivSource struct {
	Client *arxiv.Client
}

func (s ArXivSource) Name() string { return reference.SourceArXiv }

func (s ArXivSource) Lookup(ctx context.Context, id ident.Identifier) (reference.Reference, error) {
	entry, err := s.Client.GetPaper(ctx, id.Value+id.Version)
	if err != nil {
		return reference.Reference{}, err
	}
	return arxiv.MapToReference(*entry), nil
}

func (s ArXivSource) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	entries, err := s.Client.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	cands := make([]Candidate, len(entries))
	for i, e := range entries {
		cands[i] = Candidate{
			Reference: arxiv.MapToReference(e),
			Source:    s.Name(),
			Score:     rankScore(i, len(entries)),
		}
	}
	return cands, nil
}

// CrossrefSource adapts the Crossref client to Source.
type CrossrefSource struct {
	Client *crossref.Client
}

func (s CrossrefSource) Name() string { return reference.SourceCrossref }

func (s CrossrefSource) Lookup(ctx context.Context, id ident.Identifier) (reference.Reference, error) {
	work, err := s.Client.GetWork(ctx, id.Value)
	if err != nil {
		return reference.Reference{}, err
	}
	return crossref.MapToReference(*work), nil
}

func (s CrossrefSource) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	works, err := s.Client.SearchWorks(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	cands := make([]Candidate, len(works))
	for i, w := range works {
		score := w.Score
		if score == 0 {
			score = rankScore(i, len(works))
		}
		cands[i] = Candidate{
			Reference: crossref.MapToReference(w),
			Source:    s.Name(),
			Score:     score,
		}
	}
	return cands, nil
}

// rankScore gives rank-ordered results a descending score in (0, 1].
func rankScore(i, n int) float64 {
	return float64(n-i) / float64(n)
}
