package resolve

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/matsen/bibref/internal/arxiv"
	"github.com/matsen/bibref/internal/crossref"
	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/ident"
	"github.com/matsen/bibref/internal/reference"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultSearchLimit is the per-source result count for free-text queries.
	DefaultSearchLimit = 5

	// DefaultConcurrency bounds parallel lookups in ResolveAll.
	DefaultConcurrency = 4
)

// ErrNoCandidates is returned when a search succeeds but matches nothing.
var ErrNoCandidates = errors.New("no matching references")

// Cache is a persistent store of identifier lookups.
type Cache interface {
	Get(key string) (reference.Reference, string, bool, error)
	Put(key, source string, ref reference.Reference) error
}

// Resolver dispatches queries to sources and remembers the last result.
type Resolver struct {
	arxiv       Source
	crossref    Source
	cache       Cache
	logger      *zap.Logger
	searchLimit int
	concurrency int
	keyPattern  string

	mu         sync.Mutex
	lastQuery  string
	lastResult []Candidate
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache enables the persistent lookup cache.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSearchLimit sets the per-source result count for free-text queries.
func WithSearchLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.searchLimit = n
		}
	}
}

// WithConcurrency bounds the number of parallel lookups in ResolveAll.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithKeyPattern sets the cite key pattern assigned to candidates.
func WithKeyPattern(p string) Option {
	return func(r *Resolver) {
		r.keyPattern = p
	}
}

// New creates a Resolver. arXiv identifiers go to arxivSrc, DOIs to
// crossrefSrc, and free text to both.
func New(arxivSrc, crossrefSrc Source, opts ...Option) *Resolver {
	r := &Resolver{
		arxiv:       arxivSrc,
		crossref:    crossrefSrc,
		logger:      zap.NewNop(),
		searchLimit: DefaultSearchLimit,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve classifies query and returns its candidates. Resolving the same
// query twice in a row returns the remembered result without a network call.
func (r *Resolver) Resolve(ctx context.Context, query string) ([]Candidate, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, ident.ErrEmptyQuery
	}

	if cands, ok := r.recall(trimmed); ok {
		r.logger.Debug("last query reused", zap.String("query", trimmed))
		return cands, nil
	}

	id, err := ident.Classify(trimmed)
	if err != nil {
		return nil, err
	}

	var cands []Candidate
	if id.IsIdentifier() {
		c, err := r.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		cands = []Candidate{c}
	} else {
		cands, err = r.search(ctx, id.Value)
		if err != nil {
			return nil, err
		}
	}

	assignKeys(cands, r.keyPattern, nil)
	r.remember(trimmed, cands)
	return cloneCandidates(cands), nil
}

// Result is the outcome of one query in a batch.
type Result struct {
	Query     string     `json:"query"`
	Candidate *Candidate `json:"candidate,omitempty"`
	Err       error      `json:"-"`
}

// ResolveAll resolves many queries with bounded concurrency. Results keep
// the input order; each carries the best candidate or its own error. Cite
// keys are unique across the batch.
func (r *Resolver) ResolveAll(ctx context.Context, queries []string) ([]Result, error) {
	results := make([]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, q := range queries {
		results[i].Query = q
		g.Go(func() error {
			c, err := r.resolveOne(gctx, q)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Candidate = &c
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	taken := make(map[string]bool)
	for i := range results {
		if results[i].Candidate == nil {
			continue
		}
		one := []Candidate{*results[i].Candidate}
		assignKeys(one, r.keyPattern, taken)
		results[i].Candidate = &one[0]
	}
	return results, nil
}

// resolveOne returns the best candidate for a query without touching the
// last-query memo.
func (r *Resolver) resolveOne(ctx context.Context, query string) (Candidate, error) {
	id, err := ident.Classify(query)
	if err != nil {
		return Candidate{}, err
	}
	if id.IsIdentifier() {
		return r.lookup(ctx, id)
	}
	cands, err := r.search(ctx, id.Value)
	if err != nil {
		return Candidate{}, err
	}
	return cands[0], nil
}

// lookup fetches an identifier from the cache or its source.
func (r *Resolver) lookup(ctx context.Context, id ident.Identifier) (Candidate, error) {
	src := r.sourceFor(id.Kind)
	if src == nil {
		return Candidate{}, fmt.Errorf("no source configured for %s identifiers", id.Kind)
	}

	key := id.Key() + id.Version
	if r.cache != nil {
		ref, source, ok, err := r.cache.Get(key)
		if err != nil {
			r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			r.logger.Debug("cache hit", zap.String("key", key))
			return Candidate{Reference: ref, Source: source, Score: 1}, nil
		}
	}

	ref, err := src.Lookup(ctx, id)
	if err != nil {
		return Candidate{}, fmt.Errorf("%s lookup %s: %w", src.Name(), id, err)
	}

	if r.cache != nil {
		if err := r.cache.Put(key, src.Name(), ref); err != nil {
			r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return Candidate{Reference: ref, Source: src.Name(), Score: 1}, nil
}

func (r *Resolver) sourceFor(kind ident.Kind) Source {
	switch kind {
	case ident.KindArXiv:
		return r.arxiv
	case ident.KindDOI:
		return r.crossref
	}
	return nil
}

// search queries every source concurrently and interleaves the ranked
// results. A failing source is logged and skipped unless every source fails.
func (r *Resolver) search(ctx context.Context, query string) ([]Candidate, error) {
	var sources []Source
	for _, s := range []Source{r.arxiv, r.crossref} {
		if s != nil {
			sources = append(sources, s)
		}
	}
	if len(sources) == 0 {
		return nil, errors.New("no sources configured")
	}

	lists := make([][]Candidate, len(sources))
	errs := make([]error, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			lists[i], errs[i] = src.Search(ctx, query, r.searchLimit)
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		err = fmt.Errorf("%s search: %w", sources[i].Name(), err)
		if firstErr == nil {
			firstErr = err
		}
		r.logger.Warn("source search failed", zap.String("source", sources[i].Name()), zap.Error(err))
	}
	if failed == len(sources) {
		return nil, firstErr
	}

	cands := interleave(lists)
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoCandidates, query)
	}
	return cands, nil
}

// interleave merges ranked lists round-robin: first of each, then second of each.
func interleave(lists [][]Candidate) []Candidate {
	var out []Candidate
	for rank := 0; ; rank++ {
		added := false
		for _, l := range lists {
			if rank < len(l) {
				out = append(out, l[rank])
				added = true
			}
		}
		if !added {
			return out
		}
	}
}

// assignKeys gives every candidate a cite key unique within taken (or
// within the list when taken is nil).
func assignKeys(cands []Candidate, pattern string, taken map[string]bool) {
	if taken == nil {
		taken = make(map[string]bool)
	}
	for i := range cands {
		base := cands[i].Reference.ID
		if base == "" {
			base = export.CiteKey(cands[i].Reference, pattern)
		}
		key := export.GenerateUniqueKey(taken, base)
		taken[key] = true
		cands[i].Reference.ID = key
	}
}

func (r *Resolver) recall(query string) ([]Candidate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastResult == nil || r.lastQuery != query {
		return nil, false
	}
	return cloneCandidates(r.lastResult), true
}

func (r *Resolver) remember(query string, cands []Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = query
	r.lastResult = cloneCandidates(cands)
}

// Forget clears the remembered last query.
func (r *Resolver) Forget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = ""
	r.lastResult = nil
}

// cloneCandidates copies cands deeply enough that edits to the result never
// reach the memo.
func cloneCandidates(cands []Candidate) []Candidate {
	out := make([]Candidate, len(cands))
	for i, c := range cands {
		c.Reference.Authors = slices.Clone(c.Reference.Authors)
		c.Reference.Keywords = slices.Clone(c.Reference.Keywords)
		out[i] = c
	}
	return out
}

// IsNotFound reports whether err means the query matched nothing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoCandidates) || arxiv.IsNotFound(err) || crossref.IsNotFound(err)
}

// IsRateLimited reports whether err came from a rate-limited source.
func IsRateLimited(err error) bool {
	return arxiv.IsRateLimited(err) || crossref.IsRateLimited(err)
}
