package main

import (
	"fmt"
	"io"
	"os"

	"github.com/matsen/bibref/internal/arxiv"
	"github.com/matsen/bibref/internal/cache"
	"github.com/matsen/bibref/internal/config"
	"github.com/matsen/bibref/internal/crossref"
	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/resolve"
	"github.com/matsen/bibref/internal/vault"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// Remote endpoints, overridden in tests.
var (
	arxivBaseURL    = arxiv.BaseURL
	crossrefBaseURL = crossref.BaseURL
)

// env is the configuration a command runs with. Root is empty when the
// command runs outside a vault.
type env struct {
	Root   string
	Config *config.Config
	Global *config.GlobalConfig
}

// loadEnv finds the vault, if any, and loads both config layers.
// With requireVault set, a missing vault is an error.
func loadEnv(requireVault bool) (*env, error) {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}

	e := &env{Global: global, Config: config.Default()}

	root, err := findVault()
	if err != nil {
		if requireVault {
			return nil, err
		}
		return e, nil
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	e.Root, e.Config = root, cfg
	return e, nil
}

func findVault() (string, error) {
	if vaultFlag != "" {
		root := config.ExpandPath(vaultFlag)
		if !config.IsVault(root) {
			return "", fmt.Errorf("%w: %s", config.ErrNotVault, root)
		}
		return root, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	return config.ResolveVault(cwd)
}

// exportOptions maps vault config onto formatter options.
func (e *env) exportOptions() export.Options {
	return export.Options{
		CrossRef:        e.Config.CrossrefLinking,
		MonthNames:      e.Config.MonthNames,
		IncludeAbstract: e.Config.IncludeAbstract,
		KeyPattern:      e.Config.CiteKeyPattern,
	}
}

// newResolver wires both remote sources and, inside a vault, the lookup
// cache. The returned cleanup closes the cache.
func (e *env) newResolver(extra ...resolve.Option) (*resolve.Resolver, func(), error) {
	arxivOpts := []arxiv.ClientOption{arxiv.WithBaseURL(arxivBaseURL), arxiv.WithLogger(logger.Named("arxiv"))}
	crossrefOpts := []crossref.ClientOption{
		crossref.WithBaseURL(crossrefBaseURL),
		crossref.WithMailto(e.Global.Mailto),
		crossref.WithLogger(logger.Named("crossref")),
	}
	if ua := e.Global.UserAgent; ua != "" {
		arxivOpts = append(arxivOpts, arxiv.WithUserAgent(ua))
		crossrefOpts = append(crossrefOpts, crossref.WithUserAgent(ua))
	}

	opts := []resolve.Option{
		resolve.WithLogger(logger.Named("resolve")),
		resolve.WithKeyPattern(e.Config.CiteKeyPattern),
	}
	opts = append(opts, extra...)

	cleanup := func() {}
	if e.Root != "" {
		store, err := e.openCache()
		if err != nil {
			return nil, nil, err
		}
		if store != nil {
			opts = append(opts, resolve.WithCache(store))
			cleanup = func() { store.Close() }
		}
	}

	r := resolve.New(
		resolve.ArXivSource{Client: arxiv.NewClient(arxivOpts...)},
		resolve.CrossrefSource{Client: crossref.NewClient(crossrefOpts...)},
		opts...,
	)
	return r, cleanup, nil
}

// openCache opens the vault lookup cache. It returns nil when cache_ttl
// is 0.
func (e *env) openCache() (*cache.Store, error) {
	ttl, err := e.Global.CacheTTLDuration()
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	if ttl == 0 {
		logger.Debug("lookup cache disabled")
		return nil, nil
	}
	store, err := cache.Open(config.LookupsPath(e.Root), ttl)
	if err != nil {
		return nil, err
	}
	logger.Debug("lookup cache opened", zap.String("path", config.LookupsPath(e.Root)))
	return store, nil
}

// newVault returns the notes writer for this vault.
func (e *env) newVault() (*vault.Vault, error) {
	v, err := vault.New(e.Root, e.Config.NotesFolder, e.Config.NoteTemplate)
	if err != nil {
		return nil, withCode(ExitConfigError, err)
	}
	return v, nil
}

// isTerminal reports whether both streams are attached to a terminal.
func isTerminal(in io.Reader, out io.Writer) bool {
	return isTTY(in) && isTTY(out)
}

func isTTY(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
