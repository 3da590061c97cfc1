package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matsen/bibref/internal/arxiv"
	"github.com/matsen/bibref/internal/config"
	"github.com/matsen/bibref/internal/crossref"
	"github.com/matsen/bibref/internal/export"
	"github.com/matsen/bibref/internal/ident"
	"github.com/matsen/bibref/internal/picker"
	"github.com/matsen/bibref/internal/resolve"
	"github.com/matsen/bibref/internal/vault"
)

// Title truncation lengths by context
const (
	CandidateTitleMaxLen = 100 // lookup --human
	SearchTitleMaxLen    = 60 // search --human
)

// errDuplicate is returned by add when the reference is already in the library.
var errDuplicate = errors.New("reference already in library")

// exitError carries an explicit exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// withCode attaches an exit code to err.
func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, config.ErrNotVault), errors.Is(err, config.ErrUnknownKey):
		return ExitConfigError
	case errors.Is(err, picker.ErrCancelled):
		return ExitCancelled
	case resolve.IsNotFound(err):
		return ExitNotFound
	case resolve.IsRateLimited(err), isRemoteError(err):
		return ExitNetworkError
	case errors.Is(err, ident.ErrEmptyQuery),
		errors.Is(err, picker.ErrAmbiguous), errors.Is(err, picker.ErrOutOfRange), errors.Is(err, picker.ErrEmpty),
		errors.Is(err, vault.ErrNoteExists), errors.Is(err, vault.ErrNoteNotFound),
		errors.Is(err, export.ErrMalformedEntry), errors.Is(err, errDuplicate):
		return ExitDataError
	}
	return ExitError
}

// isRemoteError reports failures talking to arXiv or Crossref.
func isRemoteError(err error) bool {
	var (
		arxivErr    *arxiv.APIError
		crossrefErr *crossref.APIError
	)
	return errors.As(err, &arxivErr) || errors.As(err, &crossrefErr) ||
		errors.Is(err, arxiv.ErrNetworkError) || errors.Is(err, crossref.ErrNetworkError) ||
		errors.Is(err, arxiv.ErrInvalidResponse) || errors.Is(err, crossref.ErrInvalidResponse)
}

// errorCode is the machine-readable code in JSON error bodies.
func errorCode(err error) string {
	switch exitCodeFor(err) {
	case ExitConfigError:
		return "config_error"
	case ExitDataError:
		return "data_error"
	case ExitNotFound:
		return "not_found"
	case ExitNetworkError:
		if resolve.IsRateLimited(err) {
			return "rate_limited"
		}
		return "api_error"
	case ExitCancelled:
		return "cancelled"
	}
	return "error"
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// writeError reports err in the appropriate format (human or JSON).
// JSON errors go to stdout so scripts read one stream.
func writeError(stderr, stdout io.Writer, err error) {
	if humanOutput {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, config.ErrNotVault) {
			fmt.Fprintf(stderr, "\n%s\n", config.HelpfulConfigMessage())
		}
		return
	}
	outputJSON(stdout, ErrorResponse{Error: err.Error(), Code: errorCode(err)})
}

// outputJSON writes a value as formatted JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncateString truncates a string to maxLen runes, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// joinQuery turns command arguments into one query.
func joinQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
