// Package storage persists the vault's reference library as JSONL, with a
// rebuildable SQLite search index alongside it.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/bibref/internal/ident"
	"github.com/matsen/bibref/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAll reads all references from a JSONL file.
func ReadAll(path string) ([]reference.Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Missing file is an empty library
		}
		return nil, fmt.Errorf("opening refs file: %w", err)
	}
	defer f.Close()

	var refs []reference.Reference
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var ref reference.Reference
		if err := json.Unmarshal(line, &ref); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		refs = append(refs, ref)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading refs file: %w", err)
	}

	return refs, nil
}

// Append adds a reference to the end of a JSONL file.
func Append(path string, ref reference.Reference) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening refs file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encoding reference: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing reference: %w", err)
	}

	return nil
}

// WriteAll writes all references to a JSONL file, replacing existing content.
// The file is written to a sibling temp file first and renamed into place.
func WriteAll(path string, refs []reference.Reference) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating refs file: %w", err)
	}

	w := bufio.NewWriter(f)
	for i, ref := range refs {
		data, err := json.Marshal(ref)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("encoding reference %d: %w", i, err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing refs file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing refs file: %w", err)
	}

	return os.Rename(tmp, path)
}

// FindByDOI searches for a reference by DOI, ignoring case and URL prefixes.
func FindByDOI(refs []reference.Reference, doi string) (int, bool) {
	doi = ident.NormalizeDOI(doi)
	if doi == "" {
		return -1, false
	}
	for i, ref := range refs {
		if ref.DOI != "" && ident.NormalizeDOI(ref.DOI) == doi {
			return i, true
		}
	}
	return -1, false
}

// FindByArXivID searches for a reference by arXiv id (without version).
func FindByArXivID(refs []reference.Reference, arxivID string) (int, bool) {
	if arxivID == "" {
		return -1, false
	}
	for i, ref := range refs {
		if strings.EqualFold(ref.ArXivID, arxivID) {
			return i, true
		}
	}
	return -1, false
}

// FindByID searches for a reference by ID.
func FindByID(refs []reference.Reference, id string) (int, bool) {
	for i, ref := range refs {
		if ref.ID == id {
			return i, true
		}
	}
	return -1, false
}

// FindDuplicate returns the index of a library entry describing the same
// work as ref: same DOI first, then same arXiv id.
func FindDuplicate(refs []reference.Reference, ref reference.Reference) (int, bool) {
	if i, ok := FindByDOI(refs, ref.DOI); ok {
		return i, true
	}
	return FindByArXivID(refs, ref.ArXivID)
}

// GenerateUniqueID returns an ID that doesn't conflict with existing references.
// If the base ID exists, appends -2, -3, etc.
func GenerateUniqueID(refs []reference.Reference, baseID string) string {
	if _, found := FindByID(refs, baseID); !found {
		return baseID
	}

	// Start at 2: baseID is taken, so first duplicate becomes baseID-2
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", baseID, i)
		if _, found := FindByID(refs, candidate); !found {
			return candidate
		}
	}
}

// IDs returns the set of citation keys in use.
func IDs(refs []reference.Reference) map[string]bool {
	ids := make(map[string]bool, len(refs))
	for _, ref := range refs {
		ids[ref.ID] = true
	}
	return ids
}
