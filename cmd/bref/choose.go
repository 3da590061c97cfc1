package main

import (
	"context"

	"github.com/matsen/bibref/internal/picker"
	"github.com/matsen/bibref/internal/resolve"
	"github.com/spf13/cobra"
)

// resolveOne resolves query and narrows the candidates to one, using the
// --pick value or the interactive picker drawn on stderr.
func resolveOne(ctx context.Context, cmd *cobra.Command, r *resolve.Resolver, query string, pick int) (resolve.Candidate, error) {
	cands, err := r.Resolve(ctx, query)
	if err != nil {
		return resolve.Candidate{}, err
	}

	labels := make([]string, len(cands))
	for i, c := range cands {
		labels[i] = c.Label()
	}

	in, out := cmd.InOrStdin(), cmd.ErrOrStderr()
	i, err := picker.Choose(ctx, labels, picker.Options{
		Pick:        pick,
		Interactive: isTerminal(in, out),
		Title:       "Select a reference for: " + query,
		In:          in,
		Out:         out,
	})
	if err != nil {
		return resolve.Candidate{}, err
	}
	return cands[i], nil
}
