package assemble

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/preprint/pkg/source"
	"github.com/fulmenhq/preprint/pkg/tex"
)

// Revisions holds the two flattened documents compared by diff.
type Revisions struct {
	Current  string
	Previous string
	Ref      string
}

// FlattenRevisions flattens master from the working tree in dir and from the
// commit named by ref, concurrently. An \input missing from the snapshot is
// read from the working tree instead; the root document itself must exist
// in the snapshot.
func FlattenRevisions(ctx context.Context, dir, master, ref string, opts ...tex.Option) (*Revisions, error) {
	live := source.NewLive(dir)
	rev := &Revisions{Ref: ref}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		text, err := Flatten(live, master, tex.NewInliner(opts...))
		if err != nil {
			return fmt.Errorf("flatten working tree: %w", err)
		}
		rev.Current = text
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		snap, err := source.OpenSnapshot(dir, ref)
		if err != nil {
			return err
		}
		prevOpts := append(append([]tex.Option(nil), opts...), tex.WithFallback(live))
		text, err := Flatten(snap, master, tex.NewInliner(prevOpts...))
		if err != nil {
			return fmt.Errorf("flatten %s: %w", ref, err)
		}
		rev.Previous = text
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rev, nil
}
