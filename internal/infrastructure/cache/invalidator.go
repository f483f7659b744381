package cache

import (
	"context"
	"errors"
)

// Invalidator drops every cached read model under its prefixes. Ledger and
// catalog writes call it after commit.
type Invalidator struct {
	cache    Cache
	prefixes []string
}

func NewInvalidator(c Cache, prefixes ...string) *Invalidator {
	return &Invalidator{cache: c, prefixes: prefixes}
}

// Invalidate attempts every prefix and reports all failures together.
func (i *Invalidator) Invalidate(ctx context.Context) error {
	var errs []error
	for _, p := range i.prefixes {
		if err := i.cache.DeletePrefix(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
