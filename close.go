package vespa

import (
	"context"
	"errors"

	"github.com/cnsky2016/vespa/model"
)

// Close removes every collection from the registry, draining their readers
// and invalidating all imports. Children are not re-resolved.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	dbs := r.dbs
	r.dbs = make(map[model.DocType]*DocumentDB)
	r.mu.Unlock()

	var errs []error
	for _, db := range dbs {
		if _, err := db.close(ctx); err != nil && !errors.Is(err, ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
