package repository

import (
	"context"
)

type healthRepository struct {
	base
}

func (r *healthRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.bound(ctx)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return storeError(err, "database is unreachable")
	}

	return nil
}
