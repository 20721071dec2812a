package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Repos fall back to their own handle when Tx is nil.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New returns a Context with a guaranteed non-nil Ctx.
func New(ctx context.Context, tx *gorm.DB) Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return Context{Ctx: ctx, Tx: tx}
}
