package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData carries the caller identity stamped by the auth middleware.
// The core only consults it for issuedBy/closedBy/createdBy fields.
type RequestData struct {
	UserID      uuid.UUID
	TokenString string
}

func With(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func Get(ctx context.Context) *RequestData {
	rd, ok := ctx.Value(requestDataKey{}).(*RequestData)
	if !ok {
		return nil
	}
	return rd
}
