package utils

import (
	"context"

	"github.com/google/uuid"
)

type rqIDKey struct{}

type ownerIDKey struct{}

func GetRequestIDFromCtx(ctx context.Context) string {
	rqID, ok := ctx.Value(rqIDKey{}).(string)
	if !ok {
		return ""
	}
	return rqID
}

// CreateCtxWithRqID stores rqID in ctx, generating a new one when rqID is empty.
func CreateCtxWithRqID(ctx context.Context, rqID string) context.Context {
	if rqID == "" {
		rqID = uuid.NewString()
	}
	return context.WithValue(ctx, rqIDKey{}, rqID)
}

// NewJobCtx is used by background jobs that have no incoming request.
func NewJobCtx(ctx context.Context) context.Context {
	return context.WithValue(ctx, rqIDKey{}, "job-"+uuid.NewString())
}

func CtxWithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey{}, ownerID)
}

func GetOwnerIDFromCtx(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerIDKey{}).(string)
	return ownerID, ok && ownerID != ""
}
