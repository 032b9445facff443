package utils

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	ctx := CreateCtxWithRqID(context.Background(), "abc")
	assert.Equal(t, "abc", GetRequestIDFromCtx(ctx))

	ctx = CreateCtxWithRqID(context.Background(), "")
	assert.NotEmpty(t, GetRequestIDFromCtx(ctx))

	assert.Empty(t, GetRequestIDFromCtx(context.Background()))
	assert.True(t, strings.HasPrefix(GetRequestIDFromCtx(NewJobCtx(context.Background())), "job-"))
}

func TestOwnerID(t *testing.T) {
	_, ok := GetOwnerIDFromCtx(context.Background())
	assert.False(t, ok)

	_, ok = GetOwnerIDFromCtx(CtxWithOwnerID(context.Background(), ""))
	assert.False(t, ok)

	ownerID, ok := GetOwnerIDFromCtx(CtxWithOwnerID(context.Background(), "user-1"))
	assert.True(t, ok)
	assert.Equal(t, "user-1", ownerID)
}
