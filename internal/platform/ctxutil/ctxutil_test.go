// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/resona/internal/platform/ctxutil"
)

/*
TestRequestID tests storing and retrieving the correlation ID.
*/
func TestRequestID(t *testing.T) {
	ctx := context.Background()

	// Empty context yields empty ID
	assert.Equal(t, "", ctxutil.GetRequestID(ctx))

	ctx = ctxutil.WithRequestID(ctx, "0191-test")
	assert.Equal(t, "0191-test", ctxutil.GetRequestID(ctx))
}

/*
TestLogger tests the logger fallback behavior.
*/
func TestLogger(t *testing.T) {
	ctx := context.Background()

	// Missing logger falls back to the global default
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	custom := slog.Default().With(slog.String("component", "scanner"))
	ctx = ctxutil.WithLogger(ctx, custom)
	assert.Equal(t, custom, ctxutil.GetLogger(ctx))
}
