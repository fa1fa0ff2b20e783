package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Billy-Gatez/spacebook-social/pkg/middleware"

	"github.com/stretchr/testify/assert"
)

func TestFromContextReturnsRequestLogger(t *testing.T) {
	want := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.WithValue(context.Background(), middleware.LoggerKey, want)

	assert.Same(t, want, FromContext(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	var nilLogger *slog.Logger
	ctx := context.WithValue(context.Background(), middleware.LoggerKey, nilLogger)
	assert.Same(t, slog.Default(), FromContext(ctx))
}
