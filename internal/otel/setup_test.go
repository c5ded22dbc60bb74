package otel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup("warden", "dev", false)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupEnabled(t *testing.T) {
	shutdown, err := Setup("warden", "0.1.0", true)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	tr := Tracer("github.com/wardenhq/warden/internal/otel/test")
	_, span := tr.Start(context.Background(), "test.operation")
	assert.True(t, span.SpanContext().IsValid(), "span context should be valid after Setup()")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, shutdown(ctx))
}

func TestTracerReturnsNonNil(t *testing.T) {
	assert.NotNil(t, Tracer("github.com/wardenhq/warden/internal/policy"))
}
