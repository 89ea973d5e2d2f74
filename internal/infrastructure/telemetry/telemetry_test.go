package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func captureSlog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return buf
}

func withVerbosity(t *testing.T, v int) {
	t.Helper()
	prev := GetLogVerbosity()
	SetLogVerbosity(v)
	t.Cleanup(func() { SetLogVerbosity(prev) })
}

func TestLog_VerbosityGates(t *testing.T) {
	buf := captureSlog(t)
	withVerbosity(t, 1)
	ctx := context.Background()

	Log(ctx, LevelInfo, "hidden info", nil)
	Log(ctx, LevelWarn, "visible warn", nil)
	Log(ctx, LevelError, "visible error", errors.New("boom"), attribute.Int("user.id", 4))

	out := buf.String()
	assert.NotContains(t, out, "hidden info")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "visible error")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "user.id=4")
}

func TestLog_VerboseWritesInfo(t *testing.T) {
	buf := captureSlog(t)
	withVerbosity(t, 2)

	Log(context.Background(), LevelInfo, "discovery served", nil, attribute.String("gender", "female"))
	assert.Contains(t, buf.String(), "discovery served")
	assert.Contains(t, buf.String(), "gender=female")
}

func TestNewNoop(t *testing.T) {
	tel, err := NewNoop()
	require.NoError(t, err)
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.DiscoveryCounter)

	ctx, span := tel.Tracer.Start(context.Background(), "op")
	defer span.End()
	tel.RecordOperation(ctx, "like", "success")
	tel.CandidateHistogram.Record(ctx, 3)
}

func TestMultiHandler_FansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	}}
	logger := slog.New(h).With("svc", "dating")

	logger.Info("hello")
	assert.Contains(t, a.String(), "svc=dating")
	assert.Contains(t, b.String(), "hello")
}
