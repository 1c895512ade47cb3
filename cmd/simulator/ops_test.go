package main

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpsServerServesAndStops(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	})
	var logs bytes.Buffer
	ops := newOpsServer("127.0.0.1:0", h, zerolog.New(&logs))
	require.NoError(t, ops.Start())

	resp, err := http.Get("http://" + ops.Addr() + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	ops.Shutdown(time.Second)
	assert.NotContains(t, logs.String(), "shutdown failed")

	_, err = http.Get("http://" + ops.Addr() + "/healthz")
	assert.Error(t, err)
}

func TestOpsServerLogsShutdownFailure(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})

	var logs bytes.Buffer
	ops := newOpsServer("127.0.0.1:0", h, zerolog.New(&logs))
	require.NoError(t, ops.Start())
	defer close(release)

	go func() {
		if resp, err := http.Get("http://" + ops.Addr() + "/slow"); err == nil {
			resp.Body.Close()
		}
	}()
	<-entered

	ops.Shutdown(time.Millisecond)
	assert.Contains(t, logs.String(), "ops server shutdown failed")
}

func TestOpsServerReportsBindFailure(t *testing.T) {
	first := newOpsServer("127.0.0.1:0", http.NotFoundHandler(), zerolog.Nop())
	require.NoError(t, first.Start())
	defer first.Shutdown(time.Second)

	second := newOpsServer(first.Addr(), http.NotFoundHandler(), zerolog.Nop())
	assert.Error(t, second.Start())
}
