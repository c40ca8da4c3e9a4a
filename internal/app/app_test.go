package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcp-ping/tcpping/internal/testdata"
)

func TestMonitorStdin(t *testing.T) {
	calls := 0
	monitorStdin(testContext(t), strings.NewReader("\n\nfoo\n\r\n"), func() { calls++ })
	assert.Equal(t, 3, calls)
}

func TestMonitorStdin_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	calls := 0
	monitorStdin(ctx, strings.NewReader("\n"), func() { calls++ })
	assert.Zero(t, calls)
}

func TestProbe_LoopbackListener(t *testing.T) {
	// exercises resolution, printer selection and the prober end to end
	ln := listenLocal(t)

	config, err := ParseArgs([]string{
		"127.0.0.1", "-p", portOf(ln), "-n", "2", "-t", "500", "-s", "10", "--json", "--non-interactive",
	})
	require.NoError(t, err)

	start := time.Now()
	code := probe(testContext(t), config, nil)
	assert.Equal(t, 0, code)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestProbe_ResolutionFailure(t *testing.T) {
	config, err := ParseArgs([]string{"::1", "-p", "80", "-4", "--non-interactive"})
	require.NoError(t, err)

	assert.Equal(t, 1, probe(testContext(t), config, nil))
}

func TestProbe_EmptyHostname(t *testing.T) {
	config, err := ParseArgs([]string{"", "-p", "80", "--non-interactive"})
	require.NoError(t, err)

	assert.Equal(t, 1, probe(testContext(t), config, nil))
}

func TestRun_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "empty hostname", args: []string{"", "-p", "80", "--non-interactive"}, want: 1},
		{name: "invalid port", args: []string{"example.com", "-p", "0"}, want: 1},
		{name: "missing port", args: []string{"example.com"}, want: 1},
		{name: "help", args: []string{"--help"}, want: 0},
		{name: "version", args: []string{"--version"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var code int
			testdata.CaptureOutput(t, func() {
				code = run(testContext(t), tt.args)
			})
			assert.Equal(t, tt.want, code)
		})
	}
}
