package app_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcp-ping/tcpping"
	"github.com/tcp-ping/tcpping/dns"
	"github.com/tcp-ping/tcpping/internal/app"
)

func TestParseArgs_Defaults(t *testing.T) {
	config, err := app.ParseArgs([]string{"example.com", "-p", "443"})
	require.NoError(t, err)

	assert.Equal(t, "example.com", config.Hostname)
	assert.Equal(t, uint16(443), config.Port)
	assert.Equal(t, dns.FamilyIPv4, config.Family)
	assert.Equal(t, 4, config.Quantity)
	assert.Equal(t, 3*time.Second, config.Timeout)
	assert.Equal(t, time.Second, config.Interval)
	assert.False(t, config.NonInteractive)
	assert.Nil(t, config.InterfaceDialer)

	assert.Equal(t, tcpping.Config{Quantity: 4, Timeout: 3 * time.Second, Delay: time.Second}, config.ProbeConfig())
}

func TestParseArgs_Flags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c app.ProberConfig)
	}{
		{
			name: "long flags",
			args: []string{"--port", "22", "--num", "10", "--timeout", "500", "--sleep", "200", "10.0.0.1"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, uint16(22), c.Port)
				assert.Equal(t, 10, c.Quantity)
				assert.Equal(t, 500*time.Millisecond, c.Timeout)
				assert.Equal(t, 200*time.Millisecond, c.Interval)
			},
		},
		{
			name: "short flags after the host",
			args: []string{"example.com", "-p", "80", "-n", "2", "-t", "1000", "-s", "0"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, uint16(80), c.Port)
				assert.Equal(t, 2, c.Quantity)
				assert.Equal(t, time.Second, c.Timeout)
				assert.Zero(t, c.Interval)
			},
		},
		{
			name: "port as second argument",
			args: []string{"example.com", "8080"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, uint16(8080), c.Port)
				assert.Equal(t, "8080", c.PrinterConfig.Port)
			},
		},
		{
			name: "loop overrides num",
			args: []string{"example.com", "-p", "443", "-n", "3", "-l"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, tcpping.Unbounded, c.Quantity)
			},
		},
		{
			name: "num -1 is unbounded",
			args: []string{"example.com", "-p", "443", "-n", "-1"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, tcpping.Unbounded, c.Quantity)
			},
		},
		{
			name: "ipv6",
			args: []string{"-6", "example.com", "-p", "443"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, dns.FamilyIPv6, c.Family)
			},
		},
		{
			name: "explicit ipv4",
			args: []string{"-4", "example.com", "-p", "443"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, dns.FamilyIPv4, c.Family)
			},
		},
		{
			name: "printer options",
			args: []string{
				"example.com", "-p", "443", "-D", "--show-source-address", "--show-failures-only",
				"--no-color", "--json", "--pretty", "--non-interactive",
			},
			check: func(t *testing.T, c app.ProberConfig) {
				pc := c.PrinterConfig
				assert.True(t, pc.WithTimestamp)
				assert.True(t, pc.WithSourceAddress)
				assert.True(t, pc.ShowFailuresOnly)
				assert.True(t, pc.NoColor)
				assert.True(t, pc.OutputJSON)
				assert.True(t, pc.PrettyJSON)
				assert.Equal(t, "example.com", pc.Target)
				assert.Equal(t, "443", pc.Port)
				assert.True(t, c.NonInteractive)
				assert.True(t, c.ShowSourceAddress)
			},
		},
		{
			name: "file outputs",
			args: []string{"example.com", "-p", "443", "--csv", "/tmp/out", "--db", "/tmp/out.db"},
			check: func(t *testing.T, c app.ProberConfig) {
				assert.Equal(t, "/tmp/out", c.PrinterConfig.OutputCSVPath)
				assert.Equal(t, "/tmp/out.db", c.PrinterConfig.OutputDBPath)
			},
		},
		{
			name: "source address bound to loopback",
			args: []string{"127.0.0.1", "-p", "443", "-I", "127.0.0.1"},
			check: func(t *testing.T, c app.ProberConfig) {
				require.NotNil(t, c.InterfaceDialer)
				assert.Equal(t, "127.0.0.1:0", c.InterfaceDialer.LocalAddr.String())
				assert.Equal(t, "127.0.0.1", c.InterfaceName)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := app.ParseArgs(tt.args)
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "no arguments", args: nil, wantErr: app.ErrUsageRequested},
		{name: "missing port", args: []string{"example.com"}, wantErr: app.ErrUsageRequested},
		{name: "port given twice", args: []string{"example.com", "80", "-p", "80"}, wantErr: app.ErrUsageRequested},
		{name: "too many arguments", args: []string{"a", "b", "c"}, wantErr: app.ErrUsageRequested},
		{name: "unknown flag", args: []string{"example.com", "-p", "80", "--bogus"}, wantErr: app.ErrUsageRequested},
		{name: "non numeric num", args: []string{"example.com", "-p", "80", "-n", "many"}, wantErr: app.ErrUsageRequested},
		{name: "port zero", args: []string{"example.com", "-p", "0"}, wantErr: app.ErrInvalidConfig},
		{name: "port too large", args: []string{"example.com", "-p", "70000"}, wantErr: app.ErrInvalidConfig},
		{name: "port not a number", args: []string{"example.com", "https"}, wantErr: app.ErrInvalidConfig},
		{name: "both families", args: []string{"example.com", "-p", "80", "-4", "-6"}, wantErr: app.ErrInvalidConfig},
		{name: "zero probes", args: []string{"example.com", "-p", "80", "-n", "0"}, wantErr: app.ErrInvalidConfig},
		{name: "negative probes", args: []string{"example.com", "-p", "80", "-n", "-2"}, wantErr: app.ErrInvalidConfig},
		{name: "zero timeout", args: []string{"example.com", "-p", "80", "-t", "0"}, wantErr: app.ErrInvalidConfig},
		{name: "negative sleep", args: []string{"example.com", "-p", "80", "-s", "-1"}, wantErr: app.ErrInvalidConfig},
		{name: "pretty without json", args: []string{"example.com", "-p", "80", "--pretty"}, wantErr: app.ErrInvalidConfig},
		{name: "unknown interface", args: []string{"example.com", "-p", "80", "-I", "no-such-nic0"}, wantErr: app.ErrInvalidConfig},
		{name: "address not assigned", args: []string{"example.com", "-p", "80", "-I", "192.0.2.254"}, wantErr: app.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.ParseArgs(tt.args)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseArgs(%q) error = %v, want %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestParseArgs_ControlFlow(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "version", args: []string{"-v"}, wantErr: app.ErrVersionRequested},
		{name: "version long", args: []string{"--version"}, wantErr: app.ErrVersionRequested},
		{name: "update check", args: []string{"-u"}, wantErr: app.ErrUpdateCheckRequested},
		{name: "help", args: []string{"--help"}, wantErr: app.ErrHelpRequested},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.ParseArgs(tt.args)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
