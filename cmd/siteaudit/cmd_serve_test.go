package main

import (
	"bytes"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"testing"

	"github.com/spboyer/siteaudit/internal/projectconfig"
	"github.com/spboyer/siteaudit/internal/webapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommandFlags(t *testing.T) {
	cmd := newServeCommand()

	for _, name := range []string{"host", "port", "static-dir", "cors-origin", "open"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %q", name)
	}
	host, err := cmd.Flags().GetString("host")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", host)
}

func TestServeCommandGeneratorError(t *testing.T) {
	orig := newReportGenerator
	newReportGenerator = func(*projectconfig.ProjectConfig, *slog.Logger) (webapi.ReportGenerator, func(), error) {
		return nil, nil, errors.New("invalid rule set")
	}
	t.Cleanup(func() { newReportGenerator = orig })

	cmd := newServeCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"--port", "0"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rule set")
}

func TestServeCommandRejectsArgs(t *testing.T) {
	cmd := newServeCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"extra"})

	require.Error(t, cmd.Execute())
}

func TestServeCommandBindFailure(t *testing.T) {
	orig := newReportGenerator
	newReportGenerator = func(*projectconfig.ProjectConfig, *slog.Logger) (webapi.ReportGenerator, func(), error) {
		return &cannedGenerator{}, func() {}, nil
	}
	t.Cleanup(func() { newReportGenerator = orig })

	// Hold the port so the server cannot bind it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close() //nolint:errcheck
	port := ln.Addr().(*net.TCPAddr).Port

	cmd := newServeCommand()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)
	cmd.SetArgs([]string{"--port", strconv.Itoa(port), "--static-dir", t.TempDir()})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
	assert.NotContains(t, output.String(), "listening on http")
}
