package listen

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/bindplan/internal/server/certificate"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
)

const (
	pfxFixture  = "testdata/cert.pfx"
	pfxPassword = "x"
)

func loadFixture(t *testing.T) *tls.Certificate {
	t.Helper()
	cert, err := certificate.LoadFile(pfxFixture, "", pfxPassword)
	require.NoError(t, err)
	return cert
}

// logCapture collects JSON log entries.
type logCapture struct {
	buf bytes.Buffer
}

func newLogCapture(t *testing.T) (*logCapture, logger.Logger) {
	t.Helper()
	c := &logCapture{}
	l, err := logger.New(logger.Config{Level: "debug", Format: "json", Output: &c.buf})
	require.NoError(t, err)
	t.Cleanup(func() { _ = logger.SetLevel("info") })
	return c, l
}

func (c *logCapture) entries(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(c.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func (c *logCapture) find(t *testing.T, level, msg string) map[string]any {
	t.Helper()
	for _, e := range c.entries(t) {
		if e["level"] == level && e["msg"] == msg {
			return e
		}
	}
	return nil
}

// scripted is a transport whose outcome per display name is fixed.
type scripted struct {
	fail  map[string]error
	calls []string
}

func (s *scripted) Bind(_ context.Context, d *Descriptor) error {
	s.calls = append(s.calls, d.String())
	if err, ok := s.fail[d.String()]; ok {
		return err
	}
	return nil
}
