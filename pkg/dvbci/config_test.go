package dvbci

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"avaneesh/dvbci-go/pkg/forward"
	"avaneesh/dvbci-go/pkg/sac"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dvbci.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
sac_key: 000102030405060708090a0b0c0d0e0f
sac_iv: f0e0d0c0b0a090807060504030201000
log_level: debug
lsc_ports:
  - protocol: tcp
    port: 8443
    decoder: tls
sas_applications:
  "0x0102030405060708": dns
output:
  path: records.ndjson
  compress: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, cfg.DecodeForwardedLSC, "unset keys keep their default")
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, filepath.Join(filepath.Dir(path), "records.ndjson"), cfg.Output.Path)
	require.Equal(t, 100, cfg.Output.MaxSizeMB)
	require.True(t, cfg.Output.Compress)
	require.Equal(t, LevelDebug, ParseLogLevel(cfg.LogLevel))

	a, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err)
	d := a.Decoder()

	h, ok := d.Ports.Lookup(forward.ProtocolTCP, 8443)
	require.True(t, ok)
	require.Equal(t, "tls", h.Name())

	h, ok = d.Apps.Lookup("0102030405060708")
	require.True(t, ok)
	require.Equal(t, "dns", h.Name())

	_, ok = d.Decrypter.(*sac.AESCBC)
	require.True(t, ok)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `
lsc_ports:
  - protocol: sctp
    port: 1
    decoder: dns
`)
	_, err := LoadConfig(path)
	require.True(t, errors.Is(err, ErrConfig))

	path = writeConfig(t, `
sas_applications:
  "0102": dns
`)
	_, err = LoadConfig(path)
	require.True(t, errors.Is(err, ErrConfig))

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestNewAnalyzer_BadKeyMaterial(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SACKey = "not hex"
	a, err := NewAnalyzer(cfg, nil)
	require.NoError(t, err, "bad key material must not stop construction")

	_, ok := a.Decoder().Decrypter.(sac.Unavailable)
	require.True(t, ok)
}
