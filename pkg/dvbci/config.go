package dvbci

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/q191201771/naza/pkg/nazaerrors"
	"gopkg.in/yaml.v3"

	"avaneesh/dvbci-go/pkg/app"
	"avaneesh/dvbci-go/pkg/forward"
	"avaneesh/dvbci-go/pkg/internal/logger"
	"avaneesh/dvbci-go/pkg/sac"
)

var ErrConfig = errors.New("dvbci: invalid configuration")

// PortBinding registers a forwarded payload decoder for a low-speed
// communication connection target
type PortBinding struct {
	Protocol string `yaml:"protocol"` // tcp or udp
	Port     uint16 `yaml:"port"`
	Decoder  string `yaml:"decoder"`
}

// OutputConfig controls where decoded records are written and how the
// output file is rotated
type OutputConfig struct {
	Path       string `yaml:"path"` // Empty writes to stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Config configures an analyzer
type Config struct {
	SACKey             string            `yaml:"sac_key"` // 32 hex characters
	SACIV              string            `yaml:"sac_iv"`  // 32 hex characters
	DecodeForwardedLSC bool              `yaml:"decode_forwarded_lsc"`
	LogLevel           string            `yaml:"log_level"`
	LogFile            string            `yaml:"log_file"`
	FrameDebug         bool              `yaml:"frame_debug"`
	LSCPorts           []PortBinding     `yaml:"lsc_ports"`
	SASApplications    map[string]string `yaml:"sas_applications"` // application id (16 hex characters) -> decoder
	Output             OutputConfig      `yaml:"output"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		DecodeForwardedLSC: true,
		LogLevel:           "info",
		Output: OutputConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// LoadConfig reads a YAML configuration file. Keys missing from the file
// keep their default; relative paths are taken relative to the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		return cfg, nazaerrors.Wrap(err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, nazaerrors.Wrap(err, path)
	}

	baseDir := filepath.Dir(path)
	resolvePath := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}
	cfg.Output.Path = resolvePath(cfg.Output.Path)
	cfg.LogFile = resolvePath(cfg.LogFile)

	if cfg.Output.MaxSizeMB <= 0 {
		cfg.Output.MaxSizeMB = 100
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, cfg.Validate()
}

// Validate checks the forwarded decoder tables. Key material is not
// checked here: unusable keys only make SAC decryption fail.
func (c Config) Validate() error {
	for _, b := range c.LSCPorts {
		if _, err := forward.ParseProtocol(b.Protocol); err != nil {
			return fmt.Errorf("%w. lsc_ports: %v", ErrConfig, err)
		}
		if _, err := forward.ByName(b.Decoder); err != nil {
			return fmt.Errorf("%w. lsc_ports %s/%d: %v", ErrConfig, b.Protocol, b.Port, err)
		}
	}
	for id, name := range c.SASApplications {
		if _, err := normalizeApplicationID(id); err != nil {
			return fmt.Errorf("%w. sas_applications: %v", ErrConfig, err)
		}
		if _, err := forward.ByName(name); err != nil {
			return fmt.Errorf("%w. sas_applications %s: %v", ErrConfig, id, err)
		}
	}
	return nil
}

// normalizeApplicationID returns the lowercase 16 hex character form SAS
// connect confirmations are looked up by
func normalizeApplicationID(id string) (string, error) {
	id = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(id), "0x"))
	b, err := hex.DecodeString(id)
	if err != nil || len(b) != 8 {
		return "", fmt.Errorf("application id %q is not 8 bytes of hex", id)
	}
	return app.ApplicationID(b), nil
}

// NewDecoder builds the application layer decoder described by c
func (c Config) NewDecoder(log logger.Logger) (*app.Decoder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	d := app.NewDecoder()
	d.DecodeForwardedLSC = c.DecodeForwardedLSC

	if c.SACKey != "" || c.SACIV != "" {
		d.Decrypter = sac.New(c.SACKey, c.SACIV)
		if u, ok := d.Decrypter.(sac.Unavailable); ok {
			log.Warn("SAC key material unusable, SAC messages will not be decrypted: %v", u.Reason)
		}
	}

	for _, b := range c.LSCPorts {
		proto, _ := forward.ParseProtocol(b.Protocol)
		h, _ := forward.ByName(b.Decoder)
		d.Ports.Register(proto, b.Port, h)
	}
	for id, name := range c.SASApplications {
		key, _ := normalizeApplicationID(id)
		h, _ := forward.ByName(name)
		d.Apps.Register(key, h)
	}
	return d, nil
}

// NewAnalyzer creates an analyzer configured by cfg
func NewAnalyzer(cfg Config, log logger.Logger) (*Analyzer, error) {
	d, err := cfg.NewDecoder(log)
	if err != nil {
		return nil, err
	}
	return New(d, log), nil
}
