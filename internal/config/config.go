package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"maskpipe/internal/detect"
	"maskpipe/internal/reconcile"
)

const (
	defaultAuditLog = "~/.maskpipe/audit.log"
	defaultTimeout  = 30
)

// Config is the file-level configuration. Zero values fall back to pipeline
// defaults so a minimal config file stays minimal.
type Config struct {
	// Strict requires dual-detector agreement for name-like types.
	Strict bool `yaml:"strict"`
	// OverlapThreshold is the consensus overlap ratio (default 0.5).
	OverlapThreshold float64 `yaml:"overlap_threshold"`
	// LengthTolerance is the recovery fuzzy-length tolerance (default 0.3).
	LengthTolerance float64 `yaml:"length_tolerance"`
	// NoiseRatio is the minimum letter/digit content share (default 0.5).
	NoiseRatio float64 `yaml:"noise_ratio"`
	// MinScore drops candidates below the threshold at intake.
	MinScore float64 `yaml:"min_score"`
	// DualTypes lists canonical types requiring consensus in strict mode.
	DualTypes []string `yaml:"dual_types"`
	// Priority orders canonical types for containment resolution.
	Priority []string `yaml:"priority"`
	// Vocabularies maps source name to raw-label-to-canonical-type tables,
	// merged over the built-in defaults.
	Vocabularies map[string]map[string]string `yaml:"vocabularies"`
	// TagVocabulary maps generative tags to raw labels, replacing the
	// default when non-empty.
	TagVocabulary map[string]string `yaml:"tag_vocabulary"`
	// AllowList holds values never masked.
	AllowList []string `yaml:"allow_list"`
	// Masks overrides the placeholder per canonical type.
	Masks map[string]string `yaml:"masks"`
	// AuditLog is the JSONL event log path.
	AuditLog string `yaml:"audit_log"`
	// DetectorTimeoutSec bounds each detector call.
	DetectorTimeoutSec int `yaml:"detector_timeout_sec"`
	// NERModelDir points at an ONNX token-classification model directory.
	NERModelDir string `yaml:"ner_model_dir"`
}

func Default() Config {
	return Config{
		Strict:             true,
		OverlapThreshold:   0.5,
		LengthTolerance:    0.3,
		NoiseRatio:         0.5,
		AuditLog:           defaultAuditLog,
		DetectorTimeoutSec: defaultTimeout,
	}
}

func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".maskpipe", "config.yaml"), nil
}

// Load reads a YAML config, filling gaps with defaults. A missing file is
// not an error; an invalid one is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.AuditLog = expandHome(cfg.AuditLog)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	cfg.AuditLog = expandHome(cfg.AuditLog)
	if cfg.AuditLog == "" {
		cfg.AuditLog = expandHome(defaultAuditLog)
	}
	if cfg.OverlapThreshold == 0 {
		cfg.OverlapThreshold = 0.5
	}
	if cfg.LengthTolerance == 0 {
		cfg.LengthTolerance = 0.3
	}
	if cfg.NoiseRatio == 0 {
		cfg.NoiseRatio = 0.5
	}
	if cfg.DetectorTimeoutSec <= 0 {
		cfg.DetectorTimeoutSec = defaultTimeout
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.OverlapThreshold < 0 || c.OverlapThreshold > 1 {
		return fmt.Errorf("overlap_threshold %v out of [0,1]", c.OverlapThreshold)
	}
	if c.LengthTolerance < 0 || c.LengthTolerance >= 1 {
		return fmt.Errorf("length_tolerance %v out of [0,1)", c.LengthTolerance)
	}
	if c.NoiseRatio < 0 || c.NoiseRatio > 1 {
		return fmt.Errorf("noise_ratio %v out of [0,1]", c.NoiseRatio)
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("min_score %v out of [0,1]", c.MinScore)
	}
	for _, t := range append(append([]string{}, c.DualTypes...), c.Priority...) {
		if !knownType(t) {
			return fmt.Errorf("unknown canonical type %q", t)
		}
	}
	for source := range c.Vocabularies {
		if !knownSource(source) {
			return fmt.Errorf("unknown detector source %q", source)
		}
	}
	return nil
}

// Pipeline converts the file config into an immutable pipeline config.
// Vocabularies extend the defaults; an explicitly empty mapping is still a
// construction error downstream.
func (c Config) Pipeline(sink reconcile.Sink) reconcile.Config {
	pc := reconcile.DefaultConfig()
	pc.Sink = sink
	pc.Consensus.Strict = c.Strict
	pc.Consensus.OverlapThreshold = c.OverlapThreshold
	pc.Recovery.LengthTolerance = c.LengthTolerance
	pc.NoiseRatio = c.NoiseRatio
	pc.MinScore = c.MinScore
	pc.AllowList = c.AllowList

	if len(c.DualTypes) > 0 {
		dual := make(map[detect.CanonicalType]bool, len(c.DualTypes))
		for _, t := range c.DualTypes {
			dual[detect.CanonicalType(t)] = true
		}
		pc.Consensus.DualTypes = dual
	}
	if len(c.Priority) > 0 {
		prio := make([]detect.CanonicalType, len(c.Priority))
		for i, t := range c.Priority {
			prio[i] = detect.CanonicalType(t)
		}
		pc.Priority = prio
	}
	for source, table := range c.Vocabularies {
		src := detect.Source(source)
		vocab := pc.Mapping[src]
		if vocab == nil {
			vocab = reconcile.Vocabulary{}
		}
		for raw, canonical := range table {
			// Lookups happen after BIO stripping, so keys must be stored
			// stripped or a configured B-FAC entry would never match.
			vocab[reconcile.StripBIO(raw)] = detect.CanonicalType(canonical)
		}
		pc.Mapping[src] = vocab
	}
	if len(c.TagVocabulary) > 0 {
		pc.Recovery.TagVocabulary = c.TagVocabulary
	}
	return pc
}

// EntityMasks converts the mask overrides into the redact masker's key type.
func (c Config) EntityMasks() map[detect.CanonicalType]string {
	if len(c.Masks) == 0 {
		return nil
	}
	masks := make(map[detect.CanonicalType]string, len(c.Masks))
	for t, m := range c.Masks {
		masks[detect.CanonicalType(t)] = m
	}
	return masks
}

func knownType(t string) bool {
	switch detect.CanonicalType(t) {
	case detect.TypePerson, detect.TypeLocation, detect.TypeOrganization,
		detect.TypePhone, detect.TypeEmail, detect.TypeZipCode,
		detect.TypeDateOfBirth, detect.TypeAge, detect.TypeGender,
		detect.TypeCustomerID, detect.TypeUnknown:
		return true
	}
	return false
}

func knownSource(s string) bool {
	switch detect.Source(s) {
	case detect.SourcePattern, detect.SourceNER,
		detect.SourceTransformer, detect.SourceGenerative:
		return true
	}
	return false
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
