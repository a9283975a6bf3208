package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile and returns Config with raw bytes
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes YAML on top of Default and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	normalize(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty
func LoadOrDefault(path string) (*Config, []byte, error) {
	if path == "" {
		cfg := Default()
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal default profile: %w", err)
		}
		return cfg, data, nil
	}
	return Load(path)
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	canonical := *cfg
	normalize(&canonical)

	jsonBytes, err := json.Marshal(&canonical)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// normalize 빈 슬라이스를 nil 로 통일 (codes: [] 와 생략이 같은 해시)
func normalize(cfg *Config) {
	if len(cfg.Source.Codes) == 0 {
		cfg.Source.Codes = nil
	}
}

// NewRunSnapshot creates a snapshot of the profile used by a run
func NewRunSnapshot(cfg *Config, yamlData []byte) (*RunSnapshot, error) {
	hash, err := Hash(cfg)
	if err != nil {
		return nil, err
	}

	return &RunSnapshot{
		ConfigHash: hash,
		ConfigYAML: string(yamlData),
		StrategyID: cfg.Meta.StrategyID,
		Version:    cfg.Meta.Version,
		CreatedAt:  time.Now(),
	}, nil
}
