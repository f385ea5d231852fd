package trainer

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Result is the evaluation report of one trained configuration.
type Result struct {
	Net          string  `yaml:"net"`
	Perc         float64 `yaml:"tr_perc"`
	Alg          string  `yaml:"alg"`
	Mode         string  `yaml:"mode"`
	Accuracy     float64 `yaml:"accuracy"`
	TrainSamples int     `yaml:"train_samples"`
	TestSamples  int     `yaml:"test_samples"`
	Epochs       int     `yaml:"epochs"`
	FinalLoss    float64 `yaml:"final_loss"`
	Device       string  `yaml:"device"`
	Checkpoint   string  `yaml:"checkpoint"`
}

// WriteResult stores r as YAML at path, creating parent directories.
func WriteResult(path string, r Result) error {
	buf, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode result '%s': %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write result '%s': %w", path, err)
	}
	return nil
}

// ReadResult loads a result written by WriteResult.
func ReadResult(path string) (Result, error) {
	var r Result
	buf, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(buf, &r); err != nil {
		return r, fmt.Errorf("failed to decode result '%s': %w", path, err)
	}
	return r, nil
}
