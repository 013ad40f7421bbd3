package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Dispatch parameter bounds. Setting anything outside these is rejected with
// the prior value left unchanged.
const (
	MinChunkSize = 1
	MaxChunkSize = 20

	MinExecutionDelayMs = 50
	MaxExecutionDelayMs = 1000
)

type Tuning struct {
	GatewayURL string `yaml:"gateway_url"`
	Grid       string `yaml:"grid"`
	Identity   string `yaml:"identity"`
	Team       uint8  `yaml:"team"`

	KeymapPath string `yaml:"keymap_path"`
	JournalDir string `yaml:"journal_dir"`

	ChunkSize        int     `yaml:"chunk_size"`
	ExecutionDelayMs int     `yaml:"execution_delay_ms"`
	SampleFactor     float64 `yaml:"sample_factor"`
	RateSampleMs     int     `yaml:"rate_sample_ms"`
}

func Default() Tuning {
	return Tuning{
		GatewayURL:       "ws://localhost:8080/v1/ws",
		Grid:             "main",
		ChunkSize:        10,
		ExecutionDelayMs: 200,
		SampleFactor:     1.0,
		RateSampleMs:     1000,
	}
}

func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.GatewayURL == "" {
		return fmt.Errorf("gateway_url is required")
	}
	if t.Grid == "" {
		return fmt.Errorf("grid is required")
	}
	if t.Identity == "" {
		return fmt.Errorf("identity is required")
	}
	if t.Team > 15 {
		return fmt.Errorf("team %d out of range [0,15]", t.Team)
	}
	if t.ChunkSize < MinChunkSize || t.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk_size %d out of range [%d,%d]", t.ChunkSize, MinChunkSize, MaxChunkSize)
	}
	if t.ExecutionDelayMs < MinExecutionDelayMs || t.ExecutionDelayMs > MaxExecutionDelayMs {
		return fmt.Errorf("execution_delay_ms %d out of range [%d,%d]", t.ExecutionDelayMs, MinExecutionDelayMs, MaxExecutionDelayMs)
	}
	if t.SampleFactor < 0 || t.SampleFactor > 1 {
		return fmt.Errorf("sample_factor %v out of range [0,1]", t.SampleFactor)
	}
	if t.RateSampleMs <= 0 {
		return fmt.Errorf("rate_sample_ms must be positive")
	}
	return nil
}
