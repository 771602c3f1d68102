// Package config implements the YAML configuration of a training run
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/baselines/agent/linear/continuous/actorcritic"
	"github.com/samuelfneumann/baselines/environment/envconfig"
	"gopkg.in/yaml.v3"
)

// StorageEnv is the environment variable that overrides the storage
// location of a run
const StorageEnv = "BASELINES_STORAGE"

// Checkpoint configures how the best agent is checkpointed
type Checkpoint struct {
	Cadence      int    `yaml:"cadence"`
	Window       int    `yaml:"window"`
	Name         string `yaml:"name"`
	ConfirmWrite bool   `yaml:"confirm_write"`
	Verbose      bool   `yaml:"verbose"`

	// Every is the number of steps between periodic snapshots of the
	// agent, which are kept alongside the best agent. Zero disables
	// them.
	Every int `yaml:"every"`
}

// Config is the configuration of a single training run
type Config struct {
	Name           string             `yaml:"name"`
	LogDir         string             `yaml:"log_dir"`
	Seed           uint64             `yaml:"seed"`
	TotalTimesteps int                `yaml:"total_timesteps"`
	Environment    envconfig.Config   `yaml:"environment"`
	Agent          actorcritic.Config `yaml:"agent"`
	Checkpoint     Checkpoint         `yaml:"checkpoint"`

	// Storage is where checkpoints are saved: a local directory or an
	// s3://bucket/prefix URI. Empty means LogDir.
	Storage string `yaml:"storage"`

	// LogFromDisk reads the episode log from the results logs in LogDir
	// instead of from memory
	LogFromDisk bool `yaml:"log_from_disk"`
}

// Default returns the default configuration: the linear actor-critic
// on the crawler, checkpointing the best agent every 1000 steps
func Default() Config {
	return Config{
		Name:           "ac",
		LogDir:         filepath.Join("runs", "crawler"),
		Seed:           42,
		TotalTimesteps: 600000,
		Environment: envconfig.NewConfig(envconfig.Crawler, envconfig.Forward,
			1000, 0.99),
		Agent: actorcritic.Config{
			ActorLearningRate:  0.001,
			CriticLearningRate: 0.01,
			Decay:              0.5,
		},
		Checkpoint: Checkpoint{
			Cadence: 1000,
			Window:  100,
			Name:    "best_model.gob",
			Verbose: true,
		},
	}
}

// Load reads a configuration from a YAML file. Fields missing from the
// file keep their default values.
func Load(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML configuration. Fields missing from data keep
// their default values.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}

	if storage := os.Getenv(StorageEnv); storage != "" {
		c.Storage = storage
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("parse: %w", err)
	}
	return c, nil
}

// Save writes the configuration to a YAML file
func (c Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// StorageURI returns where checkpoints of the run are saved
func (c Config) StorageURI() string {
	if c.Storage == "" {
		return c.LogDir
	}
	return c.Storage
}

// ModelName returns the name the final agent is saved under, e.g.
// ac_Crawler-Forward.gob
func (c Config) ModelName() string {
	return fmt.Sprintf("%v_%v.gob", c.Name, c.Environment.ID())
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("validate: name must not be empty")
	}
	if c.LogDir == "" {
		return fmt.Errorf("validate: log_dir must not be empty")
	}
	if c.TotalTimesteps <= 0 {
		return fmt.Errorf("validate: total_timesteps must be positive, "+
			"got %v", c.TotalTimesteps)
	}
	if c.Checkpoint.Cadence <= 0 || c.Checkpoint.Window <= 0 {
		return fmt.Errorf("validate: checkpoint cadence and window must " +
			"be positive")
	}
	if c.Checkpoint.Every < 0 {
		return fmt.Errorf("validate: checkpoint every must not be "+
			"negative, got %v", c.Checkpoint.Every)
	}
	if c.Checkpoint.Name == "" {
		return fmt.Errorf("validate: checkpoint name must not be empty")
	}
	if err := c.Environment.Validate(); err != nil {
		return fmt.Errorf("validate: environment: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("validate: agent: %w", err)
	}
	return nil
}
