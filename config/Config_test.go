package config

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/baselines/environment/envconfig"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestParse(t *testing.T) {
	t.Setenv(StorageEnv, "")
	data := []byte(`
name: sac
log_dir: ./runs/pendulum
total_timesteps: 5000
environment: {name: Pendulum, task: SwingUp, episode_cutoff: 200, discount: 0.9}
checkpoint: {cadence: 500, confirm_write: true}
`)

	c, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}

	if c.Name != "sac" || c.TotalTimesteps != 5000 {
		t.Errorf("unexpected config %+v", c)
	}
	if c.Environment.Environment != envconfig.Pendulum ||
		c.Environment.EpisodeCutoff != 200 {
		t.Errorf("unexpected environment %+v", c.Environment)
	}
	if c.Checkpoint.Cadence != 500 || !c.Checkpoint.ConfirmWrite {
		t.Errorf("unexpected checkpoint %+v", c.Checkpoint)
	}

	// Missing fields keep their defaults
	def := Default()
	if c.Checkpoint.Window != def.Checkpoint.Window || c.Seed != def.Seed ||
		c.Agent != def.Agent {
		t.Errorf("defaults were not kept: %+v", c)
	}
	if c.StorageURI() != "./runs/pendulum" {
		t.Errorf("storage should default to the log dir, got %v",
			c.StorageURI())
	}
	if c.ModelName() != "sac_Pendulum-SwingUp.gob" {
		t.Errorf("unexpected model name %v", c.ModelName())
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{
		"name: [",
		"total_timesteps: -1",
		"checkpoint: {cadence: 0}",
		"environment: {name: Pendulum, task: Forward}",
		"agent: {actor_learning_rate: 0}",
		"name: ''",
	}
	for _, test := range tests {
		if _, err := Parse([]byte(test)); err == nil {
			t.Errorf("expected %q to be invalid", test)
		}
	}
}

func TestStorageEnv(t *testing.T) {
	t.Setenv(StorageEnv, "s3://models/sac")
	c, err := Parse([]byte("storage: ./elsewhere"))
	if err != nil {
		t.Fatal(err)
	}
	if c.StorageURI() != "s3://models/sac" {
		t.Errorf("environment should override storage, got %v",
			c.StorageURI())
	}
}

func TestSaveLoad(t *testing.T) {
	t.Setenv(StorageEnv, "")
	filename := filepath.Join(t.TempDir(), "run.yaml")
	c := Default()
	c.Name = "td3"
	c.Checkpoint.Verbose = false
	if err := c.Save(filename); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != c {
		t.Errorf("loaded %+v, want %+v", loaded, c)
	}
}
