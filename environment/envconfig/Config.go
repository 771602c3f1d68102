// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are YAML serializable.
package envconfig

import (
	"fmt"

	env "github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/environment/box2d/crawler"
	"github.com/samuelfneumann/baselines/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/baselines/environment/gym"
	ts "github.com/samuelfneumann/baselines/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Pendulum EnvName = "Pendulum"
	Crawler  EnvName = "Crawler"
	Gym      EnvName = "Gym"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment		Task
//	Pendulum		SwingUp
//	Crawler			Forward
//	Gym			any gym environment id, e.g. HumanoidBulletEnv-v0
type TaskName string

// Tasks available for configuration
const (
	SwingUp TaskName = "SwingUp"
	Forward TaskName = "Forward"
)

// DefaultControlCost is the control cost of the Crawler Forward task
const DefaultControlCost float64 = 0.05

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment   EnvName  `yaml:"name"`
	Task          TaskName `yaml:"task"`
	EpisodeCutoff int      `yaml:"episode_cutoff"`
	Discount      float64  `yaml:"discount"`
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff int,
	discount float64) Config {
	return Config{
		Environment:   envName,
		Task:          taskName,
		EpisodeCutoff: episodeCutoff,
		Discount:      discount,
	}
}

// ID returns a short identifier of the configured environment and
// task, used to name saved models and results
func (c Config) ID() string {
	if c.Environment == Gym {
		if c.Task == "" {
			return gym.DefaultEnv
		}
		return string(c.Task)
	}
	return fmt.Sprintf("%v-%v", c.Environment, c.Task)
}

// Validate returns an error if the Config is invalid
func (c Config) Validate() error {
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], got %v",
			c.Discount)
	}
	if c.Environment != Gym && c.EpisodeCutoff <= 0 {
		return fmt.Errorf("validate: episode cutoff must be positive, "+
			"got %v", c.EpisodeCutoff)
	}

	switch c.Environment {
	case Pendulum:
		if c.Task != SwingUp {
			return fmt.Errorf("validate: Pendulum environment has no "+
				"task %v", c.Task)
		}
	case Crawler:
		if c.Task != Forward {
			return fmt.Errorf("validate: Crawler environment has no "+
				"task %v", c.Task)
		}
	case Gym:
	default:
		return fmt.Errorf("validate: no such environment %v", c.Environment)
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	switch c.Environment {
	case Pendulum:
		return CreatePendulum(c.EpisodeCutoff, seed, c.Discount)

	case Crawler:
		return CreateCrawler(c.EpisodeCutoff, seed, c.Discount)

	default:
		return gym.New(string(c.Task), c.Discount, seed)
	}
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and the SwingUp task.
func CreatePendulum(cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep, error) {
	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}

	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)
	return pendulum.New(pendulum.NewSwingUp(s, cutoff), discount)
}

// CreateCrawler is a factory for creating the Crawler environment
// with the Forward task. The body starts with a small random tilt.
func CreateCrawler(cutoff int, seed uint64,
	discount float64) (env.Environment, ts.TimeStep, error) {
	s := env.NewUniformStarter([]r1.Interval{{Min: -0.05, Max: 0.05}}, seed)
	return crawler.New(crawler.NewForward(s, cutoff, DefaultControlCost),
		discount)
}
