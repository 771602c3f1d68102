// Package actorcritic implements linear Actor-Critic algorithms
package actorcritic

import "fmt"

// Config represents a configuration for a LinearGaussian agent
type Config struct {
	ActorLearningRate  float64 `yaml:"actor_learning_rate"`
	CriticLearningRate float64 `yaml:"critic_learning_rate"`
	Decay              float64 `yaml:"decay"`

	// ScaleActorLR scales the actor learning rate by the policy
	// variance. Only used with 1-dimensional actions.
	ScaleActorLR bool `yaml:"scale_actor_lr"`
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.ActorLearningRate <= 0 {
		return fmt.Errorf("validate: actor learning rate must be "+
			"positive, got %v", c.ActorLearningRate)
	}
	if c.CriticLearningRate <= 0 {
		return fmt.Errorf("validate: critic learning rate must be "+
			"positive, got %v", c.CriticLearningRate)
	}
	if c.Decay < 0 || c.Decay > 1 {
		return fmt.Errorf("validate: trace decay must be in [0, 1], got %v",
			c.Decay)
	}
	return nil
}
