package evaluation

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/baselines/agent"
	"github.com/samuelfneumann/baselines/environment"
)

// Rollouts stores the returns and lengths of episodes run with a
// saved agent, together with the location the agent was loaded from
type Rollouts struct {
	Returns    []float64
	Lengths    []int
	Checkpoint string
}

// Len returns the number of recorded episodes
func (r Rollouts) Len() int {
	return len(r.Returns)
}

// Save saves the rollouts to a file
func (r Rollouts) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(r); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return file.Close()
}

// LoadRollouts loads rollouts saved with Rollouts.Save
func LoadRollouts(filename string) (Rollouts, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Rollouts{}, fmt.Errorf("loadRollouts: %w", err)
	}
	defer file.Close()

	var r Rollouts
	if err := gob.NewDecoder(file).Decode(&r); err != nil {
		return Rollouts{}, fmt.Errorf("loadRollouts: %w", err)
	}
	return r, nil
}

// Progress is called after each rollout episode with the episode
// index, its return and length, and whether it finished within the
// step limit
type Progress func(episode int, ret float64, length int, finished bool)

// Rollout runs the policy for the given number of episodes, each cut
// off after maxSteps steps, and records the return and length of every
// episode that finishes within the step limit. Episodes that are cut
// off are not recorded. The policy is used in whichever mode it is in.
//
// If progress is not nil, it is called after every episode.
func Rollout(env environment.Environment, policy agent.Policy, episodes,
	maxSteps int, progress Progress) (Rollouts, error) {
	if episodes <= 0 || maxSteps <= 0 {
		return Rollouts{}, fmt.Errorf("rollout: episodes and max steps "+
			"must be positive, got %v and %v", episodes, maxSteps)
	}

	var r Rollouts
	for i := 0; i < episodes; i++ {
		ret, length, finished, err := runEpisode(env, policy, maxSteps)
		if err != nil {
			return r, fmt.Errorf("rollout: episode %v: %w", i, err)
		}

		if finished {
			r.Returns = append(r.Returns, ret)
			r.Lengths = append(r.Lengths, length)
		}
		if progress != nil {
			progress(i, ret, length, finished)
		}
	}
	return r, nil
}
