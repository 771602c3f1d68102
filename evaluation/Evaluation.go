// Package evaluation implements offline evaluation of trained agents
package evaluation

import (
	"fmt"

	"github.com/samuelfneumann/baselines/agent"
	"github.com/samuelfneumann/baselines/environment"
	"gonum.org/v1/gonum/stat"
)

// Evaluate runs the policy for the given number of episodes in
// evaluation mode and returns the mean and standard deviation of the
// episodic returns. The policy is returned to its previous mode
// afterwards.
func Evaluate(env environment.Environment, policy agent.Policy,
	episodes int) (mean, std float64, err error) {
	if episodes <= 0 {
		return 0, 0, fmt.Errorf("evaluate: episodes must be positive, "+
			"got %v", episodes)
	}

	if !policy.IsEval() {
		policy.Eval()
		defer policy.Train()
	}

	returns := make([]float64, 0, episodes)
	for i := 0; i < episodes; i++ {
		ret, _, _, err := runEpisode(env, policy, 0)
		if err != nil {
			return 0, 0, fmt.Errorf("evaluate: episode %v: %w", i, err)
		}
		returns = append(returns, ret)
	}

	mean, std = stat.PopMeanStdDev(returns, nil)
	return mean, std, nil
}

// runEpisode runs a single episode and returns its return and length
// and whether it finished. If maxSteps is positive, the episode is cut
// off after maxSteps steps.
func runEpisode(env environment.Environment, policy agent.Policy,
	maxSteps int) (float64, int, bool, error) {
	step, err := env.Reset()
	if err != nil {
		return 0, 0, false, err
	}

	var ret float64
	var length int
	for maxSteps <= 0 || length < maxSteps {
		action := policy.SelectAction(step)

		var done bool
		step, done, err = env.Step(action)
		if err != nil {
			return ret, length, false, err
		}
		ret += step.Reward
		length++

		if done {
			return ret, length, true, nil
		}
	}
	return ret, length, false, nil
}
