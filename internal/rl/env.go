// Package rl implements reinforcement-learning environments and a
// policy-gradient trainer on top of the autodiff backend.
//
// The shipped CartPole environment and the REINFORCE trainer follow
// the reward-to-go formulation from OpenAI's Spinning Up introduction:
// rollouts are collected with the current policy, each step is weighted
// by the return accumulated from that step to the end of its episode,
// and the policy ascends the resulting gradient.
package rl

// Env is an episodic environment with a discrete action space.
// Observations are flat float32 vectors of a fixed size.
type Env interface {
	// Reset starts a new episode and returns the initial observation.
	Reset() []float32

	// Step advances the episode by one action and returns the next
	// observation, the reward earned, and whether the episode ended.
	Step(action int) (obs []float32, reward float64, done bool)

	// ObservationSize returns the length of observation vectors.
	ObservationSize() int

	// ActionCount returns the number of discrete actions.
	ActionCount() int
}

// Step records one transition of a rollout. Obs is the observation the
// action was chosen from, not the one the action produced.
type Step struct {
	Obs    []float32
	Action int
	Reward float64
	IsDone bool
}

// AccumulateRewards converts per-step rewards into reward-to-go: each
// step's value becomes the sum of rewards from that step to the end of
// its episode. Episode boundaries (IsDone) reset the accumulation, so
// a batch may span several episodes.
func AccumulateRewards(steps []Step) []float64 {
	rewards := make([]float64, len(steps))
	acc := 0.0
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].IsDone {
			acc = 0.0
		}
		acc += steps[i].Reward
		rewards[i] = acc
	}
	return rewards
}
