package rl

import (
	"fmt"
	"math/rand"

	"github.com/nilslice/tch-go/internal/autodiff"
	"github.com/nilslice/tch-go/internal/nn"
	"github.com/nilslice/tch-go/internal/optim"
	"github.com/nilslice/tch-go/internal/tensor"
)

// TrainerConfig configures policy-gradient training. Zero values fall
// back to the defaults of the reward-to-go REINFORCE setup: 50 epochs
// of 5000-step batches through a 32-unit tanh policy, Adam at 1e-2.
type TrainerConfig struct {
	Epochs     int
	BatchSize  int
	LR         float64
	HiddenSize int
	Seed       int64
}

func (c TrainerConfig) withDefaults() TrainerConfig {
	if c.Epochs == 0 {
		c.Epochs = 50
	}
	if c.BatchSize == 0 {
		c.BatchSize = 5000
	}
	if c.LR == 0 {
		c.LR = 1e-2
	}
	if c.HiddenSize == 0 {
		c.HiddenSize = 32
	}
	return c
}

// EpochStats summarizes one training epoch.
type EpochStats struct {
	Epoch     int
	Episodes  int
	Steps     int
	AvgReward float64
	Loss      float64
}

// Trainer runs REINFORCE with reward-to-go on an environment. The
// policy is a two-layer tanh network mapping observations to action
// logits; actions are sampled from its softmax during rollouts and the
// log-probabilities of the taken actions are reinforced by their
// accumulated rewards.
type Trainer[B autodiff.BackwardCapable] struct {
	env       Env
	backend   B
	config    TrainerConfig
	store     *nn.VarStore[B]
	policy    *nn.Sequential[B]
	optimizer optim.Optimizer
	rng       *rand.Rand
}

// NewTrainer builds the policy network and optimizer for env on the
// given backend.
func NewTrainer[B autodiff.BackwardCapable](env Env, backend B, config TrainerConfig) *Trainer[B] {
	config = config.withDefaults()

	store := nn.NewVarStore(backend)
	root := store.Root()
	policy := nn.NewSequential[B](
		nn.NewLinear(root.Sub("lin1"), env.ObservationSize(), config.HiddenSize),
		nn.NewTanh[B](),
		nn.NewLinear(root.Sub("lin2"), config.HiddenSize, env.ActionCount()),
	)

	return &Trainer[B]{
		env:       env,
		backend:   backend,
		config:    config,
		store:     store,
		policy:    policy,
		optimizer: optim.NewAdam(store, optim.AdamConfig{LR: config.LR}),
		//nolint:gosec // math/rand is fine for action sampling
		rng: rand.New(rand.NewSource(config.Seed)),
	}
}

// Store returns the variable store holding the policy weights.
func (t *Trainer[B]) Store() *nn.VarStore[B] { return t.store }

// Policy returns the policy network.
func (t *Trainer[B]) Policy() *nn.Sequential[B] { return t.policy }

// Optimizer returns the optimizer driving policy updates.
func (t *Trainer[B]) Optimizer() optim.Optimizer { return t.optimizer }

// Train runs the configured number of epochs. Each epoch collects one
// rollout batch and applies one policy-gradient step. onEpoch, when
// non-nil, is called with the stats of every finished epoch.
func (t *Trainer[B]) Train(onEpoch func(EpochStats)) []EpochStats {
	stats := make([]EpochStats, 0, t.config.Epochs)
	for epoch := 0; epoch < t.config.Epochs; epoch++ {
		steps := t.collectRollout()

		totalReward := 0.0
		episodes := 0
		for _, s := range steps {
			totalReward += s.Reward
			if s.IsDone {
				episodes++
			}
		}

		loss := t.trainOnRollout(steps)

		s := EpochStats{
			Epoch:     epoch,
			Episodes:  episodes,
			Steps:     len(steps),
			AvgReward: totalReward / float64(episodes),
			Loss:      loss,
		}
		stats = append(stats, s)
		if onEpoch != nil {
			onEpoch(s)
		}
	}
	return stats
}

// collectRollout plays episodes with the current policy until a batch
// is full. The batch always ends on an episode boundary, so the last
// episode is never truncated mid-flight.
func (t *Trainer[B]) collectRollout() []Step {
	var steps []Step
	obs := t.env.Reset()
	for {
		action := t.SampleAction(obs)
		nextObs, reward, done := t.env.Step(action)
		steps = append(steps, Step{Obs: obs, Action: action, Reward: reward, IsDone: done})
		if done {
			obs = t.env.Reset()
			if len(steps) > t.config.BatchSize {
				return steps
			}
		} else {
			obs = nextObs
		}
	}
}

// SampleAction draws an action from softmax(policy(obs)). The forward
// pass runs with the tape paused, rollouts leave no trace on it.
func (t *Trainer[B]) SampleAction(obs []float32) int {
	var action int
	autodiff.NoGrad(t.backend, func() {
		x := t.obsTensor(obs)
		probs := t.policy.Forward(x).Softmax(1)
		action = sampleMultinomial(t.rng, probs.Data())
	})
	return action
}

// GreedyAction returns argmax(policy(obs)), the deterministic policy
// used for evaluation.
func (t *Trainer[B]) GreedyAction(obs []float32) int {
	var action int
	autodiff.NoGrad(t.backend, func() {
		x := t.obsTensor(obs)
		action = int(t.policy.Forward(x).Argmax(1).Data()[0])
	})
	return action
}

// Evaluate plays full episodes with the greedy policy and returns the
// mean episode return.
func (t *Trainer[B]) Evaluate(episodes int) float64 {
	total := 0.0
	for i := 0; i < episodes; i++ {
		obs := t.env.Reset()
		for {
			obs2, reward, done := t.env.Step(t.GreedyAction(obs))
			total += reward
			if done {
				break
			}
			obs = obs2
		}
	}
	return total / float64(episodes)
}

// trainOnRollout applies one REINFORCE step on a collected batch and
// returns the loss value.
func (t *Trainer[B]) trainOnRollout(steps []Step) float64 {
	batch := len(steps)
	obsSize := t.env.ObservationSize()
	actions := t.env.ActionCount()

	obsData := make([]float32, 0, batch*obsSize)
	maskData := make([]float32, batch*actions)
	for i, s := range steps {
		obsData = append(obsData, s.Obs...)
		maskData[i*actions+s.Action] = 1
	}
	rewardData := make([]float32, batch)
	for i, r := range AccumulateRewards(steps) {
		rewardData[i] = float32(r)
	}

	obs := t.newTensor(obsData, tensor.Shape{batch, obsSize})
	mask := t.newTensor(maskData, tensor.Shape{batch, actions})
	rewards := t.newTensor(rewardData, tensor.Shape{batch})

	// loss = -mean(rewards_to_go * log pi(a_t | s_t))
	logits := t.policy.Forward(obs)
	logProbs := mask.Mul(logits.LogSoftmax(1)).SumDim(1, false)
	loss := rewards.Mul(logProbs).Mean().Neg()

	value := float64(loss.Item())
	optim.BackwardStep(loss, t.optimizer, t.backend)
	return value
}

func (t *Trainer[B]) obsTensor(obs []float32) *tensor.Tensor[float32, B] {
	return t.newTensor(obs, tensor.Shape{1, len(obs)})
}

func (t *Trainer[B]) newTensor(data []float32, shape tensor.Shape) *tensor.Tensor[float32, B] {
	x, err := tensor.FromSlice(data, shape, t.backend)
	if err != nil {
		panic(fmt.Sprintf("rl: build %v tensor: %v", shape, err))
	}
	return x
}

// sampleMultinomial draws an index from an unnormalized-safe
// probability vector. Rounding can leave the cumulative sum a hair
// under 1, in which case the last index wins.
func sampleMultinomial(rng *rand.Rand, probs []float32) int {
	r := rng.Float32()
	var cum float32
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(probs) - 1
}
