// Copyright 2025 The tch-go Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package rl provides reinforcement learning environments and a
// policy-gradient trainer built on the autodiff backend.
//
// The package ships with a classic CartPole environment and a REINFORCE
// trainer that learns a softmax policy over discrete actions:
//
//	env := rl.NewCartPole(42)
//	backend := autodiff.New(cpu.New())
//	trainer := rl.NewTrainer(env, backend, rl.TrainerConfig{Epochs: 50})
//	stats := trainer.Train(func(s rl.EpochStats) {
//	    fmt.Printf("epoch %d: avg reward %.1f\n", s.Epoch, s.AvgReward)
//	})
//
// Custom environments implement the Env interface.
package rl

import (
	"github.com/nilslice/tch-go/internal/autodiff"
	"github.com/nilslice/tch-go/internal/rl"
)

// Env is a discrete-action episodic environment.
type Env = rl.Env

// Step records one environment transition used for policy-gradient
// training.
type Step = rl.Step

// AccumulateRewards computes the reward-to-go for each step, resetting
// at episode boundaries.
func AccumulateRewards(steps []Step) []float64 {
	return rl.AccumulateRewards(steps)
}

// CartPole is the classic cart-pole balancing environment.
type CartPole = rl.CartPole

// NewCartPole creates a CartPole environment with its own RNG seeded
// by seed.
func NewCartPole(seed int64) *CartPole {
	return rl.NewCartPole(seed)
}

// TrainerConfig configures the policy-gradient trainer. Zero values
// fall back to documented defaults.
type TrainerConfig = rl.TrainerConfig

// EpochStats summarizes one training epoch.
type EpochStats = rl.EpochStats

// Trainer trains a softmax policy on an Env with REINFORCE.
type Trainer[B autodiff.BackwardCapable] = rl.Trainer[B]

// NewTrainer creates a Trainer for env on backend. The policy network
// is a two-layer MLP sized from the environment's observation and
// action spaces.
func NewTrainer[B autodiff.BackwardCapable](env Env, backend B, config TrainerConfig) *Trainer[B] {
	return rl.NewTrainer(env, backend, config)
}
