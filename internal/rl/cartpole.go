package rl

import (
	"fmt"
	"math"
	"math/rand"
)

// Classic cart-pole control task: a pole is hinged to a cart on a
// frictionless track, and each step pushes the cart left or right.
// The episode ends when the pole tips past 12 degrees, the cart leaves
// the track, or the step limit is reached. Every step earns reward 1.
const (
	gravity       = 9.8
	cartMass      = 1.0
	poleMass      = 0.1
	totalMass     = cartMass + poleMass
	poleHalfLen   = 0.5
	poleMassLen   = poleMass * poleHalfLen
	forceMag      = 10.0
	tau           = 0.02 // seconds per Euler step
	xThreshold    = 2.4
	thetaThresh   = 12 * 2 * math.Pi / 360
	maxEpisodeLen = 500
)

// CartPole implements Env for the cart-pole balancing task. It is
// deterministic given the seed. Not safe for concurrent use.
type CartPole struct {
	// state is (x, xDot, theta, thetaDot).
	state    [4]float64
	rng      *rand.Rand
	steps    int
	maxSteps int
	done     bool
}

var _ Env = (*CartPole)(nil)

// NewCartPole creates a seeded cart-pole environment with the standard
// 500-step episode limit. Call Reset before the first Step.
func NewCartPole(seed int64) *CartPole {
	return &CartPole{
		//nolint:gosec // math/rand is fine for simulation noise
		rng:      rand.New(rand.NewSource(seed)),
		maxSteps: maxEpisodeLen,
		done:     true,
	}
}

// Reset starts a new episode with every state variable drawn uniformly
// from [-0.05, 0.05] and returns the initial observation.
func (c *CartPole) Reset() []float32 {
	for i := range c.state {
		c.state[i] = c.rng.Float64()*0.1 - 0.05
	}
	c.steps = 0
	c.done = false
	return c.observation()
}

// Step pushes the cart (0 = left, 1 = right), integrates one Euler
// step of the dynamics, and returns the next observation, the reward,
// and whether the episode ended. Stepping a finished episode panics.
func (c *CartPole) Step(action int) ([]float32, float64, bool) {
	if c.done {
		panic("CartPole: Step on a finished episode, call Reset first")
	}
	if action != 0 && action != 1 {
		panic(fmt.Sprintf("CartPole: invalid action %d, want 0 or 1", action))
	}

	x, xDot, theta, thetaDot := c.state[0], c.state[1], c.state[2], c.state[3]

	force := -forceMag
	if action == 1 {
		force = forceMag
	}
	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	temp := (force + poleMassLen*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) /
		(poleHalfLen * (4.0/3.0 - poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLen*thetaAcc*cosTheta/totalMass

	// Explicit Euler: positions advance on the old velocities.
	c.state[0] = x + tau*xDot
	c.state[1] = xDot + tau*xAcc
	c.state[2] = theta + tau*thetaDot
	c.state[3] = thetaDot + tau*thetaAcc

	c.steps++
	c.done = c.state[0] < -xThreshold || c.state[0] > xThreshold ||
		c.state[2] < -thetaThresh || c.state[2] > thetaThresh ||
		c.steps >= c.maxSteps

	return c.observation(), 1.0, c.done
}

// ObservationSize returns 4: cart position, cart velocity, pole angle,
// pole angular velocity.
func (c *CartPole) ObservationSize() int { return 4 }

// ActionCount returns 2: push left, push right.
func (c *CartPole) ActionCount() int { return 2 }

func (c *CartPole) observation() []float32 {
	return []float32{
		float32(c.state[0]),
		float32(c.state[1]),
		float32(c.state[2]),
		float32(c.state[3]),
	}
}
