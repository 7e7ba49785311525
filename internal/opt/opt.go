// Package opt provides optimization algorithms.
package opt

import "math"

// Optimizer applies one update to a parameter group in place. The group name
// identifies the parameters across calls so stateful optimizers can keep
// per-group moment estimates.
type Optimizer interface {
	Step(group string, params, gradients []float64)
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// Step updates params in-place: params = params - lr * gradients.
func (s SGD) Step(group string, params, gradients []float64) {
	for i := range params {
		params[i] -= s.LearningRate * gradients[i]
	}
}

// Adam optimizer with per-group first and second moment estimates and bias
// correction.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	state map[string]*adamState
}

type adamState struct {
	m []float64
	v []float64
	t int
}

// NewAdam creates a new Adam optimizer with default decay rates.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		state:        make(map[string]*adamState),
	}
}

// Step updates params in-place using bias-corrected moment estimates. Moment
// state is allocated lazily per group on first use.
func (a *Adam) Step(group string, params, gradients []float64) {
	st := a.ensure(group, len(params))
	st.t++

	c1 := 1 - math.Pow(a.Beta1, float64(st.t))
	c2 := 1 - math.Pow(a.Beta2, float64(st.t))

	for i := range params {
		g := gradients[i]
		st.m[i] = a.Beta1*st.m[i] + (1-a.Beta1)*g
		st.v[i] = a.Beta2*st.v[i] + (1-a.Beta2)*g*g

		mHat := st.m[i] / c1
		vHat := st.v[i] / c2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}

func (a *Adam) ensure(group string, n int) *adamState {
	if a.state == nil {
		a.state = make(map[string]*adamState)
	}
	st, ok := a.state[group]
	if !ok || len(st.m) != n {
		st = &adamState{
			m: make([]float64, n),
			v: make([]float64, n),
		}
		a.state[group] = st
	}
	return st
}
