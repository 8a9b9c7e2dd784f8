// Genetics operator — merges two parents' inheritable brain material into a
// child seed and applies mutation. The lifecycle deep-copies the result, so
// siblings produced from the same parents with different seeds own fully
// independent parameters.
package genome

import (
	"math/rand"

	"github.com/talgya/micro-minds/internal/brain"
)

// Operator combines parent brain material into a child's starting material.
// Implementations must return material that shares no mutable state with
// the inputs.
type Operator interface {
	Inherit(mother, father brain.Material, childCfg brain.Config, rng *rand.Rand) brain.Material
}

// DefaultOperator is the built-in reproduction operator: per-state Q-value
// inheritance from either parent, per-weight network blending, plus small
// Gaussian mutation on the network.
type DefaultOperator struct {
	// MutationRate is the probability of perturbing each inherited
	// Q-value; network weights always receive small noise.
	MutationRate float64
}

// NewDefaultOperator returns an operator with the standard mutation rate.
func NewDefaultOperator() *DefaultOperator {
	return &DefaultOperator{MutationRate: 0.1}
}

// Inherit implements Operator.
func (op *DefaultOperator) Inherit(mother, father brain.Material, childCfg brain.Config, rng *rand.Rand) brain.Material {
	child := brain.Material{
		Config:  childCfg,
		QValues: make(map[brain.StateKey][brain.NumActions]float64),
		Visits:  make(map[brain.StateKey]int),
	}

	// Q-table structure: union of both parents' keys, each row picked from
	// one parent. Visit counts reset — confidence must be re-earned.
	for key, row := range mother.QValues {
		child.QValues[key] = row
	}
	for key, row := range father.QValues {
		if _, seen := child.QValues[key]; !seen || rng.Float64() < 0.5 {
			child.QValues[key] = row
		}
	}

	// Occasional Q-value mutation keeps offspring from inheriting a frozen
	// policy.
	for key, row := range child.QValues {
		if rng.Float64() < op.MutationRate {
			row[rng.Intn(brain.NumActions)] += rng.Float64() - 0.5
			child.QValues[key] = row
		}
	}

	child.Net = blendNetworks(mother.Net, father.Net, rng)
	return child
}

// blendNetworks picks each weight from either parent and adds small noise.
// Falls back to whichever parent has parameters when shapes differ.
func blendNetworks(a, b brain.NetworkParams, rng *rand.Rand) brain.NetworkParams {
	if a.InSize == 0 {
		return b
	}
	if b.InSize == 0 || a.InSize != b.InSize || a.HiddenSize != b.HiddenSize || a.OutSize != b.OutSize {
		return a
	}

	out := a // Value copy of the header fields; matrices rebuilt below.
	out.WIH = blendMatrix(a.WIH, b.WIH, rng)
	out.WHO = blendMatrix(a.WHO, b.WHO, rng)
	out.BH = blendVector(a.BH, b.BH, rng)
	out.BO = blendVector(a.BO, b.BO, rng)
	return out
}

func blendMatrix(a, b [][]float64, rng *rand.Rand) [][]float64 {
	out := make([][]float64, len(a))
	for i := range a {
		out[i] = blendVector(a[i], b[i], rng)
	}
	return out
}

func blendVector(a, b []float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if rng.Float64() < 0.5 {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
		out[i] += rng.NormFloat64() * 0.01
	}
	return out
}
