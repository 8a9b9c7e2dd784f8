package brain

import (
	"math"
	"math/rand"
	"testing"
)

func TestNetworkTrainReducesError(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := NewNetwork(FeatureSize, HiddenSize, NumActions, 0.5, rng)

	input := make([]float64, FeatureSize)
	input[0], input[5] = 1, 1
	target := make([]float64, NumActions)
	target[2] = 0.9

	before := math.Abs(target[2] - n.Forward(input)[2])
	for i := 0; i < 500; i++ {
		n.Train(input, target)
	}
	after := math.Abs(target[2] - n.Forward(input)[2])

	if after >= before {
		t.Fatalf("error did not decrease: %v -> %v", before, after)
	}
	if after > 0.05 {
		t.Fatalf("error after training = %v, want < 0.05", after)
	}
}

func TestNetworkCloneIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n := NewNetwork(FeatureSize, HiddenSize, NumActions, 0.1, rng)
	c := n.Clone()

	input := make([]float64, FeatureSize)
	input[3] = 1
	want := c.Forward(input)

	target := make([]float64, NumActions)
	target[0] = 1
	for i := 0; i < 100; i++ {
		n.Train(input, target)
	}

	got := c.Forward(input)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("clone output changed after training original: %v vs %v", got[i], want[i])
		}
	}
}

func TestNetworkParamsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := NewNetwork(FeatureSize, HiddenSize, NumActions, 0.1, rng)

	rebuilt := NetworkFromParams(n.Params())

	input := make([]float64, FeatureSize)
	for i := range input {
		input[i] = rng.Float64()
	}
	a, b := n.Forward(input), rebuilt.Forward(input)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output %d differs after round trip: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestNetworkParamsDeepCopy(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := NewNetwork(FeatureSize, HiddenSize, NumActions, 0.1, rng)

	input := make([]float64, FeatureSize)
	input[0] = 1
	before := n.Forward(input)

	p := n.Params()
	p.WIH[0][0] = 1e9
	p.BO[0] = 1e9

	after := n.Forward(input)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("mutating exported params leaked into network: %v vs %v", before[i], after[i])
		}
	}
}
