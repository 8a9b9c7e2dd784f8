// Function approximator — a small two-layer sigmoid network estimating
// action values from the encoded feature vector. A frozen target copy is
// synced from the live network periodically so TD targets don't chase a
// moving estimate.
// See design doc Section 5.4.
package brain

import (
	"math"
	"math/rand"
)

// HiddenSize is the width of the single hidden layer. Big enough for the
// bounded feature space, small enough to train per-agent every tick batch.
const HiddenSize = 24

// Network is a feed-forward sigmoid MLP trained by plain backpropagation.
type Network struct {
	inSize, hiddenSize, outSize int
	lr                          float64

	wIH [][]float64 // [in][hidden]
	wHO [][]float64 // [hidden][out]
	bH  []float64
	bO  []float64
}

// NewNetwork creates a network with small random initial weights drawn from
// the supplied source.
func NewNetwork(inSize, hiddenSize, outSize int, lr float64, rng *rand.Rand) *Network {
	n := &Network{
		inSize:     inSize,
		hiddenSize: hiddenSize,
		outSize:    outSize,
		lr:         lr,
		wIH:        make([][]float64, inSize),
		wHO:        make([][]float64, hiddenSize),
		bH:         make([]float64, hiddenSize),
		bO:         make([]float64, outSize),
	}
	for i := range n.wIH {
		n.wIH[i] = make([]float64, hiddenSize)
		for j := range n.wIH[i] {
			n.wIH[i][j] = rng.NormFloat64() * 0.1
		}
	}
	for i := range n.wHO {
		n.wHO[i] = make([]float64, outSize)
		for j := range n.wHO[i] {
			n.wHO[i][j] = rng.NormFloat64() * 0.1
		}
	}
	return n
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

// Forward computes action-value estimates for one feature vector.
func (n *Network) Forward(input []float64) []float64 {
	hidden := make([]float64, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		sum := n.bH[j]
		for i := 0; i < n.inSize && i < len(input); i++ {
			sum += input[i] * n.wIH[i][j]
		}
		hidden[j] = sigmoid(sum)
	}
	out := make([]float64, n.outSize)
	for k := 0; k < n.outSize; k++ {
		sum := n.bO[k]
		for j := 0; j < n.hiddenSize; j++ {
			sum += hidden[j] * n.wHO[j][k]
		}
		out[k] = sigmoid(sum)
	}
	return out
}

// Train performs one backpropagation step toward the target vector.
func (n *Network) Train(input, target []float64) {
	// Forward pass, keeping intermediates.
	hidden := make([]float64, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		sum := n.bH[j]
		for i := 0; i < n.inSize && i < len(input); i++ {
			sum += input[i] * n.wIH[i][j]
		}
		hidden[j] = sigmoid(sum)
	}
	out := make([]float64, n.outSize)
	for k := 0; k < n.outSize; k++ {
		sum := n.bO[k]
		for j := 0; j < n.hiddenSize; j++ {
			sum += hidden[j] * n.wHO[j][k]
		}
		out[k] = sigmoid(sum)
	}

	// Output layer deltas.
	outDelta := make([]float64, n.outSize)
	for k := 0; k < n.outSize; k++ {
		err := 0.0
		if k < len(target) {
			err = target[k] - out[k]
		}
		outDelta[k] = err * out[k] * (1 - out[k])
	}

	// Hidden layer deltas.
	hidDelta := make([]float64, n.hiddenSize)
	for j := 0; j < n.hiddenSize; j++ {
		err := 0.0
		for k := 0; k < n.outSize; k++ {
			err += outDelta[k] * n.wHO[j][k]
		}
		hidDelta[j] = err * hidden[j] * (1 - hidden[j])
	}

	// Weight updates.
	for j := 0; j < n.hiddenSize; j++ {
		for k := 0; k < n.outSize; k++ {
			n.wHO[j][k] += n.lr * outDelta[k] * hidden[j]
		}
	}
	for k := 0; k < n.outSize; k++ {
		n.bO[k] += n.lr * outDelta[k]
	}
	for i := 0; i < n.inSize && i < len(input); i++ {
		for j := 0; j < n.hiddenSize; j++ {
			n.wIH[i][j] += n.lr * hidDelta[j] * input[i]
		}
	}
	for j := 0; j < n.hiddenSize; j++ {
		n.bH[j] += n.lr * hidDelta[j]
	}
}

// Clone returns a deep copy sharing no slices with the original.
func (n *Network) Clone() *Network {
	c := &Network{
		inSize:     n.inSize,
		hiddenSize: n.hiddenSize,
		outSize:    n.outSize,
		lr:         n.lr,
		wIH:        copyMatrix(n.wIH),
		wHO:        copyMatrix(n.wHO),
		bH:         append([]float64(nil), n.bH...),
		bO:         append([]float64(nil), n.bO...),
	}
	return c
}

// CopyFrom overwrites this network's parameters with a deep copy of the
// other's. Used for the periodic target sync.
func (n *Network) CopyFrom(other *Network) {
	n.wIH = copyMatrix(other.wIH)
	n.wHO = copyMatrix(other.wHO)
	n.bH = append([]float64(nil), other.bH...)
	n.bO = append([]float64(nil), other.bO...)
}

// NetworkParams is the copyable, serializable view of a network's learned
// state. Handed to the genetics collaborator and to checkpoints.
type NetworkParams struct {
	InSize     int         `json:"in_size"`
	HiddenSize int         `json:"hidden_size"`
	OutSize    int         `json:"out_size"`
	LR         float64     `json:"lr"`
	WIH        [][]float64 `json:"w_ih"`
	WHO        [][]float64 `json:"w_ho"`
	BH         []float64   `json:"b_h"`
	BO         []float64   `json:"b_o"`
}

// Params exports a deep copy of the network parameters.
func (n *Network) Params() NetworkParams {
	return NetworkParams{
		InSize:     n.inSize,
		HiddenSize: n.hiddenSize,
		OutSize:    n.outSize,
		LR:         n.lr,
		WIH:        copyMatrix(n.wIH),
		WHO:        copyMatrix(n.wHO),
		BH:         append([]float64(nil), n.bH...),
		BO:         append([]float64(nil), n.bO...),
	}
}

// NetworkFromParams builds a network owning deep copies of the given
// parameters. The caller's copy stays independent.
func NetworkFromParams(p NetworkParams) *Network {
	return &Network{
		inSize:     p.InSize,
		hiddenSize: p.HiddenSize,
		outSize:    p.OutSize,
		lr:         p.LR,
		wIH:        copyMatrix(p.WIH),
		wHO:        copyMatrix(p.WHO),
		bH:         append([]float64(nil), p.BH...),
		bO:         append([]float64(nil), p.BO...),
	}
}

func copyMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
