// Error kinds for the cognitive engine. A fault in one agent's brain must
// never corrupt another agent's state — the engine catches per-agent failures
// and defaults the agent to idle for the tick.
package brain

import "errors"

var (
	// ErrConfiguration marks invalid hyperparameters: non-positive learning
	// rate, exploration rate outside [0,1], capacities <= 0, or a Q-table
	// that grew past its soft cap (an encoder contract violation upstream).
	ErrConfiguration = errors.New("brain: invalid configuration")

	// ErrEncoderBounds marks an input the encoder cannot clamp into a valid
	// bucket (NaN or infinite). Indicates a bug in the caller, not here.
	ErrEncoderBounds = errors.New("brain: input outside encodable bounds")

	// ErrMemoryInvariant marks a violated memory bound. This is a bug, not a
	// normal condition: callers in production repair with a forced eviction
	// and log a warning; tests treat it as fatal.
	ErrMemoryInvariant = errors.New("brain: memory invariant violated")
)
