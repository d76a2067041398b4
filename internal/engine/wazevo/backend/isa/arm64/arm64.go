package arm64

import (
	"github.com/faddat/wazero/internal/engine/wazevo/backend"
)

// NewCapabilities returns the capabilities of arm64 with both scalar and NEON vector queries.
func NewCapabilities() backend.Capabilities {
	return backend.ScalarAndVector(backend.NewDefaultScalar(NewLoweringInfo()), neon{})
}
