package consensus

import "github.com/calico-network/calicod/domain/dagconfig"

// Config is the set of parameters a Consensus is created with
type Config struct {
	dagconfig.Params

	// EventsChanCapacity is the capacity of the channel consensus events are
	// pushed into when the caller does not provide one
	EventsChanCapacity int
}

const defaultEventsChanCapacity = 1000

// NewConfig returns a Config for the given network with default values
func NewConfig(params *dagconfig.Params) *Config {
	return &Config{
		Params:             *params,
		EventsChanCapacity: defaultEventsChanCapacity,
	}
}
