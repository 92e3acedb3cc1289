package blockvalidator

import "github.com/calico-network/calicod/infrastructure/logger"

var log = logger.RegisterSubSystem("BDAG")
