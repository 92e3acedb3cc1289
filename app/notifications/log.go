package notifications

import (
	"github.com/calico-network/calicod/infrastructure/logger"
)

var log = logger.RegisterSubSystem("NTFN")
