package staging

import (
	"github.com/calico-network/calicod/infrastructure/logger"
)

var utilLog = logger.RegisterSubSystem("UTIL")
