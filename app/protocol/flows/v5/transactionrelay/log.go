package transactionrelay

import (
	"github.com/calico-network/calicod/infrastructure/logger"
)

var log = logger.RegisterSubSystem("PROT")
