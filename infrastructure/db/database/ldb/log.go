package ldb

import "github.com/calico-network/calicod/infrastructure/logger"

var log = logger.RegisterSubSystem("CLDB")
