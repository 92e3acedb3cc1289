package blockrelay

import (
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/panics"
)

var log = logger.RegisterSubSystem("PROT")
var spawn = panics.GoroutineWrapperFunc(log)
