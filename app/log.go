package app

import (
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/panics"
)

var log = logger.RegisterSubSystem("CALD")
var spawn = panics.GoroutineWrapperFunc(log)
