// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocklogger

import (
	"sync"
	"time"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/calico-network/calicod/util/mstime"
)

var log = logger.RegisterSubSystem("BDAG")

const logInterval = 10 * time.Second

type progress struct {
	blocks       int64
	transactions int64
	lastLogTime  time.Time
}

var (
	mtx            sync.Mutex
	headerProgress = &progress{lastLogTime: time.Now()}
	blockProgress  = &progress{lastLogTime: time.Now()}
)

// LogBlock counts the block and, at most once every 10 seconds per block kind,
// logs how many headers or blocks were processed since the last message.
func LogBlock(block *externalapi.DomainBlock) {
	mtx.Lock()
	defer mtx.Unlock()

	isHeaderOnly := len(block.Transactions) == 0
	current := blockProgress
	if isHeaderOnly {
		current = headerProgress
	}
	current.blocks++
	current.transactions += int64(len(block.Transactions))

	now := time.Now()
	duration := now.Sub(current.lastLogTime)
	if duration < logInterval {
		return
	}
	duration = duration.Round(10 * time.Millisecond)
	blockTime := mstime.UnixMilliToTime(block.Header.TimeInMilliseconds())

	if isHeaderOnly {
		log.Infof("Processed %d %s in the last %s (%s)",
			current.blocks, plural(current.blocks, "header", "headers"), duration, blockTime)
	} else {
		log.Infof("Processed %d %s in the last %s (%d %s, %s)",
			current.blocks, plural(current.blocks, "block", "blocks"), duration,
			current.transactions, plural(current.transactions, "transaction", "transactions"), blockTime)
	}

	current.blocks = 0
	current.transactions = 0
	current.lastLogTime = now
}

func plural(count int64, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
