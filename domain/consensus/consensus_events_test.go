package consensus_test

import (
	"os"
	"testing"

	"github.com/calico-network/calicod/domain/consensus"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/testutils"
	"github.com/calico-network/calicod/domain/prefixmanager/prefix"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
	"github.com/davecgh/go-spew/spew"
)

func TestConsensusEvents(t *testing.T) {
	dataDir, err := os.MkdirTemp("", "TestConsensusEvents")
	if err != nil {
		t.Fatalf("MkdirTemp: %+v", err)
	}
	defer os.RemoveAll(dataDir)

	db, err := ldb.NewLevelDB(dataDir, 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	defer db.Close()

	config := testutils.SimnetConfig()
	eventsChan := make(chan externalapi.ConsensusEvent, 10)
	c, err := consensus.NewFactory().NewConsensus(config, db, &prefix.Prefix{}, eventsChan)
	if err != nil {
		t.Fatalf("NewConsensus: %+v", err)
	}
	err = c.Init(false)
	if err != nil {
		t.Fatalf("Init: %+v", err)
	}
	drainEvents(eventsChan)

	block, err := c.BuildBlock(testutils.CoinbaseData(1), nil)
	if err != nil {
		t.Fatalf("BuildBlock: %+v", err)
	}
	_, err = c.ValidateAndInsertBlock(block, true)
	if err != nil {
		t.Fatalf("ValidateAndInsertBlock: %+v", err)
	}
	blockHash := consensushashing.BlockHash(block)

	events := drainEvents(eventsChan)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events but got %d: %s", len(events), spew.Sdump(events))
	}
	blockAdded, ok := events[0].(*externalapi.BlockAdded)
	if !ok {
		t.Fatalf("Expected the first event to be BlockAdded but got %T", events[0])
	}
	if !consensushashing.BlockHash(blockAdded.Block).Equal(blockHash) {
		t.Fatalf("BlockAdded carries the wrong block")
	}
	chainChanged, ok := events[1].(*externalapi.VirtualChainChanged)
	if !ok {
		t.Fatalf("Expected the second event to be VirtualChainChanged but got %T", events[1])
	}
	if len(chainChanged.Removed) != 0 || len(chainChanged.Added) != 1 || !chainChanged.Added[0].Equal(blockHash) {
		t.Fatalf("Expected the chain to grow by %s but got %s", blockHash, spew.Sdump(chainChanged))
	}

	// A header-only block emits nothing
	headerOnly, err := c.BuildBlock(testutils.CoinbaseData(2), nil)
	if err != nil {
		t.Fatalf("BuildBlock: %+v", err)
	}
	_, err = c.ValidateAndInsertBlock(&externalapi.DomainBlock{Header: headerOnly.Header}, true)
	if err != nil {
		t.Fatalf("ValidateAndInsertBlock: %+v", err)
	}
	events = drainEvents(eventsChan)
	if len(events) != 0 {
		t.Fatalf("Expected no events for a header-only block but got %d", len(events))
	}
}

func drainEvents(eventsChan chan externalapi.ConsensusEvent) []externalapi.ConsensusEvent {
	var events []externalapi.ConsensusEvent
	for {
		select {
		case event := <-eventsChan:
			events = append(events, event)
		default:
			return events
		}
	}
}
