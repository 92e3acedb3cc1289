package app

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/testutils"
	"github.com/calico-network/calicod/domain/dagconfig"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
)

const syncTimeout = 30 * time.Second

func setupNode(t *testing.T, listener string, connectPeers ...string) *ComponentManager {
	params := dagconfig.SimnetParams
	cfg := config.DefaultConfig()
	cfg.ActiveNetParams = &params
	cfg.AppDir = t.TempDir()
	cfg.Listeners = []string{listener}
	cfg.ConnectPeers = connectPeers
	cfg.TargetOutboundPeers = 0

	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}

	componentManager, err := NewComponentManager(cfg, db)
	if err != nil {
		t.Fatalf("NewComponentManager: %+v", err)
	}
	componentManager.Start()

	t.Cleanup(func() {
		componentManager.Stop()
		err := db.Close()
		if err != nil {
			t.Errorf("Close: %+v", err)
		}
	})
	return componentManager
}

func mineBlocks(t *testing.T, node *ComponentManager, count int) *externalapi.DomainHash {
	for i := 0; i < count; i++ {
		block, err := node.Domain().Consensus().BuildBlock(testutils.CoinbaseData(uint64(i)), nil)
		if err != nil {
			t.Fatalf("BuildBlock: %+v", err)
		}
		err = node.ProtocolManager().AddBlock(block)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
	}

	virtualSelectedParent, err := node.Domain().Consensus().GetVirtualSelectedParent()
	if err != nil {
		t.Fatalf("GetVirtualSelectedParent: %+v", err)
	}
	return virtualSelectedParent
}

func waitForVirtualSelectedParent(t *testing.T, node *ComponentManager, expected *externalapi.DomainHash) {
	deadline := time.Now().Add(syncTimeout)
	for {
		virtualSelectedParent, err := node.Domain().Consensus().GetVirtualSelectedParent()
		if err != nil {
			t.Fatalf("GetVirtualSelectedParent: %+v", err)
		}
		if virtualSelectedParent.Equal(expected) {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for virtual selected parent %s. Got %s", expected, virtualSelectedParent)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func waitForPeers(t *testing.T, node *ComponentManager, count int) {
	deadline := time.Now().Add(syncTimeout)
	for len(node.ProtocolManager().Peers()) < count {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d peers", count)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestTwoNodesSync(t *testing.T) {
	const (
		syncerAddress = "TestTwoNodesSync-syncer"
		synceeAddress = "TestTwoNodesSync-syncee"
	)

	syncer := setupNode(t, syncerAddress)
	syncerTip := mineBlocks(t, syncer, 10)

	syncee := setupNode(t, synceeAddress, syncerAddress)
	waitForPeers(t, syncee, 1)
	waitForVirtualSelectedParent(t, syncee, syncerTip)

	// Blocks mined once the nodes are connected arrive by relay
	syncerTip = mineBlocks(t, syncer, 3)
	waitForVirtualSelectedParent(t, syncee, syncerTip)
}
