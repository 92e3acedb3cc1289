package domain_test

import (
	"strings"
	"testing"

	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/testutils"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
)

func TestStagingConsensus(t *testing.T) {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %+v", err)
	}
	defer db.Close()

	consensusConfig := testutils.SimnetConfig()
	domainInstance, err := domain.New(consensusConfig, db)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}

	err = domainInstance.InitStagingConsensus()
	if err != nil {
		t.Fatalf("InitStagingConsensus: %+v", err)
	}

	err = domainInstance.InitStagingConsensus()
	if err == nil || !strings.Contains(err.Error(), "a staging consensus already exists") {
		t.Fatalf("unexpected error %+v", err)
	}

	block, err := domainInstance.StagingConsensus().BuildBlock(testutils.CoinbaseData(1), nil)
	if err != nil {
		t.Fatalf("BuildBlock: %+v", err)
	}
	_, err = domainInstance.StagingConsensus().ValidateAndInsertBlock(block, true)
	if err != nil {
		t.Fatalf("ValidateAndInsertBlock: %+v", err)
	}

	blockHash := consensushashing.BlockHash(block)
	blockInfo, err := domainInstance.StagingConsensus().GetBlockInfo(blockHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if !blockInfo.Exists {
		t.Fatalf("block not found on the staging consensus")
	}

	blockInfo, err = domainInstance.Consensus().GetBlockInfo(blockHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if blockInfo.Exists {
		t.Fatalf("a block from the staging consensus was found on the active consensus")
	}

	err = domainInstance.CommitStagingConsensus()
	if err != nil {
		t.Fatalf("CommitStagingConsensus: %+v", err)
	}
	if domainInstance.StagingConsensus() != nil {
		t.Fatalf("the staging consensus was not cleared after commit")
	}

	blockInfo, err = domainInstance.Consensus().GetBlockInfo(blockHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if !blockInfo.Exists {
		t.Fatalf("a block from the staging consensus was not found after commit")
	}

	// A staging consensus left behind is deleted once a new domain is created
	err = domainInstance.InitStagingConsensusWithoutGenesis()
	if err != nil {
		t.Fatalf("InitStagingConsensusWithoutGenesis: %+v", err)
	}

	domainInstance2, err := domain.New(consensusConfig, db)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}

	blockInfo, err = domainInstance2.Consensus().GetBlockInfo(blockHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if !blockInfo.Exists {
		t.Fatalf("a block from the committed staging consensus was not persisted")
	}

	err = domainInstance2.InitStagingConsensus()
	if err != nil {
		t.Fatalf("InitStagingConsensus: %+v", err)
	}
	blockInfo, err = domainInstance2.StagingConsensus().GetBlockInfo(blockHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if blockInfo.Exists {
		t.Fatalf("a fresh staging consensus must not contain blocks of a previous one")
	}

	err = domainInstance2.DeleteStagingConsensus()
	if err != nil {
		t.Fatalf("DeleteStagingConsensus: %+v", err)
	}
}
