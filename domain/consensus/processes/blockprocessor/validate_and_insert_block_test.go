package blockprocessor_test

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/testutils"
	"github.com/pkg/errors"
)

func TestBlockStatus(t *testing.T) {
	consensusConfig := testutils.SimnetConfig()
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(consensusConfig, "TestBlockStatus")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	checkStatus := func(hash *externalapi.DomainHash, expectedStatus externalapi.BlockStatus) {
		blockStatus, err := tc.BlockStatusStore().Get(tc.DatabaseContext(), model.NewStagingArea(), hash)
		if err != nil {
			t.Fatalf("BlockStatusStore().Get: %+v", err)
		}

		if blockStatus != expectedStatus {
			t.Fatalf("Expected to have status %s but got %s", expectedStatus, blockStatus)
		}
	}

	tipHash := consensusConfig.GenesisHash
	for i := 0; i < 2; i++ {
		tipHash, _, err = tc.AddBlock([]*externalapi.DomainHash{tipHash}, nil, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}

		checkStatus(tipHash, externalapi.StatusUTXOValid)
	}

	block, err := tc.BuildBlockWithParents([]*externalapi.DomainHash{tipHash}, nil, nil)
	if err != nil {
		t.Fatalf("BuildBlockWithParents: %+v", err)
	}
	blockHash := consensushashing.BlockHash(block)

	_, err = tc.ValidateAndInsertBlock(&externalapi.DomainBlock{Header: block.Header}, true)
	if err != nil {
		t.Fatalf("ValidateAndInsertBlock: %+v", err)
	}
	checkStatus(blockHash, externalapi.StatusHeaderOnly)

	_, err = tc.ValidateAndInsertBlock(&externalapi.DomainBlock{Header: block.Header}, true)
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("Expected ErrDuplicateBlock for a repeated header but got %+v", err)
	}

	_, err = tc.ValidateAndInsertBlock(block, true)
	if err != nil {
		t.Fatalf("ValidateAndInsertBlock: %+v", err)
	}
	checkStatus(blockHash, externalapi.StatusUTXOValid)

	_, err = tc.ValidateAndInsertBlock(block, true)
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("Expected ErrDuplicateBlock for a repeated block but got %+v", err)
	}

	invalidBlock, err := tc.BuildBlockWithParents([]*externalapi.DomainHash{blockHash}, nil, nil)
	if err != nil {
		t.Fatalf("BuildBlockWithParents: %+v", err)
	}
	invalidBlock.Header = withDAAScore(invalidBlock.Header, invalidBlock.Header.DAAScore()+1)
	invalidBlockHash := consensushashing.BlockHash(invalidBlock)

	_, err = tc.ValidateAndInsertBlock(invalidBlock, true)
	if !errors.Is(err, ruleerrors.ErrUnexpectedDAAScore) {
		t.Fatalf("Expected ErrUnexpectedDAAScore but got %+v", err)
	}
	checkStatus(invalidBlockHash, externalapi.StatusInvalid)

	_, err = tc.ValidateAndInsertBlock(invalidBlock, true)
	if !errors.Is(err, ruleerrors.ErrKnownInvalid) {
		t.Fatalf("Expected ErrKnownInvalid but got %+v", err)
	}

	virtualSelectedParent, err := tc.GetVirtualSelectedParent()
	if err != nil {
		t.Fatalf("GetVirtualSelectedParent: %+v", err)
	}
	if !virtualSelectedParent.Equal(blockHash) {
		t.Fatalf("Expected the virtual to keep selecting %s but got %s", blockHash, virtualSelectedParent)
	}
}

func TestValidateAndInsertBlockWithTrustedData(t *testing.T) {
	consensusConfig := testutils.SimnetConfig()
	factory := consensus.NewFactory()
	tcSyncer, teardownSyncer, err := factory.NewTestConsensus(consensusConfig, "TestTrustedDataSyncer")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownSyncer(false)
	tcSyncee, teardownSyncee, err := factory.NewTestConsensus(consensusConfig, "TestTrustedDataSyncee")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownSyncee(false)

	tipHash := consensusConfig.GenesisHash
	for i := 0; i < 3; i++ {
		tipHash, _, err = tcSyncer.AddBlock([]*externalapi.DomainHash{tipHash}, nil, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
	}

	blockWithTrustedData, err := tcSyncer.BlockWithTrustedData(tipHash)
	if err != nil {
		t.Fatalf("BlockWithTrustedData: %+v", err)
	}

	err = tcSyncee.ValidateAndInsertBlockWithTrustedData(&externalapi.BlockWithTrustedData{
		Block: blockWithTrustedData.Block,
	})
	if err == nil {
		t.Fatalf("Expected a block without GHOSTDAG data to be rejected")
	}

	err = tcSyncee.ValidateAndInsertBlockWithTrustedData(blockWithTrustedData)
	if err != nil {
		t.Fatalf("ValidateAndInsertBlockWithTrustedData: %+v", err)
	}

	ghostdagData, err := tcSyncee.GHOSTDAGDataStore().Get(tcSyncee.DatabaseContext(), model.NewStagingArea(), tipHash)
	if err != nil {
		t.Fatalf("GHOSTDAGDataStore().Get: %+v", err)
	}
	if !ghostdagData.SelectedParent().Equal(model.VirtualGenesisBlockHash) {
		t.Fatalf("Expected the unknown selected parent to be replaced by the virtual genesis but got %s",
			ghostdagData.SelectedParent())
	}
	if ghostdagData.BlueScore() != blockWithTrustedData.GHOSTDAGData.BlueScore() {
		t.Fatalf("Expected the trusted blue score %d but got %d",
			blockWithTrustedData.GHOSTDAGData.BlueScore(), ghostdagData.BlueScore())
	}

	err = tcSyncee.ValidateAndInsertBlockWithTrustedData(blockWithTrustedData)
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("Expected ErrDuplicateBlock but got %+v", err)
	}

	headersSelectedTip, err := tcSyncee.GetHeadersSelectedTip()
	if err != nil {
		t.Fatalf("GetHeadersSelectedTip: %+v", err)
	}
	if !headersSelectedTip.Equal(tipHash) {
		t.Fatalf("Expected the headers selected tip to be %s but got %s", tipHash, headersSelectedTip)
	}
}

func withDAAScore(header externalapi.BlockHeader, daaScore uint64) externalapi.BlockHeader {
	return blockheader.NewImmutableBlockHeader(
		header.Version(),
		header.Parents(),
		header.HashMerkleRoot(),
		header.AcceptedIDMerkleRoot(),
		header.UTXOCommitment(),
		header.TimeInMilliseconds(),
		header.Bits(),
		header.Nonce(),
		daaScore,
		header.BlueScore(),
		header.BlueWork(),
		header.PruningPoint(),
	)
}
