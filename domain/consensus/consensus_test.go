package consensus_test

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/model/testapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/testutils"
	"github.com/calico-network/calicod/domain/dagconfig"
	"github.com/pkg/errors"
)

func TestInitAddsGenesis(t *testing.T) {
	config := testutils.SimnetConfig()
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestInitAddsGenesis")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	virtualSelectedParent, err := tc.GetVirtualSelectedParent()
	if err != nil {
		t.Fatalf("GetVirtualSelectedParent: %+v", err)
	}
	if !virtualSelectedParent.Equal(config.GenesisHash) {
		t.Fatalf("Expected the virtual selected parent to be genesis %s but got %s",
			config.GenesisHash, virtualSelectedParent)
	}

	pruningPoint, err := tc.PruningPoint()
	if err != nil {
		t.Fatalf("PruningPoint: %+v", err)
	}
	if !pruningPoint.Equal(config.GenesisHash) {
		t.Fatalf("Expected the pruning point to be genesis but got %s", pruningPoint)
	}

	blockInfo, err := tc.GetBlockInfo(config.GenesisHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if !blockInfo.Exists || blockInfo.BlockStatus != externalapi.StatusUTXOValid {
		t.Fatalf("Expected genesis to exist with status %s but got %+v", externalapi.StatusUTXOValid, blockInfo)
	}
	if blockInfo.BlueScore != 0 {
		t.Fatalf("Expected genesis to have blue score 0 but got %d", blockInfo.BlueScore)
	}

	// A second Init must be a no-op
	err = tc.Init(false)
	if err != nil {
		t.Fatalf("Init: %+v", err)
	}
}

func TestInitAcceptsEveryNetworkGenesis(t *testing.T) {
	for _, params := range []*dagconfig.Params{
		&dagconfig.MainnetParams,
		&dagconfig.TestnetParams,
		&dagconfig.Testnet11Params,
		&dagconfig.SimnetParams,
		&dagconfig.DevnetParams,
	} {
		config := consensus.NewConfig(params)
		tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestInitAcceptsEveryNetworkGenesis")
		if err != nil {
			t.Fatalf("%s: Error setting up consensus: %+v", params.Name, err)
		}

		virtualSelectedParent, err := tc.GetVirtualSelectedParent()
		if err != nil {
			t.Fatalf("%s: GetVirtualSelectedParent: %+v", params.Name, err)
		}
		if !virtualSelectedParent.Equal(params.GenesisHash) {
			t.Fatalf("%s: Expected the virtual selected parent to be genesis %s but got %s",
				params.Name, params.GenesisHash, virtualSelectedParent)
		}
		teardown(false)
	}
}

func TestBlueScoreGrowsAlongChain(t *testing.T) {
	config := testutils.SimnetConfig()
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestBlueScoreGrowsAlongChain")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	tipHash := config.GenesisHash
	previousBlueScore := uint64(0)
	for i := 0; i < 10; i++ {
		var virtualChangeSet *externalapi.VirtualChangeSet
		tipHash, virtualChangeSet, err = tc.AddBlock([]*externalapi.DomainHash{tipHash}, nil, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		if len(virtualChangeSet.VirtualSelectedParentChainChanges.Added) != 1 ||
			!virtualChangeSet.VirtualSelectedParentChainChanges.Added[0].Equal(tipHash) {
			t.Fatalf("Expected the chain to grow by exactly %s but got %+v",
				tipHash, virtualChangeSet.VirtualSelectedParentChainChanges)
		}

		blockInfo, err := tc.GetBlockInfo(tipHash)
		if err != nil {
			t.Fatalf("GetBlockInfo: %+v", err)
		}
		if blockInfo.BlueScore != previousBlueScore+1 {
			t.Fatalf("Expected blue score %d but got %d", previousBlueScore+1, blockInfo.BlueScore)
		}
		previousBlueScore = blockInfo.BlueScore
	}

	virtualInfo, err := tc.GetVirtualInfo()
	if err != nil {
		t.Fatalf("GetVirtualInfo: %+v", err)
	}
	if !virtualInfo.SelectedParent.Equal(tipHash) {
		t.Fatalf("Expected the virtual selected parent to be %s but got %s", tipHash, virtualInfo.SelectedParent)
	}
	if virtualInfo.BlueScore != previousBlueScore+1 {
		t.Fatalf("Expected virtual blue score %d but got %d", previousBlueScore+1, virtualInfo.BlueScore)
	}
}

func TestSelectedParentTieBreak(t *testing.T) {
	config := testutils.SimnetConfig()
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestSelectedParentTieBreak")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	blockA, _, err := tc.AddBlock([]*externalapi.DomainHash{config.GenesisHash}, nil, nil)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	blockB, _, err := tc.AddBlock([]*externalapi.DomainHash{blockA}, testutils.CoinbaseData(1), nil)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	blockC, _, err := tc.AddBlock([]*externalapi.DomainHash{blockA}, testutils.CoinbaseData(2), nil)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}
	blockD, _, err := tc.AddBlock([]*externalapi.DomainHash{blockB, blockC}, nil, nil)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}

	expectedSelectedParent := blockB
	if blockC.Less(blockB) {
		expectedSelectedParent = blockC
	}

	blockInfo, err := tc.GetBlockInfo(blockD)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if !blockInfo.SelectedParent.Equal(expectedSelectedParent) {
		t.Fatalf("Expected the selected parent of D to be the smaller hash %s but got %s",
			expectedSelectedParent, blockInfo.SelectedParent)
	}
	if len(blockInfo.MergeSetBlues) != 2 || len(blockInfo.MergeSetReds) != 0 {
		t.Fatalf("Expected D to merge two blues and no reds but got %d blues and %d reds",
			len(blockInfo.MergeSetBlues), len(blockInfo.MergeSetReds))
	}
	if blockInfo.BlueScore != 4 {
		t.Fatalf("Expected D to have blue score 4 but got %d", blockInfo.BlueScore)
	}
}

func TestVirtualChainReorg(t *testing.T) {
	config := testutils.SimnetConfig()
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestVirtualChainReorg")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	chainX := make([]*externalapi.DomainHash, 0, 3)
	tipX := config.GenesisHash
	for i := 0; i < 3; i++ {
		tipX, _, err = tc.AddBlock([]*externalapi.DomainHash{tipX}, nil, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		chainX = append(chainX, tipX)
	}

	// Chain Y is inserted without resolving the virtual so that the
	// whole reorg happens at once
	chainY := make([]*externalapi.DomainHash, 0, 5)
	tipY := config.GenesisHash
	for i := 0; i < 5; i++ {
		block, err := tc.BuildBlockWithParents([]*externalapi.DomainHash{tipY}, testutils.CoinbaseData(uint64(100+i)), nil)
		if err != nil {
			t.Fatalf("BuildBlockWithParents: %+v", err)
		}
		_, err = tc.ValidateAndInsertBlock(block, false)
		if err != nil {
			t.Fatalf("ValidateAndInsertBlock: %+v", err)
		}
		tipY = consensushashing.BlockHash(block)
		chainY = append(chainY, tipY)
	}

	virtualSelectedParent, err := tc.GetVirtualSelectedParent()
	if err != nil {
		t.Fatalf("GetVirtualSelectedParent: %+v", err)
	}
	if !virtualSelectedParent.Equal(tipX) {
		t.Fatalf("Expected the virtual to still point at %s but got %s", tipX, virtualSelectedParent)
	}

	mergeBlock, virtualChangeSet, err := tc.AddBlock([]*externalapi.DomainHash{tipX, tipY}, nil, nil)
	if err != nil {
		t.Fatalf("AddBlock: %+v", err)
	}

	blockInfo, err := tc.GetBlockInfo(mergeBlock)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if !blockInfo.SelectedParent.Equal(tipY) {
		t.Fatalf("Expected the merge block to select %s but got %s", tipY, blockInfo.SelectedParent)
	}

	changes := virtualChangeSet.VirtualSelectedParentChainChanges
	expectedRemoved := []*externalapi.DomainHash{chainX[2], chainX[1], chainX[0]}
	if !externalapi.HashesEqual(changes.Removed, expectedRemoved) {
		t.Fatalf("Expected removed chain blocks %s but got %s", expectedRemoved, changes.Removed)
	}
	expectedAdded := append(externalapi.CloneHashes(chainY), mergeBlock)
	if !externalapi.HashesEqual(changes.Added, expectedAdded) {
		t.Fatalf("Expected added chain blocks %s but got %s", expectedAdded, changes.Added)
	}

	for _, removed := range changes.Removed {
		for _, added := range changes.Added {
			if removed.Equal(added) {
				t.Fatalf("Block %s was both added and removed", removed)
			}
		}
	}

	isInChain, err := tc.IsInSelectedParentChainOf(chainX[0], mergeBlock)
	if err != nil {
		t.Fatalf("IsInSelectedParentChainOf: %+v", err)
	}
	if isInChain {
		t.Fatalf("Expected %s to have left the selected chain", chainX[0])
	}
}

func TestInsertionOrderDoesNotMatter(t *testing.T) {
	config := testutils.SimnetConfig()
	factory := consensus.NewFactory()
	tcA, teardownA, err := factory.NewTestConsensus(config, "TestInsertionOrderDoesNotMatterA")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownA(false)
	tcB, teardownB, err := factory.NewTestConsensus(config, "TestInsertionOrderDoesNotMatterB")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownB(false)

	addBlock := func(parents []*externalapi.DomainHash, id uint64) *externalapi.DomainHash {
		hash, _, err := tcA.AddBlock(parents, testutils.CoinbaseData(id), nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
		return hash
	}
	hashes := func(hashes ...*externalapi.DomainHash) []*externalapi.DomainHash {
		return hashes
	}

	genesis := config.GenesisHash
	a := addBlock(hashes(genesis), 1)
	b := addBlock(hashes(genesis), 2)
	c := addBlock(hashes(a, b), 3)
	d := addBlock(hashes(c), 4)
	e := addBlock(hashes(genesis), 5)
	f := addBlock(hashes(d, e), 6)

	for _, hash := range hashes(e, b, a, c, d, f) {
		block, found, err := tcA.GetBlock(hash)
		if err != nil {
			t.Fatalf("GetBlock: %+v", err)
		}
		if !found {
			t.Fatalf("Block %s was not found", hash)
		}
		_, err = tcB.ValidateAndInsertBlock(block, true)
		if err != nil {
			t.Fatalf("ValidateAndInsertBlock: %+v", err)
		}
	}

	virtualInfoA, err := tcA.GetVirtualInfo()
	if err != nil {
		t.Fatalf("GetVirtualInfo: %+v", err)
	}
	virtualInfoB, err := tcB.GetVirtualInfo()
	if err != nil {
		t.Fatalf("GetVirtualInfo: %+v", err)
	}
	if !virtualInfoA.SelectedParent.Equal(f) || !virtualInfoB.SelectedParent.Equal(f) {
		t.Fatalf("Expected both virtuals to select %s but got %s and %s",
			f, virtualInfoA.SelectedParent, virtualInfoB.SelectedParent)
	}
	if virtualInfoA.BlueScore != virtualInfoB.BlueScore || virtualInfoA.DAAScore != virtualInfoB.DAAScore {
		t.Fatalf("Virtual scores differ: %+v and %+v", virtualInfoA, virtualInfoB)
	}

	for _, hash := range hashes(a, b, c, d, e, f) {
		infoA, err := tcA.GetBlockInfo(hash)
		if err != nil {
			t.Fatalf("GetBlockInfo: %+v", err)
		}
		infoB, err := tcB.GetBlockInfo(hash)
		if err != nil {
			t.Fatalf("GetBlockInfo: %+v", err)
		}
		if infoA.BlueScore != infoB.BlueScore || !infoA.SelectedParent.Equal(infoB.SelectedParent) {
			t.Fatalf("GHOSTDAG data of %s differs between the two consensus instances", hash)
		}
	}

	assertSameVirtualUTXOSet(t, tcA, tcB)
}

func assertSameVirtualUTXOSet(t *testing.T, tcA, tcB testapi.TestConsensus) {
	utxosA, err := tcA.GetVirtualUTXOs(nil, 1_000_000)
	if err != nil {
		t.Fatalf("GetVirtualUTXOs: %+v", err)
	}
	utxosB, err := tcB.GetVirtualUTXOs(nil, 1_000_000)
	if err != nil {
		t.Fatalf("GetVirtualUTXOs: %+v", err)
	}
	if len(utxosA) != len(utxosB) {
		t.Fatalf("Expected the virtual UTXO sets to have the same size but got %d and %d", len(utxosA), len(utxosB))
	}
	for i := range utxosA {
		if *utxosA[i].Outpoint != *utxosB[i].Outpoint {
			t.Fatalf("Outpoint %d differs: %s and %s", i, utxosA[i].Outpoint, utxosB[i].Outpoint)
		}
		if !utxosA[i].UTXOEntry.Equal(utxosB[i].UTXOEntry) {
			t.Fatalf("The UTXO entry of %s differs", utxosA[i].Outpoint)
		}
	}
}

func TestPruningPointMovesForward(t *testing.T) {
	config := testutils.SmallDepthsSimnetConfig(10, 25)
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestPruningPointMovesForward")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	previousPruningPointBlueScore := uint64(0)
	movedCount := 0
	tipHash := config.GenesisHash
	for i := 0; i < 60; i++ {
		var virtualChangeSet *externalapi.VirtualChangeSet
		tipHash, virtualChangeSet, err = tc.AddBlock([]*externalapi.DomainHash{tipHash}, nil, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}

		pruningPoint, err := tc.PruningPoint()
		if err != nil {
			t.Fatalf("PruningPoint: %+v", err)
		}
		if virtualChangeSet.PruningPointMoved != nil {
			movedCount++
			if !virtualChangeSet.PruningPointMoved.PruningPoint.Equal(pruningPoint) {
				t.Fatalf("Expected the moved event to name %s but it names %s",
					pruningPoint, virtualChangeSet.PruningPointMoved.PruningPoint)
			}
		}

		pruningPointInfo, err := tc.GetBlockInfo(pruningPoint)
		if err != nil {
			t.Fatalf("GetBlockInfo: %+v", err)
		}
		if pruningPointInfo.BlueScore < previousPruningPointBlueScore {
			t.Fatalf("The pruning point moved backwards from blue score %d to %d",
				previousPruningPointBlueScore, pruningPointInfo.BlueScore)
		}
		previousPruningPointBlueScore = pruningPointInfo.BlueScore

		isInChain, err := tc.IsInSelectedParentChainOf(pruningPoint, tipHash)
		if err != nil {
			t.Fatalf("IsInSelectedParentChainOf: %+v", err)
		}
		if !isInChain && !pruningPoint.Equal(config.GenesisHash) {
			t.Fatalf("The pruning point %s is not in the selected chain of the tip", pruningPoint)
		}
	}

	if movedCount == 0 {
		t.Fatalf("Expected the pruning point to move at least once")
	}

	pruningPointHeaders, err := tc.PruningPointHeaders()
	if err != nil {
		t.Fatalf("PruningPointHeaders: %+v", err)
	}
	if len(pruningPointHeaders) != movedCount+1 {
		t.Fatalf("Expected %d pruning point headers but got %d", movedCount+1, len(pruningPointHeaders))
	}
	if !consensushashing.HeaderHash(pruningPointHeaders[0]).Equal(config.GenesisHash) {
		t.Fatalf("Expected the first pruning point to be genesis")
	}
}

func TestPruningPointProof(t *testing.T) {
	config := testutils.SmallDepthsSimnetConfig(10, 25)
	factory := consensus.NewFactory()
	tcSyncer, teardownSyncer, err := factory.NewTestConsensus(config, "TestPruningPointProofSyncer")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownSyncer(false)
	tcSyncee, teardownSyncee, err := factory.NewTestConsensus(config, "TestPruningPointProofSyncee")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownSyncee(false)

	tipHash := config.GenesisHash
	for i := 0; i < 60; i++ {
		tipHash, _, err = tcSyncer.AddBlock([]*externalapi.DomainHash{tipHash}, nil, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
	}

	proof, err := tcSyncer.BuildPruningPointProof()
	if err != nil {
		t.Fatalf("BuildPruningPointProof: %+v", err)
	}
	levelZero := proof.Headers[0]
	if uint64(len(levelZero)) != 2*config.PruningProofM {
		t.Fatalf("Expected %d level zero headers but got %d", 2*config.PruningProofM, len(levelZero))
	}
	pruningPoint, err := tcSyncer.PruningPoint()
	if err != nil {
		t.Fatalf("PruningPoint: %+v", err)
	}
	if !consensushashing.HeaderHash(levelZero[len(levelZero)-1]).Equal(pruningPoint) {
		t.Fatalf("Expected the proof to end at the pruning point %s", pruningPoint)
	}

	err = tcSyncee.ValidatePruningPointProof(proof)
	if err != nil {
		t.Fatalf("ValidatePruningPointProof: %+v", err)
	}

	// The syncer's own pruning point is not an improvement over itself
	err = tcSyncer.ValidatePruningPointProof(proof)
	if !errors.Is(err, ruleerrors.ErrPruningProofInsufficientBlueWork) {
		t.Fatalf("Expected ErrPruningProofInsufficientBlueWork but got %+v", err)
	}

	err = tcSyncee.ValidatePruningPointProof(&externalapi.PruningPointProof{})
	if !errors.Is(err, ruleerrors.ErrPruningProofEmpty) {
		t.Fatalf("Expected ErrPruningProofEmpty but got %+v", err)
	}

	tooManyLevels := make([][]externalapi.BlockHeader, config.MaxBlockLevel+2)
	tooManyLevels[0] = levelZero
	err = tcSyncee.ValidatePruningPointProof(&externalapi.PruningPointProof{Headers: tooManyLevels})
	if !errors.Is(err, ruleerrors.ErrPruningProofBadLevel) {
		t.Fatalf("Expected ErrPruningProofBadLevel but got %+v", err)
	}

	reversed := make([]externalapi.BlockHeader, len(levelZero))
	for i, header := range levelZero {
		reversed[len(levelZero)-1-i] = header
	}
	err = tcSyncee.ValidatePruningPointProof(&externalapi.PruningPointProof{
		Headers: [][]externalapi.BlockHeader{reversed},
	})
	if !errors.Is(err, ruleerrors.ErrPruningProofMissingLink) {
		t.Fatalf("Expected ErrPruningProofMissingLink but got %+v", err)
	}

	// The second header is not a descendant of the first one
	gapped := []externalapi.BlockHeader{levelZero[0], levelZero[2]}
	err = tcSyncee.ValidatePruningPointProof(&externalapi.PruningPointProof{
		Headers: [][]externalapi.BlockHeader{gapped},
	})
	if !errors.Is(err, ruleerrors.ErrPruningProofMissingLink) {
		t.Fatalf("Expected ErrPruningProofMissingLink but got %+v", err)
	}
}

func TestImportPruningPoint(t *testing.T) {
	config := testutils.SmallDepthsSimnetConfig(10, 25)
	factory := consensus.NewFactory()
	tcSyncer, teardownSyncer, err := factory.NewTestConsensus(config, "TestImportPruningPointSyncer")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownSyncer(false)
	tcSyncee, teardownSyncee, err := factory.NewTestConsensus(config, "TestImportPruningPointSyncee")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardownSyncee(false)

	tipHash := config.GenesisHash
	for i := 0; i < 60; i++ {
		tipHash, _, err = tcSyncer.AddBlock([]*externalapi.DomainHash{tipHash}, nil, nil)
		if err != nil {
			t.Fatalf("AddBlock: %+v", err)
		}
	}

	pruningPoint, err := tcSyncer.PruningPoint()
	if err != nil {
		t.Fatalf("PruningPoint: %+v", err)
	}
	if pruningPoint.Equal(config.GenesisHash) {
		t.Fatalf("Expected the pruning point to have moved")
	}

	pruningPointHeaders, err := tcSyncer.PruningPointHeaders()
	if err != nil {
		t.Fatalf("PruningPointHeaders: %+v", err)
	}
	err = tcSyncee.ImportPruningPoints(pruningPointHeaders)
	if err != nil {
		t.Fatalf("ImportPruningPoints: %+v", err)
	}

	pruningPointAndItsAnticone, err := tcSyncer.PruningPointAndItsAnticone()
	if err != nil {
		t.Fatalf("PruningPointAndItsAnticone: %+v", err)
	}
	for _, blockHash := range pruningPointAndItsAnticone {
		blockWithTrustedData, err := tcSyncer.BlockWithTrustedData(blockHash)
		if err != nil {
			t.Fatalf("BlockWithTrustedData: %+v", err)
		}
		err = tcSyncee.ValidateAndInsertBlockWithTrustedData(blockWithTrustedData)
		if err != nil {
			t.Fatalf("ValidateAndInsertBlockWithTrustedData: %+v", err)
		}
	}

	// Importing without the UTXO set must fail
	err = tcSyncee.ClearImportedPruningPointData()
	if err != nil {
		t.Fatalf("ClearImportedPruningPointData: %+v", err)
	}
	err = tcSyncee.ValidateAndInsertImportedPruningPoint(pruningPoint)
	if !errors.Is(err, ruleerrors.ErrBadPruningPointUTXOSet) {
		t.Fatalf("Expected ErrBadPruningPointUTXOSet but got %+v", err)
	}

	const chunkSize = 7
	var fromOutpoint *externalapi.DomainOutpoint
	for {
		chunk, err := tcSyncer.GetPruningPointUTXOs(pruningPoint, fromOutpoint, chunkSize)
		if err != nil {
			t.Fatalf("GetPruningPointUTXOs: %+v", err)
		}
		err = tcSyncee.AppendImportedPruningPointUTXOs(chunk)
		if err != nil {
			t.Fatalf("AppendImportedPruningPointUTXOs: %+v", err)
		}
		if len(chunk) < chunkSize {
			break
		}
		fromOutpoint = chunk[len(chunk)-1].Outpoint
	}

	err = tcSyncee.ValidateAndInsertImportedPruningPoint(pruningPoint)
	if err != nil {
		t.Fatalf("ValidateAndInsertImportedPruningPoint: %+v", err)
	}

	synceePruningPoint, err := tcSyncee.PruningPoint()
	if err != nil {
		t.Fatalf("PruningPoint: %+v", err)
	}
	if !synceePruningPoint.Equal(pruningPoint) {
		t.Fatalf("Expected the syncee pruning point to be %s but got %s", pruningPoint, synceePruningPoint)
	}

	hashesAbovePruningPoint, _, err := tcSyncer.GetHashesBetween(pruningPoint, tipHash, 0)
	if err != nil {
		t.Fatalf("GetHashesBetween: %+v", err)
	}
	for _, blockHash := range hashesAbovePruningPoint {
		block, found, err := tcSyncer.GetBlock(blockHash)
		if err != nil {
			t.Fatalf("GetBlock: %+v", err)
		}
		if !found {
			t.Fatalf("Block %s was not found", blockHash)
		}
		_, err = tcSyncee.ValidateAndInsertBlock(block, true)
		if err != nil {
			t.Fatalf("ValidateAndInsertBlock: %+v", err)
		}
	}

	synceeVirtualSelectedParent, err := tcSyncee.GetVirtualSelectedParent()
	if err != nil {
		t.Fatalf("GetVirtualSelectedParent: %+v", err)
	}
	if !synceeVirtualSelectedParent.Equal(tipHash) {
		t.Fatalf("Expected the syncee to select %s but got %s", tipHash, synceeVirtualSelectedParent)
	}
	assertSameVirtualUTXOSet(t, tcSyncer, tcSyncee)
}

func TestHeaderOnlyBlocks(t *testing.T) {
	config := testutils.SimnetConfig()
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestHeaderOnlyBlocks")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	headerHash, err := tc.AddHeader([]*externalapi.DomainHash{config.GenesisHash}, nil, nil)
	if err != nil {
		t.Fatalf("AddHeader: %+v", err)
	}

	blockInfo, err := tc.GetBlockInfo(headerHash)
	if err != nil {
		t.Fatalf("GetBlockInfo: %+v", err)
	}
	if blockInfo.BlockStatus != externalapi.StatusHeaderOnly || blockInfo.HasBody() {
		t.Fatalf("Expected status %s but got %s", externalapi.StatusHeaderOnly, blockInfo.BlockStatus)
	}

	_, found, err := tc.GetBlock(headerHash)
	if err != nil {
		t.Fatalf("GetBlock: %+v", err)
	}
	if found {
		t.Fatalf("Expected a header-only block to have no body")
	}
	headerOnlyBlock, err := tc.GetBlockEvenIfHeaderOnly(headerHash)
	if err != nil {
		t.Fatalf("GetBlockEvenIfHeaderOnly: %+v", err)
	}
	if !consensushashing.BlockHash(headerOnlyBlock).Equal(headerHash) {
		t.Fatalf("GetBlockEvenIfHeaderOnly returned the wrong block")
	}

	headersSelectedTip, err := tc.GetHeadersSelectedTip()
	if err != nil {
		t.Fatalf("GetHeadersSelectedTip: %+v", err)
	}
	if !headersSelectedTip.Equal(headerHash) {
		t.Fatalf("Expected the headers selected tip to be %s but got %s", headerHash, headersSelectedTip)
	}

	missingBodies, err := tc.GetMissingBlockBodyHashes(headerHash)
	if err != nil {
		t.Fatalf("GetMissingBlockBodyHashes: %+v", err)
	}
	if len(missingBodies) != 1 || !missingBodies[0].Equal(headerHash) {
		t.Fatalf("Expected exactly %s to miss its body but got %s", headerHash, missingBodies)
	}

	virtualSelectedParent, err := tc.GetVirtualSelectedParent()
	if err != nil {
		t.Fatalf("GetVirtualSelectedParent: %+v", err)
	}
	if !virtualSelectedParent.Equal(config.GenesisHash) {
		t.Fatalf("Expected a header-only block to leave the virtual untouched")
	}
}

func TestInsertErrors(t *testing.T) {
	config := testutils.SimnetConfig()
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestInsertErrors")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	block, err := tc.BuildBlockWithParents([]*externalapi.DomainHash{config.GenesisHash}, nil, nil)
	if err != nil {
		t.Fatalf("BuildBlockWithParents: %+v", err)
	}
	_, err = tc.ValidateAndInsertBlock(block, true)
	if err != nil {
		t.Fatalf("ValidateAndInsertBlock: %+v", err)
	}
	_, err = tc.ValidateAndInsertBlock(block, true)
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("Expected ErrDuplicateBlock but got %+v", err)
	}

	orphan, err := tc.BuildBlockWithParents([]*externalapi.DomainHash{consensushashing.BlockHash(block)}, nil, nil)
	if err != nil {
		t.Fatalf("BuildBlockWithParents: %+v", err)
	}
	unknownParent := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xff})
	header := orphan.Header
	orphan.Header = blockheader.NewImmutableBlockHeader(
		header.Version(),
		[]externalapi.BlockLevelParents{[]*externalapi.DomainHash{unknownParent}},
		header.HashMerkleRoot(),
		header.AcceptedIDMerkleRoot(),
		header.UTXOCommitment(),
		header.TimeInMilliseconds(),
		header.Bits(),
		header.Nonce(),
		header.DAAScore(),
		header.BlueScore(),
		header.BlueWork(),
		header.PruningPoint(),
	)

	_, err = tc.ValidateAndInsertBlock(orphan, true)
	var missingParentsErr ruleerrors.ErrMissingParents
	if !errors.As(err, &missingParentsErr) {
		t.Fatalf("Expected ErrMissingParents but got %+v", err)
	}
	if len(missingParentsErr.MissingParentHashes) != 1 ||
		!missingParentsErr.MissingParentHashes[0].Equal(unknownParent) {
		t.Fatalf("Expected %s to be reported missing but got %s", unknownParent, missingParentsErr.MissingParentHashes)
	}

	_, err = tc.GetBlockChildren(unknownParent)
	if err == nil {
		t.Fatalf("Expected GetBlockChildren of an unknown block to fail")
	}
}
