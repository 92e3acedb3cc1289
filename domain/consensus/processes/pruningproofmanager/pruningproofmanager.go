package pruningproofmanager

import (
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/domain/consensus/utils/pow"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

type pruningProofManager struct {
	databaseContext model.DBReader

	ghostdagDataStore model.GHOSTDAGDataStore
	blockHeaderStore  model.BlockHeaderStore
	pruningStore      model.PruningStore

	pruningProofM uint64
	maxBlockLevel int
	skipPoW       bool
}

// New instantiates a new PruningProofManager
func New(
	databaseContext model.DBReader,

	ghostdagDataStore model.GHOSTDAGDataStore,
	blockHeaderStore model.BlockHeaderStore,
	pruningStore model.PruningStore,

	pruningProofM uint64,
	maxBlockLevel int,
	skipPoW bool,
) model.PruningProofManager {

	return &pruningProofManager{
		databaseContext:   databaseContext,
		ghostdagDataStore: ghostdagDataStore,
		blockHeaderStore:  blockHeaderStore,
		pruningStore:      pruningStore,

		pruningProofM: pruningProofM,
		maxBlockLevel: maxBlockLevel,
		skipPoW:       skipPoW,
	}
}

// BuildPruningPointProof builds a proof for the current pruning point. Level 0 holds the
// last 2M selected chain headers ending at the pruning point. Level L holds up to 2M of
// those chain headers whose block level is at least L, ending at the highest one.
func (ppm *pruningProofManager) BuildPruningPointProof(stagingArea *model.StagingArea) (*externalapi.PruningPointProof, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "BuildPruningPointProof")
	defer onEnd()

	pruningPoint, err := ppm.pruningStore.PruningPoint(ppm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}

	storedProof, hasStoredProof, err := ppm.pruningStore.PruningPointProof(ppm.databaseContext, stagingArea)
	if err != nil {
		return nil, err
	}
	if hasStoredProof && proofPruningPoint(storedProof).Equal(pruningPoint) {
		log.Debugf("Serving the stored proof of pruning point %s", pruningPoint)
		return storedProof, nil
	}

	capacity := 2 * ppm.pruningProofM
	headersByLevel := make([][]externalapi.BlockHeader, ppm.maxBlockLevel+1)
	current := pruningPoint
	for {
		header, err := ppm.blockHeaderStore.BlockHeader(ppm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}

		blockLevel := pow.BlockLevel(header, ppm.maxBlockLevel)
		isFull := true
		for level := 0; level <= ppm.maxBlockLevel; level++ {
			if uint64(len(headersByLevel[level])) >= capacity {
				continue
			}
			isFull = false
			if level <= blockLevel {
				headersByLevel[level] = append(headersByLevel[level], header)
			}
		}
		if isFull {
			break
		}

		ghostdagData, err := ppm.ghostdagDataStore.Get(ppm.databaseContext, stagingArea, current)
		if err != nil {
			return nil, err
		}
		selectedParent := ghostdagData.SelectedParent()
		if selectedParent == nil || model.IsVirtualOrVirtualGenesis(selectedParent) {
			break
		}
		current = selectedParent
	}

	levels := len(headersByLevel)
	for levels > 1 && len(headersByLevel[levels-1]) == 0 {
		levels--
	}
	headersByLevel = headersByLevel[:levels]
	for _, headers := range headersByLevel {
		for i, j := 0, len(headers)-1; i < j; i, j = i+1, j-1 {
			headers[i], headers[j] = headers[j], headers[i]
		}
	}

	log.Debugf("Built a proof of %d levels for pruning point %s", len(headersByLevel), pruningPoint)
	return &externalapi.PruningPointProof{Headers: headersByLevel}, nil
}

// ValidatePruningPointProof checks that the proof is well formed, that its headers carry
// valid proof of work at their levels, and that its pruning point carries more blue work
// than the current one
func (ppm *pruningProofManager) ValidatePruningPointProof(pruningPointProof *externalapi.PruningPointProof) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidatePruningPointProof")
	defer onEnd()

	if len(pruningPointProof.Headers) == 0 || len(pruningPointProof.Headers[0]) == 0 {
		return errors.Wrapf(ruleerrors.ErrPruningProofEmpty, "the proof has no level zero headers")
	}
	if len(pruningPointProof.Headers) > ppm.maxBlockLevel+1 {
		return errors.Wrapf(ruleerrors.ErrPruningProofBadLevel, "the proof has %d levels while the maximum is %d",
			len(pruningPointProof.Headers), ppm.maxBlockLevel+1)
	}

	for level, headers := range pruningPointProof.Headers {
		for _, header := range headers {
			if !ppm.skipPoW && !pow.CheckProofOfWorkByBits(header.ToMutable()) {
				return errors.Wrapf(ruleerrors.ErrInvalidPoW, "proof header %s has invalid proof of work",
					consensushashing.HeaderHash(header))
			}
			if pow.BlockLevel(header, ppm.maxBlockLevel) < level {
				return errors.Wrapf(ruleerrors.ErrPruningProofBadLevel, "proof header %s is below level %d",
					consensushashing.HeaderHash(header), level)
			}
		}
	}

	levelZero := pruningPointProof.Headers[0]
	for i := 1; i < len(levelZero); i++ {
		previousHash := consensushashing.HeaderHash(levelZero[i-1])
		if !containsHash(levelZero[i].DirectParents(), previousHash) {
			return errors.Wrapf(ruleerrors.ErrPruningProofMissingLink, "proof header %s does not point to %s",
				consensushashing.HeaderHash(levelZero[i]), previousHash)
		}
		if levelZero[i].BlueWork().Cmp(levelZero[i-1].BlueWork()) <= 0 {
			return errors.Wrapf(ruleerrors.ErrPruningProofNonIncreasingBlueWork,
				"proof header %s does not carry more blue work than %s",
				consensushashing.HeaderHash(levelZero[i]), previousHash)
		}
	}

	pruningPointHeader := levelZero[len(levelZero)-1]
	for level := 1; level < len(pruningPointProof.Headers); level++ {
		headers := pruningPointProof.Headers[level]
		if len(headers) == 0 {
			continue
		}
		for i := 1; i < len(headers); i++ {
			if headers[i].BlueWork().Cmp(headers[i-1].BlueWork()) <= 0 {
				return errors.Wrapf(ruleerrors.ErrPruningProofNonIncreasingBlueWork,
					"level %d of the proof does not increase in blue work", level)
			}
		}
		if headers[len(headers)-1].BlueWork().Cmp(pruningPointHeader.BlueWork()) > 0 {
			return errors.Wrapf(ruleerrors.ErrPruningProofBadPruningPoint,
				"level %d of the proof ends above the pruning point", level)
		}
	}

	stagingArea := model.NewStagingArea()
	currentPruningPoint, err := ppm.pruningStore.PruningPoint(ppm.databaseContext, stagingArea)
	if err != nil {
		return err
	}
	currentPruningPointHeader, err := ppm.blockHeaderStore.BlockHeader(ppm.databaseContext, stagingArea, currentPruningPoint)
	if err != nil {
		return err
	}
	if pruningPointHeader.BlueWork().Cmp(currentPruningPointHeader.BlueWork()) <= 0 {
		return errors.Wrapf(ruleerrors.ErrPruningProofInsufficientBlueWork, "the proof pruning point %s "+
			"does not carry more blue work than the current pruning point %s",
			consensushashing.HeaderHash(pruningPointHeader), currentPruningPoint)
	}

	return nil
}

// ApplyPruningPointProof stores the proof so that it can be served to other peers
// once the pruning point it proves is imported
func (ppm *pruningProofManager) ApplyPruningPointProof(stagingArea *model.StagingArea,
	pruningPointProof *externalapi.PruningPointProof) error {

	if len(pruningPointProof.Headers) == 0 || len(pruningPointProof.Headers[0]) == 0 {
		return errors.Wrapf(ruleerrors.ErrPruningProofEmpty, "cannot apply an empty proof")
	}

	log.Infof("Applying the proof of pruning point %s", proofPruningPoint(pruningPointProof))
	ppm.pruningStore.StagePruningPointProof(stagingArea, pruningPointProof)
	return nil
}

func proofPruningPoint(pruningPointProof *externalapi.PruningPointProof) *externalapi.DomainHash {
	levelZero := pruningPointProof.Headers[0]
	return consensushashing.HeaderHash(levelZero[len(levelZero)-1])
}

func containsHash(hashes []*externalapi.DomainHash, hash *externalapi.DomainHash) bool {
	for _, current := range hashes {
		if current.Equal(hash) {
			return true
		}
	}
	return false
}
