package blockvalidator

import (
	"time"

	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/constants"
	"github.com/calico-network/calicod/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateHeaderInIsolation validates block headers in isolation from the current
// consensus state
func (v *blockValidator) ValidateHeaderInIsolation(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateHeaderInIsolation")
	defer onEnd()

	header, err := v.blockHeaderStore.BlockHeader(v.databaseContext, stagingArea, blockHash)
	if err != nil {
		return err
	}

	if !blockHash.Equal(v.genesisHash) {
		err = v.checkParentsLimit(header)
		if err != nil {
			return err
		}
	}

	err = checkBlockVersion(header)
	if err != nil {
		return err
	}

	err = v.checkParentsLevels(header)
	if err != nil {
		return err
	}

	err = checkNoDuplicateParents(header)
	if err != nil {
		return err
	}

	return v.checkBlockTimestampInIsolation(header)
}

func (v *blockValidator) checkParentsLimit(header externalapi.BlockHeader) error {
	parents := header.DirectParents()
	if len(parents) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoParents, "block has no parents")
	}

	if len(parents) > v.maxBlockParents {
		return errors.Wrapf(ruleerrors.ErrTooManyParents, "block header has %d parents, but the maximum allowed amount "+
			"is %d", len(parents), v.maxBlockParents)
	}
	return nil
}

func (v *blockValidator) checkParentsLevels(header externalapi.BlockHeader) error {
	if len(header.Parents()) > v.maxBlockLevel+1 {
		return errors.Wrapf(ruleerrors.ErrInvalidParentsLevels, "block header has %d parent levels, but the "+
			"maximum is %d", len(header.Parents()), v.maxBlockLevel+1)
	}
	for level, levelParents := range header.Parents() {
		if len(levelParents) == 0 {
			return errors.Wrapf(ruleerrors.ErrInvalidParentsLevels, "block header has no parents at level %d", level)
		}
	}
	return nil
}

func checkNoDuplicateParents(header externalapi.BlockHeader) error {
	for level, levelParents := range header.Parents() {
		seen := make(map[externalapi.DomainHash]struct{}, len(levelParents))
		for _, parent := range levelParents {
			if _, ok := seen[*parent]; ok {
				return errors.Wrapf(ruleerrors.ErrInvalidParentsRelation, "parent %s appears more than once "+
					"at level %d", parent, level)
			}
			seen[*parent] = struct{}{}
		}
	}
	return nil
}

func checkBlockVersion(header externalapi.BlockHeader) error {
	if header.Version() != constants.BlockVersion {
		return errors.Wrapf(
			ruleerrors.ErrBlockVersionIsUnknown, "The block version is unknown.")
	}
	return nil
}

func (v *blockValidator) checkBlockTimestampInIsolation(header externalapi.BlockHeader) error {
	blockTimestamp := header.TimeInMilliseconds()
	now := time.Now().UnixNano() / int64(time.Millisecond)
	maxTimestampDeviation := int64(v.timestampDeviationTolerance) * v.targetTimePerBlock.Milliseconds()
	maxCurrentTime := now + maxTimestampDeviation
	if blockTimestamp > maxCurrentTime {
		return errors.Wrapf(
			ruleerrors.ErrTimeTooMuchInTheFuture, "The block timestamp is in the future.")
	}
	return nil
}
