package flowcontext

import (
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/ruleerrors"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/calico-network/calicod/util/mstime"
	"github.com/pkg/errors"
)

// nearlySyncedBlocks is how many target block intervals the virtual selected
// parent may lag behind the wall clock while the node still counts as synced
const nearlySyncedBlocks = 300

// OnNewBlock unorphans the children of a newly inserted block and relays
// the block and every unorphaned block to the ready peers.
func (f *FlowContext) OnNewBlock(block *externalapi.DomainBlock) error {
	hash := consensushashing.BlockHash(block)
	log.Debugf("OnNewBlock start for block %s", hash)
	defer log.Debugf("OnNewBlock end for block %s", hash)

	unorphaningResults, err := f.UnorphanBlocks(block)
	if err != nil {
		return err
	}

	log.Debugf("OnNewBlock: block %s unorphaned %d blocks", hash, len(unorphaningResults))

	newBlockHashes := []*externalapi.DomainHash{hash}
	for _, unorphaningResult := range unorphaningResults {
		newBlockHashes = append(newBlockHashes, consensushashing.BlockHash(unorphaningResult.block))
	}

	for _, newBlockHash := range newBlockHashes {
		err := f.Broadcast(appmessage.NewMsgInvBlock(newBlockHash))
		if err != nil {
			return err
		}
	}
	return nil
}

// AddBlock adds the given block to the DAG and propagates it.
func (f *FlowContext) AddBlock(block *externalapi.DomainBlock) error {
	_, err := f.Domain().Consensus().ValidateAndInsertBlock(block, true)
	if err != nil {
		if errors.As(err, &ruleerrors.RuleError{}) {
			log.Warnf("Validation failed for block %s: %s", consensushashing.BlockHash(block), err)
		}
		return err
	}
	return f.OnNewBlock(block)
}

// IsNearlySynced returns whether the virtual selected parent is recent
// enough for the node to consider itself synced with the network
func (f *FlowContext) IsNearlySynced() (bool, error) {
	consensus := f.Domain().Consensus()
	virtualSelectedParent, err := consensus.GetVirtualSelectedParent()
	if err != nil {
		return false, err
	}
	params := f.cfg.NetParams()
	if virtualSelectedParent.Equal(params.GenesisHash) {
		return false, nil
	}
	virtualSelectedParentHeader, err := consensus.GetBlockHeader(virtualSelectedParent)
	if err != nil {
		return false, err
	}
	maxLag := params.TargetTimePerBlock * nearlySyncedBlocks
	lag := time.Since(mstime.UnixMilliToTime(virtualSelectedParentHeader.TimeInMilliseconds()))
	return lag <= maxLag, nil
}
