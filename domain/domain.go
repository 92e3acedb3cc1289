package domain

import (
	"sync"

	"github.com/calico-network/calicod/domain/consensus"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/prefixmanager"
	"github.com/calico-network/calicod/domain/prefixmanager/prefix"
	infrastructuredatabase "github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/pkg/errors"
)

// Domain provides a reference to the domain's external aps
type Domain interface {
	Consensus() externalapi.Consensus
	StagingConsensus() externalapi.Consensus
	InitStagingConsensus() error
	InitStagingConsensusWithoutGenesis() error
	CommitStagingConsensus() error
	DeleteStagingConsensus() error
	ConsensusEventsChannel() chan externalapi.ConsensusEvent
}

type domain struct {
	consensus        externalapi.Consensus
	stagingConsensus externalapi.Consensus
	consensusLock    sync.RWMutex

	consensusConfig     *consensus.Config
	db                  infrastructuredatabase.Database
	consensusEventsChan chan externalapi.ConsensusEvent
}

func (d *domain) Consensus() externalapi.Consensus {
	d.consensusLock.RLock()
	defer d.consensusLock.RUnlock()

	return d.consensus
}

func (d *domain) StagingConsensus() externalapi.Consensus {
	d.consensusLock.RLock()
	defer d.consensusLock.RUnlock()

	return d.stagingConsensus
}

func (d *domain) ConsensusEventsChannel() chan externalapi.ConsensusEvent {
	return d.consensusEventsChan
}

func (d *domain) InitStagingConsensus() error {
	return d.initStagingConsensus(false)
}

func (d *domain) InitStagingConsensusWithoutGenesis() error {
	return d.initStagingConsensus(true)
}

func (d *domain) initStagingConsensus(skipAddingGenesis bool) error {
	d.consensusLock.Lock()
	defer d.consensusLock.Unlock()

	_, hasInactivePrefix, err := prefixmanager.InactivePrefix(d.db)
	if err != nil {
		return err
	}
	if hasInactivePrefix {
		return errors.Errorf("cannot create a staging consensus when a staging consensus already exists")
	}

	activePrefix, exists, err := prefixmanager.ActivePrefix(d.db)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("cannot create a staging consensus when there's no active consensus")
	}

	inactivePrefix := activePrefix.Flip()
	err = prefixmanager.SetPrefixAsInactive(d.db, inactivePrefix)
	if err != nil {
		return err
	}

	consensusInstance, err := consensus.NewFactory().NewConsensus(
		d.consensusConfig, d.db, inactivePrefix, d.consensusEventsChan)
	if err != nil {
		return err
	}
	err = consensusInstance.Init(skipAddingGenesis)
	if err != nil {
		return err
	}

	d.stagingConsensus = consensusInstance
	return nil
}

func (d *domain) CommitStagingConsensus() error {
	d.consensusLock.Lock()
	defer d.consensusLock.Unlock()

	if d.stagingConsensus == nil {
		return errors.Errorf("there's no staging consensus to commit")
	}

	dbTx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	inactivePrefix, hasInactivePrefix, err := prefixmanager.InactivePrefix(dbTx)
	if err != nil {
		return err
	}
	if !hasInactivePrefix {
		return errors.Errorf("there's no inactive prefix to commit")
	}

	activePrefix, exists, err := prefixmanager.ActivePrefix(dbTx)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Errorf("cannot commit a staging consensus when there's no active consensus")
	}

	err = prefixmanager.SetPrefixAsActive(dbTx, inactivePrefix)
	if err != nil {
		return err
	}
	err = prefixmanager.SetPrefixAsInactive(dbTx, activePrefix)
	if err != nil {
		return err
	}

	err = dbTx.Commit()
	if err != nil {
		return err
	}

	// Data under the old prefix is deleted outside of the transaction
	// to keep the transaction small.
	err = prefixmanager.DeleteInactivePrefix(d.db)
	if err != nil {
		return err
	}

	d.consensus = d.stagingConsensus
	d.stagingConsensus = nil
	return nil
}

func (d *domain) DeleteStagingConsensus() error {
	d.consensusLock.Lock()
	defer d.consensusLock.Unlock()

	err := prefixmanager.DeleteInactivePrefix(d.db)
	if err != nil {
		return err
	}

	d.stagingConsensus = nil
	return nil
}

// New instantiates a new instance of a Domain object
func New(consensusConfig *consensus.Config, db infrastructuredatabase.Database) (Domain, error) {
	err := prefixmanager.DeleteInactivePrefix(db)
	if err != nil {
		return nil, err
	}

	activePrefix, exists, err := prefixmanager.ActivePrefix(db)
	if err != nil {
		return nil, err
	}
	if !exists {
		activePrefix = &prefix.Prefix{}
		err = prefixmanager.SetPrefixAsActive(db, activePrefix)
		if err != nil {
			return nil, err
		}
	}

	consensusEventsChan := make(chan externalapi.ConsensusEvent, consensusConfig.EventsChanCapacity)
	consensusInstance, err := consensus.NewFactory().NewConsensus(consensusConfig, db, activePrefix, consensusEventsChan)
	if err != nil {
		return nil, err
	}
	err = consensusInstance.Init(false)
	if err != nil {
		return nil, err
	}

	return &domain{
		consensus:           consensusInstance,
		consensusConfig:     consensusConfig,
		db:                  db,
		consensusEventsChan: consensusEventsChan,
	}, nil
}
