package pruningstore

import (
	"github.com/calico-network/calicod/domain/consensus/database/serialization"
	"github.com/calico-network/calicod/domain/consensus/model"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var pruningPointProofKeyName = []byte("pruning-point-proof")

// StagePruningPointProof stores the proof built for the current pruning point
func (ps *pruningStore) StagePruningPointProof(stagingArea *model.StagingArea, proof *externalapi.PruningPointProof) {
	ps.stagingShard(stagingArea).newPruningPointProof = proof
}

// PruningPointProof returns the stored proof, and false if none was stored yet
func (ps *pruningStore) PruningPointProof(dbContext model.DBReader, stagingArea *model.StagingArea) (
	*externalapi.PruningPointProof, bool, error) {

	if proof := ps.stagingShard(stagingArea).newPruningPointProof; proof != nil {
		return proof, true, nil
	}
	if ps.pruningPointProofCache != nil {
		return ps.pruningPointProofCache, true, nil
	}

	proofBytes, err := dbContext.Get(ps.pruningPointProofKey)
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	dbProof := &serialization.DbPruningPointProof{}
	err = serialization.Unmarshal(proofBytes, dbProof)
	if err != nil {
		return nil, false, err
	}
	proof, err := serialization.DbPruningPointProofToPruningPointProof(dbProof)
	if err != nil {
		return nil, false, err
	}
	ps.pruningPointProofCache = proof
	return proof, true, nil
}

func (ps *pruningStore) commitPruningPointProof(dbTx model.DBTransaction, proof *externalapi.PruningPointProof) error {
	proofBytes, err := serialization.Marshal(serialization.PruningPointProofToDbPruningPointProof(proof))
	if err != nil {
		return err
	}
	err = dbTx.Put(ps.pruningPointProofKey, proofBytes)
	if err != nil {
		return err
	}
	ps.pruningPointProofCache = proof
	return nil
}
