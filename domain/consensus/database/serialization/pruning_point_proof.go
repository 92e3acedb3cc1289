package serialization

import (
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
)

// DbPruningPointProof is the stored form of a pruning point proof
type DbPruningPointProof struct {
	Headers [][]*DbBlockHeader `msgpack:"h"`
}

// PruningPointProofToDbPruningPointProof converts PruningPointProof to DbPruningPointProof
func PruningPointProofToDbPruningPointProof(pruningPointProof *externalapi.PruningPointProof) *DbPruningPointProof {
	headers := make([][]*DbBlockHeader, len(pruningPointProof.Headers))
	for i, levelHeaders := range pruningPointProof.Headers {
		headers[i] = make([]*DbBlockHeader, len(levelHeaders))
		for j, header := range levelHeaders {
			headers[i][j] = DomainBlockHeaderToDbBlockHeader(header)
		}
	}
	return &DbPruningPointProof{Headers: headers}
}

// DbPruningPointProofToPruningPointProof converts DbPruningPointProof to PruningPointProof
func DbPruningPointProofToPruningPointProof(dbPruningPointProof *DbPruningPointProof) (*externalapi.PruningPointProof, error) {
	headers := make([][]externalapi.BlockHeader, len(dbPruningPointProof.Headers))
	for i, dbLevelHeaders := range dbPruningPointProof.Headers {
		headers[i] = make([]externalapi.BlockHeader, len(dbLevelHeaders))
		for j, dbHeader := range dbLevelHeaders {
			var err error
			headers[i][j], err = DbBlockHeaderToDomainBlockHeader(dbHeader)
			if err != nil {
				return nil, err
			}
		}
	}
	return &externalapi.PruningPointProof{Headers: headers}, nil
}
