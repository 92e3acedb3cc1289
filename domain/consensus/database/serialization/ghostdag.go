package serialization

import (
	"math/big"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// DbBlockGHOSTDAGData is the stored form of a block's GHOSTDAG data
type DbBlockGHOSTDAGData struct {
	BlueScore          uint64                  `msgpack:"bs"`
	BlueWork           []byte                  `msgpack:"bw"`
	SelectedParent     []byte                  `msgpack:"sp"`
	MergeSetBlues      [][]byte                `msgpack:"blues"`
	MergeSetReds       [][]byte                `msgpack:"reds"`
	BluesAnticoneSizes []*DbBluesAnticoneSizes `msgpack:"bas"`
}

// DbBluesAnticoneSizes is a single blue block and its anticone size
type DbBluesAnticoneSizes struct {
	BlueHash     []byte `msgpack:"h"`
	AnticoneSize uint32 `msgpack:"s"`
}

// BlockGHOSTDAGDataToDBBlockGHOSTDAGData converts BlockGHOSTDAGData to DbBlockGHOSTDAGData
func BlockGHOSTDAGDataToDBBlockGHOSTDAGData(blockGHOSTDAGData *externalapi.BlockGHOSTDAGData) *DbBlockGHOSTDAGData {
	return &DbBlockGHOSTDAGData{
		BlueScore:          blockGHOSTDAGData.BlueScore(),
		BlueWork:           blockGHOSTDAGData.BlueWork().Bytes(),
		SelectedParent:     DomainHashToDbHash(blockGHOSTDAGData.SelectedParent()),
		MergeSetBlues:      DomainHashesToDbHashes(blockGHOSTDAGData.MergeSetBlues()),
		MergeSetReds:       DomainHashesToDbHashes(blockGHOSTDAGData.MergeSetReds()),
		BluesAnticoneSizes: bluesAnticoneSizesToDBBluesAnticoneSizes(blockGHOSTDAGData.BluesAnticoneSizes()),
	}
}

// DBBlockGHOSTDAGDataToBlockGHOSTDAGData converts DbBlockGHOSTDAGData to BlockGHOSTDAGData
func DBBlockGHOSTDAGDataToBlockGHOSTDAGData(dbBlockGHOSTDAGData *DbBlockGHOSTDAGData) (*externalapi.BlockGHOSTDAGData, error) {
	var selectedParent *externalapi.DomainHash
	if dbBlockGHOSTDAGData.SelectedParent != nil {
		var err error
		selectedParent, err = DbHashToDomainHash(dbBlockGHOSTDAGData.SelectedParent)
		if err != nil {
			return nil, err
		}
	}

	mergeSetBlues, err := DbHashesToDomainHashes(dbBlockGHOSTDAGData.MergeSetBlues)
	if err != nil {
		return nil, err
	}

	mergeSetReds, err := DbHashesToDomainHashes(dbBlockGHOSTDAGData.MergeSetReds)
	if err != nil {
		return nil, err
	}

	bluesAnticoneSizes, err := dbBluesAnticoneSizesToBluesAnticoneSizes(dbBlockGHOSTDAGData.BluesAnticoneSizes)
	if err != nil {
		return nil, err
	}

	return externalapi.NewBlockGHOSTDAGData(
		dbBlockGHOSTDAGData.BlueScore,
		new(big.Int).SetBytes(dbBlockGHOSTDAGData.BlueWork),
		selectedParent,
		mergeSetBlues,
		mergeSetReds,
		bluesAnticoneSizes,
	), nil
}

func bluesAnticoneSizesToDBBluesAnticoneSizes(bluesAnticoneSizes map[externalapi.DomainHash]externalapi.KType) []*DbBluesAnticoneSizes {
	dbBluesAnticoneSizes := make([]*DbBluesAnticoneSizes, 0, len(bluesAnticoneSizes))
	for hash, anticoneSize := range bluesAnticoneSizes {
		hash := hash
		dbBluesAnticoneSizes = append(dbBluesAnticoneSizes, &DbBluesAnticoneSizes{
			BlueHash:     DomainHashToDbHash(&hash),
			AnticoneSize: uint32(anticoneSize),
		})
	}
	return dbBluesAnticoneSizes
}

func dbBluesAnticoneSizesToBluesAnticoneSizes(dbBluesAnticoneSizes []*DbBluesAnticoneSizes) (map[externalapi.DomainHash]externalapi.KType, error) {
	bluesAnticoneSizes := make(map[externalapi.DomainHash]externalapi.KType, len(dbBluesAnticoneSizes))
	for _, data := range dbBluesAnticoneSizes {
		hash, err := DbHashToDomainHash(data.BlueHash)
		if err != nil {
			return nil, err
		}

		bluesAnticoneSizes[*hash], err = uint32ToKType(data.AnticoneSize)
		if err != nil {
			return nil, err
		}
	}
	return bluesAnticoneSizes, nil
}

func uint32ToKType(n uint32) (externalapi.KType, error) {
	convertedN := externalapi.KType(n)
	if uint32(convertedN) != n {
		return 0, errors.Errorf("cannot convert %d to KType without losing data", n)
	}
	return convertedN, nil
}
