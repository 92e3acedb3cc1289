package transactionhelper

import (
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/stretchr/testify/require"
)

func TestCoinbasePayloadRoundTrip(t *testing.T) {
	coinbaseData := &externalapi.DomainCoinbaseData{
		ScriptPublicKey: &externalapi.ScriptPublicKey{Script: []byte{0x51, 0x52}, Version: 0},
		ExtraData:       []byte("calicod"),
	}
	tx, err := NewCoinbaseTransaction(42, 1000, coinbaseData)
	require.NoError(t, err)
	require.True(t, IsCoinBase(tx))
	require.Len(t, tx.Outputs, 1)

	blueScore, subsidy, extracted, err := ExtractCoinbaseDataBlueScoreAndSubsidy(tx)
	require.NoError(t, err)
	require.Equal(t, uint64(42), blueScore)
	require.Equal(t, uint64(1000), subsidy)
	require.True(t, extracted.ScriptPublicKey.Equal(coinbaseData.ScriptPublicKey))
	require.Equal(t, coinbaseData.ExtraData, extracted.ExtraData)
}

func TestExtractCoinbaseDataRejectsShortPayload(t *testing.T) {
	tx := &externalapi.DomainTransaction{Payload: []byte{1, 2, 3}}
	_, _, _, err := ExtractCoinbaseDataBlueScoreAndSubsidy(tx)
	require.Error(t, err)

	// Declares a 5 byte script but carries none.
	payload := make([]byte, CoinbasePayloadMinLength)
	payload[CoinbasePayloadMinLength-1] = 5
	_, _, _, err = ExtractCoinbaseDataBlueScoreAndSubsidy(&externalapi.DomainTransaction{Payload: payload})
	require.Error(t, err)
}
