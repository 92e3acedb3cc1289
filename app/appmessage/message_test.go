package appmessage

import (
	"math/big"
	"strings"
	"testing"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/blockheader"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/stretchr/testify/require"
)

func TestMessageCommandTable(t *testing.T) {
	names := make(map[string]MessageCommand)
	for _, cmd := range AllMessageCommands() {
		message, ok := NewMessage(cmd)
		require.True(t, ok, "no constructor for %d", cmd)
		require.Equal(t, cmd, message.Command(), "constructor of %s builds the wrong message", cmd)

		name := messageCommandTable[cmd].name
		require.NotEmpty(t, name)
		previous, exists := names[name]
		require.False(t, exists, "%s and %d share a name", previous, cmd)
		names[name] = cmd
	}

	_, ok := NewMessage(numMessageCommands)
	require.False(t, ok)
	require.True(t, strings.HasPrefix(numMessageCommands.String(), "unknown command"))
	require.Equal(t, "Ping [code 4]", CmdPing.String())
}

func TestCorrelates(t *testing.T) {
	require.True(t, Correlates(NewMsgPing(7), NewMsgPong(7)))
	require.False(t, Correlates(NewMsgPing(7), NewMsgPong(8)))

	blockA := testBlock(1)
	blockB := testBlock(2)
	hashA := consensushashing.BlockHash(blockA)
	hashB := consensushashing.BlockHash(blockB)

	request := NewMsgRequestRelayBlocks([]*externalapi.DomainHash{hashA})
	require.True(t, Correlates(request, NewMsgBlock(blockA)))
	require.False(t, Correlates(request, NewMsgBlock(blockB)))

	ibdRequest := NewMsgRequestIBDBlocks([]*externalapi.DomainHash{hashA, hashB})
	require.True(t, Correlates(ibdRequest, NewMsgIBDBlock(blockA)))
	require.True(t, Correlates(ibdRequest, NewMsgIBDBlock(blockB)))

	// Messages without correlation keys never correlate
	require.False(t, Correlates(NewMsgRequestHeaders(hashA, hashB), NewMsgDoneHeaders()))
	require.False(t, Correlates(request, NewMsgBlock(nil)))
}

func testBlock(nonce uint64) *externalapi.DomainBlock {
	header := blockheader.NewImmutableBlockHeader(
		0,
		nil,
		&externalapi.DomainHash{},
		&externalapi.DomainHash{},
		&externalapi.DomainHash{},
		0,
		0x207fffff,
		nonce,
		0,
		0,
		big.NewInt(0),
		&externalapi.DomainHash{},
	)
	return &externalapi.DomainBlock{Header: header}
}
