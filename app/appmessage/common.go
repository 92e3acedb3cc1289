package appmessage

import (
	"strconv"

	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
)

// ProtocolVersion is the latest protocol version this package supports.
const ProtocolVersion uint32 = 5

// MaxInvPerMsg is the maximum number of inventory vectors that can be in any type of inv message.
const MaxInvPerMsg = 1 << 17

// MaxAddressesPerMsg is the maximum number of addresses that can be in a single Addresses message.
const MaxAddressesPerMsg = 1000

// MaxBlockLocatorsPerMsg is the maximum number of block locator hashes allowed per message.
const MaxBlockLocatorsPerMsg = 500

func nonceKey(nonce uint64) string {
	return strconv.FormatUint(nonce, 16)
}

func blockKey(block *externalapi.DomainBlock) string {
	if block == nil || block.Header == nil {
		return ""
	}
	return consensushashing.BlockHash(block).String()
}

func hashKeys(hashes []*externalapi.DomainHash) []string {
	keys := make([]string, len(hashes))
	for i, hash := range hashes {
		keys[i] = hash.String()
	}
	return keys
}
