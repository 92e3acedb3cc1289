package subnetworks

import "github.com/calico-network/calicod/domain/consensus/model/externalapi"

var (
	// SubnetworkIDNative is the default subnetwork ID, which is used for transactions without related payload data
	SubnetworkIDNative = externalapi.DomainSubnetworkID{}

	// SubnetworkIDCoinbase is the subnetwork ID which is used for the coinbase transaction
	SubnetworkIDCoinbase = externalapi.DomainSubnetworkID{1}
)
