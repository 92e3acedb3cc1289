package addressexchange

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/common"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/network/addressmanager"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

// ReceiveAddressesContext is the interface for the context needed for the ReceiveAddresses flow.
type ReceiveAddressesContext interface {
	AddressManager() *addressmanager.AddressManager
}

// ReceiveAddresses asks a peer for more addresses if needed.
func ReceiveAddresses(context ReceiveAddressesContext, incomingRoute *router.Route, outgoingRoute *router.Route,
	peer *peerpkg.Peer) error {

	err := outgoingRoute.Enqueue(appmessage.NewMsgRequestAddresses())
	if err != nil {
		return err
	}

	message, err := incomingRoute.DequeueWithTimeout(common.DefaultTimeout)
	if err != nil {
		return err
	}

	msgAddresses, ok := message.(*appmessage.MsgAddresses)
	if !ok {
		return protocolerrors.Errorf(true, "unexpected message. "+
			"Expected: %s, got: %s", appmessage.CmdAddresses, message.Command())
	}
	if len(msgAddresses.AddressList) > appmessage.MaxAddressesPerMsg {
		return protocolerrors.Errorf(true, "address count exceeded %d", appmessage.MaxAddressesPerMsg)
	}

	addresses := make([]*appmessage.NetAddress, 0, len(msgAddresses.AddressList))
	for _, address := range msgAddresses.AddressList {
		if address == nil {
			continue
		}
		addresses = append(addresses, address)
	}
	log.Debugf("Received %d addresses from %s", len(addresses), peer)

	return context.AddressManager().AddAddresses(addresses...)
}
