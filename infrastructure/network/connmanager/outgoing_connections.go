package connmanager

import "github.com/calico-network/calicod/app/appmessage"

// checkOutgoingConnections goes over all activeOutgoing and makes sure they are still active.
// Then it opens connections so that we have targetOutgoing active connections
func (c *ConnectionManager) checkOutgoingConnections(connSet connectionSet) {
	for address := range c.activeOutgoing {
		connection, ok := connSet.get(address)
		if ok { // connection is still connected
			connSet.remove(connection)
			continue
		}

		// if connection is dead - remove from list of active ones
		delete(c.activeOutgoing, address)
	}

	connections := c.netAdapter.P2PConnections()
	connectedAddresses := make([]*appmessage.NetAddress, len(connections))
	for i, connection := range connections {
		connectedAddresses[i] = appmessage.NewNetAddress(connection.Address())
	}

	liveConnections := len(c.activeOutgoing)
	if c.targetOutgoing <= liveConnections {
		return
	}

	log.Debugf("Have got %d outgoing connections out of target %d, adding %d more",
		liveConnections, c.targetOutgoing, c.targetOutgoing-liveConnections)

	connectionsNeededCount := c.targetOutgoing - len(c.activeOutgoing)
	netAddresses := c.addressManager.RandomAddresses(connectionsNeededCount, connectedAddresses)

	for _, netAddress := range netAddresses {
		address := netAddress.Address

		log.Debugf("Connecting to %s because we have %d outgoing connections and the target is "+
			"%d", address, len(c.activeOutgoing), c.targetOutgoing)

		err := c.initiateConnection(address)
		if err != nil {
			log.Infof("Couldn't connect to %s: %s", address, err)
			err := c.addressManager.MarkConnectionFailure(netAddress)
			if err != nil {
				log.Debugf("Couldn't mark %s as failed: %s", address, err)
			}
			continue
		}
		err = c.addressManager.MarkConnectionSuccess(netAddress)
		if err != nil {
			log.Debugf("Couldn't mark %s as successful: %s", address, err)
		}

		c.activeOutgoing[address] = struct{}{}
	}
}
