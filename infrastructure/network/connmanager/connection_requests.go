package connmanager

import (
	"time"

	"github.com/jpillora/backoff"
)

const (
	minRetryDuration = 30 * time.Second
	maxRetryDuration = 10 * time.Minute
)

func newConnectionRequest(address string, isPermanent bool) *connectionRequest {
	return &connectionRequest{
		address:     address,
		isPermanent: isPermanent,
		retry: &backoff.Backoff{
			Min:    minRetryDuration,
			Max:    maxRetryDuration,
			Factor: 2,
		},
	}
}

// checkRequestedConnections checks that all activeRequested are still active, and initiates connections
// for pendingRequested.
// While doing so, it filters out of connSet all connections that were initiated as a connectionRequest
func (c *ConnectionManager) checkRequestedConnections(connSet connectionSet) {
	c.connectionRequestsLock.Lock()
	defer c.connectionRequestsLock.Unlock()

	now := time.Now()

	for address, connReq := range c.activeRequested {
		connection, ok := connSet.get(address)
		if !ok { // a requested connection was disconnected
			delete(c.activeRequested, address)

			if connReq.isPermanent { // if is one-try - ignore. If permanent - add to pending list to retry
				connReq.nextAttempt = now
				connReq.retry.Reset()
				c.pendingRequested[address] = connReq
			}
			continue
		}

		connSet.remove(connection)
	}

	for address, connReq := range c.pendingRequested {
		if connReq.nextAttempt.After(now) { // ignore connection requests which are still waiting for retry
			continue
		}

		connection, ok := connSet.get(address)
		if ok { // somehow the pendingRequested has already connected - move it to active
			delete(c.pendingRequested, address)
			c.activeRequested[address] = connReq

			connSet.remove(connection)

			continue
		}

		// try to initiate connection
		err := c.initiateConnection(connReq.address)

		if err == nil { // if connected successfully - move from pending to active
			delete(c.pendingRequested, address)
			c.activeRequested[address] = connReq
			continue
		}
		if !connReq.isPermanent { // if connection request is one try - remove from pending and ignore failure
			log.Infof("Couldn't connect to %s: %s", address, err)
			delete(c.pendingRequested, address)
			continue
		}
		// if connection request is permanent - keep in pending, and increase retry time
		retryDuration := connReq.retry.Duration()
		connReq.nextAttempt = now.Add(retryDuration)
		log.Debugf("Retrying connection to %s in %s", address, retryDuration)
	}
}

// AddConnectionRequest adds the given address to list of pending connection requests
func (c *ConnectionManager) AddConnectionRequest(address string, isPermanent bool) {
	// spawn goroutine so that caller doesn't wait in case connectionManager is in the midst of handling
	// connection requests
	spawn("ConnectionManager.AddConnectionRequest", func() {
		c.addConnectionRequest(address, isPermanent)
		c.Run()
	})
}

func (c *ConnectionManager) addConnectionRequest(address string, isPermanent bool) {
	c.connectionRequestsLock.Lock()
	defer c.connectionRequestsLock.Unlock()

	if _, ok := c.activeRequested[address]; ok {
		return
	}

	c.pendingRequested[address] = newConnectionRequest(address, isPermanent)
}
