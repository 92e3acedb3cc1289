package flowcontext

import (
	"time"

	"github.com/calico-network/calicod/app/notifications"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/domain/consensus/utils/consensushashing"
	"github.com/jpillora/backoff"
)

// MaxIBDAttemptsPerPeer is the number of failed IBD attempts a peer is
// allowed before it is disconnected
const MaxIBDAttemptsPerPeer = 3

var newIBDRetryBackoff = func() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

// IsIBDRunning returns true if IBD is currently marked as running
func (f *FlowContext) IsIBDRunning() bool {
	f.ibdPeerMutex.RLock()
	defer f.ibdPeerMutex.RUnlock()

	return f.ibdPeer != nil
}

// TrySetIBDRunning attempts to set `isInIBD`. Returns false
// if it is already set
func (f *FlowContext) TrySetIBDRunning(ibdPeer *peerpkg.Peer) bool {
	f.ibdPeerMutex.Lock()
	defer f.ibdPeerMutex.Unlock()

	if f.ibdPeer != nil {
		return false
	}
	f.ibdPeer = ibdPeer
	log.Infof("IBD started with peer %s", ibdPeer)

	return true
}

// UnsetIBDRunning unsets isInIBD
func (f *FlowContext) UnsetIBDRunning() {
	f.ibdPeerMutex.Lock()
	defer f.ibdPeerMutex.Unlock()

	if f.ibdPeer == nil {
		panic("attempted to unset isInIBD when it was not set to begin with")
	}

	f.ibdPeer = nil
}

// IBDPeer returns the current IBD peer or null if the node is not
// in IBD
func (f *FlowContext) IBDPeer() *peerpkg.Peer {
	f.ibdPeerMutex.RLock()
	defer f.ibdPeerMutex.RUnlock()

	return f.ibdPeer
}

// OnIBDSuccess clears the retry state after syncing from the given peer
func (f *FlowContext) OnIBDSuccess(peer *peerpkg.Peer) {
	peer.ResetIBDAttempts()

	f.ibdRetryLock.Lock()
	defer f.ibdRetryLock.Unlock()
	f.ibdRetryBackoff.Reset()
}

// OnIBDFailure records a failed IBD attempt against the given peer and
// re-posts the job, after a backoff delay, to another ready peer. It
// returns whether the failed peer should be disconnected.
func (f *FlowContext) OnIBDFailure(failedPeer *peerpkg.Peer, relayBlock *externalapi.DomainBlock, ibdErr error) bool {
	attempts := failedPeer.IncrementIBDAttempts()
	_, shouldBan := protocolerrors.IsProtocolError(ibdErr)
	shouldDisconnect := shouldBan || attempts >= MaxIBDAttemptsPerPeer

	relayBlockHash := consensushashing.BlockHash(relayBlock)
	log.Warnf("IBD with peer %s towards %s failed (attempt %d/%d): %s",
		failedPeer, relayBlockHash, attempts, MaxIBDAttemptsPerPeer, ibdErr)

	nextPeer, ok := f.nextIBDPeer(failedPeer, shouldDisconnect)
	if !ok {
		log.Warnf("No peer is left to sync towards %s", relayBlockHash)
		f.notify(&notifications.SyncStalled{TargetHash: relayBlockHash, Reason: ibdErr.Error()})
		return shouldDisconnect
	}

	f.ibdRetryLock.Lock()
	delay := f.ibdRetryBackoff.Duration()
	f.ibdRetryLock.Unlock()

	log.Infof("Re-posting the IBD job towards %s to peer %s in %s", relayBlockHash, nextPeer, delay)
	spawn("FlowContext.OnIBDFailure-repost", func() {
		select {
		case <-time.After(delay):
			nextPeer.RequestIBD(relayBlock)
		case <-f.shutdownChan:
		}
	})
	return shouldDisconnect
}

// nextIBDPeer picks the ready peer with the fewest failed attempts other
// than failedPeer. failedPeer itself is a candidate only while it may stay
// connected and no other peer exists.
func (f *FlowContext) nextIBDPeer(failedPeer *peerpkg.Peer, isFailedPeerLeaving bool) (*peerpkg.Peer, bool) {
	var best *peerpkg.Peer
	for _, peer := range f.Peers() {
		if peer == failedPeer || peer.IBDAttempts() >= MaxIBDAttemptsPerPeer {
			continue
		}
		if best == nil || peer.IBDAttempts() < best.IBDAttempts() {
			best = peer
		}
	}
	if best != nil {
		return best, true
	}
	if !isFailedPeerLeaving {
		return failedPeer, true
	}
	return nil, false
}
