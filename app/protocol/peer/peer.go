package peer

import (
	"sync"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
)

// Peer holds data about a peer.
type Peer struct {
	connection *netadapter.NetConnection

	userAgent                string
	advertisedProtocolVerion uint32 // protocol version advertised by remote
	protocolVersion          uint32 // negotiated protocol version
	network                  string
	timeOffset               time.Duration
	connectionStarted        time.Time

	pingLock         sync.RWMutex
	lastPingNonce    uint64        // The nonce of the last ping we sent
	lastPingTime     time.Time     // Time we sent last ping
	lastPingDuration time.Duration // Time for last ping to return

	ibdRequestLock    sync.Mutex
	ibdRequestChannel chan *externalapi.DomainBlock

	ibdAttemptsLock sync.Mutex
	ibdAttempts     int

	closeOnce sync.Once
	closed    chan struct{}
}

// New returns a new Peer
func New(connection *netadapter.NetConnection) *Peer {
	return &Peer{
		connection:        connection,
		connectionStarted: time.Now(),
		ibdRequestChannel: make(chan *externalapi.DomainBlock, 1),
		closed:            make(chan struct{}),
	}
}

// Connection returns the NetConnection associated with this peer
func (p *Peer) Connection() *netadapter.NetConnection {
	return p.connection
}

// ID returns the peer's ID, which is set during the handshake
func (p *Peer) ID() *id.ID {
	return p.connection.ID()
}

// Address returns the address the peer's connection is bound to
func (p *Peer) Address() string {
	return p.connection.Address()
}

// IsOutbound returns whether this node initiated the connection to the peer
func (p *Peer) IsOutbound() bool {
	return p.connection.IsOutbound()
}

// UserAgent returns the user agent of the given peer
func (p *Peer) UserAgent() string {
	return p.userAgent
}

// AdvertisedProtocolVersion returns the advertised protocol version of the given peer
func (p *Peer) AdvertisedProtocolVersion() uint32 {
	return p.advertisedProtocolVerion
}

// ProtocolVersion returns the protocol version which is used when communicating with the peer.
func (p *Peer) ProtocolVersion() uint32 {
	return p.protocolVersion
}

// Network returns the network the peer advertised
func (p *Peer) Network() string {
	return p.network
}

// TimeOffset returns the peer's clock offset from ours
func (p *Peer) TimeOffset() time.Duration {
	return p.timeOffset
}

// TimeConnected returns the time since the connection to this been has been started.
func (p *Peer) TimeConnected() time.Duration {
	return time.Since(p.connectionStarted)
}

// UpdateFieldsFromMsgVersion updates the peer with the data from the version message.
func (p *Peer) UpdateFieldsFromMsgVersion(msg *appmessage.MsgVersion, maxProtocolVersion uint32) {
	// Negotiate the protocol version.
	p.advertisedProtocolVerion = msg.ProtocolVersion
	p.protocolVersion = minUint32(maxProtocolVersion, p.advertisedProtocolVerion)
	log.Debugf("Negotiated protocol version %d for peer %s",
		p.protocolVersion, p)

	// Set the remote peer's user agent.
	p.userAgent = msg.UserAgent
	p.network = msg.Network
	p.timeOffset = time.Since(msg.Timestamp)
}

// SetPingPending sets the ping state of the peer to 'pending'
func (p *Peer) SetPingPending(nonce uint64) {
	p.pingLock.Lock()
	defer p.pingLock.Unlock()

	p.lastPingNonce = nonce
	p.lastPingTime = time.Now()
}

// SetPingIdle sets the ping state of the peer to 'idle'
func (p *Peer) SetPingIdle() {
	p.pingLock.Lock()
	defer p.pingLock.Unlock()

	p.lastPingNonce = 0
	p.lastPingDuration = time.Since(p.lastPingTime)
}

// LastPingDuration returns the duration of the last ping to
// this peer
func (p *Peer) LastPingDuration() time.Duration {
	p.pingLock.Lock()
	defer p.pingLock.Unlock()

	return p.lastPingDuration
}

func (p *Peer) String() string {
	return p.connection.String()
}

// RequestIBD posts an IBD job towards the given relay block. A job that
// was posted but not yet picked up is replaced, so the IBD flow always
// syncs towards the most recently announced block.
func (p *Peer) RequestIBD(relayBlock *externalapi.DomainBlock) {
	p.ibdRequestLock.Lock()
	defer p.ibdRequestLock.Unlock()

	select {
	case <-p.ibdRequestChannel:
		log.Debugf("A pending IBD job was replaced by a newer one")
	default:
	}
	p.ibdRequestChannel <- relayBlock
}

// IBDRequestChannel returns the channel IBD jobs are posted to
func (p *Peer) IBDRequestChannel() <-chan *externalapi.DomainBlock {
	return p.ibdRequestChannel
}

// IncrementIBDAttempts records a failed IBD attempt against this peer and
// returns the number of failed attempts so far
func (p *Peer) IncrementIBDAttempts() int {
	p.ibdAttemptsLock.Lock()
	defer p.ibdAttemptsLock.Unlock()

	p.ibdAttempts++
	return p.ibdAttempts
}

// ResetIBDAttempts clears the failed IBD attempts of this peer
func (p *Peer) ResetIBDAttempts() {
	p.ibdAttemptsLock.Lock()
	defer p.ibdAttemptsLock.Unlock()

	p.ibdAttempts = 0
}

// IBDAttempts returns the number of failed IBD attempts against this peer
func (p *Peer) IBDAttempts() int {
	p.ibdAttemptsLock.Lock()
	defer p.ibdAttemptsLock.Unlock()

	return p.ibdAttempts
}

// Close marks the peer as gone. Flows waiting on Closed return.
func (p *Peer) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
	})
}

// Closed returns a channel that is closed once the peer is gone
func (p *Peer) Closed() <-chan struct{} {
	return p.closed
}

// minUint32 is a helper function to return the minimum of two uint32s.
// This avoids a math import and the need to cast to floats.
func minUint32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
