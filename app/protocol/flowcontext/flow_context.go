package flowcontext

import (
	"sync"

	"github.com/calico-network/calicod/app/notifications"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/addressmanager"
	"github.com/calico-network/calicod/infrastructure/network/connmanager"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
	"github.com/jpillora/backoff"
)

// FlowContext holds state that is relevant to more than one flow or one peer, and allows communication between
// different flows that can be associated to different peers.
type FlowContext struct {
	cfg                 *config.Config
	netAdapter          *netadapter.NetAdapter
	domain              domain.Domain
	addressManager      *addressmanager.AddressManager
	connectionManager   *connmanager.ConnectionManager
	notificationManager *notifications.Manager

	sharedRequestedBlocks *SharedRequestedBlocks

	ibdPeer      *peerpkg.Peer
	ibdPeerMutex sync.RWMutex

	ibdRetryBackoff *backoff.Backoff
	ibdRetryLock    sync.Mutex

	peers      map[id.ID]*peerpkg.Peer
	peersMutex sync.RWMutex

	orphans      map[externalapi.DomainHash]*externalapi.DomainBlock
	orphansMutex sync.RWMutex

	shutdownChan chan struct{}
}

// New returns a new instance of FlowContext.
func New(cfg *config.Config, domain domain.Domain, addressManager *addressmanager.AddressManager,
	netAdapter *netadapter.NetAdapter, connectionManager *connmanager.ConnectionManager,
	notificationManager *notifications.Manager) *FlowContext {

	return &FlowContext{
		cfg:                   cfg,
		netAdapter:            netAdapter,
		domain:                domain,
		addressManager:        addressManager,
		connectionManager:     connectionManager,
		notificationManager:   notificationManager,
		sharedRequestedBlocks: NewSharedRequestedBlocks(),
		peers:                 make(map[id.ID]*peerpkg.Peer),
		orphans:               make(map[externalapi.DomainHash]*externalapi.DomainBlock),
		ibdRetryBackoff:       newIBDRetryBackoff(),
		shutdownChan:          make(chan struct{}),
	}
}

// Close signals to all flows the the protocol manager is closed.
func (f *FlowContext) Close() {
	close(f.shutdownChan)
}

// ShutdownChan is a chan where flows can subscribe to shutdown
// event.
func (f *FlowContext) ShutdownChan() <-chan struct{} {
	return f.shutdownChan
}

// Config returns an instance of *config.Config associated to the flow context.
func (f *FlowContext) Config() *config.Config {
	return f.cfg
}

// AddressManager returns the address manager that is associated to the flow context.
func (f *FlowContext) AddressManager() *addressmanager.AddressManager {
	return f.addressManager
}

// NotificationManager returns the notification manager that is associated to the flow context.
func (f *FlowContext) NotificationManager() *notifications.Manager {
	return f.notificationManager
}

// SharedRequestedBlocks returns a *SharedRequestedBlocks for sharing
// data about requested blocks between different peers.
func (f *FlowContext) SharedRequestedBlocks() *SharedRequestedBlocks {
	return f.sharedRequestedBlocks
}

func (f *FlowContext) notify(event notifications.Event) {
	if f.notificationManager == nil {
		return
	}
	err := f.notificationManager.Notify(event)
	if err != nil {
		log.Warnf("Could not notify: %s", err)
	}
}
