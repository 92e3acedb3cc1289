package app

import (
	"fmt"
	"sync/atomic"

	"github.com/calico-network/calicod/app/notifications"
	"github.com/calico-network/calicod/app/protocol"
	"github.com/calico-network/calicod/domain"
	"github.com/calico-network/calicod/domain/consensus"
	"github.com/calico-network/calicod/infrastructure/config"
	infrastructuredatabase "github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/infrastructure/network/addressmanager"
	"github.com/calico-network/calicod/infrastructure/network/connmanager"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/id"
	"github.com/calico-network/calicod/util/panics"
)

// ComponentManager is a wrapper for all the calicod services
type ComponentManager struct {
	cfg                 *config.Config
	domain              domain.Domain
	addressManager      *addressmanager.AddressManager
	protocolManager     *protocol.Manager
	connectionManager   *connmanager.ConnectionManager
	netAdapter          *netadapter.NetAdapter
	notificationManager *notifications.Manager

	eventsDrained chan struct{}

	started, shutdown int32
}

// Start launches all the calicod services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting calicod")

	spawn("ComponentManager.drainConsensusEvents", a.drainConsensusEvents)

	err := a.netAdapter.Start()
	if err != nil {
		panics.Exit(log, fmt.Sprintf("Error starting the net adapter: %+v", err))
	}

	a.connectionManager.Start()
}

// Stop gracefully shuts down all the calicod services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Calicod is already in the process of shutting down")
		return
	}

	log.Warnf("Calicod shutting down")

	a.connectionManager.Stop()

	err := a.netAdapter.Stop()
	if err != nil {
		log.Errorf("Error stopping the net adapter: %+v", err)
	}

	a.protocolManager.Close()
	close(a.domain.ConsensusEventsChannel())
	if atomic.LoadInt32(&a.started) != 0 {
		<-a.eventsDrained
	}
}

// drainConsensusEvents forwards every consensus event to the notification
// manager until the events channel is closed
func (a *ComponentManager) drainConsensusEvents() {
	defer close(a.eventsDrained)

	for event := range a.domain.ConsensusEventsChannel() {
		err := a.notificationManager.Notify(event)
		if err != nil {
			log.Warnf("Could not notify consensus event %T: %s", event, err)
		}
	}
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	consensusConfig := consensus.NewConfig(cfg.NetParams())

	domain, err := domain.New(consensusConfig, db)
	if err != nil {
		return nil, err
	}

	netAdapter, err := netadapter.NewNetAdapter(cfg)
	if err != nil {
		return nil, err
	}

	addressManager, err := addressmanager.New(db)
	if err != nil {
		return nil, err
	}

	connectionManager, err := connmanager.New(cfg, netAdapter, addressManager)
	if err != nil {
		return nil, err
	}

	notificationManager := notifications.NewManager()
	protocolManager, err := protocol.NewManager(cfg, domain, netAdapter, addressManager, connectionManager,
		notificationManager)
	if err != nil {
		return nil, err
	}

	return &ComponentManager{
		cfg:                 cfg,
		domain:              domain,
		protocolManager:     protocolManager,
		connectionManager:   connectionManager,
		netAdapter:          netAdapter,
		addressManager:      addressManager,
		notificationManager: notificationManager,
		eventsDrained:       make(chan struct{}),
	}, nil
}

// P2PNodeID returns the network ID associated with this ComponentManager
func (a *ComponentManager) P2PNodeID() *id.ID {
	return a.netAdapter.ID()
}

// AddressManager returns the AddressManager associated with this ComponentManager
func (a *ComponentManager) AddressManager() *addressmanager.AddressManager {
	return a.addressManager
}

// Domain returns the Domain associated with this ComponentManager
func (a *ComponentManager) Domain() domain.Domain {
	return a.domain
}

// ProtocolManager returns the protocol Manager associated with this ComponentManager
func (a *ComponentManager) ProtocolManager() *protocol.Manager {
	return a.protocolManager
}

// ConnectionManager returns the ConnectionManager associated with this ComponentManager
func (a *ComponentManager) ConnectionManager() *connmanager.ConnectionManager {
	return a.connectionManager
}

// NotificationManager returns the notifications Manager associated with this ComponentManager
func (a *ComponentManager) NotificationManager() *notifications.Manager {
	return a.notificationManager
}
