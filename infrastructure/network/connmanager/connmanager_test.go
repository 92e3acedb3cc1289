package connmanager

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/addressmanager"
	"github.com/calico-network/calicod/infrastructure/network/netadapter"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

func newTestNetAdapter(t *testing.T, address string, configure func(cfg *config.Config)) *netadapter.NetAdapter {
	cfg := config.DefaultConfig()
	cfg.Listeners = []string{address}
	if configure != nil {
		configure(cfg)
	}
	adapter, err := netadapter.NewNetAdapter(cfg)
	if err != nil {
		t.Fatalf("NewNetAdapter: %+v", err)
	}
	adapter.SetP2PRouterInitializer(func(*router.Router, *netadapter.NetConnection) {})
	err = adapter.Start()
	if err != nil {
		t.Fatalf("Start: %+v", err)
	}
	return adapter
}

func newTestConnectionManager(t *testing.T, address string, configure func(cfg *config.Config)) (
	*ConnectionManager, *netadapter.NetAdapter, *addressmanager.AddressManager) {

	cfg := config.DefaultConfig()
	cfg.Listeners = []string{address}
	if configure != nil {
		configure(cfg)
	}
	adapter := newTestNetAdapter(t, address, configure)
	addressManager, err := addressmanager.New(nil)
	if err != nil {
		t.Fatalf("addressmanager.New: %+v", err)
	}
	connectionManager, err := New(cfg, adapter, addressManager)
	if err != nil {
		t.Fatalf("New: %+v", err)
	}
	return connectionManager, adapter, addressManager
}

func TestRequestedConnections(t *testing.T) {
	remote := newTestNetAdapter(t, "TestRequestedConnections-remote", nil)
	defer remote.Stop()

	connectionManager, adapter, _ := newTestConnectionManager(t, "TestRequestedConnections-local",
		func(cfg *config.Config) {
			cfg.TargetOutboundPeers = 0
			cfg.ConnectPeers = []string{"TestRequestedConnections-remote", "TestRequestedConnections-missing"}
		})
	defer adapter.Stop()

	connectionManager.checkRequestedConnections(convertToSet(adapter.P2PConnections()))

	if adapter.P2PConnectionCount() != 1 {
		t.Fatalf("Expected 1 connection but got %d", adapter.P2PConnectionCount())
	}
	if _, ok := connectionManager.activeRequested["TestRequestedConnections-remote"]; !ok {
		t.Fatalf("Expected the connected request to be active")
	}
	missing, ok := connectionManager.pendingRequested["TestRequestedConnections-missing"]
	if !ok {
		t.Fatalf("Expected the failed permanent request to stay pending")
	}
	if !missing.nextAttempt.After(time.Now()) {
		t.Fatalf("Expected the failed request to be retried later")
	}

	// A disconnected permanent request is retried immediately within the same check
	disconnected := adapter.P2PConnections()[0]
	disconnected.Disconnect()
	if adapter.P2PConnectionCount() != 0 {
		t.Fatalf("Expected no connections after disconnecting but got %d", adapter.P2PConnectionCount())
	}
	connectionManager.checkRequestedConnections(convertToSet(adapter.P2PConnections()))
	if _, ok := connectionManager.activeRequested["TestRequestedConnections-remote"]; !ok {
		t.Fatalf("Expected the reconnected request to be active again")
	}
	if _, ok := connectionManager.pendingRequested["TestRequestedConnections-remote"]; ok {
		t.Fatalf("Expected the reconnected request to leave the pending list")
	}
	connections := adapter.P2PConnections()
	if len(connections) != 1 {
		t.Fatalf("Expected the permanent request to reconnect but got %d connections", len(connections))
	}
	if connections[0] == disconnected || !connections[0].IsConnected() {
		t.Fatalf("Expected a new live connection to replace the disconnected one")
	}
}

func TestOutgoingConnections(t *testing.T) {
	remotes := []string{"TestOutgoingConnections-1", "TestOutgoingConnections-2", "TestOutgoingConnections-3"}
	for _, address := range remotes {
		remote := newTestNetAdapter(t, address, nil)
		defer remote.Stop()
	}

	connectionManager, adapter, addressManager := newTestConnectionManager(t, "TestOutgoingConnections-local",
		func(cfg *config.Config) {
			cfg.TargetOutboundPeers = 2
		})
	defer adapter.Stop()

	for _, address := range append(remotes, "TestOutgoingConnections-missing") {
		err := addressManager.AddAddress(appmessage.NewNetAddress(address))
		if err != nil {
			t.Fatalf("AddAddress: %+v", err)
		}
	}

	for i := 0; i < 50 && len(connectionManager.activeOutgoing) < 2; i++ {
		connectionManager.checkOutgoingConnections(convertToSet(adapter.P2PConnections()))
	}
	if len(connectionManager.activeOutgoing) != 2 {
		t.Fatalf("Expected 2 outgoing connections but got %d", len(connectionManager.activeOutgoing))
	}
	if adapter.P2PConnectionCount() != 2 {
		t.Fatalf("Expected 2 connections but got %d", adapter.P2PConnectionCount())
	}
}

func TestIncomingConnectionsLimit(t *testing.T) {
	connectionManager, adapter, _ := newTestConnectionManager(t, "TestIncomingConnectionsLimit-local",
		func(cfg *config.Config) {
			cfg.MaxInboundPeers = 3
		})
	defer adapter.Stop()

	for _, address := range []string{"TestIncomingConnectionsLimit-1", "TestIncomingConnectionsLimit-2",
		"TestIncomingConnectionsLimit-3"} {

		remote := newTestNetAdapter(t, address, nil)
		defer remote.Stop()
		err := remote.P2PConnect("TestIncomingConnectionsLimit-local")
		if err != nil {
			t.Fatalf("P2PConnect: %+v", err)
		}
	}

	connectionManager.maxIncoming = 1
	connectionManager.checkIncomingConnections(convertToSet(adapter.P2PConnections()))
	if adapter.P2PConnectionCount() != 1 {
		t.Fatalf("Expected 1 remaining incoming connection but got %d", adapter.P2PConnectionCount())
	}
}

func TestBan(t *testing.T) {
	remote := newTestNetAdapter(t, "TestBan-remote", nil)
	defer remote.Stop()

	connectionManager, adapter, addressManager := newTestConnectionManager(t, "TestBan-local", nil)
	defer adapter.Stop()

	err := adapter.P2PConnect("TestBan-remote")
	if err != nil {
		t.Fatalf("P2PConnect: %+v", err)
	}
	connection := adapter.P2PConnections()[0]

	isBanned, err := connectionManager.IsBanned(connection)
	if err != nil {
		t.Fatalf("IsBanned: %+v", err)
	}
	if isBanned {
		t.Fatalf("Unexpectedly banned before Ban")
	}

	err = connectionManager.Ban(connection)
	if err != nil {
		t.Fatalf("Ban: %+v", err)
	}
	if connection.IsConnected() {
		t.Fatalf("Expected the banned connection to be disconnected")
	}
	isBanned, err = connectionManager.IsBanned(connection)
	if err != nil {
		t.Fatalf("IsBanned: %+v", err)
	}
	if !isBanned {
		t.Fatalf("Expected the address to be banned")
	}
	if len(addressManager.BannedAddresses()) != 1 {
		t.Fatalf("Expected 1 banned address but got %d", len(addressManager.BannedAddresses()))
	}
}
