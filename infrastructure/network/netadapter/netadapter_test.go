package netadapter

import (
	"sync"
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/config"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

// routerInitializerForTest returns new RouterInitializer which simply sets
// new incoming route for router and stores this route in map for further usage in tests
func routerInitializerForTest(t *testing.T, routes *sync.Map,
	routeName string, wg *sync.WaitGroup) func(*router.Router, *NetConnection) {
	return func(router *router.Router, connection *NetConnection) {
		route, err := router.AddIncomingRoute(routeName, []appmessage.MessageCommand{appmessage.CmdPing})
		if err != nil {
			t.Fatalf("TestNetAdapter: AddIncomingRoute failed: %+v", err)
		}
		routes.Store(routeName, route)
		wg.Done()
	}
}

func newTestNetAdapter(t *testing.T, address string, initializer RouterInitializer) *NetAdapter {
	cfg := config.DefaultConfig()
	cfg.Listeners = []string{address}
	adapter, err := NewNetAdapter(cfg)
	if err != nil {
		t.Fatalf("TestNetAdapter: NetAdapter instantiation failed: %+v", err)
	}
	adapter.SetP2PRouterInitializer(initializer)
	err = adapter.Start()
	if err != nil {
		t.Fatalf("TestNetAdapter: Start() failed: %+v", err)
	}
	return adapter
}

func TestNetAdapter(t *testing.T) {
	const (
		timeout = time.Second * 5
		nonce   = uint64(1)

		addressA = "TestNetAdapter-A"
		addressB = "TestNetAdapter-B"
		addressC = "TestNetAdapter-C"
	)

	routes := &sync.Map{}
	wg := &sync.WaitGroup{}
	wg.Add(2)

	adapterA := newTestNetAdapter(t, addressA, func(router *router.Router, connection *NetConnection) {})
	newTestNetAdapter(t, addressB, routerInitializerForTest(t, routes, "B", wg))
	newTestNetAdapter(t, addressC, routerInitializerForTest(t, routes, "C", wg))

	err := adapterA.P2PConnect(addressB)
	if err != nil {
		t.Fatalf("TestNetAdapter: connection to %s failed: %+v", addressB, err)
	}

	err = adapterA.P2PConnect(addressC)
	if err != nil {
		t.Fatalf("TestNetAdapter: connection to %s failed: %+v", addressC, err)
	}

	err = adapterA.P2PConnect("TestNetAdapter-unknown")
	if !errors.Is(err, ErrUnknownAddress) {
		t.Fatalf("TestNetAdapter: expected ErrUnknownAddress but got %+v", err)
	}

	// Ensure adapter has two connections
	if count := adapterA.P2PConnectionCount(); count != 2 {
		t.Fatalf("TestNetAdapter: expected 2 connections, got - %d", count)
	}

	// Ensure all connected peers have received broadcasted message
	connections := adapterA.P2PConnections()
	err = adapterA.P2PBroadcast(connections, appmessage.NewMsgPing(nonce))
	if err != nil {
		t.Fatalf("TestNetAdapter: broadcast failed: %+v", err)
	}

	wg.Wait()

	for _, routeName := range []string{"B", "C"} {
		r, ok := routes.Load(routeName)
		if !ok {
			t.Fatal("TestNetAdapter: route loading failed")
		}

		msg, err := r.(*router.Route).DequeueWithTimeout(timeout)
		if err != nil {
			t.Fatalf("TestNetAdapter: dequeuing message failed: %+v", err)
		}

		if command := msg.Command(); command != appmessage.CmdPing {
			t.Fatalf("TestNetAdapter: expected '%s' message to be received but got '%s'",
				appmessage.CmdPing, command)
		}

		if msgNonce := msg.(*appmessage.MsgPing).Nonce; msgNonce != nonce {
			t.Fatalf("TestNetAdapter: expected nonce %d but got %d", nonce, msgNonce)
		}
	}

	err = adapterA.Stop()
	if err != nil {
		t.Fatalf("TestNetAdapter: stopping adapter failed: %+v", err)
	}

	// Stopping disconnects the remote sides as well
	r, _ := routes.Load("B")
	_, err = r.(*router.Route).DequeueWithTimeout(timeout)
	if !errors.Is(err, router.ErrRouteClosed) {
		t.Fatalf("TestNetAdapter: expected the remote route to be closed but got %+v", err)
	}

	// Ensure adapter can't be stopped multiple times
	err = adapterA.Stop()
	if err == nil {
		t.Fatalf("TestNetAdapter: error expected at attempt to stop adapter second time, but got nothing")
	}
}

func TestInboundLimit(t *testing.T) {
	noop := func(router *router.Router, connection *NetConnection) {}

	cfg := config.DefaultConfig()
	cfg.Listeners = []string{"TestInboundLimit-server"}
	cfg.MaxInboundPeers = 1
	server, err := NewNetAdapter(cfg)
	if err != nil {
		t.Fatalf("NewNetAdapter: %+v", err)
	}
	server.SetP2PRouterInitializer(noop)
	err = server.Start()
	if err != nil {
		t.Fatalf("Start: %+v", err)
	}
	defer server.Stop()

	clientA := newTestNetAdapter(t, "TestInboundLimit-A", noop)
	defer clientA.Stop()
	clientB := newTestNetAdapter(t, "TestInboundLimit-B", noop)
	defer clientB.Stop()

	err = clientA.P2PConnect("TestInboundLimit-server")
	if err != nil {
		t.Fatalf("P2PConnect: %+v", err)
	}
	err = clientB.P2PConnect("TestInboundLimit-server")
	if !errors.Is(err, ErrInboundLimitReached) {
		t.Fatalf("Expected ErrInboundLimitReached but got %+v", err)
	}
}

func TestFullRouteIsRejected(t *testing.T) {
	const timeout = 5 * time.Second

	var rejectRoute *router.Route
	client := newTestNetAdapter(t, "TestFullRouteIsRejected-client", func(r *router.Router, connection *NetConnection) {
		var err error
		rejectRoute, err = r.AddIncomingRoute("reject", []appmessage.MessageCommand{appmessage.CmdReject})
		if err != nil {
			t.Fatalf("AddIncomingRoute: %+v", err)
		}
	})
	defer client.Stop()

	var pingRoute *router.Route
	server := newTestNetAdapter(t, "TestFullRouteIsRejected-server", func(r *router.Router, connection *NetConnection) {
		var err error
		pingRoute, err = r.AddIncomingRouteWithCapacity("ping", 1, []appmessage.MessageCommand{appmessage.CmdPing})
		if err != nil {
			t.Fatalf("AddIncomingRouteWithCapacity: %+v", err)
		}
	})
	defer server.Stop()

	err := client.P2PConnect("TestFullRouteIsRejected-server")
	if err != nil {
		t.Fatalf("P2PConnect: %+v", err)
	}

	connections := client.P2PConnections()
	for nonce := uint64(1); nonce <= 2; nonce++ {
		err = client.P2PBroadcast(connections, appmessage.NewMsgPing(nonce))
		if err != nil {
			t.Fatalf("P2PBroadcast: %+v", err)
		}
	}

	message, err := rejectRoute.DequeueWithTimeout(timeout)
	if err != nil {
		t.Fatalf("expected a reject for the dropped ping but got %+v", err)
	}
	reject := message.(*appmessage.MsgReject)
	if !reject.IsRouteFull() {
		t.Fatalf("expected a route-full reject but got %q", reject.Reason)
	}

	message, err = pingRoute.DequeueWithTimeout(timeout)
	if err != nil {
		t.Fatalf("DequeueWithTimeout: %+v", err)
	}
	if nonce := message.(*appmessage.MsgPing).Nonce; nonce != 1 {
		t.Fatalf("expected the first ping to be delivered but got nonce %d", nonce)
	}

	if !connections[0].IsConnected() {
		t.Fatalf("a full route must not disconnect the peer")
	}
	if count := server.P2PConnectionCount(); count != 1 {
		t.Fatalf("expected the server to keep its connection, got %d", count)
	}
}
