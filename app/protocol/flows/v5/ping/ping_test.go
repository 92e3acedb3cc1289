package ping

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

type fakeContext struct {
	shutdownChan chan struct{}
}

func (c *fakeContext) ShutdownChan() <-chan struct{} {
	return c.shutdownChan
}

func TestReceivePingsAnswersWithSameNonce(t *testing.T) {
	incomingRoute := router.NewRoute("ping-in")
	outgoingRoute := router.NewRoute("ping-out")

	errChan := make(chan error, 1)
	go func() {
		errChan <- ReceivePings(nil, incomingRoute, outgoingRoute)
	}()

	err := incomingRoute.Enqueue(appmessage.NewMsgPing(42))
	if err != nil {
		t.Fatalf("Enqueue: %s", err)
	}
	message, err := outgoingRoute.DequeueWithTimeout(time.Second)
	if err != nil {
		t.Fatalf("DequeueWithTimeout: %s", err)
	}
	pong, ok := message.(*appmessage.MsgPong)
	if !ok {
		t.Fatalf("expected a pong, got %s", message.Command())
	}
	if pong.Nonce != 42 {
		t.Fatalf("expected nonce 42, got %d", pong.Nonce)
	}

	incomingRoute.Close()
	select {
	case err := <-errChan:
		if err == nil {
			t.Fatalf("expected an error once the route closed")
		}
	case <-time.After(time.Second):
		t.Fatalf("ReceivePings did not return after its route closed")
	}
}

func TestSendPingsBansOnNonceMismatch(t *testing.T) {
	originalInterval := pingInterval
	pingInterval = 10 * time.Millisecond
	defer func() { pingInterval = originalInterval }()

	incomingRoute := router.NewRoute("pong-in")
	outgoingRoute := router.NewRoute("pong-out")
	context := &fakeContext{shutdownChan: make(chan struct{})}
	defer close(context.shutdownChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- SendPings(context, incomingRoute, outgoingRoute, peerpkg.New(nil))
	}()

	message, err := outgoingRoute.DequeueWithTimeout(time.Second)
	if err != nil {
		t.Fatalf("DequeueWithTimeout: %s", err)
	}
	ping := message.(*appmessage.MsgPing)
	err = incomingRoute.Enqueue(appmessage.NewMsgPong(ping.Nonce + 1))
	if err != nil {
		t.Fatalf("Enqueue: %s", err)
	}

	select {
	case err := <-errChan:
		isProtocolError, shouldBan := protocolerrors.IsProtocolError(err)
		if !isProtocolError || !shouldBan {
			t.Fatalf("expected a banning protocol error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("SendPings did not return")
	}
}
