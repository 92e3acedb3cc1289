package rejects

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

func TestHandleRejectsKeepsPeerOnRouteFull(t *testing.T) {
	incomingRoute := router.NewRoute("reject-in")
	outgoingRoute := router.NewRoute("reject-out")

	errChan := make(chan error, 1)
	go func() {
		errChan <- HandleRejects(nil, incomingRoute, outgoingRoute)
	}()

	err := incomingRoute.Enqueue(appmessage.NewMsgReject(appmessage.RejectReasonRouteFull + ": dropped Ping"))
	if err != nil {
		t.Fatalf("Enqueue: %s", err)
	}
	select {
	case err := <-errChan:
		t.Fatalf("HandleRejects returned on a route-full reject: %+v", err)
	case <-time.After(100 * time.Millisecond):
	}

	err = incomingRoute.Enqueue(appmessage.NewMsgReject("banned"))
	if err != nil {
		t.Fatalf("Enqueue: %s", err)
	}
	select {
	case err := <-errChan:
		if isProtocolError, _ := protocolerrors.IsProtocolError(err); !isProtocolError {
			t.Fatalf("expected a protocol error but got %+v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("HandleRejects did not return after a ban reject")
	}
}
