package transactionrelay

import (
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/domain/consensus/model/externalapi"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
)

type fakeContext struct{}

func (fakeContext) IsIBDRunning() bool { return false }

func TestHandleInvTransactions(t *testing.T) {
	incomingRoute := router.NewRoute("inv-transactions")
	errChan := make(chan error, 1)
	go func() {
		errChan <- HandleInvTransactions(fakeContext{}, incomingRoute)
	}()

	err := incomingRoute.Enqueue(appmessage.NewMsgInvTransaction([]*externalapi.DomainTransactionID{{}}))
	if err != nil {
		t.Fatalf("Enqueue: %s", err)
	}
	err = incomingRoute.Enqueue(appmessage.NewMsgPing(1))
	if err != nil {
		t.Fatalf("Enqueue: %s", err)
	}

	select {
	case err := <-errChan:
		isProtocolError, shouldBan := protocolerrors.IsProtocolError(err)
		if !isProtocolError || !shouldBan {
			t.Fatalf("expected a banning protocol error, got %+v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("HandleInvTransactions did not return")
	}

	incomingRoute.Close()
}
