package addressexchange_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/app/protocol/flows/v5/addressexchange"
	peerpkg "github.com/calico-network/calicod/app/protocol/peer"
	"github.com/calico-network/calicod/app/protocol/protocolerrors"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
	"github.com/calico-network/calicod/infrastructure/network/addressmanager"
	"github.com/calico-network/calicod/infrastructure/network/netadapter/router"
	"github.com/pkg/errors"
)

type fakeAddressesContext struct {
	addressManager *addressmanager.AddressManager
}

func (f fakeAddressesContext) AddressManager() *addressmanager.AddressManager {
	return f.addressManager
}

func newAddressManagerForTest(t *testing.T) (*addressmanager.AddressManager, func()) {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	addressManager, err := addressmanager.New(db)
	if err != nil {
		t.Fatalf("addressmanager.New: %s", err)
	}
	return addressManager, func() { db.Close() }
}

func TestReceiveAddressesErrors(t *testing.T) {
	incomingRoute := router.NewRoute("addresses-in")
	outgoingRoute := router.NewRoute("addresses-out")
	peer := peerpkg.New(nil)
	errChan := make(chan error)
	go func() {
		errChan <- addressexchange.ReceiveAddresses(fakeAddressesContext{}, incomingRoute, outgoingRoute, peer)
	}()

	_, err := outgoingRoute.DequeueWithTimeout(time.Second)
	if err != nil {
		t.Fatal(err)
	}

	err = incomingRoute.Enqueue(appmessage.NewMsgAddresses(make([]*appmessage.NetAddress,
		appmessage.MaxAddressesPerMsg+1)))
	if err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errChan:
		pErr := &protocolerrors.ProtocolError{}
		if !errors.As(err, &pErr) {
			t.Fatalf("Unexpected error %+v", err)
		}
		if !pErr.ShouldBan {
			t.Fatalf("Expected the error to ban the peer")
		}
		if !strings.Contains(err.Error(), "address count exceeded") {
			t.Fatalf("Unexpected error: %+v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out after %s", time.Second)
	}
}

func TestReceiveAddressesStoresAddresses(t *testing.T) {
	addressManager, teardown := newAddressManagerForTest(t)
	defer teardown()

	incomingRoute := router.NewRoute("addresses-in")
	outgoingRoute := router.NewRoute("addresses-out")
	errChan := make(chan error)
	go func() {
		errChan <- addressexchange.ReceiveAddresses(fakeAddressesContext{addressManager: addressManager},
			incomingRoute, outgoingRoute, peerpkg.New(nil))
	}()

	message, err := outgoingRoute.DequeueWithTimeout(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if message.Command() != appmessage.CmdRequestAddresses {
		t.Fatalf("Expected %s, got %s", appmessage.CmdRequestAddresses, message.Command())
	}

	err = incomingRoute.Enqueue(appmessage.NewMsgAddresses([]*appmessage.NetAddress{
		appmessage.NewNetAddress("peer-1"),
		nil,
		appmessage.NewNetAddress("peer-2"),
	}))
	if err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Fatalf("ReceiveAddresses: %+v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out after %s", time.Second)
	}

	if len(addressManager.Addresses()) != 2 {
		t.Fatalf("Expected 2 stored addresses, got %d", len(addressManager.Addresses()))
	}
}

func TestSendAddresses(t *testing.T) {
	addressManager, teardown := newAddressManagerForTest(t)
	defer teardown()

	const addressCount = appmessage.MaxAddressesPerMsg + 10
	for i := 0; i < addressCount; i++ {
		err := addressManager.AddAddress(appmessage.NewNetAddress(fmt.Sprintf("peer-%d", i)))
		if err != nil {
			t.Fatalf("AddAddress: %s", err)
		}
	}

	incomingRoute := router.NewRoute("request-addresses-in")
	outgoingRoute := router.NewRoute("request-addresses-out")
	errChan := make(chan error, 1)
	go func() {
		errChan <- addressexchange.SendAddresses(fakeAddressesContext{addressManager: addressManager},
			incomingRoute, outgoingRoute)
	}()

	err := incomingRoute.Enqueue(appmessage.NewMsgRequestAddresses())
	if err != nil {
		t.Fatal(err)
	}
	message, err := outgoingRoute.DequeueWithTimeout(time.Second)
	if err != nil {
		t.Fatal(err)
	}
	msgAddresses, ok := message.(*appmessage.MsgAddresses)
	if !ok {
		t.Fatalf("Unexpected message, expected: %s, got: %s", appmessage.CmdAddresses, message.Command())
	}
	if len(msgAddresses.AddressList) != appmessage.MaxAddressesPerMsg {
		t.Fatalf("Expected %d addresses, got %d", appmessage.MaxAddressesPerMsg, len(msgAddresses.AddressList))
	}

	incomingRoute.Close()
	err = <-errChan
	if !errors.Is(err, router.ErrRouteClosed) {
		t.Fatalf("Expected ErrRouteClosed, got %+v", err)
	}
}
