package addressmanager

import (
	"fmt"
	"testing"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/db/database/ldb"
	"github.com/calico-network/calicod/util/mstime"
	"github.com/pkg/errors"
)

func newAddressManagerForTest(t *testing.T) (addressManager *AddressManager, teardown func()) {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	addressManager, err = New(db)
	if err != nil {
		t.Fatalf("error creating address manager: %s", err)
	}
	return addressManager, func() { db.Close() }
}

func TestAddAndRemoveAddresses(t *testing.T) {
	amgr, teardown := newAddressManagerForTest(t)
	defer teardown()

	first := appmessage.NewNetAddress("peer-1")
	second := appmessage.NewNetAddress("peer-2")
	err := amgr.AddAddresses(first, second, appmessage.NewNetAddress("peer-1"), appmessage.NewNetAddress(""))
	if err != nil {
		t.Fatalf("AddAddresses: %s", err)
	}
	if len(amgr.Addresses()) != 2 {
		t.Fatalf("Expected 2 addresses but got %d", len(amgr.Addresses()))
	}

	err = amgr.RemoveAddress(first)
	if err != nil {
		t.Fatalf("RemoveAddress: %s", err)
	}
	addresses := amgr.Addresses()
	if len(addresses) != 1 || addresses[0].Address != "peer-2" {
		t.Fatalf("Expected only peer-2 to remain but got %v", addresses)
	}

	err = amgr.MarkConnectionFailure(first)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("Expected ErrAddressNotFound but got %v", err)
	}
}

func TestRandomAddresses(t *testing.T) {
	amgr, teardown := newAddressManagerForTest(t)
	defer teardown()

	if amgr.RandomAddress(nil) != nil {
		t.Fatalf("Expected no random address from an empty address manager")
	}

	for i := 0; i < 10; i++ {
		err := amgr.AddAddress(appmessage.NewNetAddress(fmt.Sprintf("peer-%d", i)))
		if err != nil {
			t.Fatalf("AddAddress: %s", err)
		}
	}

	exceptions := []*appmessage.NetAddress{appmessage.NewNetAddress("peer-0"), appmessage.NewNetAddress("peer-1")}
	randomAddresses := amgr.RandomAddresses(20, exceptions)
	if len(randomAddresses) != 8 {
		t.Fatalf("Expected 8 random addresses but got %d", len(randomAddresses))
	}
	seen := make(map[string]struct{})
	for _, address := range randomAddresses {
		if address.Address == "peer-0" || address.Address == "peer-1" {
			t.Fatalf("Got excepted address %s", address)
		}
		if _, ok := seen[address.Address]; ok {
			t.Fatalf("Got address %s twice", address)
		}
		seen[address.Address] = struct{}{}
	}

	randomAddress := amgr.RandomAddress(exceptions)
	if randomAddress == nil || randomAddress.Address == "peer-0" || randomAddress.Address == "peer-1" {
		t.Fatalf("Unexpected random address %v", randomAddress)
	}
}

func TestMaxAddressesEvictsMostFailed(t *testing.T) {
	amgr, teardown := newAddressManagerForTest(t)
	defer teardown()

	for i := 0; i < maxAddresses; i++ {
		err := amgr.AddAddress(appmessage.NewNetAddress(fmt.Sprintf("peer-%d", i)))
		if err != nil {
			t.Fatalf("AddAddress: %s", err)
		}
	}
	failing := appmessage.NewNetAddress("peer-17")
	for i := 0; i < 3; i++ {
		err := amgr.MarkConnectionFailure(failing)
		if err != nil {
			t.Fatalf("MarkConnectionFailure: %s", err)
		}
	}

	err := amgr.AddAddress(appmessage.NewNetAddress("newcomer"))
	if err != nil {
		t.Fatalf("AddAddress: %s", err)
	}
	addresses := amgr.Addresses()
	if len(addresses) != maxAddresses {
		t.Fatalf("Expected %d addresses but got %d", maxAddresses, len(addresses))
	}
	for _, address := range addresses {
		if address.Address == failing.Address {
			t.Fatalf("Expected %s to be evicted", failing)
		}
	}
}

func TestBanAndUnban(t *testing.T) {
	amgr, teardown := newAddressManagerForTest(t)
	defer teardown()

	address := appmessage.NewNetAddress("peer-1")
	_, err := amgr.IsBanned(address)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("Expected ErrAddressNotFound but got %v", err)
	}

	err = amgr.AddAddress(address)
	if err != nil {
		t.Fatalf("AddAddress: %s", err)
	}
	isBanned, err := amgr.IsBanned(address)
	if err != nil {
		t.Fatalf("IsBanned: %s", err)
	}
	if isBanned {
		t.Fatalf("Address banned before Ban")
	}

	err = amgr.Ban(address)
	if err != nil {
		t.Fatalf("Ban: %s", err)
	}
	isBanned, err = amgr.IsBanned(address)
	if err != nil {
		t.Fatalf("IsBanned: %s", err)
	}
	if !isBanned {
		t.Fatalf("Address not banned after Ban")
	}
	if len(amgr.Addresses()) != 0 || len(amgr.BannedAddresses()) != 1 {
		t.Fatalf("Expected the banned address to move to the banned list")
	}

	// Re-adding a banned address has no effect
	err = amgr.AddAddress(address)
	if err != nil {
		t.Fatalf("AddAddress: %s", err)
	}
	if len(amgr.Addresses()) != 0 {
		t.Fatalf("A banned address must not be re-added")
	}

	err = amgr.Unban(address)
	if err != nil {
		t.Fatalf("Unban: %s", err)
	}
	err = amgr.Unban(address)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("Expected ErrAddressNotFound but got %v", err)
	}
}

func TestBanExpires(t *testing.T) {
	amgr, teardown := newAddressManagerForTest(t)
	defer teardown()

	address := appmessage.NewNetAddress("peer-1")
	err := amgr.AddAddress(address)
	if err != nil {
		t.Fatalf("AddAddress: %s", err)
	}
	err = amgr.Ban(address)
	if err != nil {
		t.Fatalf("Ban: %s", err)
	}

	bannedAddress, _ := amgr.store.getBanned(address.Address)
	bannedAddress.netAddress.Timestamp = mstime.Now().Add(-maxBanTime - time.Minute)

	_, err = amgr.IsBanned(address)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("Expected the expired ban to be lifted but got %v", err)
	}
	if len(amgr.BannedAddresses()) != 0 {
		t.Fatalf("Expected no banned addresses after expiry")
	}
}

func TestAddressesPersist(t *testing.T) {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	defer db.Close()

	amgr, err := New(db)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	err = amgr.AddAddresses(appmessage.NewNetAddress("peer-1"), appmessage.NewNetAddress("peer-2"))
	if err != nil {
		t.Fatalf("AddAddresses: %s", err)
	}
	err = amgr.MarkConnectionFailure(appmessage.NewNetAddress("peer-2"))
	if err != nil {
		t.Fatalf("MarkConnectionFailure: %s", err)
	}
	err = amgr.Ban(appmessage.NewNetAddress("peer-1"))
	if err != nil {
		t.Fatalf("Ban: %s", err)
	}

	restored, err := New(db)
	if err != nil {
		t.Fatalf("New: %s", err)
	}
	if len(restored.Addresses()) != 1 || len(restored.BannedAddresses()) != 1 {
		t.Fatalf("Expected 1 address and 1 banned address but got %d and %d",
			len(restored.Addresses()), len(restored.BannedAddresses()))
	}
	entry, ok := restored.store.getNotBanned("peer-2")
	if !ok || entry.connectionFailedCount != 1 {
		t.Fatalf("Expected peer-2 with one connection failure but got %+v", entry)
	}
}
