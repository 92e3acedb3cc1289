// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addressmanager

import (
	"sync"
	"time"

	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/util/mstime"
	"github.com/pkg/errors"
)

const maxAddresses = 4096

// maxBanTime is how long a banned address stays banned
const maxBanTime = 24 * time.Hour

// addressRandomizer is the interface for the randomizer needed for the AddressManager.
type addressRandomizer interface {
	RandomAddress(addresses []*appmessage.NetAddress) *appmessage.NetAddress
	RandomAddresses(addresses []*appmessage.NetAddress, count int) []*appmessage.NetAddress
}

type address struct {
	netAddress            *appmessage.NetAddress
	connectionFailedCount uint64
}

// ErrAddressNotFound is an error returned from some functions when a
// given address is not found in the address manager
var ErrAddressNotFound = errors.New("address not found")

// AddressManager provides a concurrency safe address manager for caching potential
// peers on the network.
type AddressManager struct {
	store  *addressStore
	mutex  sync.Mutex
	random addressRandomizer
}

// New returns a new address manager backed by the given database. Addresses
// stored by a previous run are loaded.
func New(database database.Database) (*AddressManager, error) {
	addressStore, err := newAddressStore(database)
	if err != nil {
		return nil, err
	}

	return &AddressManager{
		store:  addressStore,
		random: NewAddressRandomize(),
	}, nil
}

func (am *AddressManager) addAddressNoLock(netAddress *appmessage.NetAddress) error {
	if netAddress.Address == "" {
		return nil
	}
	if am.store.isBanned(netAddress.Address) {
		return nil
	}

	address := &address{netAddress: netAddress, connectionFailedCount: 0}
	err := am.store.add(address)
	if err != nil {
		return err
	}

	if am.store.notBannedCount() > maxAddresses {
		allAddresses := am.store.getAllNotBanned()

		maxConnectionFailedCount := uint64(0)
		toRemove := allAddresses[0]
		for _, address := range allAddresses[1:] {
			if address.connectionFailedCount > maxConnectionFailedCount {
				maxConnectionFailedCount = address.connectionFailedCount
				toRemove = address
			}
		}

		err := am.store.remove(toRemove.netAddress.Address)
		if err != nil {
			return err
		}
	}
	return nil
}

// AddAddress adds address to the address manager
func (am *AddressManager) AddAddress(address *appmessage.NetAddress) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	return am.addAddressNoLock(address)
}

// AddAddresses adds addresses to the address manager
func (am *AddressManager) AddAddresses(addresses ...*appmessage.NetAddress) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	for _, address := range addresses {
		err := am.addAddressNoLock(address)
		if err != nil {
			return err
		}
	}
	return nil
}

// RemoveAddress removes addresses from the address manager
func (am *AddressManager) RemoveAddress(address *appmessage.NetAddress) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	return am.store.remove(address.Address)
}

// MarkConnectionFailure notifies the address manager that the given address
// has failed to connect
func (am *AddressManager) MarkConnectionFailure(address *appmessage.NetAddress) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	entry, ok := am.store.getNotBanned(address.Address)
	if !ok {
		return errors.Wrapf(ErrAddressNotFound, "address %s "+
			"is not registered with the address manager", address)
	}
	entry.connectionFailedCount = entry.connectionFailedCount + 1
	return am.store.update(entry)
}

// MarkConnectionSuccess notifies the address manager that the given address
// has successfully connected
func (am *AddressManager) MarkConnectionSuccess(address *appmessage.NetAddress) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	entry, ok := am.store.getNotBanned(address.Address)
	if !ok {
		return errors.Wrapf(ErrAddressNotFound, "address %s "+
			"is not registered with the address manager", address)
	}
	entry.connectionFailedCount = 0
	entry.netAddress.Timestamp = mstime.Now()
	return am.store.update(entry)
}

// Addresses returns all addresses
func (am *AddressManager) Addresses() []*appmessage.NetAddress {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	return am.store.getAllNotBannedNetAddresses()
}

// BannedAddresses returns all banned addresses
func (am *AddressManager) BannedAddresses() []*appmessage.NetAddress {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	return am.store.getAllBannedNetAddresses()
}

// RandomAddress returns a random address that isn't banned and isn't in exceptions
func (am *AddressManager) RandomAddress(exceptions []*appmessage.NetAddress) *appmessage.NetAddress {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	validAddresses := am.store.getAllNotBannedNetAddressesWithout(exceptions)
	return am.random.RandomAddress(validAddresses)
}

// RandomAddresses returns count addresses at random that aren't banned and aren't in exceptions
func (am *AddressManager) RandomAddresses(count int, exceptions []*appmessage.NetAddress) []*appmessage.NetAddress {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	validAddresses := am.store.getAllNotBannedNetAddressesWithout(exceptions)
	return am.random.RandomAddresses(validAddresses, count)
}

// Ban marks the given address as banned. A banned address is removed from
// the regular addresses and is never handed out until it is unbanned.
func (am *AddressManager) Ban(addressToBan *appmessage.NetAddress) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	err := am.store.remove(addressToBan.Address)
	if err != nil {
		return err
	}

	bannedAddress := &appmessage.NetAddress{
		Timestamp: mstime.Now(),
		Address:   addressToBan.Address,
	}
	return am.store.addBanned(&address{netAddress: bannedAddress})
}

// Unban unmarks the given address as banned
func (am *AddressManager) Unban(address *appmessage.NetAddress) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	if !am.store.isBanned(address.Address) {
		return errors.Wrapf(ErrAddressNotFound, "address %s "+
			"is not registered with the address manager as banned", address)
	}

	return am.store.removeBanned(address.Address)
}

// IsBanned returns true if the given address is marked as banned. Bans older
// than maxBanTime are lifted as a side effect.
func (am *AddressManager) IsBanned(address *appmessage.NetAddress) (bool, error) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	err := am.unbanIfOldEnough(address.Address)
	if err != nil {
		return false, err
	}
	if !am.store.isBanned(address.Address) {
		if !am.store.isNotBanned(address.Address) {
			return false, errors.Wrapf(ErrAddressNotFound, "address %s "+
				"is not registered with the address manager", address)
		}
		return false, nil
	}

	return true, nil
}

func (am *AddressManager) unbanIfOldEnough(key string) error {
	address, ok := am.store.getBanned(key)
	if !ok {
		return nil
	}

	if time.Since(address.netAddress.Timestamp) > maxBanTime {
		err := am.store.removeBanned(key)
		if err != nil {
			return err
		}
	}
	return nil
}
