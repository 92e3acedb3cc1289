package addressmanager

import (
	"github.com/calico-network/calicod/app/appmessage"
	"github.com/calico-network/calicod/infrastructure/db/database"
	"github.com/calico-network/calicod/util/mstime"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

var notBannedAddressBucket = database.MakeBucket([]byte("addresses"))
var bannedAddressBucket = database.MakeBucket([]byte("banned-addresses"))

// addressStore keeps every address in memory and mirrors each change into
// the database, so that known peers survive a restart.
type addressStore struct {
	database        database.Database
	addresses       map[string]*address
	bannedAddresses map[string]*address
}

type dbAddress struct {
	TimestampInMilliseconds int64  `msgpack:"t"`
	ConnectionFailedCount   uint64 `msgpack:"f"`
}

func newAddressStore(database database.Database) (*addressStore, error) {
	as := &addressStore{
		database:        database,
		addresses:       map[string]*address{},
		bannedAddresses: map[string]*address{},
	}
	err := as.restore(notBannedAddressBucket, as.addresses)
	if err != nil {
		return nil, err
	}
	err = as.restore(bannedAddressBucket, as.bannedAddresses)
	if err != nil {
		return nil, err
	}
	log.Infof("Loaded %d addresses and %d banned addresses", len(as.addresses), len(as.bannedAddresses))
	return as, nil
}

func (as *addressStore) restore(bucket *database.Bucket, addresses map[string]*address) error {
	if as.database == nil {
		return nil
	}
	cursor, err := as.database.Cursor(bucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return err
		}
		serializedAddress, err := cursor.Value()
		if err != nil {
			return err
		}
		address, err := deserializeAddress(string(key.Suffix()), serializedAddress)
		if err != nil {
			return err
		}
		addresses[address.netAddress.Address] = address
	}
	return nil
}

func (as *addressStore) put(bucket *database.Bucket, address *address) error {
	if as.database == nil {
		return nil
	}
	serializedAddress, err := serializeAddress(address)
	if err != nil {
		return err
	}
	return as.database.Put(bucket.Key([]byte(address.netAddress.Address)), serializedAddress)
}

func (as *addressStore) delete(bucket *database.Bucket, key string) error {
	if as.database == nil {
		return nil
	}
	return as.database.Delete(bucket.Key([]byte(key)))
}

func (as *addressStore) add(address *address) error {
	key := address.netAddress.Address
	if _, ok := as.addresses[key]; ok {
		return nil
	}
	as.addresses[key] = address
	return as.put(notBannedAddressBucket, address)
}

func (as *addressStore) update(address *address) error {
	key := address.netAddress.Address
	if _, ok := as.addresses[key]; !ok {
		return errors.Errorf("address %s is not in the store", key)
	}
	as.addresses[key] = address
	return as.put(notBannedAddressBucket, address)
}

func (as *addressStore) remove(key string) error {
	if _, ok := as.addresses[key]; !ok {
		return nil
	}
	delete(as.addresses, key)
	return as.delete(notBannedAddressBucket, key)
}

func (as *addressStore) getNotBanned(key string) (*address, bool) {
	address, ok := as.addresses[key]
	return address, ok
}

func (as *addressStore) isNotBanned(key string) bool {
	_, ok := as.addresses[key]
	return ok
}

func (as *addressStore) notBannedCount() int {
	return len(as.addresses)
}

func (as *addressStore) getAllNotBanned() []*address {
	addresses := make([]*address, 0, len(as.addresses))
	for _, address := range as.addresses {
		addresses = append(addresses, address)
	}
	return addresses
}

func (as *addressStore) getAllNotBannedNetAddresses() []*appmessage.NetAddress {
	netAddresses := make([]*appmessage.NetAddress, 0, len(as.addresses))
	for _, address := range as.addresses {
		netAddresses = append(netAddresses, address.netAddress)
	}
	return netAddresses
}

func (as *addressStore) getAllNotBannedNetAddressesWithout(ignoredAddresses []*appmessage.NetAddress) []*appmessage.NetAddress {
	ignoredKeys := make(map[string]struct{}, len(ignoredAddresses))
	for _, ignoredAddress := range ignoredAddresses {
		ignoredKeys[ignoredAddress.Address] = struct{}{}
	}

	netAddresses := make([]*appmessage.NetAddress, 0, len(as.addresses))
	for key, address := range as.addresses {
		if _, ok := ignoredKeys[key]; !ok {
			netAddresses = append(netAddresses, address.netAddress)
		}
	}
	return netAddresses
}

func (as *addressStore) addBanned(address *address) error {
	key := address.netAddress.Address
	as.bannedAddresses[key] = address
	return as.put(bannedAddressBucket, address)
}

func (as *addressStore) removeBanned(key string) error {
	if _, ok := as.bannedAddresses[key]; !ok {
		return nil
	}
	delete(as.bannedAddresses, key)
	return as.delete(bannedAddressBucket, key)
}

func (as *addressStore) isBanned(key string) bool {
	_, ok := as.bannedAddresses[key]
	return ok
}

func (as *addressStore) getBanned(key string) (*address, bool) {
	bannedAddress, ok := as.bannedAddresses[key]
	return bannedAddress, ok
}

func (as *addressStore) getAllBannedNetAddresses() []*appmessage.NetAddress {
	bannedAddresses := make([]*appmessage.NetAddress, 0, len(as.bannedAddresses))
	for _, bannedAddress := range as.bannedAddresses {
		bannedAddresses = append(bannedAddresses, bannedAddress.netAddress)
	}
	return bannedAddresses
}

func serializeAddress(address *address) ([]byte, error) {
	serializedAddress, err := msgpack.Marshal(&dbAddress{
		TimestampInMilliseconds: mstime.TimeToUnixMilli(address.netAddress.Timestamp),
		ConnectionFailedCount:   address.connectionFailedCount,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return serializedAddress, nil
}

func deserializeAddress(key string, serializedAddress []byte) (*address, error) {
	dbAddress := &dbAddress{}
	err := msgpack.Unmarshal(serializedAddress, dbAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed decoding address %s", key)
	}
	return &address{
		netAddress: &appmessage.NetAddress{
			Timestamp: mstime.UnixMilliToTime(dbAddress.TimestampInMilliseconds),
			Address:   key,
		},
		connectionFailedCount: dbAddress.ConnectionFailedCount,
	}, nil
}
