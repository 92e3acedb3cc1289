package prefixmanager

import (
	"github.com/calico-network/calicod/domain/prefixmanager/prefix"
	"github.com/calico-network/calicod/infrastructure/db/database"
)

var activePrefixKey = database.MakeBucket(nil).Key([]byte("active-prefix"))
var inactivePrefixKey = database.MakeBucket(nil).Key([]byte("inactive-prefix"))

// ActivePrefix returns the current active database prefix, and whether it exists
func ActivePrefix(dataAccessor database.DataAccessor) (*prefix.Prefix, bool, error) {
	return readPrefix(dataAccessor, activePrefixKey)
}

// InactivePrefix returns the current inactive database prefix, and whether it exists
func InactivePrefix(dataAccessor database.DataAccessor) (*prefix.Prefix, bool, error) {
	return readPrefix(dataAccessor, inactivePrefixKey)
}

func readPrefix(dataAccessor database.DataAccessor, key *database.Key) (*prefix.Prefix, bool, error) {
	prefixBytes, err := dataAccessor.Get(key)
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	p, err := prefix.Deserialize(prefixBytes)
	if err != nil {
		return nil, false, err
	}

	return p, true, nil
}

// DeleteInactivePrefix deletes all data associated with the inactive database prefix, including itself.
func DeleteInactivePrefix(dataAccessor database.DataAccessor) error {
	inactivePrefix, exists, err := InactivePrefix(dataAccessor)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	err = deletePrefix(dataAccessor, inactivePrefix)
	if err != nil {
		return err
	}

	return dataAccessor.Delete(inactivePrefixKey)
}

func deletePrefix(dataAccessor database.DataAccessor, p *prefix.Prefix) error {
	log.Infof("Deleting %s", p)
	prefixBucket := database.MakeBucket(p.Serialize())
	cursor, err := dataAccessor.Cursor(prefixBucket)
	if err != nil {
		return err
	}
	defer cursor.Close()

	var keys []*database.Key
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}

	for _, key := range keys {
		err = dataAccessor.Delete(key)
		if err != nil {
			return err
		}
	}

	return nil
}

// SetPrefixAsActive sets the given prefix as the active prefix
func SetPrefixAsActive(dataAccessor database.DataAccessor, p *prefix.Prefix) error {
	return dataAccessor.Put(activePrefixKey, p.Serialize())
}

// SetPrefixAsInactive sets the given prefix as the inactive prefix
func SetPrefixAsInactive(dataAccessor database.DataAccessor, p *prefix.Prefix) error {
	return dataAccessor.Put(inactivePrefixKey, p.Serialize())
}
