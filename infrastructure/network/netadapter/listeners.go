package netadapter

import (
	"sync"

	"github.com/pkg/errors"
)

var listeners = struct {
	sync.RWMutex
	adapters map[string]*NetAdapter
}{
	adapters: make(map[string]*NetAdapter),
}

func registerListeners(netAdapter *NetAdapter, addresses []string) error {
	listeners.Lock()
	defer listeners.Unlock()

	for _, address := range addresses {
		if _, ok := listeners.adapters[address]; ok {
			return errors.Errorf("address %s is already in use", address)
		}
	}
	for _, address := range addresses {
		listeners.adapters[address] = netAdapter
	}
	return nil
}

func unregisterListeners(netAdapter *NetAdapter, addresses []string) {
	listeners.Lock()
	defer listeners.Unlock()

	for _, address := range addresses {
		if listeners.adapters[address] == netAdapter {
			delete(listeners.adapters, address)
		}
	}
}

func lookupListener(address string) (*NetAdapter, bool) {
	listeners.RLock()
	defer listeners.RUnlock()

	netAdapter, ok := listeners.adapters[address]
	return netAdapter, ok
}
