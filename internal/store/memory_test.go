package store_test

import (
	"testing"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store/storetest"
)

func TestMemory(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}

func TestCachedStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return store.NewCachedStore(store.NewMemory(), 4, nil)
	})
}
