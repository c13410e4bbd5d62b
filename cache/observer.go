package cache

import "sync"

// Observer is notified after the content of a cache changes.
type Observer interface {
	OnCacheChanged()
}

// ObserverFunc an Observer that calls itself.
type ObserverFunc func()

// OnCacheChanged calls f.
func (f ObserverFunc) OnCacheChanged() { f() }

// observers a list of registered observers.
// Observers are called in the order they were added.
type observers struct {
	list []*observerHandle
	mux  sync.Mutex
}

type observerHandle struct{ Observer }

// add registers o and returns a function that removes it again.
func (o *observers) add(ob Observer) (remove func()) {
	h := &observerHandle{ob}

	o.mux.Lock()
	o.list = append(o.list, h)
	o.mux.Unlock()

	return func() {
		o.mux.Lock()
		defer o.mux.Unlock()
		for i, v := range o.list {
			if v == h {
				o.list = append(o.list[:i:i], o.list[i+1:]...)
				return
			}
		}
	}
}

// notify calls every observer.
// This must not be called while holding the lock of the cache.
func (o *observers) notify() {
	o.mux.Lock()
	list := o.list
	o.mux.Unlock()

	for _, h := range list {
		h.OnCacheChanged()
	}
}
