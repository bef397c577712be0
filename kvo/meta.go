package kvo

import mapset "github.com/deckarep/golang-set/v2"

// Lifecycle is the stage of an object.
type Lifecycle uint8

const (
	Uninitialized Lifecycle = iota
	Initialized
	Destroyed
)

func (l Lifecycle) String() string {
	switch l {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// changeSet collects the keys changed during a batch, in first-change order,
// with the value each key had before its first change.
type changeSet struct {
	keys []string
	seen mapset.Set[string]
	old  map[string]any
}

func newChangeSet() *changeSet {
	return &changeSet{
		seen: mapset.NewThreadUnsafeSet[string](),
		old:  map[string]any{},
	}
}

func (cs *changeSet) add(key string, old any) {
	if !cs.seen.Add(key) {
		return
	}
	cs.keys = append(cs.keys, key)
	cs.old[key] = old
}

// Metadata is the per-object bookkeeping of the runtime: the computed value
// cache, observer tables, the open batch and registered bindings. It is an
// owned field of Object and dies with it.
type Metadata struct {
	cache          map[string]any
	dependents     map[string][]string
	observers      map[string][]*observer
	rangeObservers []*rangeObserver
	changed        *changeSet
	batchDepth     int
	bindings       []*Binding
	evaluating     map[string]bool
	lifecycle      Lifecycle
}

func newMetadata(dependents map[string][]string) Metadata {
	return Metadata{
		cache:      map[string]any{},
		dependents: dependents,
		observers:  map[string][]*observer{},
		evaluating: map[string]bool{},
	}
}

func (m *Metadata) invalidate(key string) (old any) {
	old = m.cache[key]
	delete(m.cache, key)
	return old
}
