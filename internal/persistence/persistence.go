package persistence

// Stores bundles the two store interfaces so the engine can depend on a
// single abstraction. Events may be nil; the engine substitutes
// NoopEventStore.
type Stores struct {
	Instances InstanceStore
	Events    EventStore
}
