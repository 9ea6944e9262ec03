package ports

// Unlocker releases a held set of locks.
type Unlocker interface {
	Release()
}

// Locker serializes builds of the same outputs across concurrent
// invocations of the tool.
//
//go:generate go run go.uber.org/mock/mockgen -source=locker.go -destination=mocks/mock_locker.go -package=mocks
type Locker interface {
	// LockOutputs blocks until every output's lock is held. Locks are
	// always taken in sorted order so two invocations locking
	// overlapping sets cannot deadlock.
	LockOutputs(outputs []string) (Unlocker, error)
}
