package endpoint

import "context"

// Resource is anything acquired during initialisation.
type Resource interface {
	Release(ctx context.Context) error
}

// Region is a reserved device number.
type Region interface {
	Resource
	Number() (major, minor int)
}

// Class is a registered endpoint category.
type Class interface {
	Resource
	Name() string
}

// Node is the addressable endpoint callers reach.
type Node interface {
	Resource
	Path() string
}

// Operations is what a node dispatches caller requests to.
// *Manager implements it.
type Operations interface {
	Open() (*Session, error)
}

// Registrar is the mechanism that makes the endpoint addressable.
type Registrar interface {
	// AllocRegion reserves a device number for driver.
	AllocRegion(ctx context.Context, driver string) (Region, error)

	// CreateClass registers the category nodes are created in.
	CreateClass(ctx context.Context, name string) (Class, error)

	// CreateNode publishes the endpoint under class, addressed by region,
	// dispatching to ops. The node may receive calls before the Manager is
	// Ready; ops rejects them with ErrNotReady.
	CreateNode(ctx context.Context, class Class, region Region, name string, ops Operations) (Node, error)
}
