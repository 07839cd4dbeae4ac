package aggregate

import "github.com/chebyrash/promise"

// Plugin is one component of the node: a config, a store, a background job or the op stream.
type Plugin interface {
	// Called in registration order. Later plugins may rely on earlier ones being initialized.
	Init() error
	// Must not block; long running work resolves the promise once it is running
	Start() *promise.Promise[any]
	// Called in reverse registration order
	Stop() error
}
