// Package middleware decorates session stores with behavior that is
// independent of the backend, such as sealing sessions at rest.
package middleware

import "github.com/JohnTHEBurn/Suminamin-ewqcfsdadgfds/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies mws to store. The first middleware is the outermost.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
