// Package session holds the host application's session store. The SSO gate
// destroys these sessions on teardown, so the store is shared between the
// web service and the middleware.
package session

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Store is the global session store instance.
var Store *session.Store

// Init initializes the session store with the provided storage backend.
func Init(storage fiber.Storage) {
	if storage == nil {
		panic("storage is nil")
	}

	Store = session.New(session.Config{
		Storage: storage,
	})
}
