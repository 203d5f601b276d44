package http

import (
	"github.com/vidyasetu/auth-api/internal/application/directory"
	jwtinfra "github.com/vidyasetu/auth-api/internal/infrastructure/jwt"
)

// Deps holds all infrastructure dependencies for the router.
//
// The flow components (otp channel, role guard, provisioner) each declare the
// narrow interface they consume; the directory service satisfies all of them,
// so a single handle is enough to wire the whole authentication surface.
type Deps struct {
	Directory   *directory.Service
	JWTProvider *jwtinfra.Provider
}
