// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RoleAgent is the role carried by listing agents in their access token.
const RoleAgent = "agent"

// Identity is the authenticated caller as seen by handlers.
// Handlers use it instead of reading gin context keys directly.
type Identity interface {
	// ActorID returns the authenticated caller's ID. For agents this is the agent ID.
	ActorID() uuid.UUID
	Roles() []string
	HasRole(role string) bool
	IsAuthenticated() bool
}

type identity struct {
	actorID       uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) ActorID() uuid.UUID       { return i.actorID }
func (i *identity) Roles() []string          { return i.roles }
func (i *identity) HasRole(role string) bool { return slices.Contains(i.roles, role) }
func (i *identity) IsAuthenticated() bool    { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if actor info is not present.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextActorIDKey)
	if !ok {
		return &identity{}
	}
	actorID, ok := raw.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	var roles []string
	if value, ok := c.Get(ContextRolesKey); ok {
		roles, _ = value.([]string)
	}

	return &identity{actorID: actorID, roles: roles, authenticated: true}
}

// MustGetAgent returns the caller's agent ID, aborting with 401 when the
// request is unauthenticated and 403 when the caller is not an agent.
func MustGetAgent(c *gin.Context) (uuid.UUID, bool) {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return uuid.Nil, false
	}
	if !id.HasRole(RoleAgent) {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
		return uuid.Nil, false
	}
	return id.ActorID(), true
}
