package utils

import "github.com/gin-gonic/gin"

// Actor types recorded on audit events
const (
	ActorUser  = "user"
	ActorToken = "token"
)

// WorkspaceContext is the per-request tenant scope. It is built once by the
// auth middleware and handed to every service call explicitly.
type WorkspaceContext struct {
	WorkspaceID string
	ProgramID   string
	ActorID     string
	ActorType   string
	RequestID   string
}

const workspaceContextKey = "workspace_context"

// SetWorkspaceContext stores the scope on the gin context
func SetWorkspaceContext(c *gin.Context, wctx WorkspaceContext) {
	c.Set(workspaceContextKey, wctx)
}

// GetWorkspaceContext reads the scope set by the auth middleware
func GetWorkspaceContext(c *gin.Context) (WorkspaceContext, bool) {
	v, ok := c.Get(workspaceContextKey)
	if !ok {
		return WorkspaceContext{}, false
	}
	wctx, ok := v.(WorkspaceContext)
	return wctx, ok
}
