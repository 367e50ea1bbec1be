// Package node names the identity every HTTP-serving tssctl process exposes.
package node

import "github.com/gin-gonic/gin"

// Node is a process with an id, a kind label for health and metrics, and a
// gin router.
type Node interface {
	NodeID() string
	Kind() string
	HTTPRouter() *gin.Engine
}
