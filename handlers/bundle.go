// File: handlers/bundle.go
package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups the endpoint handlers for route registration.
type HandlerBundle struct {
	ChatHandler   gin.HandlerFunc
	HealthHandler gin.HandlerFunc
}
