package router

import "github.com/gin-gonic/gin"

// Module describes a feature module that registers its page routes on root
// and its JSON routes on api (/api).
type Module interface {
	Register(root, api *gin.RouterGroup)
}
