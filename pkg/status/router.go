package status

import "github.com/gin-gonic/gin"

// Router holds the Gin engine wired to a single connection Source.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the status router over source.
func NewRouter(source Source) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	setupMiddleware(engine)

	h := &handler{source: source}
	engine.GET("/healthz", h.Health)
	engine.GET("/status", h.Status)

	return &Router{engine: engine}
}

// Run starts the HTTP server on addr, blocking until it exits.
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
