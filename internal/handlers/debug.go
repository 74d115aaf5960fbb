package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

var debugIndexTmpl = template.Must(template.New("debug").Parse(`<!doctype html>
<html>
<head><title>ivevents routes</title></head>
<body>
<h1>Registered routes</h1>
<table border="1" cellpadding="4">
<tr><th>Method</th><th>Path</th></tr>
{{range .}}<tr><td>{{.Method}}</td><td>{{.Path}}</td></tr>
{{end}}</table>
</body>
</html>`))

// DebugHandler renders a plain HTML index of the registered routes.
// Registered only in development.
type DebugHandler struct {
	engine *gin.Engine
}

func NewDebugHandler(engine *gin.Engine) *DebugHandler {
	return &DebugHandler{engine: engine}
}

// GET /debug/routes
func (h *DebugHandler) Routes(c *gin.Context) {
	routes := h.engine.Routes()
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	var buf strings.Builder
	if err := debugIndexTmpl.Execute(&buf, routes); err != nil {
		c.String(http.StatusInternalServerError, fmt.Sprintf("render failed: %v", err))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(buf.String()))
}
