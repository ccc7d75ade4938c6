package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

const indexTemplate = "index.html"

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"classes": func(cs []string) string { return strings.Join(cs, " ") },
	}
	return template.Must(template.New("all").Funcs(funcs).ParseFS(webFS, "web/templates/*.html"))
}

func staticFS() http.FileSystem {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// @Summary      Dashboard page
// @Tags         dashboard
// @Produce      html
// @Success      200
// @Router       / [get]
func (h *Handler) index(c *gin.Context) {
	data := map[string]interface{}{
		"Rows": h.board.Rows(),
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.tpl.ExecuteTemplate(c.Writer, indexTemplate, data); err != nil && h.log != nil {
		h.log.Errorw("index_render_failed", "err", err)
	}
}
