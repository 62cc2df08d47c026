// Package web は埋め込みHTMLテンプレートとコンテンツネゴシエーションを提供します。
package web

import (
	"embed"
	"html/template"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates は埋め込まれたすべてのページテンプレートを返します。
// gin.Engine.SetHTMLTemplate に渡して使用します。
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}).ParseFS(templateFS, "templates/*.html"))
}

// offered はネゴシエーション可能な形式です。先頭のHTMLが既定です。
var offered = []string{gin.MIMEHTML, gin.MIMEJSON}

// WantsJSON は Accept ヘッダーがHTMLよりJSONを優先しているかを返します。
func WantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(offered...) == gin.MIMEJSON
}

// Render は Accept ヘッダーに応じてHTMLテンプレートまたはJSONを返します。
func Render(c *gin.Context, code int, name string, htmlData any, jsonData any) {
	c.Negotiate(code, gin.Negotiate{
		Offered:  offered,
		HTMLName: name,
		HTMLData: htmlData,
		JSONData: jsonData,
	})
}

// SafeNext は同一オリジン内のパスだけを許可し、それ以外は fallback を返します。
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
