// Пакет templates — встроенные pongo2-шаблоны UI.
// Страницы лежат в pages/, переиспользуемые htmx-фрагменты — в partials/.
package templates

import (
	"embed"
	"net/http"
)

// content — встроенная файловая система со всеми шаблонами.
//
//go:embed layout.html pages/*.html partials/*.html
var content embed.FS

// FileSystem возвращает http.FileSystem для загрузчика шаблонов.
func FileSystem() http.FileSystem {
	return http.FS(content)
}
