// Пакет static — встроенные статические ресурсы UI.
// Содержит CSS и JS (HTMX). Файлы встраиваются в бинарник через
// //go:embed и раздаются через HTTP.
package static

import (
	"embed"
	"net/http"
)

// content — встроенная файловая система со всеми статическими ресурсами.
//
//go:embed css/*.css js/*.js
var content embed.FS

// FileSystem возвращает http.FileSystem для обработки запросов к /static/*.
// Файлы доступны по путям вида /static/css/app.css, /static/js/htmx.min.js.
func FileSystem() http.FileSystem {
	return http.FS(content)
}
