// Пакет render — рендеринг HTML-страниц и htmx-фрагментов
// через pongo2-шаблоны, встроенные в бинарник.
package render

import (
	"log/slog"
	"net/http"

	"github.com/flosch/pongo2/v6"
)

// Renderer — набор скомпилированных шаблонов UI.
type Renderer struct {
	set    *pongo2.TemplateSet
	logger *slog.Logger
}

// New создаёт Renderer поверх файловой системы шаблонов.
// Шаблоны кешируются после первой компиляции.
func New(templates http.FileSystem, logger *slog.Logger) *Renderer {
	loader := pongo2.MustNewHttpFileSystemLoader(templates, "")
	set := pongo2.NewSet("helpdesk", loader)
	return &Renderer{
		set:    set,
		logger: logger.With(slog.String("component", "render")),
	}
}

// HTML рендерит шаблон name с контекстом ctx и статусом status.
// Ошибка рендеринга — дефект шаблона: логируется и отдаётся 500,
// ретраить на клиенте нечего.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, ctx pongo2.Context) {
	tpl, err := r.set.FromCache(name)
	if err != nil {
		r.logger.Error("Шаблон не найден",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	out, err := tpl.ExecuteBytes(ctx)
	if err != nil {
		r.logger.Error("Ошибка рендеринга шаблона",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(out)
}
