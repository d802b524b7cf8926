package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/institute/coursecatalog/internal/models"
)

// Editor identity headers, set by the identity provider in front of the admin API
const (
	EditorUIDHeader   = "X-Editor-Uid"
	EditorEmailHeader = "X-Editor-Email"
)

// EditorMiddleware requires an editor identity on the request and stores it in the context.
// The identity is trusted as supplied.
func EditorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(EditorUIDHeader))
		if uid == "" {
			writeJSONError(w, http.StatusUnauthorized, "editor identity required")
			return
		}

		editor := models.Editor{
			UID:   uid,
			Email: strings.TrimSpace(r.Header.Get(EditorEmailHeader)),
		}
		next.ServeHTTP(w, r.WithContext(WithEditor(r.Context(), editor)))
	})
}

// WithEditor returns a copy of ctx carrying editor
func WithEditor(ctx context.Context, editor models.Editor) context.Context {
	return context.WithValue(ctx, editorKey, editor)
}

// GetEditor retrieves the editor identity from context
func GetEditor(ctx context.Context) (models.Editor, bool) {
	editor, ok := ctx.Value(editorKey).(models.Editor)
	return editor, ok
}
