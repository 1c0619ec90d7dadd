package backend

import (
	"net/http"

	"github.com/gorilla/handlers"
)

func (b *Backend) handleCompression(h http.Handler) http.Handler {
	return handlers.CompressHandler(h)
}
