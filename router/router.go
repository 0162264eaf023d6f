package router

import (
	"net/http"

	docHandler "inkpad/internal/document"
	"inkpad/internal/document/repository"
	"inkpad/internal/document/service"
	"inkpad/middleware"
	"inkpad/socket"

	"github.com/rs/cors"
)

func Setup(repo *repository.DocumentRepository, hub *socket.Hub, jwtSecret []byte) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(jwtSecret)

	// WebSocket event feed
	wsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(middleware.UserIDKey).(string)
		socket.ServeWs(hub, w, r, userID)
	})
	mux.Handle("/ws", auth(wsHandler))

	// REST API
	docService := service.NewDocumentService(repo, hub)
	h := docHandler.NewDocumentHandler(docService)

	mux.Handle("/api/documents/create", auth(http.HandlerFunc(h.CreateDocument)))
	mux.Handle("/api/documents/save", auth(http.HandlerFunc(h.SaveDocument)))
	mux.Handle("/api/documents/update", auth(http.HandlerFunc(h.UpdateDocument)))
	mux.Handle("/api/documents", auth(http.HandlerFunc(h.GetDocuments)))
	mux.Handle("/api/documents/mine", auth(http.HandlerFunc(h.GetMyDocuments)))
	mux.Handle("/api/documents/shared", auth(http.HandlerFunc(h.GetSharedDocuments)))
	mux.Handle("/api/documents/single", auth(http.HandlerFunc(h.GetSingleDocument)))
	mux.Handle("/api/documents/invite", auth(http.HandlerFunc(h.AddCollaborator)))
	mux.Handle("/api/documents/revoke", auth(http.HandlerFunc(h.RemoveCollaborator)))
	mux.Handle("/api/documents/collaborators", auth(http.HandlerFunc(h.GetCollaborators)))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(mux)
}
