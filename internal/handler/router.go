package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/mirror/backend/internal/handler/chat"
	"github.com/zhouzirui/mirror/backend/internal/handler/creature"
	"github.com/zhouzirui/mirror/backend/internal/handler/persona"
	"github.com/zhouzirui/mirror/backend/internal/handler/stream"
	"github.com/zhouzirui/mirror/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/mirror/backend/internal/middleware"
	personaModel "github.com/zhouzirui/mirror/backend/internal/model/persona"
	chatService "github.com/zhouzirui/mirror/backend/internal/service/chat"
	creatureService "github.com/zhouzirui/mirror/backend/internal/service/creature"
	"github.com/zhouzirui/mirror/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, creatureSvc *creatureService.Service, sessions *chatService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	conversations := creatureService.NewConversations(creatureSvc, sessions, personas)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":     "ok",
				"generation": creatureSvc.GenerationEnabled(),
			})
		})

		persona.New(personas).RegisterRoutes(api)
		creature.New(creatureSvc, personas).RegisterRoutes(api)
		chat.New(conversations, sessions).RegisterRoutes(api)
		stream.New(conversations).RegisterRoutes(api)
		ws.New(conversations).RegisterRoutes(api)
	})

	return r
}
