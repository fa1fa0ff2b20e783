package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Billy-Gatez/spacebook-social/internal/app/registry"
	"github.com/Billy-Gatez/spacebook-social/internal/app/server/handlers"
	"github.com/Billy-Gatez/spacebook-social/internal/core/services"
	"github.com/Billy-Gatez/spacebook-social/pkg/middleware"
)

type Server struct {
	log      *slog.Logger
	mux      *http.ServeMux
	appName  string
	addr     string
	tokenSvc *services.TokenService

	messagingHandler *handlers.MessagingHandler
	listenHandler    *handlers.ListenHandler
	chessHandler     *handlers.ChessHandler
	restHandler      *handlers.RestHandler

	httpServer *http.Server
}

func NewServer(
	log *slog.Logger,
	appName string,
	addr string,
	tokenSvc *services.TokenService,
	messagingSvc *services.MessagingService,
	presenceSvc *services.PresenceService,
	listenSvc *services.ListenRoomService,
	matchmakingSvc *services.MatchmakingService,
	playerSvc *services.PlayerService,
	messagingHub *registry.Registry,
	listenHub *registry.Registry,
) *Server {
	s := &Server{
		log:              log,
		mux:              http.NewServeMux(),
		appName:          appName,
		addr:             addr,
		tokenSvc:         tokenSvc,
		messagingHandler: handlers.NewMessagingHandler(messagingHub, messagingSvc, presenceSvc),
		listenHandler:    handlers.NewListenHandler(listenHub, listenSvc),
		chessHandler:     handlers.NewChessHandler(matchmakingSvc),
		restHandler:      handlers.NewRestHandler(messagingSvc, presenceSvc, playerSvc),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)

	// Socket channels. Chess is anonymous by design; the other two carry
	// the user identity from the JWT.
	s.mux.Handle("/ws/messaging", auth(http.HandlerFunc(s.messagingHandler.Handler)))
	s.mux.Handle("/ws/listen", auth(http.HandlerFunc(s.listenHandler.Handler)))
	s.mux.HandleFunc("/ws/chess", s.chessHandler.Handler)

	// REST companion surface.
	s.mux.Handle("GET /api/conversations", auth(http.HandlerFunc(s.restHandler.ListConversations)))
	s.mux.Handle("POST /api/conversations/dm", auth(http.HandlerFunc(s.restHandler.CreateDM)))
	s.mux.Handle("POST /api/conversations/group", auth(http.HandlerFunc(s.restHandler.CreateGroup)))
	s.mux.Handle("GET /api/conversations/{id}/messages", auth(http.HandlerFunc(s.restHandler.ListMessages)))
	s.mux.Handle("DELETE /api/conversations/{id}", auth(http.HandlerFunc(s.restHandler.DeleteConversation)))
	s.mux.Handle("DELETE /api/messages/{id}", auth(http.HandlerFunc(s.restHandler.DeleteMessage)))
	s.mux.Handle("GET /api/presence", auth(http.HandlerFunc(s.restHandler.ListPresence)))
	s.mux.Handle("GET /api/presence/{userId}", auth(http.HandlerFunc(s.restHandler.GetPresence)))
	s.mux.HandleFunc("GET /api/players", s.restHandler.Leaderboard)
	s.mux.Handle("POST /api/players/result", auth(http.HandlerFunc(s.restHandler.ReportResult)))

	s.mux.HandleFunc("GET /healthz", s.restHandler.Health)
}

func (s *Server) Start() error {
	chain := middleware.RequestLogger(s.log)(
		middleware.TracerMiddleware(s.appName)(s.mux),
	)
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: chain,
		// Socket connections outlive any sane write timeout; only the
		// read side of the initial request is bounded.
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.log.Info("server - starting", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
