package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Doxa-Code/omnichannel/internal/config"
	"github.com/Doxa-Code/omnichannel/internal/middleware"
	"github.com/Doxa-Code/omnichannel/internal/realtime"
	"github.com/Doxa-Code/omnichannel/internal/service"
)

type Server struct {
	router        *mux.Router
	cfg           *config.Config
	logger        *logrus.Logger
	broker        *realtime.Broker
	messages      *service.MessageService
	conversations *service.ConversationService
	channels      *service.ChannelService
	server        *http.Server
}

func NewServer(
	cfg *config.Config,
	logger *logrus.Logger,
	broker *realtime.Broker,
	messages *service.MessageService,
	conversations *service.ConversationService,
	channels *service.ChannelService,
) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		cfg:           cfg,
		logger:        logger,
		broker:        broker,
		messages:      messages,
		conversations: conversations,
		channels:      channels,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	// Meta webhook: GET is the subscription handshake, POST the deliveries
	webhook := s.router.PathPrefix("/webhook/meta").Subrouter()
	webhook.Use(middleware.WebhookObservabilityMiddleware(s.logger, "meta"))
	webhook.HandleFunc("", s.handleWebhookVerification()).Methods(http.MethodGet)
	webhook.HandleFunc("", s.handleMetaWebhook()).Methods(http.MethodPost)

	api := s.router.PathPrefix("/workspaces/{workspaceID}").Subrouter()
	api.Use(middleware.ObservabilityMiddleware(s.logger))

	api.HandleFunc("/events", s.handleEvents()).Methods(http.MethodGet)

	api.HandleFunc("/conversations", s.handleListConversations()).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{conversationID}", s.handleGetConversation()).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{conversationID}/messages", s.handleSendMessage()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationID}/audio", s.handleSendAudio()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationID}/transfer", s.handleTransfer()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationID}/close", s.handleCloseConversation()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationID}/viewed", s.handleMarkViewed()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationID}/typing", s.handleTyping(true)).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationID}/untyping", s.handleTyping(false)).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationID}/cart/cancel", s.handleCancelCart()).Methods(http.MethodPost)

	api.HandleFunc("/channels", s.handleListChannels()).Methods(http.MethodGet)
	api.HandleFunc("/channels/connect", s.handleConnectChannel()).Methods(http.MethodPost)
	api.HandleFunc("/channels/{channelID}/disconnect", s.handleDisconnectChannel()).Methods(http.MethodPost)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Server.Port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func (s *Server) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		workspaceID := mux.Vars(r)["workspaceID"]
		s.broker.ServeHTTP(w, r, workspaceID)
	}
}
