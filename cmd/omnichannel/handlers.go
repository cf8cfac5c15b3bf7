package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Doxa-Code/omnichannel/internal/constants"
	apperrors "github.com/Doxa-Code/omnichannel/internal/errors"
	"github.com/Doxa-Code/omnichannel/internal/metrics"
	"github.com/Doxa-Code/omnichannel/internal/models"
	"github.com/Doxa-Code/omnichannel/internal/service"
	"github.com/Doxa-Code/omnichannel/pkg/meta"
)

// userIDHeader identifies the acting attendant. Authentication itself lives
// at the edge proxy; the service only enforces workspace authorization.
const userIDHeader = "X-User-ID"

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.WithError(err).Error("Failed to encode response")
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, apperrors.HTTPStatusCode(err), apperrors.ToHTTPResponse(err))
}

func requireUserID(r *http.Request) (string, error) {
	userID := r.Header.Get(userIDHeader)
	if userID == "" {
		return "", apperrors.NewNotAuthorized("missing " + userIDHeader + " header")
	}
	return userID, nil
}

// handleWebhookVerification answers Meta's subscription handshake.
func (s *Server) handleWebhookVerification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("hub.mode") == "subscribe" && query.Get("hub.verify_token") == s.cfg.Meta.VerifyToken {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(query.Get("hub.challenge")))
			return
		}
		s.logger.Warn("Webhook verification failed")
		w.WriteHeader(http.StatusForbidden)
	}
}

func (s *Server) handleMetaWebhook() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, constants.DefaultWebhookBodyMax))
		if err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "failed to read webhook body"))
			return
		}

		if s.cfg.Meta.AppSecret != "" {
			signature := r.Header.Get(constants.SignatureHeaderName)
			if !meta.ValidateSignature(body, signature, s.cfg.Meta.AppSecret) {
				s.logger.Warn("Webhook signature validation failed")
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
		}

		event, err := meta.ParseWebhook(body)
		if err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "malformed webhook payload"))
			return
		}
		if event == nil {
			w.WriteHeader(http.StatusOK)
			return
		}

		switch {
		case event.Status != nil:
			err = s.messages.ChangeStatusMessage(r.Context(), event.Status.MessageID, event.Status.Status)
		case event.Message != nil:
			var result *service.MessageReceivedResult
			result, err = s.messages.MessageReceived(r.Context(), service.MessageReceivedInput{
				ProviderAccountID: event.Message.PhoneNumberID,
				MessageID:         event.Message.MessageID,
				From:              event.Message.From,
				ContactName:       event.Message.ContactName,
				Type:              models.MessageType(event.Message.Type),
				Content:           event.Message.Content,
				Timestamp:         event.Message.Timestamp,
			})
			if err == nil && result.NewConversation {
				metrics.IncrementCounter("conversations_started_total", nil, "")
				s.logger.WithFields(map[string]interface{}{
					service.LogFieldConversationID: result.Conversation.ID,
					service.LogFieldWorkspaceID:    result.WorkspaceID,
				}).Info("New conversation started")
			}
		}
		if err != nil {
			s.writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleListConversations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		snapshots, err := s.conversations.List(r.Context(), mux.Vars(r)["workspaceID"], userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, snapshots)
	}
}

func (s *Server) handleGetConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		vars := mux.Vars(r)
		snapshot, err := s.conversations.Get(r.Context(), vars["workspaceID"], userID, vars["conversationID"])
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, snapshot)
	}
}

func (s *Server) handleSendMessage() http.HandlerFunc {
	type request struct {
		Content string `json:"content"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "malformed request body"))
			return
		}

		vars := mux.Vars(r)
		err = s.messages.SendMessage(r.Context(), service.SendMessageInput{
			WorkspaceID:    vars["workspaceID"],
			UserID:         userID,
			ConversationID: vars["conversationID"],
			Content:        req.Content,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) handleSendAudio() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "missing audio file"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "failed to read audio file"))
			return
		}

		vars := mux.Vars(r)
		message, err := s.messages.SendAudio(r.Context(), service.SendAudioInput{
			WorkspaceID:    vars["workspaceID"],
			UserID:         userID,
			ConversationID: vars["conversationID"],
			Audio: models.AudioFile{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			},
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, message)
	}
}

func (s *Server) handleTransfer() http.HandlerFunc {
	type request struct {
		SectorID    string `json:"sectorId"`
		AttendantID string `json:"attendantId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "malformed request body"))
			return
		}

		vars := mux.Vars(r)
		err = s.conversations.Transfer(r.Context(), service.TransferInput{
			WorkspaceID:    vars["workspaceID"],
			UserID:         userID,
			ConversationID: vars["conversationID"],
			SectorID:       req.SectorID,
			AttendantID:    req.AttendantID,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCloseConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		vars := mux.Vars(r)
		if err := s.conversations.Close(r.Context(), vars["workspaceID"], userID, vars["conversationID"]); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleMarkViewed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		if err := s.messages.MarkLastMessagesContactAsViewed(r.Context(), mux.Vars(r)["conversationID"], userID); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleTyping(typing bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.messages.Typing(r.Context(), mux.Vars(r)["conversationID"], typing); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleCancelCart() http.HandlerFunc {
	type request struct {
		Reason string `json:"reason"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "malformed request body"))
			return
		}

		vars := mux.Vars(r)
		if err := s.conversations.CancelCart(r.Context(), vars["workspaceID"], userID, vars["conversationID"], req.Reason); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// channelView is the API shape for a channel: credentials never leave the
// service.
type channelView struct {
	ID                string `json:"id"`
	WorkspaceID       string `json:"workspaceId"`
	Name              string `json:"name"`
	Type              string `json:"type"`
	Status            string `json:"status"`
	ProviderAccountID string `json:"providerAccountId,omitempty"`
}

func newChannelView(channel *models.Channel) channelView {
	return channelView{
		ID:                channel.ID,
		WorkspaceID:       channel.WorkspaceID,
		Name:              channel.Name,
		Type:              string(channel.Type),
		Status:            string(channel.Status),
		ProviderAccountID: channel.ProviderAccountID(),
	}
}

func (s *Server) handleListChannels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		channels, err := s.channels.List(r.Context(), mux.Vars(r)["workspaceID"], userID)
		if err != nil {
			s.writeError(w, err)
			return
		}

		views := make([]channelView, 0, len(channels))
		for _, channel := range channels {
			views = append(views, newChannelView(channel))
		}
		s.writeJSON(w, http.StatusOK, views)
	}
}

func (s *Server) handleConnectChannel() http.HandlerFunc {
	type request struct {
		ChannelID     string `json:"channelId"`
		Name          string `json:"name"`
		Type          string `json:"type"`
		Code          string `json:"code"`
		PhoneNumberID string `json:"phoneNumberId"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "malformed request body"))
			return
		}

		channel, err := s.channels.Connect(r.Context(), userID, service.ConnectChannelInput{
			WorkspaceID:   mux.Vars(r)["workspaceID"],
			ChannelID:     req.ChannelID,
			ChannelName:   req.Name,
			ChannelType:   models.ChannelType(req.Type),
			Code:          req.Code,
			PhoneNumberID: req.PhoneNumberID,
		})
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, newChannelView(channel))
	}
}

func (s *Server) handleDisconnectChannel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}

		vars := mux.Vars(r)
		if err := s.channels.Disconnect(r.Context(), vars["workspaceID"], userID, vars["channelID"]); err != nil {
			s.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
