package chat_handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/xenn00/social-chat/internal/dtos/chat_dto"
	"github.com/xenn00/social-chat/internal/entity"
	app_error "github.com/xenn00/social-chat/internal/errors"
	"github.com/xenn00/social-chat/internal/handlers"
	"github.com/xenn00/social-chat/internal/media"
	"github.com/xenn00/social-chat/internal/queue"
	chat_service "github.com/xenn00/social-chat/internal/use-case/chat-case"
	notification_service "github.com/xenn00/social-chat/internal/use-case/notification-case"
)

const (
	maxUploadMemory = 32 << 20
	maxAttachments  = 10
)

type ChatHandler struct {
	Service  chat_service.ChatServiceContract
	Notifier notification_service.DispatcherContract
	Producer queue.Producer
	Storage  media.Storage
	Validate *validator.Validate
}

func NewChatHandler(
	service chat_service.ChatServiceContract,
	notifier notification_service.DispatcherContract,
	producer queue.Producer,
	storage media.Storage,
) *ChatHandler {
	return &ChatHandler{
		Service:  service,
		Notifier: notifier,
		Producer: producer,
		Storage:  storage,
		Validate: chat_dto.NewValidator(),
	}
}

// RefFunc extracts the addressed conversation from the route.
type RefFunc func(r *http.Request) (chat_dto.ConversationRef, *app_error.AppError)

func PrivateRefFromURL(r *http.Request) (chat_dto.ConversationRef, *app_error.AppError) {
	peerID := chi.URLParam(r, "peerId")
	if peerID == "" {
		return chat_dto.ConversationRef{}, app_error.Validation("peer id is required", "peerId")
	}
	return chat_dto.PrivateRef(peerID), nil
}

func GroupRefFromURL(r *http.Request) (chat_dto.ConversationRef, *app_error.AppError) {
	groupID := chi.URLParam(r, "groupId")
	if groupID == "" {
		return chat_dto.ConversationRef{}, app_error.Validation("group id is required", "groupId")
	}
	return chat_dto.GroupRef(groupID), nil
}

func (h *ChatHandler) ListMessages(refOf RefFunc) handlers.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) *app_error.AppError {
		actorID, err := handlers.Actor(r)
		if err != nil {
			return err
		}
		ref, err := refOf(r)
		if err != nil {
			return err
		}

		resp, err := h.Service.ListMessages(r.Context(), actorID, ref)
		if err != nil {
			return err
		}

		handlers.Respond(w, r, http.StatusOK, "messages fetch successfully", resp)
		return nil
	}
}

func (h *ChatHandler) SendMessage(refOf RefFunc) handlers.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) *app_error.AppError {
		actorID, err := handlers.Actor(r)
		if err != nil {
			return err
		}
		ref, err := refOf(r)
		if err != nil {
			return err
		}

		input, err := h.decodeSend(r)
		if err != nil {
			return err
		}

		resp, err := h.Service.SendMessage(r.Context(), actorID, ref, input)
		if err != nil {
			media.DeleteAll(h.Storage, input.Media)
			return err
		}

		// relay before answering so a follow-up edit or delete from this
		// client is always queued behind its message
		h.broadcastMessage(actorID, ref, resp)
		handlers.Respond(w, r, http.StatusCreated, "message sent successfully", *resp)

		h.Notifier.NotifyNewMessageAsync(actorID, ref, resp)
		return nil
	}
}

func (h *ChatHandler) EditMessage(refOf RefFunc) handlers.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) *app_error.AppError {
		actorID, err := handlers.Actor(r)
		if err != nil {
			return err
		}
		ref, err := refOf(r)
		if err != nil {
			return err
		}
		messageID := chi.URLParam(r, "messageId")

		input, uploaded, err := h.decodeEdit(r)
		if err != nil {
			return err
		}

		resp, err := h.Service.EditMessage(r.Context(), actorID, ref, messageID, input)
		if err != nil {
			media.DeleteAll(h.Storage, uploaded)
			return err
		}

		h.broadcastRoomEvent(ref.Room(actorID), updatedEvent(ref), actorID, resp)
		handlers.Respond(w, r, http.StatusOK, "message edited", *resp)
		return nil
	}
}

func (h *ChatHandler) DeleteMessage(refOf RefFunc) handlers.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) *app_error.AppError {
		actorID, err := handlers.Actor(r)
		if err != nil {
			return err
		}
		ref, err := refOf(r)
		if err != nil {
			return err
		}

		resp, err := h.Service.DeleteMessage(r.Context(), actorID, ref, chi.URLParam(r, "messageId"))
		if err != nil {
			return err
		}

		h.broadcastRoomEvent(ref.Room(actorID), deletedEvent(ref), actorID, resp)
		handlers.Respond(w, r, http.StatusOK, "message deleted", *resp)
		return nil
	}
}

func (h *ChatHandler) ToggleReaction(refOf RefFunc) handlers.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) *app_error.AppError {
		actorID, err := handlers.Actor(r)
		if err != nil {
			return err
		}
		ref, err := refOf(r)
		if err != nil {
			return err
		}

		var req chat_dto.ToggleReactionRequest
		if err := handlers.DecodeJSON(r, &req); err != nil {
			return err
		}
		if err := h.validate(req); err != nil {
			return err
		}

		resp, err := h.Service.ToggleReaction(r.Context(), actorID, ref, chi.URLParam(r, "messageId"), req.Reaction)
		if err != nil {
			return err
		}

		h.broadcastRoomEvent(ref.Room(actorID), reactionEvent(ref), actorID, resp)
		handlers.Respond(w, r, http.StatusOK, "reaction toggled", *resp)
		return nil
	}
}

func (h *ChatHandler) validate(req any) *app_error.AppError {
	if err := h.Validate.Struct(req); err != nil {
		return app_error.Validation(fmt.Sprintf("Invalid fields: %v", err), "validation")
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// decodeSend accepts a JSON body or a multipart form whose "media" parts are
// uploaded before the message is stored.
func (h *ChatHandler) decodeSend(r *http.Request) (chat_dto.SendInput, *app_error.AppError) {
	var req chat_dto.SendMessageRequest
	var uploaded []entity.Media

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			return chat_dto.SendInput{}, app_error.Validation("invalid multipart body", "body")
		}
		req.Content = r.FormValue("content")
		req.ReplyTo = r.FormValue("replyTo")
		if err := h.validate(req); err != nil {
			return chat_dto.SendInput{}, err
		}

		var err *app_error.AppError
		uploaded, err = h.uploadAll(r, r.MultipartForm.File["media"])
		if err != nil {
			return chat_dto.SendInput{}, err
		}
	} else {
		if err := handlers.DecodeJSON(r, &req); err != nil {
			return chat_dto.SendInput{}, err
		}
		if err := h.validate(req); err != nil {
			return chat_dto.SendInput{}, err
		}
	}

	return chat_dto.SendInput{
		Content:   req.Content,
		Media:     uploaded,
		ReplyToID: req.ReplyTo,
	}, nil
}

// decodeEdit returns the edit input and the attachments uploaded for it.
// A multipart edit always replaces the attachment list: the JSON array in
// "retainedMedia" plus the new "media" parts.
func (h *ChatHandler) decodeEdit(r *http.Request) (chat_dto.EditInput, []entity.Media, *app_error.AppError) {
	if !isMultipart(r) {
		var req chat_dto.EditMessageRequest
		if err := handlers.DecodeJSON(r, &req); err != nil {
			return chat_dto.EditInput{}, nil, err
		}
		if err := h.validate(req); err != nil {
			return chat_dto.EditInput{}, nil, err
		}
		input := chat_dto.EditInput{Content: req.Content}
		if req.Media != nil {
			input.Media = *req.Media
			input.ReplaceMedia = true
		}
		return input, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return chat_dto.EditInput{}, nil, app_error.Validation("invalid multipart body", "body")
	}

	req := chat_dto.EditMessageRequest{}
	if values, ok := r.MultipartForm.Value["content"]; ok && len(values) > 0 {
		content := values[0]
		req.Content = &content
	}
	retained := []entity.Media{}
	if raw := r.FormValue("retainedMedia"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &retained); err != nil {
			return chat_dto.EditInput{}, nil, app_error.Validation("retainedMedia must be a JSON array", "retainedMedia")
		}
	}
	req.Media = &retained
	if err := h.validate(req); err != nil {
		return chat_dto.EditInput{}, nil, err
	}

	uploaded, err := h.uploadAll(r, r.MultipartForm.File["media"])
	if err != nil {
		return chat_dto.EditInput{}, nil, err
	}

	return chat_dto.EditInput{
		Content:      req.Content,
		Media:        append(retained, uploaded...),
		ReplaceMedia: true,
	}, uploaded, nil
}

// uploadAll stores every file or none of them.
func (h *ChatHandler) uploadAll(r *http.Request, files []*multipart.FileHeader) ([]entity.Media, *app_error.AppError) {
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxAttachments {
		return nil, app_error.Validation(fmt.Sprintf("at most %d attachments are allowed", maxAttachments), "media")
	}
	if h.Storage == nil {
		return nil, app_error.Internal("media storage is not configured", "media")
	}

	uploaded := make([]entity.Media, 0, len(files))
	for _, fh := range files {
		item, err := h.upload(r, fh)
		if err != nil {
			log.Error().Err(err).Str("filename", fh.Filename).Msg("failed to upload attachment")
			media.DeleteAll(h.Storage, uploaded)
			return nil, app_error.Internal("failed to upload attachment", "media")
		}
		uploaded = append(uploaded, item)
	}
	return uploaded, nil
}

func (h *ChatHandler) upload(r *http.Request, fh *multipart.FileHeader) (entity.Media, error) {
	file, err := fh.Open()
	if err != nil {
		return entity.Media{}, err
	}
	defer file.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.Storage.Upload(r.Context(), file, fh.Filename, contentType)
}
