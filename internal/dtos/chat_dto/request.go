package chat_dto

import (
	"github.com/go-playground/validator/v10"
	"github.com/xenn00/social-chat/internal/entity"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// ConversationRef addresses a conversation from the actor's point of view:
// the other participant for private chats, the group for group chats.
type ConversationRef struct {
	Kind    entity.ConversationKind `json:"kind" validate:"required,oneof=private group"`
	PeerID  string                  `json:"otherUserId,omitempty" validate:"required_if=Kind private"`
	GroupID string                  `json:"groupId,omitempty" validate:"required_if=Kind group"`
}

func PrivateRef(peerID string) ConversationRef {
	return ConversationRef{Kind: entity.PrivateConversation, PeerID: peerID}
}

func GroupRef(groupID string) ConversationRef {
	return ConversationRef{Kind: entity.GroupConversation, GroupID: groupID}
}

func (r ConversationRef) IsGroup() bool {
	return r.Kind == entity.GroupConversation
}

// Room is the broadcast scope of the conversation as seen by actorID.
func (r ConversationRef) Room(actorID string) string {
	if r.IsGroup() {
		return entity.GroupRoom(r.GroupID)
	}
	return entity.PrivateRoom(actorID, r.PeerID)
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"max=4000"`
	ReplyTo string `json:"replyTo,omitempty" validate:"omitempty,objectID"`
}

// EditMessageRequest carries the new content and, when present, the full
// attachment list the message should keep (retained plus new ones).
type EditMessageRequest struct {
	Content *string         `json:"content,omitempty" validate:"omitempty,max=4000"`
	Media   *[]entity.Media `json:"media,omitempty" validate:"omitempty,dive"`
}

type ToggleReactionRequest struct {
	Reaction string `json:"reaction" validate:"required,max=32"`
}

type SendInput struct {
	Content   string
	Media     []entity.Media
	ReplyToID string
}

type EditInput struct {
	Content *string
	// Media replaces the attachment list when ReplaceMedia is set.
	Media        []entity.Media
	ReplaceMedia bool
}

func ObjectIDValidator(fl validator.FieldLevel) bool {
	_, err := bson.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

// NewValidator returns a validator with the objectID rule registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("objectID", ObjectIDValidator)
	return v
}
