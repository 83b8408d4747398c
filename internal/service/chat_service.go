package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/metrics"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

type SendInput struct {
	ReceiverID  int64  `json:"receiver_id" validate:"required,gt=0"`
	Text        string `json:"text" validate:"required,max=4000"`
	ClientMsgID string `json:"client_msg_id" validate:"max=64"`
}

type ChatService struct {
	messageRepo    MessageStore
	connectionRepo ConnectionStore
	publisher      Publisher
	limiter        *SendLimiter
	logger         *zap.Logger
}

func NewChatService(
	messageRepo MessageStore,
	connectionRepo ConnectionStore,
	publisher Publisher,
	limiter *SendLimiter,
	logger *zap.Logger,
) *ChatService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ChatService{
		messageRepo:    messageRepo,
		connectionRepo: connectionRepo,
		publisher:      publisher,
		limiter:        limiter,
		logger:         logger,
	}
}

// Send сохраняет сообщение и доставляет его обоим участникам.
// Повтор с тем же client_msg_id возвращает уже сохранённое сообщение без повторной доставки.
func (s *ChatService) Send(ctx context.Context, senderID int64, in SendInput) (*model.Message, error) {
	in.Text = strings.TrimSpace(in.Text)
	in.ClientMsgID = strings.TrimSpace(in.ClientMsgID)

	if err := validateStruct(in); err != nil {
		metrics.MessagesSent.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if in.ReceiverID == senderID {
		metrics.MessagesSent.WithLabelValues("rejected").Inc()
		return nil, errs.New(errs.KindValidation, "cannot message yourself")
	}

	// повтор уже сохранённой отправки не расходует лимит
	if in.ClientMsgID != "" {
		existing, err := s.messageRepo.GetByClientID(ctx, senderID, in.ClientMsgID)
		if err != nil {
			return nil, fmt.Errorf("get message by client id: %w", err)
		}
		if existing != nil {
			s.logDuplicate(senderID, existing)
			return existing, nil
		}
	}

	if !s.limiter.Allow(senderID) {
		metrics.MessagesSent.WithLabelValues("rejected").Inc()
		return nil, errs.New(errs.KindRateLimited, "too many messages, slow down")
	}

	connected, err := s.connectionRepo.Exists(ctx, senderID, in.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("check connection: %w", err)
	}
	if !connected {
		metrics.MessagesSent.WithLabelValues("rejected").Inc()
		return nil, errs.New(errs.KindForbidden, "you can only message your connections")
	}

	if in.ClientMsgID == "" {
		in.ClientMsgID = uuid.NewString()
	}

	msg := &model.Message{
		SenderID:    senderID,
		ReceiverID:  in.ReceiverID,
		ClientMsgID: in.ClientMsgID,
		Text:        in.Text,
	}

	created, err := s.messageRepo.Append(ctx, msg)
	if err != nil {
		return nil, err
	}

	if !created {
		s.logDuplicate(senderID, msg)
		return msg, nil
	}

	metrics.MessagesSent.WithLabelValues("stored").Inc()
	s.logger.Debug("Message stored",
		zap.Int64("message_id", msg.ID),
		zap.Int64("conversation_id", msg.ConversationID),
		zap.Int64("seq", msg.Seq),
	)

	for _, userID := range []int64{msg.ReceiverID, msg.SenderID} {
		if err := s.publisher.Publish(ctx, userID, model.EventReceiveMessage, msg); err != nil {
			s.logger.Warn("Publish message failed",
				zap.Int64("user_id", userID),
				zap.Int64("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return msg, nil
}

func (s *ChatService) logDuplicate(senderID int64, msg *model.Message) {
	s.logger.Debug("Duplicate send",
		zap.Int64("sender_id", senderID),
		zap.String("client_msg_id", msg.ClientMsgID),
		zap.Int64("message_id", msg.ID),
	)
	metrics.MessagesSent.WithLabelValues("duplicate").Inc()
}

// History получает историю переписки с partnerID после afterSeq
func (s *ChatService) History(ctx context.Context, userID, partnerID, afterSeq int64, limit int) ([]*model.Message, error) {
	if afterSeq < 0 {
		return nil, errs.New(errs.KindValidation, "after_seq must be at least 0")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	connected, err := s.connectionRepo.Exists(ctx, userID, partnerID)
	if err != nil {
		return nil, fmt.Errorf("check connection: %w", err)
	}
	if !connected {
		return nil, errs.New(errs.KindForbidden, "you can only read chats with your connections")
	}

	return s.messageRepo.ListBetween(ctx, userID, partnerID, afterSeq, limit)
}
