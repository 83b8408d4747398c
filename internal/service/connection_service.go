package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/metrics"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

type ConnectionService struct {
	userRepo       UserStore
	requestRepo    FollowRequestStore
	connectionRepo ConnectionStore
	publisher      Publisher
	presence       Presence
	notifier       Notifier
	logger         *zap.Logger

	suggestionsLimit int
	requestTTL       time.Duration
	now              func() time.Time
}

type ConnectionOptions struct {
	Publisher        Publisher
	Presence         Presence
	Notifier         Notifier
	SuggestionsLimit int
	RequestTTL       time.Duration
}

func NewConnectionService(
	userRepo UserStore,
	requestRepo FollowRequestStore,
	connectionRepo ConnectionStore,
	opts ConnectionOptions,
	logger *zap.Logger,
) *ConnectionService {
	s := &ConnectionService{
		userRepo:         userRepo,
		requestRepo:      requestRepo,
		connectionRepo:   connectionRepo,
		publisher:        opts.Publisher,
		presence:         opts.Presence,
		notifier:         opts.Notifier,
		logger:           logger,
		suggestionsLimit: opts.SuggestionsLimit,
		requestTTL:       opts.RequestTTL,
		now:              time.Now,
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	if s.presence == nil {
		s.presence = nopPresence{}
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.suggestionsLimit <= 0 {
		s.suggestionsLimit = 50
	}
	if s.requestTTL <= 0 {
		s.requestTTL = 7 * 24 * time.Hour
	}
	return s
}

// ============ Списки ============

// Suggestions получает пользователей, на которых можно подписаться.
// Исключаются: сам пользователь, связи и те, кто уже прислал входящую заявку.
func (s *ConnectionService) Suggestions(ctx context.Context, userID int64) ([]model.Suggestion, error) {
	conns, err := s.connectionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get connections: %w", err)
	}
	incoming, err := s.requestRepo.ListPendingTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get incoming requests: %w", err)
	}
	outgoing, err := s.requestRepo.ListPendingFrom(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get outgoing requests: %w", err)
	}

	exclude := []int64{userID}
	for _, c := range conns {
		exclude = append(exclude, c.Partner(userID))
	}
	for _, r := range incoming {
		exclude = append(exclude, r.FromUserID)
	}

	requested := make(map[int64]int64, len(outgoing))
	for _, r := range outgoing {
		requested[r.ToUserID] = r.ID
	}

	users, err := s.userRepo.ListExcept(ctx, exclude, s.suggestionsLimit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	suggestions := make([]model.Suggestion, 0, len(users))
	for _, u := range users {
		sg := model.Suggestion{User: u.ViewFor(userID), Status: model.SuggestionNotFollowed}
		if reqID, ok := requested[u.ID]; ok {
			id := reqID
			sg.Status = model.SuggestionRequested
			sg.RequestID = &id
		}
		suggestions = append(suggestions, sg)
	}

	return suggestions, nil
}

// Pending получает входящие заявки
func (s *ConnectionService) Pending(ctx context.Context, userID int64) ([]model.PendingRequest, error) {
	requests, err := s.requestRepo.ListPendingTo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get incoming requests: %w", err)
	}

	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.FromUserID)
	}
	people, err := views(ctx, s.userRepo, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.PendingRequest, 0, len(requests))
	for _, r := range requests {
		from, ok := people[r.FromUserID]
		if !ok {
			continue
		}
		out = append(out, model.PendingRequest{Request: r, From: from})
	}
	return out, nil
}

// Outgoing получает исходящие заявки
func (s *ConnectionService) Outgoing(ctx context.Context, userID int64) ([]model.OutgoingRequest, error) {
	requests, err := s.requestRepo.ListPendingFrom(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get outgoing requests: %w", err)
	}

	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.ToUserID)
	}
	people, err := views(ctx, s.userRepo, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.OutgoingRequest, 0, len(requests))
	for _, r := range requests {
		to, ok := people[r.ToUserID]
		if !ok {
			continue
		}
		out = append(out, model.OutgoingRequest{Request: r, To: to})
	}
	return out, nil
}

// Connections получает связи пользователя с флагом онлайн
func (s *ConnectionService) Connections(ctx context.Context, userID int64) ([]model.ConnectionView, error) {
	conns, err := s.connectionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get connections: %w", err)
	}

	ids := make([]int64, 0, len(conns))
	for _, c := range conns {
		ids = append(ids, c.Partner(userID))
	}
	people, err := views(ctx, s.userRepo, userID, ids)
	if err != nil {
		return nil, err
	}

	online, err := s.presence.OnlineUsers(ctx, ids)
	if err != nil {
		// без присутствия список всё равно полезен
		s.logger.Warn("Presence lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		online = map[int64]bool{}
	}

	out := make([]model.ConnectionView, 0, len(conns))
	for _, c := range conns {
		partnerID := c.Partner(userID)
		partner, ok := people[partnerID]
		if !ok {
			continue
		}
		out = append(out, model.ConnectionView{
			Partner:     partner,
			Online:      online[partnerID],
			ConnectedAt: c.CreatedAt,
		})
	}
	return out, nil
}

// IsConnected проверяет связь между пользователями
func (s *ConnectionService) IsConnected(ctx context.Context, a, b int64) (bool, error) {
	ok, err := s.connectionRepo.Exists(ctx, a, b)
	if err != nil {
		return false, fmt.Errorf("check connection: %w", err)
	}
	return ok, nil
}

// ============ Команды ============

// Follow отправляет заявку. Встречная pending заявка принимается сразу.
func (s *ConnectionService) Follow(ctx context.Context, fromID, toID int64) (*model.FollowResult, error) {
	if fromID == toID {
		return nil, errs.New(errs.KindValidation, "cannot follow yourself")
	}

	target, err := s.userRepo.GetByID(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	if target == nil {
		return nil, errs.New(errs.KindNotFound, "user not found")
	}

	connected, err := s.IsConnected(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if connected {
		return nil, errs.New(errs.KindConflict, "already connected")
	}

	req := &model.FollowRequest{
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     model.RequestStatusPending,
	}
	reverse, conn, err := s.requestRepo.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	if reverse != nil {
		s.logger.Info("Follow request accepted",
			zap.Int64("request_id", reverse.ID),
			zap.Int64("from_user_id", reverse.FromUserID),
			zap.Int64("to_user_id", reverse.ToUserID),
		)
		s.announceConnection(ctx, reverse, conn)
		metrics.FollowRequests.WithLabelValues(model.SuggestionConnected).Inc()
		return &model.FollowResult{Status: model.SuggestionConnected, Request: reverse, Connection: conn}, nil
	}

	s.logger.Info("Follow request created",
		zap.Int64("request_id", req.ID),
		zap.Int64("from_user_id", fromID),
		zap.Int64("to_user_id", toID),
	)
	metrics.FollowRequests.WithLabelValues(model.SuggestionRequested).Inc()

	s.announceRequest(ctx, req, target)

	return &model.FollowResult{Status: model.SuggestionRequested, Request: req}, nil
}

// Accept принимает входящую заявку; действовать может только получатель
func (s *ConnectionService) Accept(ctx context.Context, userID, requestID int64) (*model.Connection, error) {
	req, err := s.requestFor(ctx, requestID, userID, false)
	if err != nil {
		return nil, err
	}

	conn, err := s.accept(ctx, req)
	if err != nil {
		return nil, err
	}
	metrics.FollowRequests.WithLabelValues(model.RequestStatusAccepted).Inc()
	return conn, nil
}

// Reject отклоняет входящую заявку
func (s *ConnectionService) Reject(ctx context.Context, userID, requestID int64) error {
	req, err := s.requestFor(ctx, requestID, userID, false)
	if err != nil {
		return err
	}

	if err := s.requestRepo.UpdateStatus(ctx, req.ID, model.RequestStatusPending, model.RequestStatusRejected); err != nil {
		return err
	}

	s.logger.Info("Follow request rejected",
		zap.Int64("request_id", req.ID),
		zap.Int64("user_id", userID),
	)
	metrics.FollowRequests.WithLabelValues(model.RequestStatusRejected).Inc()
	return nil
}

// Cancel отзывает исходящую заявку; действовать может только отправитель
func (s *ConnectionService) Cancel(ctx context.Context, userID, requestID int64) error {
	req, err := s.requestFor(ctx, requestID, userID, true)
	if err != nil {
		return err
	}

	if err := s.requestRepo.UpdateStatus(ctx, req.ID, model.RequestStatusPending, model.RequestStatusCancelled); err != nil {
		return err
	}

	s.logger.Info("Follow request cancelled",
		zap.Int64("request_id", req.ID),
		zap.Int64("user_id", userID),
	)
	metrics.FollowRequests.WithLabelValues(model.RequestStatusCancelled).Inc()
	return nil
}

// Unfollow удаляет связь
func (s *ConnectionService) Unfollow(ctx context.Context, userID, partnerID int64) error {
	if userID == partnerID {
		return errs.New(errs.KindValidation, "cannot unfollow yourself")
	}
	if err := s.connectionRepo.Delete(ctx, userID, partnerID); err != nil {
		return err
	}

	s.logger.Info("Connection removed",
		zap.Int64("user_id", userID),
		zap.Int64("partner_id", partnerID),
	)
	return nil
}

// ExpireStale переводит старые pending заявки в expired
func (s *ConnectionService) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.requestTTL)
	n, err := s.requestRepo.ExpireBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.FollowRequests.WithLabelValues(model.RequestStatusExpired).Add(float64(n))
	}
	return n, nil
}

// ============ Внутреннее ============

// requestFor загружает pending заявку и проверяет, что userID её участник нужной стороны
func (s *ConnectionService) requestFor(ctx context.Context, requestID, userID int64, asSender bool) (*model.FollowRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, errs.New(errs.KindNotFound, "request not found")
	}

	owner := req.ToUserID
	if asSender {
		owner = req.FromUserID
	}
	if owner != userID {
		return nil, errs.New(errs.KindForbidden, "not your request")
	}

	if !req.IsPending() {
		return nil, errs.Newf(errs.KindConflict, "request is %s", req.Status)
	}
	return req, nil
}

func (s *ConnectionService) accept(ctx context.Context, req *model.FollowRequest) (*model.Connection, error) {
	conn, err := s.requestRepo.Accept(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Follow request accepted",
		zap.Int64("request_id", req.ID),
		zap.Int64("from_user_id", req.FromUserID),
		zap.Int64("to_user_id", req.ToUserID),
	)

	s.announceConnection(ctx, req, conn)
	return conn, nil
}

// announceRequest уведомляет получателя о новой заявке
func (s *ConnectionService) announceRequest(ctx context.Context, req *model.FollowRequest, target *model.User) {
	from, err := s.userRepo.GetByID(ctx, req.FromUserID)
	if err != nil || from == nil {
		s.logger.Warn("Skip follow_request event", zap.Int64("request_id", req.ID), zap.Error(err))
		return
	}

	event := model.PendingRequest{Request: req, From: from.ViewFor(target.ID)}
	if err := s.publisher.Publish(ctx, target.ID, model.EventFollowRequest, event); err != nil {
		s.logger.Warn("Publish follow_request failed", zap.Int64("to_user_id", target.ID), zap.Error(err))
	}

	text := fmt.Sprintf("%s wants to connect with you", from.PublicName())
	if err := s.notifier.Notify(ctx, target, text); err != nil {
		s.logger.Warn("Notify follow request failed", zap.Int64("to_user_id", target.ID), zap.Error(err))
	}
}

// announceConnection сообщает обеим сторонам о новой связи
func (s *ConnectionService) announceConnection(ctx context.Context, req *model.FollowRequest, conn *model.Connection) {
	people, err := s.userRepo.GetByIDs(ctx, []int64{req.FromUserID, req.ToUserID})
	if err != nil {
		s.logger.Warn("Skip connection_accepted event", zap.Int64("request_id", req.ID), zap.Error(err))
		return
	}
	byID := make(map[int64]*model.User, len(people))
	for _, u := range people {
		byID[u.ID] = u
	}

	for _, side := range []int64{req.FromUserID, req.ToUserID} {
		partner, ok := byID[conn.Partner(side)]
		if !ok {
			continue
		}
		event := model.ConnectionView{Partner: partner.ViewFor(side), ConnectedAt: conn.CreatedAt}
		if err := s.publisher.Publish(ctx, side, model.EventConnectionAccepted, event); err != nil {
			s.logger.Warn("Publish connection_accepted failed", zap.Int64("user_id", side), zap.Error(err))
		}
	}

	if requester, ok := byID[req.FromUserID]; ok {
		if accepter, ok := byID[req.ToUserID]; ok {
			text := fmt.Sprintf("%s accepted your request", accepter.PublicName())
			if err := s.notifier.Notify(ctx, requester, text); err != nil {
				s.logger.Warn("Notify acceptance failed", zap.Int64("user_id", requester.ID), zap.Error(err))
			}
		}
	}
}
