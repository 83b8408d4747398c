package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

// Roster три списка экрана контактов: предложения, входящие заявки и связи
type Roster struct {
	api *API

	mu          sync.RWMutex
	suggestions []model.Suggestion
	pending     []model.PendingRequest
	connections []model.ConnectionView
}

func NewRoster(api *API) *Roster {
	return &Roster{api: api}
}

// Load перезагружает все три списка
func (r *Roster) Load(ctx context.Context) error {
	suggestions, err := r.api.Suggestions(ctx)
	if err != nil {
		return fmt.Errorf("load suggestions: %w", err)
	}
	pending, err := r.api.Pending(ctx)
	if err != nil {
		return fmt.Errorf("load pending: %w", err)
	}
	connections, err := r.api.Connections(ctx)
	if err != nil {
		return fmt.Errorf("load connections: %w", err)
	}

	r.mu.Lock()
	r.suggestions = suggestions
	r.pending = pending
	r.connections = connections
	r.mu.Unlock()
	return nil
}

// Follow сразу помечает пользователя как requested, затем применяет ответ сервера.
// Conflict означает, что заявка или связь уже есть, и списки перечитываются.
// При остальных ошибках статус откатывается в not_followed.
func (r *Roster) Follow(ctx context.Context, userID int64) (*model.FollowResult, error) {
	r.setStatus(userID, model.SuggestionRequested, nil)

	res, err := r.api.Follow(ctx, userID)
	if errors.Is(err, errs.ErrConflict) {
		// заявка уже на сервере, например первый запрос дошёл, а ответ потерялся при повторе
		res, err = r.resolveConflict(ctx, userID, err)
	}
	if err != nil {
		r.setStatus(userID, model.SuggestionNotFollowed, nil)
		return nil, err
	}

	if res.Status == model.SuggestionConnected {
		r.mu.Lock()
		r.removeSuggestion(userID)
		r.removePendingFrom(userID)
		r.mu.Unlock()

		connections, err := r.api.Connections(ctx)
		if err != nil {
			return res, fmt.Errorf("refresh connections: %w", err)
		}
		r.mu.Lock()
		r.connections = connections
		r.mu.Unlock()
		return res, nil
	}

	var requestID *int64
	if res.Request != nil {
		id := res.Request.ID
		requestID = &id
	}
	r.setStatus(userID, res.Status, requestID)
	return res, nil
}

// resolveConflict перечитывает списки и строит результат по состоянию сервера.
// Если на сервере нет ни заявки, ни связи, возвращается исходная ошибка.
func (r *Roster) resolveConflict(ctx context.Context, userID int64, conflict error) (*model.FollowResult, error) {
	if err := r.Load(ctx); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.connections {
		if c.Partner.ID == userID {
			return &model.FollowResult{Status: model.SuggestionConnected}, nil
		}
	}
	for _, sg := range r.suggestions {
		if sg.User.ID == userID && sg.Status == model.SuggestionRequested && sg.RequestID != nil {
			return &model.FollowResult{
				Status: model.SuggestionRequested,
				Request: &model.FollowRequest{
					ID:         *sg.RequestID,
					FromUserID: r.api.Session().UserID,
					ToUserID:   userID,
					Status:     model.RequestStatusPending,
				},
			}, nil
		}
	}
	return nil, conflict
}

// Accept принимает заявку и перечитывает все списки
func (r *Roster) Accept(ctx context.Context, requestID int64) error {
	if _, err := r.api.Accept(ctx, requestID); err != nil {
		return err
	}
	return r.Load(ctx)
}

func (r *Roster) Suggestions() []model.Suggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Suggestion(nil), r.suggestions...)
}

func (r *Roster) Pending() []model.PendingRequest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.PendingRequest(nil), r.pending...)
}

func (r *Roster) Connections() []model.ConnectionView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.ConnectionView(nil), r.connections...)
}

// Status статус пользователя в предложениях; пусто если его там нет
func (r *Roster) Status(userID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.suggestions {
		if s.User.ID == userID {
			return s.Status
		}
	}
	return ""
}

func (r *Roster) setStatus(userID int64, status string, requestID *int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.suggestions {
		if r.suggestions[i].User.ID == userID {
			r.suggestions[i].Status = status
			r.suggestions[i].RequestID = requestID
			return
		}
	}
}

func (r *Roster) removeSuggestion(userID int64) {
	out := r.suggestions[:0]
	for _, s := range r.suggestions {
		if s.User.ID != userID {
			out = append(out, s)
		}
	}
	r.suggestions = out
}

func (r *Roster) removePendingFrom(userID int64) {
	out := r.pending[:0]
	for _, p := range r.pending {
		if p.From.ID != userID {
			out = append(out, p)
		}
	}
	r.pending = out
}
