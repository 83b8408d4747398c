package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_hub/internal/errs"
	"github.com/Freeeeeet/wellness_hub/internal/model"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

type PostInput struct {
	Title        string `json:"title" validate:"required,max=200"`
	Body         string `json:"body" validate:"required,max=10000"`
	CreditPoints int    `json:"credit_points" validate:"gte=0,lte=100"`
}

type AnswerInput struct {
	Body string `json:"body" validate:"required,max=10000"`
}

type CommunityService struct {
	postRepo PostStore
	userRepo UserStore
	logger   *zap.Logger
}

func NewCommunityService(postRepo PostStore, userRepo UserStore, logger *zap.Logger) *CommunityService {
	return &CommunityService{
		postRepo: postRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreatePost публикует вопрос
func (s *CommunityService) CreatePost(ctx context.Context, authorID int64, in PostInput) (*model.PostView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID:     authorID,
		Title:        in.Title,
		Body:         in.Body,
		CreditPoints: in.CreditPoints,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("Post created",
		zap.Int64("post_id", post.ID),
		zap.Int64("author_id", authorID),
		zap.Int("credit_points", post.CreditPoints),
	)

	people, err := views(ctx, s.userRepo, authorID, []int64{authorID})
	if err != nil {
		return nil, err
	}
	return &model.PostView{Post: post, Author: people[authorID]}, nil
}

// ListPosts получает ленту, новые первыми
func (s *CommunityService) ListPosts(ctx context.Context, viewerID int64, limit, offset int) ([]model.PostView, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	if offset < 0 {
		return nil, errs.New(errs.KindValidation, "offset must be at least 0")
	}

	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.AuthorID)
	}
	people, err := views(ctx, s.userRepo, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]model.PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, model.PostView{Post: p, Author: people[p.AuthorID]})
	}
	return out, nil
}

// GetPost получает вопрос с ответами: принятый первым
func (s *CommunityService) GetPost(ctx context.Context, viewerID, postID int64) (*model.PostDetails, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	answers, err := s.postRepo.ListAnswers(ctx, postID)
	if err != nil {
		return nil, err
	}

	ids := []int64{post.AuthorID}
	for _, a := range answers {
		ids = append(ids, a.AuthorID)
	}
	people, err := views(ctx, s.userRepo, viewerID, ids)
	if err != nil {
		return nil, err
	}

	details := &model.PostDetails{
		PostView: model.PostView{Post: post, Author: people[post.AuthorID]},
		Answers:  make([]model.AnswerView, 0, len(answers)),
	}
	for _, a := range answers {
		details.Answers = append(details.Answers, model.AnswerView{Answer: a, Author: people[a.AuthorID]})
	}
	return details, nil
}

// Answer добавляет ответ к вопросу
func (s *CommunityService) Answer(ctx context.Context, authorID, postID int64, in AnswerInput) (*model.AnswerView, error) {
	in.Body = strings.TrimSpace(in.Body)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if _, err := s.getPost(ctx, postID); err != nil {
		return nil, err
	}

	answer := &model.Answer{PostID: postID, AuthorID: authorID, Body: in.Body}
	if err := s.postRepo.CreateAnswer(ctx, answer); err != nil {
		return nil, err
	}

	s.logger.Info("Answer created",
		zap.Int64("answer_id", answer.ID),
		zap.Int64("post_id", postID),
		zap.Int64("author_id", authorID),
	)

	people, err := views(ctx, s.userRepo, authorID, []int64{authorID})
	if err != nil {
		return nil, err
	}
	return &model.AnswerView{Answer: answer, Author: people[authorID]}, nil
}

// AcceptAnswer принимает ответ. Принять может только автор вопроса и только чужой ответ.
func (s *CommunityService) AcceptAnswer(ctx context.Context, userID, answerID int64) (*model.Answer, error) {
	answer, err := s.postRepo.GetAnswer(ctx, answerID)
	if err != nil {
		return nil, fmt.Errorf("get answer: %w", err)
	}
	if answer == nil {
		return nil, errs.New(errs.KindNotFound, "answer not found")
	}

	post, err := s.getPost(ctx, answer.PostID)
	if err != nil {
		return nil, err
	}

	if post.AuthorID != userID {
		return nil, errs.New(errs.KindForbidden, "only the post author can accept an answer")
	}
	if answer.AuthorID == userID {
		return nil, errs.New(errs.KindValidation, "you cannot accept your own answer")
	}
	if post.HasAcceptedAnswer() {
		return nil, errs.New(errs.KindConflict, "post already has an accepted answer")
	}

	if err := s.postRepo.AcceptAnswer(ctx, post.ID, answer.ID); err != nil {
		return nil, err
	}

	s.logger.Info("Answer accepted",
		zap.Int64("answer_id", answer.ID),
		zap.Int64("post_id", post.ID),
		zap.Int64("credited_user_id", answer.AuthorID),
		zap.Int("credit_points", post.CreditPoints),
	)

	answer.IsAccepted = true
	return answer, nil
}

func (s *CommunityService) getPost(ctx context.Context, id int64) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, errs.New(errs.KindNotFound, "post not found")
	}
	return post, nil
}
