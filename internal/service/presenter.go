package service

import (
	"context"

	"tweetline/internal/models"
	"tweetline/internal/repository"
)

// presenter resolves the user ids inside tweets to summaries with one batch lookup.
type presenter struct {
	users repository.UserRepository
}

func (p presenter) lookup(ctx context.Context, ids []string) (map[string]*models.UserSummary, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	summaries, err := p.users.GetSummaries(ctx, unique)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.UserSummary, len(summaries))
	for i := range summaries {
		byID[summaries[i].UserID] = &summaries[i]
	}
	return byID, nil
}

func (p presenter) summaries(ctx context.Context, ids []string) ([]models.UserSummary, error) {
	byID, err := p.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (p presenter) tweets(ctx context.Context, tweets []*models.Tweet) ([]*models.TweetView, error) {
	var ids []string
	for _, t := range tweets {
		ids = append(ids, t.OwnerID)
		ids = append(ids, t.Likes...)
		for _, c := range t.Comments {
			ids = append(ids, c.AuthorID)
		}
		for _, r := range t.Replies {
			ids = append(ids, r.AuthorID)
		}
	}

	byID, err := p.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*models.TweetView, 0, len(tweets))
	for _, t := range tweets {
		views = append(views, present(t, byID))
	}
	return views, nil
}

func (p presenter) tweet(ctx context.Context, tweet *models.Tweet) (*models.TweetView, error) {
	views, err := p.tweets(ctx, []*models.Tweet{tweet})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (p presenter) comments(ctx context.Context, comments []models.Comment) ([]models.CommentView, error) {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
	}

	byID, err := p.lookup(ctx, ids)
	if err != nil {
		return nil, err
	}
	return commentViews(comments, byID), nil
}

func commentViews(comments []models.Comment, byID map[string]*models.UserSummary) []models.CommentView {
	views := make([]models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, models.CommentView{CommentID: c.CommentID, Author: byID[c.AuthorID], Text: c.Text})
	}
	return views
}

func present(t *models.Tweet, byID map[string]*models.UserSummary) *models.TweetView {
	view := &models.TweetView{
		TweetID:     t.TweetID,
		Content:     t.Content,
		Owner:       byID[t.OwnerID],
		Likes:       make([]models.UserSummary, 0, len(t.Likes)),
		RetweetedBy: t.RetweetedBy,
		Image:       t.Image,
		Comments:    commentViews(t.Comments, byID),
		Replies:     make([]models.ReplyView, 0, len(t.Replies)),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	for _, id := range t.Likes {
		if s, ok := byID[id]; ok {
			view.Likes = append(view.Likes, *s)
		}
	}
	for _, r := range t.Replies {
		view.Replies = append(view.Replies, models.ReplyView{ReplyID: r.ReplyID, Author: byID[r.AuthorID], Text: r.Text})
	}
	return view
}
