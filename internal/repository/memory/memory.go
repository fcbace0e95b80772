// Package memory is an in-process store used by tests and by STORE_DRIVER=memory.
// Every operation takes one mutex, so each call is atomic with respect to the others.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tweetline/internal/apperror"
	"tweetline/internal/models"
	"tweetline/internal/repository"
)

type Store struct {
	mu         sync.Mutex
	users      map[string]*models.User
	followers  map[string][]string
	followings map[string][]string
	tweets     map[string]*models.Tweet
}

func New() *Store {
	return &Store{
		users:      make(map[string]*models.User),
		followers:  make(map[string][]string),
		followings: make(map[string][]string),
		tweets:     make(map[string]*models.Tweet),
	}
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		User:    (*userStore)(s),
		Follow:  (*followStore)(s),
		Tweet:   (*tweetStore)(s),
		Comment: (*commentStore)(s),
		Health:  (*healthStore)(s),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.Avatar != nil {
		avatar := *u.Avatar
		c.Avatar = &avatar
	}
	if u.DOB != nil {
		dob := *u.DOB
		c.DOB = &dob
	}
	if u.ResetPasswordExpires != nil {
		exp := *u.ResetPasswordExpires
		c.ResetPasswordExpires = &exp
	}
	if u.DeletedAt != nil {
		deleted := *u.DeletedAt
		c.DeletedAt = &deleted
	}
	c.Tweets = []string{}
	c.Followers = []string{}
	c.Followings = []string{}
	return &c
}

func copyTweet(t *models.Tweet) *models.Tweet {
	c := *t
	if t.Image != nil {
		image := *t.Image
		c.Image = &image
	}
	c.Likes = append([]string{}, t.Likes...)
	c.RetweetedBy = append([]string{}, t.RetweetedBy...)
	c.Comments = append([]models.Comment{}, t.Comments...)
	c.Replies = append([]models.Reply{}, t.Replies...)
	return &c
}

func contextErr(ctx context.Context, what string) error {
	if err := ctx.Err(); err != nil {
		return apperror.FromStore(err, "%s", what)
	}
	return nil
}

// tweetsOf returns ownerID's tweets, oldest first. Caller holds mu.
func (s *Store) tweetsOf(ownerID string) []*models.Tweet {
	var owned []*models.Tweet
	for _, t := range s.tweets {
		if t.OwnerID == ownerID {
			owned = append(owned, t)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].TweetID < owned[j].TweetID
		}
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})
	return owned
}

// view builds the caller-facing copy of a stored user. Caller holds mu.
func (s *Store) view(u *models.User) *models.User {
	c := copyUser(u)
	for _, t := range s.tweetsOf(u.UserID) {
		c.Tweets = append(c.Tweets, t.TweetID)
	}
	c.Followers = append(c.Followers, s.followers[u.UserID]...)
	c.Followings = append(c.Followings, s.followings[u.UserID]...)
	return c
}

// live returns the stored user unless it is missing or marked deleted. Caller holds mu.
func (s *Store) live(userID string) (*models.User, bool) {
	u, ok := s.users[userID]
	if !ok || u.DeletedAt != nil {
		return nil, false
	}
	return u, true
}

type userStore Store

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	if err := contextErr(ctx, "failed to create user"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return apperror.New(apperror.Conflict, "user already exists")
		}
		if u.Username == user.Username {
			return apperror.New(apperror.Conflict, "username already exists")
		}
	}
	if _, ok := s.users[user.UserID]; ok {
		return apperror.New(apperror.Conflict, "user already exists")
	}

	s.users[user.UserID] = copyUser(user)
	return nil
}

func (s *userStore) find(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	return s.findAny(ctx, func(u *models.User) bool { return u.DeletedAt == nil && match(u) })
}

func (s *userStore) findAny(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	if err := contextErr(ctx, "failed to load user"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if match(u) {
			return (*Store)(s).view(u), nil
		}
	}
	return nil, apperror.New(apperror.NotFound, "User not found")
}

func (s *userStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	return s.find(ctx, func(u *models.User) bool { return u.UserID == userID })
}

func (s *userStore) GetIncludingDeleted(ctx context.Context, userID string) (*models.User, error) {
	return s.findAny(ctx, func(u *models.User) bool { return u.UserID == userID })
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(ctx, func(u *models.User) bool { return u.Email == email })
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.find(ctx, func(u *models.User) bool { return u.Username == username })
}

func (s *userStore) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return s.find(ctx, func(u *models.User) bool {
		return tokenHash != "" && u.ResetPasswordToken == tokenHash &&
			u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(now)
	})
}

func (s *userStore) GetSummaries(ctx context.Context, userIDs []string) ([]models.UserSummary, error) {
	if err := contextErr(ctx, "failed to load user summaries"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := []models.UserSummary{}
	for _, id := range userIDs {
		if u, ok := (*Store)(s).live(id); ok {
			summaries = append(summaries, copyUser(u).Summary())
		}
	}
	return summaries, nil
}

func (s *userStore) Search(ctx context.Context, name string, excludeID string) ([]models.UserSummary, error) {
	if err := contextErr(ctx, "failed to search users"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(name)
	summaries := []models.UserSummary{}
	for _, u := range s.users {
		if u.UserID != excludeID && u.DeletedAt == nil && strings.Contains(strings.ToLower(u.Name), needle) {
			summaries = append(summaries, copyUser(u).Summary())
		}
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Name == summaries[j].Name {
			return summaries[i].UserID < summaries[j].UserID
		}
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}

func (s *userStore) UpdateProfile(ctx context.Context, user *models.User) error {
	if err := contextErr(ctx, "failed to update user"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := (*Store)(s).live(user.UserID)
	if !ok {
		return apperror.New(apperror.NotFound, "User not found")
	}
	for _, u := range s.users {
		if u.UserID != user.UserID && u.Email == user.Email {
			return apperror.New(apperror.Conflict, "user already exists")
		}
	}

	updated := copyUser(user)
	updated.Username = stored.Username
	updated.PasswordHash = stored.PasswordHash
	updated.ResetPasswordToken = stored.ResetPasswordToken
	updated.ResetPasswordExpires = stored.ResetPasswordExpires
	updated.CreatedAt = stored.CreatedAt
	s.users[user.UserID] = updated
	return nil
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if err := contextErr(ctx, "failed to update password"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := (*Store)(s).live(userID)
	if !ok {
		return apperror.New(apperror.NotFound, "User not found")
	}
	u.PasswordHash = passwordHash
	u.ResetPasswordToken = ""
	u.ResetPasswordExpires = nil
	u.UpdatedAt = time.Now()
	return nil
}

func (s *userStore) SetResetToken(ctx context.Context, userID, tokenHash string, expires time.Time) error {
	if err := contextErr(ctx, "failed to store reset token"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := (*Store)(s).live(userID)
	if !ok {
		return apperror.New(apperror.NotFound, "User not found")
	}
	u.ResetPasswordToken = tokenHash
	u.ResetPasswordExpires = nil
	if !expires.IsZero() {
		u.ResetPasswordExpires = &expires
	}
	return nil
}

func (s *userStore) MarkDeleted(ctx context.Context, userID string) error {
	if err := contextErr(ctx, "failed to mark user deleted"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := (*Store)(s).live(userID); ok {
		now := time.Now()
		u.DeletedAt = &now
		u.ResetPasswordToken = ""
		u.ResetPasswordExpires = nil
	}
	return nil
}

func (s *userStore) Delete(ctx context.Context, userID string) error {
	if err := contextErr(ctx, "failed to delete user"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	return nil
}

type followStore Store

func (s *followStore) Toggle(ctx context.Context, followerID, followeeID string) (bool, error) {
	if err := contextErr(ctx, "failed to toggle follow"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := (*Store)(s).live(followerID); !ok {
		return false, apperror.New(apperror.NotFound, "User not found")
	}
	if _, ok := (*Store)(s).live(followeeID); !ok {
		return false, apperror.New(apperror.NotFound, "User not found")
	}

	if slices.Contains(s.followings[followerID], followeeID) {
		s.followings[followerID] = remove(s.followings[followerID], followeeID)
		s.followers[followeeID] = remove(s.followers[followeeID], followerID)
		return false, nil
	}

	s.followings[followerID] = append(s.followings[followerID], followeeID)
	s.followers[followeeID] = append(s.followers[followeeID], followerID)
	return true, nil
}

func (s *followStore) Followers(ctx context.Context, userID string) ([]string, error) {
	if err := contextErr(ctx, "failed to load follow edges"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string{}, s.followers[userID]...), nil
}

func (s *followStore) Followings(ctx context.Context, userID string) ([]string, error) {
	if err := contextErr(ctx, "failed to load follow edges"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string{}, s.followings[userID]...), nil
}

func (s *followStore) RemoveUser(ctx context.Context, userID string) error {
	if err := contextErr(ctx, "failed to remove follow edges"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// every list is swept, not only the ones userID's own edges point at
	for id, ids := range s.followers {
		s.followers[id] = remove(ids, userID)
	}
	for id, ids := range s.followings {
		s.followings[id] = remove(ids, userID)
	}
	delete(s.followings, userID)
	delete(s.followers, userID)
	return nil
}

func remove(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}

type tweetStore Store

func (s *tweetStore) Create(ctx context.Context, tweet *models.Tweet) error {
	if err := contextErr(ctx, "failed to create tweet"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := (*Store)(s).live(tweet.OwnerID); !ok {
		return apperror.New(apperror.NotFound, "User not found")
	}
	if _, ok := s.tweets[tweet.TweetID]; ok {
		return apperror.New(apperror.Conflict, "tweet already exists")
	}

	s.tweets[tweet.TweetID] = copyTweet(tweet)
	return nil
}

func (s *tweetStore) GetByID(ctx context.Context, tweetID string) (*models.Tweet, error) {
	if err := contextErr(ctx, "failed to load tweet"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[tweetID]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "Tweet not found")
	}
	return copyTweet(t), nil
}

func (s *tweetStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Tweet, error) {
	return s.ListByOwners(ctx, []string{ownerID})
}

func (s *tweetStore) ListByOwners(ctx context.Context, ownerIDs []string) ([]*models.Tweet, error) {
	if err := contextErr(ctx, "failed to list tweets"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tweets := []*models.Tweet{}
	for _, t := range s.tweets {
		if slices.Contains(ownerIDs, t.OwnerID) {
			tweets = append(tweets, copyTweet(t))
		}
	}
	sort.Slice(tweets, func(i, j int) bool {
		if tweets[i].CreatedAt.Equal(tweets[j].CreatedAt) {
			return tweets[i].TweetID > tweets[j].TweetID
		}
		return tweets[i].CreatedAt.After(tweets[j].CreatedAt)
	})
	return tweets, nil
}

func (s *tweetStore) UpdateContent(ctx context.Context, tweetID, content string) error {
	if err := contextErr(ctx, "failed to update tweet"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[tweetID]
	if !ok {
		return apperror.New(apperror.NotFound, "Tweet not found")
	}
	t.Content = content
	t.UpdatedAt = time.Now()
	return nil
}

func (s *tweetStore) Delete(ctx context.Context, tweetID string) error {
	if err := contextErr(ctx, "failed to delete tweet"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tweets, tweetID)
	return nil
}

func (s *tweetStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	if err := contextErr(ctx, "failed to delete tweets of user"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.tweets {
		if t.OwnerID == ownerID {
			delete(s.tweets, id)
		}
	}
	return nil
}

func (s *tweetStore) ToggleLike(ctx context.Context, tweetID, userID string) (bool, error) {
	if err := contextErr(ctx, "failed to toggle like"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[tweetID]
	if !ok {
		return false, apperror.New(apperror.NotFound, "Tweet not found")
	}

	if slices.Contains(t.Likes, userID) {
		t.Likes = remove(t.Likes, userID)
		return false, nil
	}
	t.Likes = append(t.Likes, userID)
	return true, nil
}

type commentStore Store

func (s *commentStore) Upsert(ctx context.Context, tweetID, authorID, text string) (*models.Comment, bool, error) {
	if err := contextErr(ctx, "failed to save comment"); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[tweetID]
	if !ok {
		return nil, false, apperror.New(apperror.NotFound, "Tweet not found")
	}

	if existing := t.CommentBy(authorID); existing != nil {
		existing.Text = text
		c := *existing
		return &c, false, nil
	}

	c := models.Comment{
		CommentID: uuid.New().String(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	t.Comments = append(t.Comments, c)
	return &c, true, nil
}

func (s *commentStore) deleteFrom(ctx context.Context, tweetID string, match func(models.Comment) bool) (bool, error) {
	if err := contextErr(ctx, "failed to delete comment"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[tweetID]
	if !ok {
		return false, nil
	}
	before := len(t.Comments)
	t.Comments = slices.DeleteFunc(t.Comments, match)
	return len(t.Comments) < before, nil
}

func (s *commentStore) DeleteByID(ctx context.Context, tweetID, commentID string) (bool, error) {
	return s.deleteFrom(ctx, tweetID, func(c models.Comment) bool { return c.CommentID == commentID })
}

func (s *commentStore) DeleteByAuthor(ctx context.Context, tweetID, authorID string) (bool, error) {
	return s.deleteFrom(ctx, tweetID, func(c models.Comment) bool { return c.AuthorID == authorID })
}

func (s *commentStore) DeleteAllByAuthor(ctx context.Context, authorID string) (int64, error) {
	if err := contextErr(ctx, "failed to delete comments of user"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for _, t := range s.tweets {
		before := len(t.Comments)
		t.Comments = slices.DeleteFunc(t.Comments, func(c models.Comment) bool { return c.AuthorID == authorID })
		removed += int64(before - len(t.Comments))
	}
	return removed, nil
}

func (s *commentStore) AddReply(ctx context.Context, tweetID string, reply *models.Reply) error {
	if err := contextErr(ctx, "failed to add reply"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tweets[tweetID]
	if !ok {
		return apperror.New(apperror.NotFound, "Tweet not found")
	}
	if reply.ReplyID == "" {
		reply.ReplyID = uuid.New().String()
	}
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = time.Now()
	}
	t.Replies = append(t.Replies, *reply)
	return nil
}

type healthStore Store

func (s *healthStore) Ping(ctx context.Context) error {
	return contextErr(ctx, "memory store unavailable")
}
