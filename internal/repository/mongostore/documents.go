package mongostore

import (
	"time"

	"tweetline/internal/models"
)

type mediaDoc struct {
	PublicID string `bson:"public_id"`
	URL      string `bson:"url"`
}

type userDoc struct {
	ID                   string     `bson:"_id"`
	Name                 string     `bson:"name"`
	Username             string     `bson:"username"`
	Email                string     `bson:"email"`
	PasswordHash         string     `bson:"password_hash"`
	Avatar               *mediaDoc  `bson:"avatar,omitempty"`
	Tweets               []string   `bson:"tweets"`
	Followers            []string   `bson:"followers"`
	Followings           []string   `bson:"followings"`
	Location             string     `bson:"location"`
	DOB                  *time.Time `bson:"dob,omitempty"`
	ResetPasswordToken   string     `bson:"reset_password_token,omitempty"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty"`
	DeletedAt            *time.Time `bson:"deleted_at,omitempty"`
	CreatedAt            time.Time  `bson:"created_at"`
	UpdatedAt            time.Time  `bson:"updated_at"`
}

type commentDoc struct {
	ID        string    `bson:"comment_id"`
	AuthorID  string    `bson:"author_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

type replyDoc struct {
	ID        string    `bson:"reply_id"`
	AuthorID  string    `bson:"author_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

type tweetDoc struct {
	ID          string       `bson:"_id"`
	OwnerID     string       `bson:"owner_id"`
	Content     string       `bson:"content"`
	Likes       []string     `bson:"likes"`
	RetweetedBy []string     `bson:"retweeted_by"`
	Image       *mediaDoc    `bson:"image,omitempty"`
	Comments    []commentDoc `bson:"comments"`
	Replies     []replyDoc   `bson:"replies"`
	CreatedAt   time.Time    `bson:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at"`
}

func toMediaDoc(m *models.Media) *mediaDoc {
	if m == nil {
		return nil
	}
	return &mediaDoc{PublicID: m.PublicID, URL: m.URL}
}

func (d *mediaDoc) toModel() *models.Media {
	if d == nil || d.PublicID == "" {
		return nil
	}
	return &models.Media{PublicID: d.PublicID, URL: d.URL}
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func toUserDoc(u *models.User) *userDoc {
	return &userDoc{
		ID:                   u.UserID,
		Name:                 u.Name,
		Username:             u.Username,
		Email:                u.Email,
		PasswordHash:         u.PasswordHash,
		Avatar:               toMediaDoc(u.Avatar),
		Tweets:               []string{},
		Followers:            []string{},
		Followings:           []string{},
		Location:             u.Location,
		DOB:                  u.DOB,
		ResetPasswordToken:   u.ResetPasswordToken,
		ResetPasswordExpires: u.ResetPasswordExpires,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		UserID:               d.ID,
		Name:                 d.Name,
		Username:             d.Username,
		Email:                d.Email,
		PasswordHash:         d.PasswordHash,
		Avatar:               d.Avatar.toModel(),
		Tweets:               orEmpty(d.Tweets),
		Followers:            orEmpty(d.Followers),
		Followings:           orEmpty(d.Followings),
		Location:             d.Location,
		DOB:                  d.DOB,
		ResetPasswordToken:   d.ResetPasswordToken,
		ResetPasswordExpires: d.ResetPasswordExpires,
		DeletedAt:            d.DeletedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
}

func (d *userDoc) summary() models.UserSummary {
	return models.UserSummary{
		UserID:   d.ID,
		Name:     d.Name,
		Username: d.Username,
		Avatar:   d.Avatar.toModel(),
	}
}

func toTweetDoc(t *models.Tweet) *tweetDoc {
	return &tweetDoc{
		ID:          t.TweetID,
		OwnerID:     t.OwnerID,
		Content:     t.Content,
		Likes:       []string{},
		RetweetedBy: []string{},
		Image:       toMediaDoc(t.Image),
		Comments:    []commentDoc{},
		Replies:     []replyDoc{},
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d *tweetDoc) toModel() *models.Tweet {
	tweet := &models.Tweet{
		TweetID:     d.ID,
		Content:     d.Content,
		OwnerID:     d.OwnerID,
		Likes:       orEmpty(d.Likes),
		RetweetedBy: orEmpty(d.RetweetedBy),
		Image:       d.Image.toModel(),
		Comments:    make([]models.Comment, 0, len(d.Comments)),
		Replies:     make([]models.Reply, 0, len(d.Replies)),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	for _, c := range d.Comments {
		tweet.Comments = append(tweet.Comments, c.toModel())
	}
	for _, r := range d.Replies {
		tweet.Replies = append(tweet.Replies, models.Reply{
			ReplyID:   r.ID,
			AuthorID:  r.AuthorID,
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
		})
	}
	return tweet
}

func (c commentDoc) toModel() models.Comment {
	return models.Comment{
		CommentID: c.ID,
		AuthorID:  c.AuthorID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt,
	}
}
