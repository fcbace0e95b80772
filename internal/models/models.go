package models

import (
	"time"
)

// Media references an object held by the media store.
type Media struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type User struct {
	UserID               string     `json:"id"`
	Name                 string     `json:"name"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	PasswordHash         string     `json:"-"`
	Avatar               *Media     `json:"avatar,omitempty"`
	Tweets               []string   `json:"tweets"`
	Followers            []string   `json:"followers"`
	Followings           []string   `json:"followings"`
	Location             string     `json:"location,omitempty"`
	DOB                  *time.Time `json:"dob,omitempty"`
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	DeletedAt            *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Summary is the shape other users are rendered with.
func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:   u.UserID,
		Name:     u.Name,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}

type UserSummary struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   *Media `json:"avatar,omitempty"`
}

type Tweet struct {
	TweetID     string    `json:"id"`
	Content     string    `json:"content"`
	OwnerID     string    `json:"tweetedBy"`
	Likes       []string  `json:"likes"`
	RetweetedBy []string  `json:"retweetedBy"`
	Image       *Media    `json:"image,omitempty"`
	Comments    []Comment `json:"comments"`
	Replies     []Reply   `json:"replies"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Comment returns the comment with the given id, or nil.
func (t *Tweet) Comment(commentID string) *Comment {
	for i := range t.Comments {
		if t.Comments[i].CommentID == commentID {
			return &t.Comments[i]
		}
	}
	return nil
}

// CommentBy returns the comment written by authorID, or nil.
func (t *Tweet) CommentBy(authorID string) *Comment {
	for i := range t.Comments {
		if t.Comments[i].AuthorID == authorID {
			return &t.Comments[i]
		}
	}
	return nil
}

type Comment struct {
	CommentID string    `json:"id"`
	AuthorID  string    `json:"user"`
	Text      string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type Reply struct {
	ReplyID   string    `json:"id"`
	AuthorID  string    `json:"user"`
	Text      string    `json:"reply"`
	CreatedAt time.Time `json:"createdAt"`
}

// TweetView is a tweet with every user reference resolved. References to users that
// no longer exist resolve to nil.
type TweetView struct {
	TweetID     string        `json:"id"`
	Content     string        `json:"content"`
	Owner       *UserSummary  `json:"tweetedBy"`
	Likes       []UserSummary `json:"likes"`
	RetweetedBy []string      `json:"retweetedBy"`
	Image       *Media        `json:"image,omitempty"`
	Comments    []CommentView `json:"comments"`
	Replies     []ReplyView   `json:"replies"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type CommentView struct {
	CommentID string       `json:"id"`
	Author    *UserSummary `json:"user"`
	Text      string       `json:"comment"`
}

type ReplyView struct {
	ReplyID string       `json:"id"`
	Author  *UserSummary `json:"user"`
	Text    string       `json:"reply"`
}

type Profile struct {
	*User
	Tweets     []*TweetView  `json:"tweets"`
	Followers  []UserSummary `json:"followers"`
	Followings []UserSummary `json:"followings"`
}
