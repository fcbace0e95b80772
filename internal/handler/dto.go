package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"tweetline/internal/apperror"
)

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Avatar   string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// OptionalString tells an absent field from an explicit null.
type OptionalString struct {
	Set   bool
	Null  bool
	Value string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

type UpdateProfileRequest struct {
	Name     *string        `json:"name"`
	Email    *string        `json:"email" validate:"omitempty,email"`
	Location *string        `json:"location"`
	DOB      *string        `json:"dob"`
	Avatar   OptionalString `json:"avatar"`
}

type TweetRequest struct {
	Content string `json:"content" validate:"required"`
	Image   string `json:"image"`
}

type UpdateTweetRequest struct {
	Content string `json:"content" validate:"required"`
}

type CommentRequest struct {
	Comment string `json:"comment" validate:"required"`
}

type ReplyRequest struct {
	CommentID string `json:"commentId" validate:"required"`
	Reply     string `json:"reply" validate:"required"`
}

type DeleteCommentRequest struct {
	CommentID string `json:"commentId"`
}

// bodyLimit leaves room for a base64 image of the largest allowed size.
func (h *Handlers) bodyLimit() int64 {
	return h.Cfg.MaxUploadSize*4/3 + 64*1024
}

// decode reads a JSON body into dst and validates it. An empty body is accepted
// only when optional is set.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.bodyLimit())

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF) && optional:
			return nil
		case errors.As(err, &tooLarge):
			return apperror.New(apperror.InvalidArgument, "Request body exceeds %s", humanize.IBytes(uint64(tooLarge.Limit)))
		default:
			return apperror.New(apperror.InvalidArgument, "Invalid request format")
		}
	}

	if err := h.Validate.Struct(dst); err != nil {
		return apperror.Wrap(apperror.InvalidArgument, err, "%s", validationMessage(err))
	}
	return nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func parseDate(value string) (*time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.New(apperror.InvalidArgument, "dob must be a date (YYYY-MM-DD)")
}
