package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *Handlers) CreateTweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req TweetRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	image, err := h.optionalImage(req.Image)
	if err != nil {
		h.fail(w, err)
		return
	}

	tweet, err := h.ContentService.CreateTweet(r.Context(), userID, req.Content, image)
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "", tweet, http.StatusOK)
}

func (h *Handlers) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	liked, err := h.ContentService.ToggleLike(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}

	message := "Tweet unliked"
	if liked {
		message = "Tweet liked"
	}
	WriteSuccess(w, message, nil, http.StatusOK)
}

func (h *Handlers) DeleteTweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.ContentService.DeleteTweet(r.Context(), userID, mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "Tweet deleted", nil, http.StatusOK)
}

func (h *Handlers) UpdateTweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req UpdateTweetRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	tweet, err := h.ContentService.UpdateTweet(r.Context(), userID, mux.Vars(r)["id"], req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "Tweet updated", tweet, http.StatusOK)
}

func (h *Handlers) Retweet(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}

	tweet, err := h.ContentService.Retweet(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "", tweet, http.StatusOK)
}

func (h *Handlers) UpsertComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	comment, added, err := h.ContentService.UpsertComment(r.Context(), userID, mux.Vars(r)["id"], req.Comment)
	if err != nil {
		h.fail(w, err)
		return
	}

	message := "Comment updated"
	if added {
		message = "Comment added"
	}
	WriteSuccess(w, message, comment, http.StatusOK)
}

func (h *Handlers) AddReply(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req ReplyRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	reply, err := h.ContentService.AddReply(r.Context(), userID, mux.Vars(r)["id"], req.CommentID, req.Reply)
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "Reply added to the comment", reply, http.StatusOK)
}

func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}

	comments, err := h.ContentService.ListComments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "", comments, http.StatusOK)
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req DeleteCommentRequest
	if err := h.decode(w, r, &req, true); err != nil {
		h.fail(w, err)
		return
	}

	byOwner, err := h.ContentService.DeleteComment(r.Context(), userID, mux.Vars(r)["id"], req.CommentID)
	if err != nil {
		h.fail(w, err)
		return
	}

	message := "Your comment has been deleted"
	if byOwner {
		message = "Comment deleted"
	}
	WriteSuccess(w, message, nil, http.StatusOK)
}
