package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"tweetline/internal/service"
)

func (h *Handlers) Follow(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	following, err := h.GraphService.Follow(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}

	message := "User Unfollowed"
	if following {
		message = "User Followed"
	}
	WriteSuccess(w, message, nil, http.StatusOK)
}

func (h *Handlers) FollowingsTweets(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	tweets, err := h.UserService.FollowingsFeed(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteSuccess(w, "", tweets, http.StatusOK)
}

func (h *Handlers) MyTweets(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	tweets, err := h.UserService.MyTweets(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteSuccess(w, "", tweets, http.StatusOK)
}

func (h *Handlers) UserTweets(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}

	tweets, err := h.UserService.UserTweets(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteSuccess(w, "", tweets, http.StatusOK)
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := h.decode(w, r, &req, false); err != nil {
		h.fail(w, err)
		return
	}

	update := service.UpdateProfileRequest{
		Name:     req.Name,
		Email:    req.Email,
		Location: req.Location,
	}

	if req.DOB != nil {
		dob, err := parseDate(*req.DOB)
		if err != nil {
			h.fail(w, err)
			return
		}
		update.DOB = dob
	}

	if req.Avatar.Set {
		update.Avatar.Set = true
		if !req.Avatar.Null {
			data, err := decodeImage(req.Avatar.Value, h.Cfg.MaxUploadSize)
			if err != nil {
				h.fail(w, err)
				return
			}
			update.Avatar.Data = data
		}
	}

	user, err := h.UserService.UpdateProfile(r.Context(), userID, update)
	if err != nil {
		h.fail(w, err)
		return
	}

	WriteSuccess(w, "Profile updated successfully", user, http.StatusOK)
}

func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	if err := h.AccountService.DeleteAccount(r.Context(), userID); err != nil {
		h.fail(w, err)
		return
	}

	h.clearCredential(w)
	WriteSuccess(w, "Account deleted successfully", nil, http.StatusOK)
}

func (h *Handlers) MyProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}
	h.profile(w, r, userID)
}

func (h *Handlers) UserProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	h.profile(w, r, mux.Vars(r)["id"])
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := h.UserService.Profile(r.Context(), userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteSuccess(w, "", profile, http.StatusOK)
}

func (h *Handlers) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := principal(w, r)
	if !ok {
		return
	}

	users, err := h.UserService.Search(r.Context(), userID, r.URL.Query().Get("name"))
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteSuccess(w, "", users, http.StatusOK)
}
