package server

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// ToggleVoteHandler 切换对队列条目的投票。
// 一人一票：已投则撤，未投则投，返回动作和最新票数。
func (h *APIHandler) ToggleVoteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entryID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return
	}

	result, err := h.votes.Toggle(r.Context(), entryID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	action := "removed"
	if result.Added {
		action = "added"
	}
	writeJSON(w, http.StatusOK, struct {
		Action    string `json:"action"`
		VoteCount int64  `json:"voteCount"`
	}{
		Action:    action,
		VoteCount: result.VoteCount,
	})
}
