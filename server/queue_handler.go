package server

import (
	"encoding/json"
	"net/http"

	"RockFM/core/queue"
	"RockFM/model"
)

// AddSongRequest 点歌请求
type AddSongRequest struct {
	URL string `json:"url"`
}

// AddSongHandler 点歌。引用串先做格式校验，再解析成目录曲目，
// 最后按队列规则入队/转投票/冷却拒绝。
func (h *APIHandler) AddSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req AddSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "Track reference is required", http.StatusBadRequest)
		return
	}

	current, err := h.rooms.CurrentRoom(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if current == nil {
		http.Error(w, "Not in a room", http.StatusConflict)
		return
	}

	track, err := h.catalog.Resolve(r.Context(), req.URL)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.queue.Submit(r.Context(), current.ID, userID, track)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	switch result.Status {
	case queue.SubmitAccepted:
		writeJSON(w, http.StatusCreated, result)
	case queue.SubmitCooldownRejected:
		writeJSON(w, http.StatusConflict, result)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// QueueHandler 列出当前房间的队列
func (h *APIHandler) QueueHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	current, err := h.rooms.CurrentRoom(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if current == nil {
		http.Error(w, "Not in a room", http.StatusConflict)
		return
	}

	songs, err := h.queue.ListQueued(r.Context(), current.ID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Songs []*model.QueuedSong `json:"songs"`
	}{Songs: songs})
}

// PlayNextHandler 切下一首，仅房主可用。
// 没有可播条目返回 409，提示客户端稍后再试。
func (h *APIHandler) PlayNextHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	current, err := h.rooms.CurrentRoom(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if current == nil {
		http.Error(w, "Not in a room", http.StatusConflict)
		return
	}

	info, err := h.queue.PlayNext(r.Context(), current.ID, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if info == nil {
		http.Error(w, "No playable entry", http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// NowPlayingHandler 当前房间正在播放的歌，从未播放过返回 204
func (h *APIHandler) NowPlayingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	current, err := h.rooms.CurrentRoom(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if current == nil {
		http.Error(w, "Not in a room", http.StatusConflict)
		return
	}

	info, err := h.queue.NowPlaying(r.Context(), current.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if info == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
