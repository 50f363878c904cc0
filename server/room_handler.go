package server

import (
	"encoding/json"
	"net/http"

	"RockFM/model"
)

// JoinRoomRequest 加入房间请求
type JoinRoomRequest struct {
	Code string `json:"code"`
}

// LeaveRoomResponse 离开房间响应
type LeaveRoomResponse struct {
	Closed bool `json:"closed"`
}

// CreateRoomHandler 创建房间
func (h *APIHandler) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	newRoom, err := h.rooms.CreateRoom(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Room *model.Room `json:"room"`
	}{Room: newRoom})
}

// JoinRoomHandler 按房间码加入房间
func (h *APIHandler) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "Room code is required", http.StatusBadRequest)
		return
	}

	joined, err := h.rooms.JoinRoom(r.Context(), userID, req.Code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Room *model.Room `json:"room"`
	}{Room: joined})
}

// LeaveRoomHandler 离开当前房间。房主离开时房间销毁。
func (h *APIHandler) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	closed, err := h.rooms.LeaveRoom(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &LeaveRoomResponse{Closed: closed})
}

// RoomDetailHandler 当前房间详情
func (h *APIHandler) RoomDetailHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	info, err := h.rooms.RoomDetail(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}
