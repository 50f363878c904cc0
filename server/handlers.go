package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"RockFM/config"
	"RockFM/core/auth"
	"RockFM/core/catalog"
	"RockFM/core/queue"
	"RockFM/core/room"
	"RockFM/core/vote"
	"RockFM/logger"
	"RockFM/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	cfg     *config.Config
	users   repository.UserRepository
	rooms   *room.Service
	queue   *queue.Service
	votes   *vote.Ledger
	catalog *catalog.Catalog
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	cfg *config.Config,
	users repository.UserRepository,
	rooms *room.Service,
	queueSvc *queue.Service,
	votes *vote.Ledger,
	trackCatalog *catalog.Catalog,
) *APIHandler {
	return &APIHandler{
		cfg:     cfg,
		users:   users,
		rooms:   rooms,
		queue:   queueSvc,
		votes:   votes,
		catalog: trackCatalog,
	}
}

// writeJSON 输出JSON响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("写入响应失败", logger.ErrorField(err))
		}
	}
}

// writeDomainError 把领域结果映射成HTTP状态。
// 冲突和越权是调用方要在正常流程里处理的结果，只有兜底分支才算内部错误。
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidReference):
		http.Error(w, "Invalid track reference", http.StatusBadRequest)
	case errors.Is(err, room.ErrRoomNotFound):
		http.Error(w, "Room not found", http.StatusNotFound)
	case errors.Is(err, queue.ErrEntryNotFound):
		http.Error(w, "Queue entry not found", http.StatusNotFound)
	case errors.Is(err, room.ErrAlreadyInRoom):
		http.Error(w, "Already in a room", http.StatusConflict)
	case errors.Is(err, room.ErrNotInRoom):
		http.Error(w, "Not in a room", http.StatusConflict)
	case errors.Is(err, room.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, catalog.ErrMetadataUnavailable):
		http.Error(w, "Track metadata unavailable", http.StatusBadGateway)
	default:
		logger.Error("请求处理失败", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// AuthMiddleware is a middleware function that checks for a valid JWT token
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Add user info to the request context
		ctx := context.WithValue(r.Context(), "userID", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext 从请求上下文取当前用户（AuthMiddleware 写入）
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value("userID").(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
