package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RockFM/cache"
	"RockFM/config"
	"RockFM/core/auth"
	"RockFM/core/catalog"
	"RockFM/core/queue"
	"RockFM/core/room"
	"RockFM/core/vote"
	"RockFM/core/youtube"
	"RockFM/db"
	"RockFM/logger"
	"RockFM/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	auth.Configure(cfg.JWTSecret, cfg.JWTTTL)

	// Connect to the database
	if err := db.ConnectGormDB(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateAll(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis 只承载正在播放缓存，连不上时降级为纯数据库路径
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis 连接失败，正在播放缓存降级", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
		logger.Info("Successfully connected to Redis")
	}

	// 组装仓库和业务服务
	userRepo := repository.NewGormUserRepository(db.GormDB)
	roomRepo := repository.NewGormRoomRepository(db.GormDB)
	trackRepo := repository.NewGormTrackRepository(db.GormDB)
	queueRepo := repository.NewGormQueueRepository(db.GormDB)
	voteRepo := repository.NewGormVoteRepository(db.GormDB)

	npCache := cache.NewNowPlayingCache()
	oembedClient := youtube.NewClient(cfg.OEmbedBaseURL, cfg.OEmbedTimeout)

	roomService := room.NewService(roomRepo, userRepo, npCache)
	queueService := queue.NewService(queueRepo, voteRepo, roomRepo, npCache, cfg.CooldownWindow)
	voteLedger := vote.NewLedger(voteRepo, queueRepo, roomRepo)
	trackCatalog := catalog.NewCatalog(trackRepo, oembedClient)

	apiHandler := NewAPIHandler(cfg, userRepo, roomService, queueService, voteLedger, trackCatalog)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(requestLogMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	// Auth
	router.HandleFunc("/api/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// 房间管理
	router.HandleFunc("/api/room/create", apiHandler.AuthMiddleware(apiHandler.CreateRoomHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/room/join", apiHandler.AuthMiddleware(apiHandler.JoinRoomHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/room/leave", apiHandler.AuthMiddleware(apiHandler.LeaveRoomHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/room/detail", apiHandler.AuthMiddleware(apiHandler.RoomDetailHandler)).Methods(http.MethodGet)

	// 点歌 / 队列
	router.HandleFunc("/api/songs/add", apiHandler.AuthMiddleware(apiHandler.AddSongHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/queue", apiHandler.AuthMiddleware(apiHandler.QueueHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/play-next", apiHandler.AuthMiddleware(apiHandler.PlayNextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/songs/now-playing", apiHandler.AuthMiddleware(apiHandler.NowPlayingHandler)).Methods(http.MethodGet)

	// 投票
	router.HandleFunc("/api/songs/{id:[0-9]+}/vote", apiHandler.AuthMiddleware(apiHandler.ToggleVoteHandler)).Methods(http.MethodPost)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务启动", logger.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务异常退出", logger.ErrorField(err))
		}
	}()

	// 等待退出信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，开始关闭")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("关闭HTTP服务失败", logger.ErrorField(err))
	}
}

// corsMiddleware 添加 CORS 头
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder 记录响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// requestLogMiddleware 为每个请求生成关联ID并记录耗时
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		logger.Info("请求完成",
			logger.String("requestId", requestID),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("latency", time.Since(start)))
	})
}
