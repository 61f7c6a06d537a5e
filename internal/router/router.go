package router

import (
	"govhub/internal/config"
	"govhub/internal/handlers"
	"govhub/internal/metrics"
	"govhub/internal/middleware"
	"govhub/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "govhub_session"

// New 创建带全局中间件和全部路由的引擎
func New(cfg *config.Config, blob *services.BlobStore) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLog())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.LoadUser())

	RegisterRoutes(r, cfg, blob)
	return r
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, blob *services.BlobStore) {
	// Handlers
	authHandler := handlers.NewAuthHandler(cfg)
	consensusHandler := handlers.NewConsensusHandler()
	voteHandler := handlers.NewVoteHandler()
	commentHandler := handlers.NewCommentHandler()
	proposalHandler := handlers.NewProposalHandler()
	workGroupHandler := handlers.NewWorkGroupHandler()
	reportHandler := handlers.NewReportHandler()
	userHandler := handlers.NewUserHandler()
	notificationHandler := handlers.NewNotificationHandler()
	uploadHandler := handlers.NewUploadHandler(blob, cfg.MaxUploadBytes)
	dashboardHandler := handlers.NewDashboardHandler()
	cronHandler := handlers.NewCronHandler(cfg.CronSecret, cfg.RoundDuration)

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.GET("/auth/discord", authHandler.DiscordLogin)             // 跳转 Discord 授权
	api.GET("/auth/discord/callback", authHandler.DiscordCallback) // 授权回调
	api.POST("/auth/logout", authHandler.Logout)                   // 退出登录
	api.GET("/cron/expire", cronHandler.Expire)                    // 定时过期任务（Bearer 鉴权）

	api.GET("/proposals", proposalHandler.List)
	api.GET("/proposals/:id", proposalHandler.Get)
	api.GET("/proposals/:id/comments", commentHandler.ListProposalComments)

	api.GET("/workgroups", workGroupHandler.List)
	api.GET("/workgroups/:id", workGroupHandler.Get)
	api.GET("/workgroups/:id/quarterly-reports", reportHandler.ListByWorkGroup)

	api.GET("/reports", reportHandler.List)
	api.GET("/reports/:id/rounds", consensusHandler.ListRounds)
	api.GET("/reports/:id/votes", voteHandler.ListReportVotes)
	api.GET("/reports/:id/objections", consensusHandler.ListObjections)
	api.GET("/reports/:id/comments", commentHandler.ListReportComments)
	api.GET("/quarterly-reports/:id", reportHandler.Get)

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/users/me", userHandler.Me)
		authorized.PATCH("/users/me", userHandler.UpdateMe)
		authorized.GET("/users", userHandler.List)
		authorized.PUT("/users/:id/role", userHandler.SetRole)

		authorized.POST("/proposals", proposalHandler.Create)
		authorized.PATCH("/proposals/:id", proposalHandler.Update)
		authorized.DELETE("/proposals/:id", proposalHandler.Delete)
		authorized.POST("/proposals/:id/comments", commentHandler.CreateProposalComment)

		authorized.POST("/workgroups", workGroupHandler.Create)
		authorized.POST("/workgroups/:id/members", workGroupHandler.AddMember)
		authorized.DELETE("/workgroups/:id/members/:userId", workGroupHandler.RemoveMember)
		authorized.POST("/workgroups/:id/quarterly-reports", reportHandler.Create)
		authorized.PUT("/quarterly-reports/:id", reportHandler.Update)

		authorized.PUT("/reports/:id/consensus-status", consensusHandler.UpdateStatus) // 修改共识状态
		authorized.POST("/reports/:id/rounds", consensusHandler.StartRound)            // 开启新一轮投票
		authorized.POST("/reports/:id/comments", commentHandler.CreateReportComment)
		authorized.PUT("/objections/:id/status", consensusHandler.ResolveObjection) // 裁定异议

		authorized.POST("/comments/:id/like", commentHandler.Like)
		authorized.POST("/comments/:id/dislike", commentHandler.Dislike)
		authorized.PUT("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
		authorized.POST("/notifications/:id/read", notificationHandler.Read)
		authorized.DELETE("/notifications/:id", notificationHandler.Delete)

		authorized.POST("/upload-blob", uploadHandler.Upload)
		authorized.DELETE("/upload-blob", uploadHandler.Delete)

		authorized.GET("/dashboard", dashboardHandler.Get)
	}

	// 投票接口限流 (Rate Limited)
	voting := authorized.Group("")
	voting.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		voting.POST("/votes", voteHandler.Cast)
		voting.POST("/proposals/:id/vote", voteHandler.VoteProposal)
	}
}
