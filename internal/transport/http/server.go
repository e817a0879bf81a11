package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "github.com/Nikcet/ycla-ai-chat/internal/app"
	"github.com/Nikcet/ycla-ai-chat/internal/bootstrap"
	"github.com/Nikcet/ycla-ai-chat/internal/repository"
	"github.com/Nikcet/ycla-ai-chat/internal/session"
	"github.com/Nikcet/ycla-ai-chat/internal/task"
	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/handler"
	"github.com/Nikcet/ycla-ai-chat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	companyRepo := repository.NewCompanyRepository(app.MySQL)
	promptRepo := repository.NewPromptRepository(app.MySQL)

	companyService := appsvc.NewCompanyService(companyRepo)
	promptService := appsvc.NewPromptService(promptRepo)

	taskStore := task.NewRedisStore(app.Redis,
		time.Duration(app.Config.Redis.TaskResultTTLMin)*time.Minute)
	taskQueue := task.NewQueue(app.MQConn, app.Config.Ingest.TaskQueue)
	taskService := appsvc.NewTaskService(taskQueue, taskStore, app.Config.Ingest.MaxFileBytes)

	sessionStore := session.NewStore(app.Redis,
		app.Config.Chat.HistoryWindow,
		time.Duration(app.Config.Auth.SessionTTLMinute)*time.Minute,
		time.Duration(app.Config.Chat.HistoryTTLMinute)*time.Minute)
	chatService := appsvc.NewChatService(
		sessionStore,
		app.Gateway,
		app.Index,
		promptRepo,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.SessionTTLMinute)*time.Minute,
		app.Config.Chat.TopK,
		app.Logger.With().Str("component", "chat").Logger(),
	)

	companyHandler := handler.NewCompanyHandler(companyService, taskService)
	documentHandler := handler.NewDocumentHandler(taskService)
	taskHandler := handler.NewTaskHandler(taskService)
	chatHandler := handler.NewChatHandler(chatService)
	promptHandler := handler.NewPromptHandler(promptService)

	v1 := router.Group("/api/v1")
	v1.POST("/register", companyHandler.Register)

	authed := v1.Group("")
	authed.Use(middleware.AuthAPIKey(companyService))
	authed.POST("/documents/upload", documentHandler.Upload)
	authed.POST("/documents/delete/all", documentHandler.DeleteAll)
	authed.POST("/documents/delete/:document_id", documentHandler.DeleteOne)
	authed.DELETE("/company", companyHandler.Teardown)
	authed.GET("/tasks/:task_id", taskHandler.GetStatus)
	authed.POST("/chat", chatHandler.Chat)
	authed.PUT("/admin/prompt", promptHandler.Save)
	authed.GET("/admin/prompt", promptHandler.Get)

	return router
}
