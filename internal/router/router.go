package router

import (
	"net/http"

	"zugzwang/internal/handlers"
	"zugzwang/internal/middleware"
	"zugzwang/internal/models"
	"zugzwang/internal/services"
	"zugzwang/internal/store"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionName = "zugzwang_session"

type Deps struct {
	Services      *services.Services
	Users         store.Users
	Log           *zap.Logger
	JWTSecret     string
	SessionSecret string
}

// New builds the engine with the shared middleware chain and every API route.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(sessions.Sessions(sessionName, cookie.NewStore([]byte(d.SessionSecret))))
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.LoadViewer(middleware.JWTVerifier{Secret: []byte(d.JWTSecret)}, d.Users))

	r.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, http.StatusNotFound, string(services.KindNotFound), "route not found")
	})

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	svc := d.Services

	// Handlers
	postHandler := handlers.NewPostHandler(svc.Posts, d.Log)
	commentHandler := handlers.NewCommentHandler(svc.Comments, d.Log)
	voteHandler := handlers.NewVoteHandler(svc.Reactions, d.Log)
	blockHandler := handlers.NewBlockHandler(svc.Blocks, d.Log)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories, svc.Posts, d.Log)
	bookmarkHandler := handlers.NewBookmarkHandler(svc.Bookmarks, d.Log)
	userHandler := handlers.NewUserHandler(svc.Users, d.Log)
	adminHandler := handlers.NewAdminHandler(svc, d.Log)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// 公共路由，匿名可读
	api := r.Group("/api")
	api.GET("/posts", postHandler.List)
	api.GET("/posts/:id", postHandler.Get)
	api.GET("/posts/:id/comments", commentHandler.ListForPost)
	api.GET("/posts/:id/like", voteHandler.List(models.TargetPost))
	api.GET("/comments/:id", commentHandler.Get)
	api.GET("/comments/:id/like", voteHandler.List(models.TargetComment))
	api.GET("/categories", categoryHandler.List)
	api.GET("/categories/:id", categoryHandler.Get)
	api.GET("/categories/:id/posts", categoryHandler.Posts)
	api.GET("/users/:id", userHandler.Profile)

	// 受保护路由
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)

		authorized.POST("/posts", postHandler.Create)
		authorized.PATCH("/posts/:id", postHandler.Update)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.POST("/posts/:id/like", voteHandler.React(models.TargetPost))
		authorized.DELETE("/posts/:id/like", voteHandler.Unreact(models.TargetPost))
		authorized.POST("/posts/:id/bookmark", bookmarkHandler.Add)
		authorized.DELETE("/posts/:id/bookmark", bookmarkHandler.Remove)

		authorized.PATCH("/comments/:id", commentHandler.Update)
		authorized.DELETE("/comments/:id", commentHandler.Delete)
		authorized.POST("/comments/:id/like", voteHandler.React(models.TargetComment))
		authorized.DELETE("/comments/:id/like", voteHandler.Unreact(models.TargetComment))

		authorized.GET("/users/:id/block", blockHandler.Status)
		authorized.POST("/users/:id/block", blockHandler.Block)
		authorized.DELETE("/users/:id/block", blockHandler.Unblock)
		authorized.GET("/blocks", blockHandler.Blocked)
		authorized.GET("/blocks/blocked-by", blockHandler.Blockers)

		authorized.GET("/bookmarks", bookmarkHandler.List)
	}

	// 管理员路由
	admin := api.Group("")
	admin.Use(middleware.AdminRequired())
	{
		admin.PATCH("/posts/:id/admin", adminHandler.ModeratePost)
		admin.PATCH("/comments/:id/admin", adminHandler.ModerateComment)
		admin.GET("/comments", adminHandler.Comments)
		admin.PATCH("/users/:id/rating", adminHandler.SetRating)
		admin.POST("/users/:id/rating/recompute", adminHandler.RecomputeRating)

		admin.POST("/categories", categoryHandler.Create)
		admin.PATCH("/categories/:id", categoryHandler.Update)
		admin.DELETE("/categories/:id", categoryHandler.Delete)
	}
}
