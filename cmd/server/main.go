package main

import (
	"log"
	"strconv"
	"time"

	"quizbit-backend/internal/config"
	"quizbit-backend/internal/database"
	"quizbit-backend/internal/handlers"
	"quizbit-backend/internal/middleware"
	"quizbit-backend/internal/services"
	"quizbit-backend/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Quizbit API
// @version         1.0
// @description     Quiz platform: tests, sessions, competitive leaderboards, profiles
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	hub := ws.NewHub()

	var generator services.Generator
	llm := services.NewLLMGenerator(cfg.GeneratorAPIKey, cfg.GeneratorAPIURL, cfg.GeneratorModel)
	if llm.IsAvailable() {
		generator = llm
	} else {
		log.Println("GENERATOR_API_KEY not set, blitz generation disabled")
	}

	authService := services.NewAuthService(db, cfg.JWTSecret)
	profileService := services.NewProfileService(db)
	scoringService := services.NewScoringService()
	catalogService := services.NewCatalogService(db, generator)
	sessionService := services.NewSessionService(db, scoringService, profileService)
	competitiveService := services.NewCompetitiveService(db, sessionService)

	authHandler := handlers.NewAuthHandler(authService)
	testHandler := handlers.NewTestHandler(catalogService)
	sessionHandler := handlers.NewSessionHandler(sessionService, competitiveService, hub)
	competitiveHandler := handlers.NewCompetitiveHandler(competitiveService, hub)
	profileHandler := handlers.NewProfileHandler(profileService)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/competitions/:id", competitiveHandler.HandleWebSocket)

	// Time-limit enforcement lives outside the session state machine:
	// a sweep ticker expires overdue in-progress sessions.
	sweepSec, _ := strconv.Atoi(cfg.ExpirySweepSec)
	if sweepSec <= 0 {
		sweepSec = 30
	}
	ticker := time.NewTicker(time.Duration(sweepSec) * time.Second)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			if n := sessionService.ExpireOverdue(); n > 0 {
				log.Printf("expired %d overdue sessions", n)
			}
		}
	}()

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		tests := api.Group("/tests")
		tests.Use(middleware.JWTAuth(authService))
		{
			tests.GET("", testHandler.ListTests)
			tests.POST("", testHandler.CreateTest)
			tests.POST("/generate", testHandler.GenerateTest)
			tests.GET("/:id", testHandler.GetTest)
			tests.PUT("/:id", testHandler.UpdateTest)
			tests.DELETE("/:id", testHandler.DeleteTest)
			tests.POST("/:id/questions", testHandler.AddQuestion)
			tests.POST("/:id/clone", testHandler.CloneTest)
			tests.POST("/:id/sessions", sessionHandler.StartSession)
		}

		sessions := api.Group("/sessions")
		sessions.Use(middleware.JWTAuth(authService))
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/responses", sessionHandler.SubmitResponse)
			sessions.POST("/:id/complete", sessionHandler.CompleteSession)
		}

		competitions := api.Group("/competitions")
		competitions.Use(middleware.JWTAuth(authService))
		{
			competitions.GET("", competitiveHandler.ListCompetitions)
			competitions.POST("", competitiveHandler.CreateCompetition)
			competitions.GET("/:id", competitiveHandler.GetCompetition)
			competitions.POST("/:id/start", competitiveHandler.StartCompetition)
			competitions.POST("/:id/end", competitiveHandler.EndCompetition)
			competitions.POST("/:id/join", competitiveHandler.JoinCompetition)
			competitions.GET("/:id/leaderboard", competitiveHandler.GetLeaderboard)
		}

		profiles := api.Group("/profiles")
		profiles.Use(middleware.JWTAuth(authService))
		{
			profiles.GET("/me", profileHandler.GetMyProfile)
			profiles.PUT("/me", profileHandler.UpdateMyProfile)
			profiles.GET("/:id", profileHandler.GetProfile)
			profiles.GET("/:id/friends", profileHandler.GetFriends)
			profiles.GET("/:id/achievements", profileHandler.GetAchievements)
		}

		users := api.Group("/users")
		users.Use(middleware.JWTAuth(authService))
		{
			users.GET("", profileHandler.SearchUsers)
		}

		friendRequests := api.Group("/friend-requests")
		friendRequests.Use(middleware.JWTAuth(authService))
		{
			friendRequests.POST("", profileHandler.SendFriendRequest)
			friendRequests.GET("/received", profileHandler.ReceivedFriendRequests)
			friendRequests.GET("/sent", profileHandler.SentFriendRequests)
			friendRequests.POST("/:id/accept", profileHandler.AcceptFriendRequest)
			friendRequests.POST("/:id/reject", profileHandler.RejectFriendRequest)
		}

		achievements := api.Group("/achievements")
		achievements.Use(middleware.JWTAuth(authService))
		{
			achievements.GET("", profileHandler.ListAchievements)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
