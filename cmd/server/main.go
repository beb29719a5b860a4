package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/famsphere/famsphere-server/internal/config"
	"github.com/famsphere/famsphere-server/internal/database"
	"github.com/famsphere/famsphere-server/internal/handlers"
	"github.com/famsphere/famsphere-server/internal/jobs"
	"github.com/famsphere/famsphere-server/internal/models"
	"github.com/famsphere/famsphere-server/internal/repository"
	cron "github.com/famsphere/famsphere-server/internal/scheduler"
	"github.com/famsphere/famsphere-server/internal/services"
	"github.com/famsphere/famsphere-server/pkg/logger"
	"github.com/famsphere/famsphere-server/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Connect to MongoDB
	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	memberRepo := repository.NewMemberRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	chatRepo := repository.NewChatRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// --- Services ---
	memberService := services.NewMemberService(memberRepo)
	chatService := services.NewChatService(chatRepo)
	notificationService := services.NewNotificationService(notificationRepo, memberRepo, goalRepo)
	activityService := services.NewActivityService(activityRepo)
	dispatcher := services.NewEventDispatcher(chatService, notificationService, activityService, memberRepo)
	goalService := services.NewGoalService(goalRepo, dispatcher)
	eventService := services.NewEventService(eventRepo)

	// --- Handlers ---
	memberHandler := handlers.NewMemberHandler(memberService, cfg)
	goalHandler := handlers.NewGoalHandler(goalService)
	chatHandler := handlers.NewChatHandler(chatService, cfg.JWTSecret)
	eventHandler := handlers.NewEventHandler(eventService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	activityHandler := handlers.NewActivityHandler(activityService)

	router := mux.NewRouter()

	// Member routes
	router.HandleFunc("/members/register", memberHandler.RegisterMemberHandler).Methods("POST")
	router.HandleFunc("/members/login", memberHandler.LoginMemberHandler).Methods("POST")

	protectedMemberRoutes := router.PathPrefix("/members").Subrouter()
	protectedMemberRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedMemberRoutes.HandleFunc("", memberHandler.GetMembersHandler).Methods("GET")

	manageMemberRoutes := protectedMemberRoutes.PathPrefix("/manage").Subrouter()
	manageMemberRoutes.Use(middleware.RequireRole(string(models.RoleParent)))
	manageMemberRoutes.HandleFunc("", memberHandler.ManageMembersHandler).Methods("GET")

	// Goal routes
	goalRoutes := router.PathPrefix("/goals").Subrouter()
	goalRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	goalRoutes.HandleFunc("", goalHandler.CreateGoalHandler).Methods("POST")
	goalRoutes.HandleFunc("", goalHandler.GetGoalsHandler).Methods("GET")
	parentGoalRoutes := goalRoutes.PathPrefix("/pending").Subrouter()
	parentGoalRoutes.Use(middleware.RequireRole(string(models.RoleParent)))
	parentGoalRoutes.HandleFunc("", goalHandler.GetPendingGoalsHandler).Methods("GET")
	goalRoutes.HandleFunc("/points", goalHandler.GetPointTotalsHandler).Methods("GET")
	goalRoutes.HandleFunc("/{id}", goalHandler.GetGoalHandler).Methods("GET")
	goalRoutes.HandleFunc("/{id}", goalHandler.UpdateGoalHandler).Methods("PUT")
	goalRoutes.HandleFunc("/{id}", goalHandler.DeleteGoalHandler).Methods("DELETE")
	goalRoutes.HandleFunc("/{id}/approve", goalHandler.ApproveGoalHandler).Methods("POST")
	goalRoutes.HandleFunc("/{id}/reject", goalHandler.RejectGoalHandler).Methods("POST")
	goalRoutes.HandleFunc("/{id}/complete", goalHandler.CompleteGoalHandler).Methods("POST")
	goalRoutes.HandleFunc("/{id}/complete", goalHandler.UncompleteGoalHandler).Methods("DELETE")
	goalRoutes.HandleFunc("/{id}/deletion-request", goalHandler.RequestDeletionHandler).Methods("POST")
	goalRoutes.HandleFunc("/{id}/deletion-request/approve", goalHandler.ApproveDeletionHandler).Methods("POST")
	goalRoutes.HandleFunc("/{id}/deletion-request/deny", goalHandler.DenyDeletionHandler).Methods("POST")
	goalRoutes.HandleFunc("/{id}/progress", goalHandler.GetGoalProgressHandler).Methods("GET")

	// Chat routes
	router.HandleFunc("/chat/ws", chatHandler.ChatWebSocketHandler)
	chatRoutes := router.PathPrefix("/chat").Subrouter()
	chatRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	chatRoutes.HandleFunc("", chatHandler.GetHistoryHandler).Methods("GET")
	chatRoutes.HandleFunc("", chatHandler.PostMessageHandler).Methods("POST")
	chatRoutes.HandleFunc("/{id}/pin", chatHandler.PinMessageHandler).Methods("POST")
	chatRoutes.HandleFunc("/{id}", chatHandler.DeleteMessageHandler).Methods("DELETE")

	// Calendar routes
	eventRoutes := router.PathPrefix("/events").Subrouter()
	eventRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	eventRoutes.HandleFunc("", eventHandler.CreateEventHandler).Methods("POST")
	eventRoutes.HandleFunc("", eventHandler.GetEventsHandler).Methods("GET")
	eventRoutes.HandleFunc("/{id}", eventHandler.GetEventHandler).Methods("GET")
	eventRoutes.HandleFunc("/{id}", eventHandler.UpdateEventHandler).Methods("PUT")
	eventRoutes.HandleFunc("/{id}", eventHandler.DeleteEventHandler).Methods("DELETE")

	// Notification routes
	notificationRoutes := router.PathPrefix("/notifications").Subrouter()
	notificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	notificationRoutes.HandleFunc("", notificationHandler.GetNotificationsHandler).Methods("GET")
	notificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkReadHandler).Methods("POST")
	notificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Activity feed
	activityRoutes := router.PathPrefix("/activity").Subrouter()
	activityRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	activityRoutes.HandleFunc("", activityHandler.GetRecentActivitiesHandler).Methods("GET")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	// Background scans
	eventReminder := jobs.NewEventReminder(eventRepo, memberRepo, notificationService)
	cron.StartNotificationCronJobs(notificationService, eventReminder)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	handler := c.Handler(router)

	port := cfg.Port
	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
