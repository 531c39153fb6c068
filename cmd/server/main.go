// File: cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/voyago/go-tripmate/internal/config"
	"github.com/voyago/go-tripmate/internal/domain"
	"github.com/voyago/go-tripmate/internal/handlers"
	"github.com/voyago/go-tripmate/internal/middleware"
	"github.com/voyago/go-tripmate/internal/repository/conversation"
	"github.com/voyago/go-tripmate/internal/services"
	"github.com/voyago/go-tripmate/internal/services/ai"
	"github.com/voyago/go-tripmate/internal/services/chat"
)

func main() {
	cfg := config.Load()
	logger := services.NewLogger("go_tripmate")

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB Error: %v", err)
	}

	if err := db.AutoMigrate(&domain.Thread{}, &domain.Message{}); err != nil {
		log.Fatalf("DB Migration Error: %v", err)
	}

	// --- Repositories ---
	conversationRepo := conversation.NewRepository(db, cfg.SystemPrompt)

	// --- Services ---
	aiConfig := ai.DefaultConfig()
	aiConfig.APIKey = cfg.OpenAIAPIKey
	aiConfig.BaseURL = cfg.OpenAIBaseURL
	aiConfig.Timeout = cfg.UpstreamTimeout
	if err := aiConfig.Validate(); err != nil && strings.ToLower(cfg.Environment) == "production" {
		log.Fatalf("FATAL: Invalid AI configuration: %v", err)
	}
	provider := ai.NewOpenAIProvider(aiConfig)

	chatConfig := chat.DefaultConfig()
	chatConfig.Model = cfg.ChatModel
	chatConfig.UpstreamTimeout = cfg.UpstreamTimeout
	turnService, err := chat.NewTurnService(chatConfig, conversationRepo, provider, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Turn Service: %v", err)
	}

	// --- Handlers ---
	threadHandler := handlers.NewThreadHandler(conversationRepo)
	travelHandler := handlers.NewTravelHandler(turnService)

	// --- Router Setup ---
	r := mux.NewRouter()
	r.Use(middleware.RecoverPanic)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.Metrics)

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": "Hello, welcome to your Assistant API!"}`))
	}).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); _, _ = w.Write([]byte("OK")) }).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/create-thread", threadHandler.CreateThread).Methods("POST")
	r.HandleFunc("/threads", threadHandler.ListThreads).Methods("GET")
	r.HandleFunc("/thread/{thread_id}/messages", threadHandler.GetThreadMessages).Methods("GET")
	r.HandleFunc("/thread/{thread_id}", threadHandler.DeleteThread).Methods("DELETE")
	r.HandleFunc("/travel-info", travelHandler.HandleTravelInfo).Methods("POST")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	// --- Server Configuration ---
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: corsHandler.Handler(r),
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Tripmate - Travel Assistant API")
	log.Printf("Server starting on port :%s", cfg.ServerPort)
	log.Printf("Database: %s | Model: %s", cfg.DatabasePath, cfg.ChatModel)

	// --- Start Server in Goroutine ---
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped gracefully")
}
