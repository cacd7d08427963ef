package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/emberclash/api/internal/admin"
	"github.com/emberclash/api/internal/avatar"
	"github.com/emberclash/api/internal/battle"
	"github.com/emberclash/api/internal/database"
	"github.com/emberclash/api/internal/handlers"
	"github.com/emberclash/api/internal/leaderboard"
	"github.com/emberclash/api/internal/middleware"
	"github.com/emberclash/api/internal/player"
	redisClient "github.com/emberclash/api/internal/redis"
)

func main() {
	// Load .env before reading any configuration
	if err := godotenv.Load(); err != nil {
		log.Println("[API] No .env file found, using environment variables")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Initialize database connection (account credentials)
	log.Println("[API] Initializing database connection...")
	db, err := database.NewConnection(database.LoadConfigFromEnv())
	if err != nil {
		log.Fatalf("[API] Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		log.Fatalf("[API] Failed to initialize schema: %v", err)
	}

	// Initialize Redis (game state)
	log.Println("[API] Initializing Redis connection...")
	rdb, err := redisClient.NewClient(redisClient.LoadConfigFromEnv())
	if err != nil {
		log.Fatalf("[API] Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	gameStore := redisClient.NewStore(rdb)

	// Build the game core
	avatars := avatar.NewResolver()
	ledger := player.NewLedger(gameStore)
	board := leaderboard.NewService(gameStore, ledger)
	generator := battle.NewGenerator(ledger, board, avatars)
	engine := battle.NewEngine(gameStore, ledger, board, generator)
	adminPolicy := admin.LoadPolicyFromEnv()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db)
	playerHandler := handlers.NewPlayerHandler(ledger, avatars)
	battleHandler := handlers.NewBattleHandler(engine, generator, ledger, avatars)
	leaderboardHandler := handlers.NewLeaderboardHandler(board)
	adminHandler := handlers.NewAdminHandler(adminPolicy, board, ledger, avatars)

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Auth routes
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/refresh", authHandler.RefreshToken)

	// Player routes
	mux.HandleFunc("/api/player", middleware.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			playerHandler.GetPlayer(w, r)
		case http.MethodPut:
			playerHandler.UpdatePlayer(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.HandleFunc("/api/player/reset", middleware.RequireAuth(playerHandler.ResetPlayer))

	// Battle routes
	mux.HandleFunc("/api/battle/start", middleware.RequireAuth(battleHandler.StartBattle))
	mux.HandleFunc("/api/battle/preview", middleware.RequireAuth(battleHandler.PreviewOpponent))
	mux.HandleFunc("/api/battle/action", middleware.RequireAuth(battleHandler.SubmitAction))
	mux.HandleFunc("/api/battle/enemy-turn", middleware.RequireAuth(battleHandler.AdvanceEnemyTurn))

	// Leaderboard routes
	mux.HandleFunc("/api/leaderboard", middleware.RequireAuth(leaderboardHandler.GetLeaderboard))

	// Admin routes (allow-listed identities only)
	mux.HandleFunc("/api/admin/leaderboard", middleware.RequireAuth(adminHandler.ListEntries))
	mux.HandleFunc("/api/admin/leaderboard/wipe", middleware.RequireAuth(adminHandler.WipeLeaderboard))
	mux.HandleFunc("/api/admin/leaderboard/seed", middleware.RequireAuth(adminHandler.SeedEntries))
	mux.HandleFunc("/api/admin/leaderboard/teardown", middleware.RequireAuth(adminHandler.TeardownEntries))
	mux.HandleFunc("/api/admin/players/reset", middleware.RequireAuth(adminHandler.ResetUser))
	mux.HandleFunc("/api/admin/players/reset-all", middleware.RequireAuth(adminHandler.ResetAll))

	// CORS middleware
	handler := corsMiddleware(mux)

	// Start server
	log.Printf("[API] Starting server on port %s...", port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("[API] Server failed: %v", err)
	}
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
