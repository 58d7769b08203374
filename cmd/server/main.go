package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/Nitindeep65/gemini-clone-2.0/internal/adapter/ai"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/adapter/auth"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/adapter/store"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/chat"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/handler"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/middleware"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/port"
	"github.com/Nitindeep65/gemini-clone-2.0/internal/service"
	"github.com/Nitindeep65/gemini-clone-2.0/pkg/config"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	_ "github.com/lib/pq"
)

// persistence is what both store backends provide.
type persistence interface {
	port.ChatPersistence
	port.AuditWriter
	handler.AuditReader
}

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Gemini Chat",
		"port", cfg.Port,
		"ai_provider", cfg.AIProvider,
		"env", cfg.Env,
	)

	// ── Persistence ──────────────────────────────────────────────────────
	var db persistence
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		db = pg
	} else {
		sq, err := store.NewSQLiteStore(cfg.ChatDBPath)
		if err != nil {
			slog.Error("failed to open chat database", "path", cfg.ChatDBPath, "error", err)
			os.Exit(1)
		}
		db = sq
	}
	defer db.Close()

	// ── Adapters ─────────────────────────────────────────────────────────
	identity := auth.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey)

	var completer port.Completer
	switch {
	case cfg.AIProvider == "ollama":
		completer = ai.NewOllamaCompleter(ai.OllamaConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.OllamaChatModel,
			Token:   cfg.OllamaChatToken,
		})
	case cfg.GoogleAPIKey == "":
		slog.Warn("GOOGLE_API_KEY not set, completions run in demo mode")
		completer = ai.NewDemoCompleter()
	default:
		gemini, err := ai.NewGeminiCompleter(context.Background(), cfg.GoogleAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("failed to create Gemini client", "error", err)
			os.Exit(1)
		}
		completer = gemini
	}

	// ── Services ─────────────────────────────────────────────────────────
	authService := service.NewAuthService(identity)
	chatService := service.NewChatService(completer)
	manager := chat.NewManager(db)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: true,
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(db))

	// ── Public Routes ────────────────────────────────────────────────────
	pages := handler.NewPageHandler()
	pages.Register(app)

	authHandler := handler.NewAuthHandler(authService, cfg.SiteURL, handler.CookieSettings{
		Secure: cfg.Production(),
		MaxAge: cfg.SessionMaxAge,
	})
	authHandler.Register(app)

	// Health check
	app.Get("/api/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"app":    cfg.AppName,
			"model":  chatService.ModelName(),
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	dashboard := app.Group("/dashboard", middleware.SessionGuard(middleware.SessionConfig{
		LoginURL: "/login",
	}))
	pages.RegisterProtected(dashboard)

	api := app.Group("/api", middleware.SessionGuard(middleware.SessionConfig{}))

	chatHandler := handler.NewChatHandler(chatService, manager)
	chatHandler.Register(api)

	auditHandler := handler.NewAuditHandler(db)
	auditHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
