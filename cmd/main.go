package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/Vovarama1992/kos-ai-bridge/internal/ai"
	"github.com/Vovarama1992/kos-ai-bridge/internal/booking"
	"github.com/Vovarama1992/kos-ai-bridge/internal/capability"
	"github.com/Vovarama1992/kos-ai-bridge/internal/complaint"
	"github.com/Vovarama1992/kos-ai-bridge/internal/config"
	"github.com/Vovarama1992/kos-ai-bridge/internal/conversation"
	"github.com/Vovarama1992/kos-ai-bridge/internal/payment"
	"github.com/Vovarama1992/kos-ai-bridge/internal/router"
	"github.com/Vovarama1992/kos-ai-bridge/internal/sheets"
	"github.com/Vovarama1992/kos-ai-bridge/internal/telegram"
	"github.com/Vovarama1992/kos-ai-bridge/internal/users"
	"github.com/Vovarama1992/kos-ai-bridge/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose dialect error: %v", err)
	}
	if err := goose.Up(db, "."); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	// --- AI ---
	var aiClient ai.AI
	if cfg.OpenAI.APIKey != "" {
		c, err := ai.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
		if err != nil {
			log.Fatalf("openai client error: %v", err)
		}
		aiClient = c
	} else {
		log.Printf("[main] OPENAI_API_KEY not set, running on keyword routing")
	}

	// --- Turn lock ---
	var locker router.TurnLocker = router.NewKeyedLocker()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url error: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("redis ping error: %v", err)
		}
		locker = router.NewRedisLocker(rdb, cfg.Router.TurnTimeout+10*time.Second)
	}

	// --- Telegram ---
	var (
		tgAPI      telegram.API
		tgNotifier *telegram.Notifier
	)
	if cfg.Telegram.BotToken != "" {
		bot, err := telegram.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatalf("telegram error: %v", err)
		}
		tgAPI = bot
		tgNotifier = telegram.NewNotifier(bot)
	} else {
		log.Printf("[main] TELEGRAM_BOT_TOKEN not set, bot and notifications disabled")
	}

	// --- Sheets ---
	var mirror booking.Mirror
	if cfg.SheetsEnabled() {
		m, err := sheets.NewMirror(ctx, cfg.Sheets)
		if err != nil {
			log.Fatalf("sheets error: %v", err)
		}
		mirror = m
	} else {
		log.Printf("[main] sheets mirror not configured")
	}

	var notifier booking.Notifier
	if tgNotifier != nil {
		notifier = tgNotifier
	}

	if cfg.Midtrans.ServerKey == "" {
		log.Printf("[main] WARN MIDTRANS_SERVER_KEY not set, payment links will fail")
	}

	// --- Domain wiring ---
	usersRepo := users.NewRepo(db)
	convStore := conversation.NewStore(db, usersRepo)

	bookingService := booking.NewService(
		booking.NewRepo(db),
		payment.NewMidtrans(cfg.Midtrans.ServerKey, cfg.Midtrans.Production),
		notifier,
		mirror,
		cfg.FanoutTimeout,
	)
	complaintService := complaint.NewService(complaint.NewRepo(db))

	docs, err := capability.LoadDocuments(cfg.DocsDir, aiClient)
	if err != nil {
		log.Fatalf("documents error: %v", err)
	}

	var classifier router.Classifier = router.KeywordClassifier{}
	if aiClient != nil {
		classifier = router.FallbackClassifier{
			Primary:   router.NewLLMClassifier(aiClient),
			Secondary: router.KeywordClassifier{},
		}
	}

	routerService := router.NewService(
		convStore,
		classifier,
		map[router.Capability]router.CapabilityHandler{
			router.CapRooms:       capability.NewRooms(bookingService),
			router.CapDocuments:   docs,
			router.CapComplaint:   capability.NewComplaint(aiClient, complaintService, usersRepo),
			router.CapTransaction: capability.NewTransaction(bookingService, usersRepo),
		},
		locker,
		router.Options{
			HistoryLimit: cfg.Router.HistoryLimit,
			Budget:       cfg.Router.InvocationBudget,
			TurnTimeout:  cfg.Router.TurnTimeout,
			LockWait:     cfg.Router.LockWait,
		},
	)

	// --- HTTP ---
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.RegisterRoutes(r, router.NewHandler(routerService))
	booking.RegisterRoutes(r, booking.NewHandler(bookingService))
	complaint.RegisterRoutes(r, complaint.NewHandler(complaintService))
	telegram.RegisterRoutes(r, telegram.NewHandler(tgNotifier))
	users.RegisterRoutes(r, users.NewHandler(usersRepo))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	var wg sync.WaitGroup
	if tgAPI != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			telegram.NewBot(tgAPI, routerService, cfg.Telegram.RateLimitPerMinute).Run(ctx)
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Router.LockWait+cfg.Router.TurnTimeout+5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	wg.Wait()
}
