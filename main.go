package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"heist-bot/engine"
	"heist-bot/games/heist"
	"heist-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var botStatus atomic.Value

type pinger interface {
	Ping(ctx context.Context) error
}

func main() {
	botStatus.Store("starting")

	cfg, err := utils.LoadConfig()
	if err != nil {
		utils.InitLogger("info", false)
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	// Ledger
	var ledger utils.Ledger
	var health pinger
	if cfg.HasDatabase() {
		db, err := utils.SetupDatabase(ctx, cfg)
		if err != nil {
			log.Error().Err(err).Msg("database setup failed, continuing without database")
		} else {
			log.Info().Msg("database connected successfully")
			defer db.Close()
			ledger, health = db, db
		}
	}
	if ledger == nil {
		log.Warn().Msg("using in-memory ledger, balances reset on restart")
		ledger = utils.NewMemoryLedger()
	}

	// Player locks
	var locker utils.PlayerLocker = utils.NewLocalLocker()
	var rdb *redis.Client
	if cfg.HasRedis() {
		rdb, err = utils.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error().Err(err).Msg("redis unavailable, falling back to in-process locks")
		} else {
			defer rdb.Close()
			locker = utils.NewRedisLocker(rdb, cfg.LockTTL)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := utils.NewHeistMetricsWithRegistry(cfg.MetricsNamespace, registry)

	svc := heist.NewService(ledger, engine.NewMemoryStore(), locker, metrics, nil)
	sessions := heist.NewSessionManager()
	handler := heist.NewHandler(ctx, svc, sessions, metrics, cfg.LogChannelID)

	server := startHealthServer(cfg.Port, registry, health)

	sweeper := heist.NewSessionSweeper(sessions, cfg.SessionMaxAge, metrics)
	if err := sweeper.Start(cfg.SessionSweepSpec); err != nil {
		log.Fatal().Err(err).Msg("failed to start session sweeper")
	}
	defer sweeper.Stop()

	if cfg.BotToken == "" {
		log.Warn().Msg("BOT_TOKEN not set - Discord bot will not connect")
		botStatus.Store("no_token")
		<-ctx.Done()
		shutdown(server)
		return
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	router := utils.NewComponentRouter()
	router.Handle(heist.CustomIDPrefix, handler.HandleComponent)

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		onReady(s, r, cfg.GuildID)
	})
	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		onInteractionCreate(s, i, handler, router)
	})

	if err := session.Open(); err != nil {
		botStatus.Store("connection_failed")
		log.Fatal().Err(err).Msg("failed to open Discord connection")
	}
	defer session.Close()

	log.Info().Msg("bot is now running, press CTRL+C to exit")
	botStatus.Store("running")

	<-ctx.Done()
	log.Info().Msg("gracefully shutting down")
	botStatus.Store("shutting_down")
	shutdown(server)
}

func onReady(s *discordgo.Session, event *discordgo.Ready, guildID string) {
	log.Info().Str("user", event.User.Username).Str("id", event.User.ID).Msg("discord bot logged in")
	botStatus.Store("online")

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "/crime start",
				Type: discordgo.ActivityTypeGame,
			},
		},
		Status: "online",
	}); err != nil {
		log.Warn().Err(err).Msg("failed to update status")
	}

	if err := registerSlashCommands(s, guildID); err != nil {
		log.Error().Err(err).Msg("failed to register slash commands")
	}
}

func registerSlashCommands(s *discordgo.Session, guildID string) error {
	commands := []*discordgo.ApplicationCommand{
		heist.RegisterCrimeCommand(),
		heist.RegisterBalanceCommand(),
	}

	for _, command := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, command); err != nil {
			return fmt.Errorf("failed to create command %s: %w", command.Name, err)
		}
	}

	log.Info().Int("count", len(commands)).Str("guild", guildID).Msg("registered slash commands")
	return nil
}

func onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, h *heist.Handler, router *utils.ComponentRouter) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		switch i.ApplicationCommandData().Name {
		case "crime":
			h.HandleCrimeCommand(s, i)
		case "balance":
			h.HandleBalanceCommand(s, i)
		}
	case discordgo.InteractionMessageComponent:
		if err := router.Dispatch(s, i); err != nil {
			log.Warn().Err(err).Str("custom_id", i.MessageComponentData().CustomID).Msg("component interaction failed")
		}
	}
}

func startHealthServer(port string, registry *prometheus.Registry, db pinger) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           healthMux(registry, db),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("port", port).Msg("health server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()
	return server
}

func healthMux(registry *prometheus.Registry, db pinger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Discord Bot Status: %s", botStatus.Load())
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, code := "healthy", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status, code = "degraded", http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     status,
			"service":    "heist-bot",
			"bot_status": botStatus.Load(),
			"database":   db != nil,
		})
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("health server shutdown")
	}
}
