package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	config "github.com/avvvet/card-catalog/configs"
	"github.com/avvvet/card-catalog/internal/cardsvc/broker"
	cardcfg "github.com/avvvet/card-catalog/internal/cardsvc/config"
	"github.com/avvvet/card-catalog/internal/cardsvc/db"
	handlers "github.com/avvvet/card-catalog/internal/cardsvc/handlers"
	"github.com/avvvet/card-catalog/internal/cardsvc/service"
	"github.com/avvvet/card-catalog/internal/cardsvc/store"
	mongodb "github.com/avvvet/card-catalog/internal/db"
	"github.com/avvvet/card-catalog/internal/metrics"
	nats "github.com/avvvet/card-catalog/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "card"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId[:8])
}

func main() {
	cfg, err := cardcfg.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	cardStore, closeStore := openStore(cfg)
	defer closeStore()

	m := metrics.New(SERVICE_NAME)

	// events are optional, the catalog works without a broker
	var notifier service.Notifier
	if cfg.NatsURL != "" {
		n, err := nats.Connect(cfg.NatsURL, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
		if err != nil {
			log.Errorf("Error: unable to connect to NATS server %v", err)
		} else {
			defer n.Conn.Close()
			log.Printf("NATS connection established successfully %s", n.Url)
			b := broker.NewBroker(n.Conn)
			b.OnPublish = m.CardEvent
			notifier = b
		}
	}

	cardService := service.NewCardService(cardStore, notifier)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)
	r.Use(m.Middleware)

	// Init handlers and routes
	h := handlers.NewHandler(cardService, cfg.Port)
	h.SetRoutes(r)
	r.Handle("/metrics", m.Handler())

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service (%s backend) running at port %s", SERVICE_NAME, cfg.Backend, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}

// openStore connects the configured backend and bootstraps its schema.
func openStore(cfg cardcfg.Config) (store.CardStore, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Backend {
	case cardcfg.BackendPostgres:
		pool, err := db.Connect(cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		log.Printf("pg connection established successfully")

		s := store.NewPostgresCardStore(pool, store.StoreDefaults)
		if err := s.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare schema: %v", err)
		}
		return s, db.ClosePool

	case cardcfg.BackendMongo:
		database, disconnect, err := mongodb.ConnectToDB(cfg.MongoURI)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		log.Printf("mongo connection established successfully (%s)", database.Name())

		if err := mongodb.CreateSearchIndexes(ctx, database, store.CardCollection); err != nil {
			log.Warnf("unable to create indexes: %v", err)
		}
		return store.NewMongoCardStore(database), disconnect

	default:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open DB: %v", err)
		}
		log.Printf("sqlite database %s opened", cfg.SQLitePath)

		s := store.NewSQLiteCardStore(sqlDB, store.StoreDefaults)
		if err := s.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare schema: %v", err)
		}
		return s, func() { sqlDB.Close() }
	}
}
