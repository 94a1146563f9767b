package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/avvvet/card-catalog/internal/comm"
	"github.com/avvvet/card-catalog/internal/metrics"
	"github.com/avvvet/card-catalog/internal/nats"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/card-catalog/configs"

	"github.com/avvvet/card-catalog/internal/feedsvc/broker"
	"github.com/avvvet/card-catalog/internal/feedsvc/routes"
	"github.com/avvvet/card-catalog/internal/feedsvc/ws"
)

const SERVICE_NAME = "feed"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId[:8])
}

func main() {
	// Connect to NATS
	n, err := nats.Connect(os.Getenv("NATS_URL"), os.Getenv("NATS_TOKEN"), SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware, no Timeout: websocket handlers outlive the request
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)

	// Initialize websocket hub
	s := ws.NewWs()

	m := metrics.New(SERVICE_NAME)
	m.Gauge("sockets", "Connected websocket clients.", func() float64 { return float64(s.Count()) })
	r.Use(m.Middleware)

	port := os.Getenv("FEED_SERVICE_PORT")
	if port == "" {
		port = "8081"
	}

	// Initialize routes
	routes.SetRoutes(r, s, port)
	r.Handle("/metrics", m.Handler())

	// relay catalog events to every socket
	b := broker.NewBroker(n.Conn, s.Broadcast)
	b.OnRelay = m.CardEvent
	sub, err := b.Subscribe(comm.CardEventsTopic)
	if err != nil {
		log.Errorf("Error: unable to subscribe to %s %v", comm.CardEventsTopic, err)
		os.Exit(1)
	}

	// Create server with timeout settings
	server := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
