package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/devcollab/collab-services/configs"
	"github.com/devcollab/collab-services/internal/boardsvc/broker"
	pg "github.com/devcollab/collab-services/internal/boardsvc/db"
	handlers "github.com/devcollab/collab-services/internal/boardsvc/handlers"
	"github.com/devcollab/collab-services/internal/boardsvc/service"
	"github.com/devcollab/collab-services/internal/boardsvc/store"
	"github.com/devcollab/collab-services/internal/db"
	nats "github.com/devcollab/collab-services/internal/nats"
)

const SERVICE_NAME = "board"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// mongo holds the board documents, one per project
	mongoDb, cancelMongo, err := db.ConnectToDB()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer cancelMongo()
	log.Printf("mongo connection established successfully")

	db.CreateProjectIndexForCollection(mongoDb, "boards")
	db.CreateProjectIndexForCollection(mongoDb, "activities")

	// pg holds project membership for access checks
	dbpool, err := pg.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pg.ClosePool()
	log.Printf("pg connection established successfully")

	boardStore := store.NewBoardStore(mongoDb)
	boardService := service.NewBoardService(boardStore)

	memberStore := store.NewMemberStore(dbpool)
	accessService := service.NewAccessService(memberStore)

	activityStore := store.NewActivityStore(mongoDb)
	activityService := service.NewActivityService(activityStore)

	// Connect to NATS
	n, err := nats.Connect()
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(0)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// init board event broker
	broker := broker.NewBroker(n.Conn, boardService, accessService, activityService)

	// subscribe to socket service events
	sub, err := broker.SubscribeSocketService()
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(0)
	}

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

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(boardService, accessService)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + os.Getenv("BOARD_SERVICE_PORT"),
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
