package main

import (
	"log"
	"net/http"

	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/activity"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/auth"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/catalog"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/chat"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/config"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/deal"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/document"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/locks"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/notification"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/realtime"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/storage"
	"github.com/Saleslift/AgentVerifyAgent-sub002/internal/utils/db"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config: ", err)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		log.Fatal("database connection failed: ", err)
	}
	if err := db.Migrate(database); err != nil {
		log.Fatal("migration failed: ", err)
	}

	blobs, err := storage.NewDiskStore(cfg.BlobRoot)
	if err != nil {
		log.Fatal("blob store: ", err)
	}

	var notifier notification.Dispatcher
	switch cfg.Notifier {
	case "webhook":
		notifier = notification.NewWebhook(cfg.WebhookURL)
	case "kafka":
		notifier, err = notification.NewKafka(cfg.KafkaBrokers, cfg.KafkaClientID, cfg.KafkaTopic)
		if err != nil {
			log.Fatal("kafka notifier: ", err)
		}
	default:
		notifier = notification.Noop{}
	}

	hub := realtime.NewHub()
	dealLocks := locks.NewKeyed()
	verifier := auth.NewVerifier(cfg.JWTSecret)
	cat := catalog.NewHTTPClient(cfg.CatalogBaseURL)

	// Services
	activitySvc := activity.NewService(database, hub)
	dealSvc := deal.NewService(database, activitySvc, hub, notifier, cat, blobs, dealLocks)
	chatSvc := chat.NewService(database, activitySvc, hub, notifier, dealLocks)
	documentSvc := document.NewService(database, activitySvc, hub, notifier, blobs, dealLocks, document.Limits{
		DealFileBytes:   cfg.MaxDealFileBytes,
		ChatAttachBytes: cfg.MaxChatAttachBytes,
	})

	// Handlers
	dealHandler := deal.NewHandler(dealSvc)
	activityHandler := activity.NewHandler(activitySvc)
	chatHandler := chat.NewHandler(chatSvc)
	documentHandler := document.NewHandler(documentSvc)
	wsHandler := realtime.NewHandler(hub, verifier, dealSvc)

	// Router
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	// Subscription stream; the token rides in the query string.
	r.HandleFunc("/ws/deals/{id}", wsHandler.Serve).Methods("GET")

	api := r.PathPrefix("/").Subrouter()
	api.Use(verifier.Middleware)

	api.HandleFunc("/deals", dealHandler.Create).Methods("POST")
	api.HandleFunc("/deals", dealHandler.List).Methods("GET")
	api.HandleFunc("/deals/{id}", dealHandler.Get).Methods("GET")
	api.HandleFunc("/deals/{id}", dealHandler.Update).Methods("PUT")
	api.HandleFunc("/deals/{id}", dealHandler.Delete).Methods("DELETE")
	api.HandleFunc("/deals/{id}/status", dealHandler.Transition).Methods("PATCH")

	api.HandleFunc("/deals/{id}/activities", activityHandler.ListByDeal).Methods("GET")
	api.HandleFunc("/deals/{id}/activities", activityHandler.LogEntry).Methods("POST")

	api.HandleFunc("/deals/{id}/documents", documentHandler.ListByDeal).Methods("GET")
	api.HandleFunc("/deals/{id}/documents", documentHandler.Upload).Methods("POST")
	api.HandleFunc("/documents/{id}", documentHandler.Delete).Methods("DELETE")

	api.HandleFunc("/deals/{id}/messages", chatHandler.ListByDeal).Methods("GET")
	api.HandleFunc("/deals/{id}/messages", chatHandler.Send).Methods("POST")
	api.HandleFunc("/deals/{id}/messages/read", chatHandler.MarkRead).Methods("POST")

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(r)

	log.Printf("deal engine listening on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
