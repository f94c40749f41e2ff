package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/simpleshare/client/internal/config"
	"github.com/simpleshare/client/internal/gateway"
	"github.com/simpleshare/client/internal/remote"
	"github.com/simpleshare/client/internal/services"
	"github.com/simpleshare/client/internal/state"
	"github.com/simpleshare/client/internal/storage"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	clients, err := remote.NewClients(ctx, cfg.FirebaseProjectID, cfg.FirebaseStorageBucket, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Fatalf("firebase init failed: %v", err)
	}

	prefs, err := storage.NewPrefStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("pref store init failed: %v", err)
	}

	store := state.NewStore()
	engine := services.NewEngine(ctx, clients.Docs, clients.Blobs, clients.Identity, store, prefs)

	if compatible, err := engine.CheckCompatibility(ctx); err != nil {
		log.Printf("Warning: compatibility check failed: %v", err)
	} else if !compatible {
		log.Fatalf("remote schema is newer than this client supports; update required")
	}

	hub := gateway.NewHub(store)
	go hub.Run(ctx)

	h := gateway.NewHandler(engine)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signin", h.SignIn)
		r.Post("/auth/signout", h.SignOut)

		r.Get("/state", h.GetState)
		r.Get("/compat", h.CheckCompatibility)

		r.Post("/account", h.UpdateAccount)

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", h.CreateProfile)
			r.Route("/{profileId}", func(r chi.Router) {
				r.Put("/", h.UpdateProfile)
				r.Delete("/", h.DeleteProfile)
				r.Post("/switch", h.SwitchProfile)
			})
		})

		r.Route("/shares", func(r chi.Router) {
			r.Post("/", h.SendShare)
			r.Delete("/{shareId}", h.DeleteShare)
		})

		r.Post("/outbox/clear", h.ClearOutbox)
	})

	r.Get("/ws", hub.ServeWS)

	log.Printf("sharesyncd gateway listening on %s", cfg.GatewayAddress)
	if err := http.ListenAndServe(cfg.GatewayAddress, r); err != nil {
		log.Fatalf("gateway failed to start: %v", err)
	}
}
