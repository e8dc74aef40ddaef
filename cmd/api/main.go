package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"dcf_valuation/pkg/api/config"
	"dcf_valuation/pkg/api/valuation"
	"dcf_valuation/pkg/core/settings"
)

func main() {
	// Load environment variables
	godotenv.Load()

	path := os.Getenv("DCF_SETTINGS")
	if path == "" {
		path = settings.DefaultPath
	}
	cfg, err := settings.Load(path)
	if err != nil {
		fmt.Printf("[FATAL] Failed to load settings: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[CONFIG] Defaults: %+v\n", cfg.Params())

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	configHandler := config.NewHandler(cfg)
	r.Get("/api/config", configHandler.HandleConfig)

	valuation.NewHandler(cfg).Routes(r)

	fmt.Printf("API server starting on %s...\n", cfg.Server.Addr)
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/valuation/dcf")
	fmt.Println("  - POST /api/valuation/implied-growth")
	fmt.Println("  - POST /api/valuation/sensitivity")
	fmt.Println("  - POST /api/valuation/report  (?format=markdown)")

	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}

// cors allows the local frontend to call the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
