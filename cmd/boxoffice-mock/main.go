package main

import (
	"encoding/json"
	"flag"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Clark-Hu/cinecast/internal/logging"
)

type movieEntry struct {
	Title    string  `json:"title"`
	Revenue  revenue `json:"revenue"`
	Currency string  `json:"currency,omitempty"`
	Source   string  `json:"source,omitempty"`
}

type revenue struct {
	Worldwide int64 `json:"worldwide"`
}

var builtin = map[string]movieEntry{
	"Inception":    {Title: "Inception", Revenue: revenue{Worldwide: 836_800_000}, Currency: "USD", Source: "mock"},
	"Tenet":        {Title: "Tenet", Revenue: revenue{Worldwide: 365_300_000}, Currency: "USD", Source: "mock"},
	"Interstellar": {Title: "Interstellar", Revenue: revenue{Worldwide: 773_400_000}, Currency: "USD", Source: "mock"},
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "", "path to mock data file (defaults to a built-in set)")
		apiKey = flag.String("api-key", "", "required X-API-Key value, empty to accept any")
		debug  = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	payload := builtin
	if *data != "" {
		file, err := os.ReadFile(*data)
		if err != nil {
			logger.Fatal("read mock data", zap.Error(err))
		}
		payload = map[string]movieEntry{}
		if err := json.Unmarshal(file, &payload); err != nil {
			logger.Fatal("parse mock data", zap.Error(err))
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/boxoffice", func(w http.ResponseWriter, r *http.Request) {
		if *apiKey != "" && r.Header.Get("X-API-Key") != *apiKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		title := r.URL.Query().Get("title")
		logger.Debug("lookup", zap.String("title", title))
		entry, ok := payload[title]
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entry); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	logger.Info("mock boxoffice listening", zap.String("addr", addr), zap.Int("entries", len(payload)))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
