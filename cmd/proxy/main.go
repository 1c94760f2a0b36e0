// proxy is a CORS-friendly relay for the RIT REST API, letting browser
// frontends reach the remote DMA server or the local RIT client without
// shipping credentials to the page.
//
// Requests are forwarded verbatim. The X-Proxy-Target header picks the
// backend ("remote" or "local"); X-Proxy-Base overrides the backend URL
// entirely. Auth headers on the inbound request pass through; otherwise the
// configured DMA credentials are injected for remote targets.
//
// Usage: go run ./cmd/proxy --config configs/scraper.local.yaml --listen :3001
package main

import (
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/rickgao/rit-data/internal/auth"
	"github.com/rickgao/rit-data/internal/config"
)

const (
	corsHeaders = "Authorization, Content-Type, X-API-Key, X-Proxy-Target, X-Proxy-Base"
	corsMethods = "GET, POST, DELETE, OPTIONS"
)

type relay struct {
	remote     string
	local      string
	authHeader string // DMA Authorization injected for remote targets
	client     *http.Client
	logger     *slog.Logger
}

func main() {
	configPath := flag.String("config", "configs/scraper.local.yaml", "path to config file")
	listen := flag.String("listen", ":3001", "listen address")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	remote, err := auth.ResolveBaseURL(cfg.Creds, auth.ModeDMA, "")
	if err != nil {
		logger.Error("failed to resolve remote target", "error", err)
		os.Exit(1)
	}
	local := cfg.Creds.ClientBaseURL
	if local == "" {
		local = auth.DefaultClientBaseURL
	}

	var authHeader string
	if cfg.Creds.AuthorizationHeader != "" {
		authHeader = cfg.Creds.AuthorizationHeader
	} else if cfg.Creds.Username != "" && cfg.Creds.Password != "" {
		authHeader = auth.BasicAuth(cfg.Creds.Username, cfg.Creds.Password)
	}

	rl := &relay{
		remote:     remote,
		local:      local,
		authHeader: authHeader,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}

	r := mux.NewRouter()
	r.PathPrefix("/").HandlerFunc(rl.preflight).Methods(http.MethodOptions)
	r.PathPrefix("/").HandlerFunc(rl.forward).Methods(http.MethodGet, http.MethodPost, http.MethodDelete)

	logger.Info("proxy listening", "addr", *listen, "remote", remote, "local", local)
	srv := &http.Server{
		Addr:              *listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("proxy stopped", "error", err)
		os.Exit(1)
	}
}

func (rl *relay) preflight(w http.ResponseWriter, _ *http.Request) {
	writeCORS(w.Header())
	w.WriteHeader(http.StatusOK)
}

func (rl *relay) forward(w http.ResponseWriter, r *http.Request) {
	target := rl.target(r)
	url := target + r.URL.RequestURI()

	var body io.Reader
	if r.Method == http.MethodPost {
		body = r.Body
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req.Header.Set("Accept", "application/json")
	if v := r.Header.Get("Authorization"); v != "" {
		req.Header.Set("Authorization", v)
	} else if rl.authHeader != "" && rl.targetMode(r) != "local" {
		req.Header.Set("Authorization", rl.authHeader)
	}
	if v := r.Header.Get("X-API-Key"); v != "" {
		req.Header.Set("X-API-Key", v)
	}
	if r.Method == http.MethodPost {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/json"
		}
		req.Header.Set("Content-Type", ct)
	}

	resp, err := rl.client.Do(req)
	if err != nil {
		rl.logger.Warn("forward failed", "url", url, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, vals := range resp.Header {
		switch strings.ToLower(k) {
		case "transfer-encoding", "content-encoding":
			continue
		}
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	writeCORS(w.Header())
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

func (rl *relay) targetMode(r *http.Request) string {
	mode := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Proxy-Target")))
	if mode == "" {
		return "remote"
	}
	return mode
}

func (rl *relay) target(r *http.Request) string {
	if base := strings.TrimSpace(r.Header.Get("X-Proxy-Base")); base != "" {
		if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
			return strings.TrimRight(base, "/")
		}
	}
	if rl.targetMode(r) == "local" {
		return rl.local
	}
	return rl.remote
}

func writeCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", corsHeaders)
	h.Set("Access-Control-Allow-Methods", corsMethods)
}
