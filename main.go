// redmesh-dashboard is the operator console for distributed network scan
// jobs. It normalizes the upstream job API's varied payload shapes into one
// canonical model, caches snapshots locally, and resolves per-pass reports
// from content-addressed storage.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/acme/autocert"

	"github.com/Ratio1/RedMesh-demo-sub000/internal/cstore"
	"github.com/Ratio1/RedMesh-demo-sub000/internal/demo"
	"github.com/Ratio1/RedMesh-demo-sub000/internal/jobapi"
	"github.com/Ratio1/RedMesh-demo-sub000/internal/sqlite"
	"github.com/Ratio1/RedMesh-demo-sub000/pkg/redmesh"
)

var httpsAddr string

// redirectHTTPS is a middleware for redirecting non-HTTPS requests to HTTPS.
func redirectHTTPS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, httpsPort, err := net.SplitHostPort(httpsAddr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if r.TLS == nil {
			url := r.URL
			url.Scheme = "https"
			host, _, err := net.SplitHostPort(r.Host)
			if err != nil {
				host = r.Host
			}
			url.Host = net.JoinHostPort(host, httpsPort)
			http.Redirect(w, r, url.String(), http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	authDisabled := flag.Bool("no-auth", false, "Disable authentication")
	credsFile := flag.String("credentials", "client_secret.json",
		"OAuth 2.0 credentials `file`\n"+
			"Relative paths are taken as relative to -data.dir")
	httpAddr := flag.String("http.addr", ":8080", "HTTP `address`:port")
	flag.StringVar(&httpsAddr, "https.addr", ":443", "HTTPS `address`:port")
	metricsAddr := flag.String("metrics.addr", "localhost:3000", "Metrics `address`:port")
	enableTLS := flag.Bool("tls", false, "Enable AutoTLS")
	tlsHostname := flag.String("tls.hostname", "", "(Optional) Restrict AutoTLS to `hostname`")
	demoMode := flag.Bool("demo", false, "Run with an in-process fake upstream")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := sqlite.Open(filepath.Join(cfg.DataDir, sqlite.DefaultDBFile))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	app := &App{
		db:           db,
		log:          log,
		authDisabled: *authDisabled,
	}

	if *demoMode || cfg.Demo {
		store := demo.NewStore(log)
		app.svc = store
		app.fetcher = store
		log.Info("demo mode: using in-process upstream")
	} else {
		app.svc = jobapi.New(cfg.JobAPIURL, nil, log)
		app.fetcher = cstore.New(cfg.CStoreURL, nil, log)
	}

	// A missing upstream at boot must not prevent the dashboard from
	// starting; the built-in catalog covers the launch form until the
	// first successful refresh.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	app.catalog, err = app.svc.FeatureCatalog(ctx)
	cancel()
	if err != nil {
		log.WithError(err).Warn("feature catalog unavailable, using built-in defaults")
		app.catalog = redmesh.DefaultCatalog
	}

	if !*authDisabled {
		creds := *credsFile
		if !filepath.IsAbs(creds) {
			creds = filepath.Join(cfg.DataDir, creds)
		}
		if err := app.setupAuth(cfg.DataDir, creds); err != nil {
			log.Fatal(err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "%sAuthentication Disabled%s\n", "\033[31m", "\033[0m")
	}

	var middlewares []func(http.Handler) http.Handler
	var m *autocert.Manager
	if *enableTLS {
		m = &autocert.Manager{
			Cache:  autocert.DirCache(filepath.Join(cfg.DataDir, ".cache")),
			Prompt: autocert.AcceptTOS,
		}
		if *tlsHostname != "" {
			m.HostPolicy = autocert.HostWhitelist(*tlsHostname)
		}
		middlewares = append(middlewares, m.HTTPHandler, redirectHTTPS)
	}

	r := app.router(middlewares...)

	// Common http.Server timeout values
	readTimeout := 5 * time.Second
	writeTimeout := 30 * time.Second
	idleTimeout := 120 * time.Second

	httpSrv := &http.Server{
		Addr:         *httpAddr,
		Handler:      r,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	metricsMux := chi.NewRouter()
	metricsMux.Use(middleware.RealIP)
	metricsMux.Handle("/metrics", app.metrics())
	metricsSrv := &http.Server{
		Addr:         *metricsAddr,
		Handler:      metricsMux,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	log.Info("metrics server starting on ", metricsSrv.Addr)
	go func() { log.Fatal(metricsSrv.ListenAndServe()) }()

	if *enableTLS {
		tlsConfig := &tls.Config{
			GetCertificate: m.GetCertificate,
			CurvePreferences: []tls.CurveID{
				tls.CurveP256,
				tls.X25519,
			},
			MinVersion: tls.VersionTLS12,
		}

		httpsSrv := &http.Server{
			Addr:         httpsAddr,
			Handler:      r,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
			TLSConfig:    tlsConfig,
		}
		log.Info("HTTPS server starting on ", httpsSrv.Addr)
		go func() { log.Fatal(httpsSrv.ListenAndServeTLS("", "")) }()
	}

	log.Info("HTTP server starting on ", httpSrv.Addr)
	log.Fatal(httpSrv.ListenAndServe())
}
