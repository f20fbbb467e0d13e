package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Simplici0/quoteengine/internal/catalog"
	"github.com/Simplici0/quoteengine/internal/catalog/store"
	"github.com/Simplici0/quoteengine/internal/config"
	"github.com/Simplici0/quoteengine/internal/db"
	"github.com/Simplici0/quoteengine/internal/logging"
	"github.com/Simplici0/quoteengine/internal/migrations"
	"github.com/Simplici0/quoteengine/internal/quote"
	"github.com/Simplici0/quoteengine/internal/seed"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type productCatalog interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
	List(ctx context.Context, f store.ListFilter) ([]catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product) error
	Update(ctx context.Context, p *catalog.Product) error
	Delete(ctx context.Context, id string) error
}

type quoteService interface {
	Create(ctx context.Context, in quote.CreateInput) (*quote.Quote, error)
	List(ctx context.Context, query string) ([]quote.ListItem, error)
	Get(ctx context.Context, id string) (*quote.Quote, error)
}

type server struct {
	auth     *authService
	products productCatalog
	quotes   quoteService
	logger   *zap.Logger
}

func main() {
	cfg := config.Load()

	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	port := flags.String("port", cfg.Port, "HTTP listen port")
	dbPath := flags.String("db", cfg.DBPath, "SQLite database path")
	migrate := flags.Bool("migrate", cfg.IsDev(), "apply database migrations on startup")
	_ = flags.Parse(os.Args[1:])
	cfg.Port = *port
	cfg.DBPath = *dbPath

	logger, err := logging.New(cfg.IsDev(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer database.Close()

	if *migrate {
		if err := migrations.Up(database.DB); err != nil {
			logger.Fatal("failed to run database migrations", zap.Error(err))
		}
	}

	stats, err := seed.Run(context.Background(), database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
	if err != nil {
		logger.Fatal("failed to seed database", zap.Error(err))
	}
	logger.Info("seed completed", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))

	products, err := store.NewCached(store.New(database), cfg.CatalogCacheSize)
	if err != nil {
		logger.Fatal("failed to build product cache", zap.Error(err))
	}

	srv := &server{
		auth:     newAuthService(database, cfg.SessionSecret),
		products: products,
		quotes:   quote.NewService(database, products),
		logger:   logger,
	}

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.authMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleProductsList)
		r.With(requireAdmin).Post("/", s.handleProductCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleProductGet)
			r.With(requireAdmin).Put("/", s.handleProductUpdate)
			r.With(requireAdmin).Delete("/", s.handleProductDelete)
			r.Post("/calculate", s.handleCalculate)
		})
	})

	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", s.handleQuotesList)
		r.Post("/", s.handleQuoteCreate)
		r.Get("/{id}", s.handleQuoteDetail)
		r.Get("/{id}/text", s.handleQuoteText)
	})

	return r
}
