package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/cache"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/config"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/health"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/observability"
	"github.com/aaravmahajanofficial/storefront-pricing/internal/pricing"
	repository "github.com/aaravmahajanofficial/storefront-pricing/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront-pricing/internal/services"
)

func main() {

	// Logger setup
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load config
	cfg := config.MustLoad()

	// Tracing setup
	shutdownTracer, err := observability.InitTracer(context.Background(), cfg.Otel)
	if err != nil {
		slog.Error("❌ Error initializing tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Pricing rules
	rates, err := pricing.RatesFromConfig(cfg.Pricing)
	if err != nil {
		slog.Error("❌ Invalid pricing configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	engine := pricing.NewEngine(rates)

	// Database setup
	repos, err := repository.New(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := repos.Close(); err != nil {
			slog.Error("⚠️ Error closing database connection", slog.String("error", err.Error()))
		} else {
			slog.Info("✅ Database connection closed")
		}
	}()

	// Redis setup
	redisClient, err := repository.NewRedisClient(cfg)
	if err != nil {
		slog.Error("❌ Error accessing the redis instance", slog.String("error", err.Error()))
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(redisClient, &cfg.Cache)
	defer func() {
		if err := redisCache.Close(); err != nil {
			slog.Error("⚠️ Error closing redis connection", slog.String("error", err.Error()))
		}
	}()

	rateLimiter := repository.NewRateLimitRepo(redisClient, cfg.RateConfig)

	cartService := service.NewCartService(repos.Cart, repos.Product, repos.Coupon, rateLimiter, redisCache, engine)
	cartHandler := handlers.NewCartHandler(cartService)
	couponService := service.NewCouponService(repos.Coupon, repos.Cart, redisCache, engine)
	couponHandler := handlers.NewCouponHandler(couponService)
	orderService := service.NewOrderService(repos.Order, repos.Cart, repos.Product, redisCache, engine)
	orderHandler := handlers.NewOrderHandler(orderService)
	quoteService := service.NewQuoteService(repos.Coupon, redisCache, engine)
	pricingHandler := handlers.NewPricingHandler(quoteService)
	authMiddleware := middleware.NewAuthMiddleware([]byte(cfg.Security.JWTKey))

	healthChecker, err := health.NewHealthHandler(cfg)
	if err != nil {
		slog.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
		slog.String("taxRate", rates.TaxRate.String()),
		slog.Bool("promotions", rates.Promotions.Enabled),
	)

	// Setup router
	routerMux := http.NewServeMux()
	routerMux.HandleFunc("GET /api/v1/carts", authMiddleware.Authenticate(cartHandler.GetCart()))
	routerMux.HandleFunc("DELETE /api/v1/carts", authMiddleware.Authenticate(cartHandler.ClearCart()))
	routerMux.HandleFunc("POST /api/v1/carts/items", authMiddleware.Authenticate(cartHandler.AddItem()))
	routerMux.HandleFunc("PUT /api/v1/carts/items", authMiddleware.Authenticate(cartHandler.UpdateItem()))
	routerMux.HandleFunc("DELETE /api/v1/carts/items", authMiddleware.Authenticate(cartHandler.RemoveItem()))
	routerMux.HandleFunc("POST /api/v1/carts/coupon", authMiddleware.Authenticate(cartHandler.ApplyCoupon()))
	routerMux.HandleFunc("DELETE /api/v1/carts/coupon", authMiddleware.Authenticate(cartHandler.RemoveCoupon()))
	routerMux.HandleFunc("POST /api/v1/pricing/quote", authMiddleware.Authenticate(pricingHandler.Quote()))
	routerMux.HandleFunc("POST /api/v1/coupons/validate", authMiddleware.Authenticate(couponHandler.ValidateCoupon()))
	routerMux.HandleFunc("POST /api/v1/coupons", authMiddleware.RequireAdmin(couponHandler.CreateCoupon()))
	routerMux.HandleFunc("GET /api/v1/coupons", authMiddleware.RequireAdmin(couponHandler.ListCoupons()))
	routerMux.HandleFunc("GET /api/v1/coupons/{code}", authMiddleware.RequireAdmin(couponHandler.GetCoupon()))
	routerMux.HandleFunc("PUT /api/v1/coupons/{code}", authMiddleware.RequireAdmin(couponHandler.UpdateCoupon()))
	routerMux.HandleFunc("POST /api/v1/orders", authMiddleware.Authenticate(orderHandler.PlaceOrder()))
	routerMux.HandleFunc("GET /api/v1/orders/{id}", authMiddleware.Authenticate(orderHandler.GetOrder()))
	routerMux.HandleFunc("GET /api/v1/orders", authMiddleware.Authenticate(orderHandler.ListOrders()))
	routerMux.HandleFunc("PATCH /api/v1/orders/{id}/status", authMiddleware.RequireAdmin(orderHandler.UpdateOrderStatus()))
	routerMux.Handle("GET /metrics", metrics.Handler())
	routerMux.Handle("GET /health", healthChecker.Handler())

	// Middleware chaining; metrics must see the matched pattern, so it sits closest to the mux
	var handler http.Handler = routerMux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = observability.HTTPHandler(handler, "storefront-pricing")

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("❌ Failed to start server", slog.Any("error", err.Error()))
		}
	}()

	<-done

	slog.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		slog.Info("✅ Server shut down gracefully. All connections closed.")
	}

	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("⚠️ Failed to flush traces", slog.String("error", err.Error()))
	}

}
