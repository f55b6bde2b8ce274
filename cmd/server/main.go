package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/tkani-shop/internal/app"
	"github.com/linemk/tkani-shop/internal/app/handlers"
	"github.com/linemk/tkani-shop/internal/config"
	"github.com/linemk/tkani-shop/internal/lib/logger"
	"github.com/linemk/tkani-shop/internal/lib/logger/handlers/urllog"
	"github.com/linemk/tkani-shop/internal/security/jwtmiddleware"
	"github.com/linemk/tkani-shop/internal/service"
	"github.com/linemk/tkani-shop/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// в production тексты внутренних ошибок наружу не отдаются
	handlers.SetErrorMode(cfg.Env)

	// загружаем объект приложения, конфигом и подключением к БД и кэшу
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	brandRepo := storage.NewBrandRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	historyRepo := storage.NewOrderHistoryRepository(application.DB)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(application.Config.JWT.TokenTTL)*time.Minute)
	catalogService := service.NewCatalogService(application.Logger, productRepo, categoryRepo, brandRepo, application.Cache)
	cartService := service.NewCartService(application.Logger, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, productRepo, orderRepo, historyRepo)
	adminService := service.NewAdminProductService(application.Logger, productRepo, application.Cache)

	cookieTTL := cfg.Cart.CookieTTL

	// публичные эндпоинты: аутентификация, каталог, корзина
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService))

	router.Get("/api/catalog/products", handlers.ListProductsHandler(application.Logger, catalogService))
	router.Get("/api/catalog/products/{id}", handlers.ProductDetailHandler(application.Logger, catalogService))
	router.Get("/api/catalog/categories", handlers.ListCategoriesHandler(application.Logger, catalogService))
	router.Get("/api/catalog/brands", handlers.ListBrandsHandler(application.Logger, catalogService))

	router.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
	router.Post("/api/cart/add", handlers.AddToCartHandler(application.Logger, cartService, cookieTTL))
	router.Post("/api/cart/update", handlers.UpdateCartHandler(application.Logger, cartService, cookieTTL))
	router.Post("/api/cart/remove", handlers.RemoveFromCartHandler(application.Logger, cartService, cookieTTL))
	router.Post("/api/cart/clear", handlers.ClearCartHandler(application.Logger))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)
		// профиль текущего пользователя
		r.Get("/api/auth/me", handlers.MeHandler(application.Logger, authService))
		// заказы: создание из корзины, список, детали, смена статуса
		r.Post("/api/orders/create", handlers.CreateOrderHandler(application.Logger, orderService))
		r.Get("/api/orders/my", handlers.MyOrdersHandler(application.Logger, orderService))
		r.Get("/api/orders/{id}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Put("/api/orders/{id}/status", handlers.UpdateOrderStatusHandler(application.Logger, orderService))
		// административные операции с товарами, роль проверяется в обработчиках
		r.Get("/api/admin/products", handlers.AdminListProductsHandler(application.Logger, adminService))
		r.Post("/api/admin/products", handlers.AdminCreateProductHandler(application.Logger, adminService))
		r.Put("/api/admin/products/{id}", handlers.AdminUpdateProductHandler(application.Logger, adminService))
		r.Delete("/api/admin/products/{id}", handlers.AdminDeleteProductHandler(application.Logger, adminService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
