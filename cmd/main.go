package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	acceptBookingHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/accept_booking"
	assignBookingHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/assign_booking"
	cancelBookingHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/cancel_booking"
	completeBookingHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/complete_booking"
	createBookingHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/create_booking"
	createServiceHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/create_service"
	getAvailabilityHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/get_booking"
	getBookingEventsHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/get_booking_events"
	getCustomerBookingsHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/get_customer_bookings"
	getWorkerBookingsHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/get_worker_bookings"
	listBookingsHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/list_bookings"
	listServicesHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/list_services"
	updateServiceHandler "github.com/m04kA/PCS-BookingService/internal/api/handlers/update_service"
	"github.com/m04kA/PCS-BookingService/internal/api/middleware"
	"github.com/m04kA/PCS-BookingService/internal/config"
	actorRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/actor"
	bookingRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/catalog"
	bookingsService "github.com/m04kA/PCS-BookingService/internal/service/bookings"
	catalogService "github.com/m04kA/PCS-BookingService/internal/service/catalog"
	createBookingUC "github.com/m04kA/PCS-BookingService/internal/usecase/create_booking"
	getAvailabilityUC "github.com/m04kA/PCS-BookingService/internal/usecase/get_availability"
	"github.com/m04kA/PCS-BookingService/pkg/dbmetrics"
	"github.com/m04kA/PCS-BookingService/pkg/logger"
	"github.com/m04kA/PCS-BookingService/pkg/metrics"
	"github.com/m04kA/PCS-BookingService/pkg/simpletxmanager"
	"github.com/m04kA/PCS-BookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting PCS-BookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository *bookingRepo.Repository
		catalogRepository *catalogRepo.Repository
		actorRepository   *actorRepo.Repository
	)

	// Интерфейс transaction manager: usecases используют
	// сериализуемые транзакции, сервис переходов - обычные
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		catalogRepository = catalogRepo.NewRepository(wrappedDB)
		actorRepository = actorRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		catalogRepository = catalogRepo.NewRepository(db)
		actorRepository = actorRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		actorRepository,
		txMgr,
		log,
	)
	catalogSvc := catalogService.NewService(
		catalogRepository,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		catalogRepository,
		actorRepository,
		txMgr,
		log,
	)

	getAvailabilityUseCase := getAvailabilityUC.NewUseCase(
		bookingRepository,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(getAvailabilityUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getBookingEvents := getBookingEventsHandler.NewHandler(bookingSvc, log)
	acceptBooking := acceptBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	assignBooking := assignBookingHandler.NewHandler(bookingSvc, log)
	completeBooking := completeBookingHandler.NewHandler(bookingSvc, log)
	getCustomerBookings := getCustomerBookingsHandler.NewHandler(bookingSvc, log)
	getWorkerBookings := getWorkerBookingsHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	listServices := listServicesHandler.NewHandler(catalogSvc, log)
	createService := createServiceHandler.NewHandler(catalogSvc, log)
	updateService := updateServiceHandler.NewHandler(catalogSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	auth := middleware.NewAuth(actorRepository, cfg.Auth.SessionCookie, log)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Занятые интервалы на дату: потребляется виджетом до логина
	api.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)

	// Каталог услуг: сессия не обязательна, но учитывается
	api.Handle("/services", auth.Optional(http.HandlerFunc(listServices.Handle))).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют валидной сессии)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(auth.Middleware)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Административная выборка бронирований
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)

	// Получение бронирования по публичному ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Журнал событий бронирования
	protected.HandleFunc("/bookings/{bookingId}/events", getBookingEvents.Handle).Methods(http.MethodGet)

	// Переходы статусной машины
	protected.HandleFunc("/bookings/{bookingId}/accept", acceptBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/assign", assignBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)

	// --- Личные выборки ---
	// Бронирования клиента
	protected.HandleFunc("/users/me/bookings", getCustomerBookings.Handle).Methods(http.MethodGet)

	// Бронирования, назначенные технику сейчас
	protected.HandleFunc("/workers/me/bookings", getWorkerBookings.Handle).Methods(http.MethodGet)

	// --- Каталог услуг (для админов) ---
	protected.HandleFunc("/services", createService.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/services/{serviceId}", updateService.Handle).Methods(http.MethodPatch)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
