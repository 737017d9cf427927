package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/ledger-backend/internal/adapter/events"
	grpcadapter "github.com/simaogato/ledger-backend/internal/adapter/grpc"
	"github.com/simaogato/ledger-backend/internal/adapter/lock"
	"github.com/simaogato/ledger-backend/internal/adapter/repository/memory"
	"github.com/simaogato/ledger-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/ledger-backend/internal/config"
	"github.com/simaogato/ledger-backend/internal/domain"
	"github.com/simaogato/ledger-backend/internal/logger"
	"github.com/simaogato/ledger-backend/internal/usecase/account"
	"github.com/simaogato/ledger-backend/internal/usecase/query"
	"github.com/simaogato/ledger-backend/internal/usecase/seeder"
	"github.com/simaogato/ledger-backend/internal/usecase/transfer"
)

// storage bundles the ports a backend provides
type storage struct {
	customers    domain.CustomerRepository
	accounts     domain.AccountRepository
	transactions domain.TransactionRepository
	uow          domain.UnitOfWork
	closer       io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// publisher is an EventPublisher owning a broker connection
type publisher interface {
	grpcadapter.EventPublisher
	io.Closer
}

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logg.Info("Server stopped")
}

func run(ctx context.Context, cfg config.Config, logg *zap.Logger) error {
	// 1. Setup storage
	store, err := openStorage(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer store.closer.Close()

	// 2. Setup account locks
	locker, closeLocker, err := openLocker(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer closeLocker()

	// 3. Setup event publishing
	pub := openPublisher(cfg, logg)
	defer pub.Close()

	// 4. Initialize Services (Use Cases)
	accountService := account.NewAccountService(store.customers, store.accounts)
	transferService := transfer.NewTransferService(store.uow, locker)
	queryService := query.NewQueryService(store.customers, store.accounts, store.transactions)

	// Ensure the configured customers exist
	customers, err := cfg.Customers()
	if err != nil {
		return err
	}
	created, err := seeder.NewCustomerSeeder(store.customers).Seed(ctx, customers)
	if err != nil {
		return fmt.Errorf("failed to seed customers: %w", err)
	}
	logg.Info("Customers seeded", zap.Int("configured", len(customers)), zap.Int("created", created))

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logg),
			grpcadapter.AuthInterceptor(cfg.APIToken),
		),
	)

	ledger := grpcadapter.NewServer(accountService, transferService, queryService, pub, logg)
	grpcadapter.RegisterLedgerServiceServer(grpcServer, ledger)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr(), err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpclib.ErrServerStopped) {
			return fmt.Errorf("failed to serve gRPC server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logg.Info("Shutting down gracefully")
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, logg *zap.Logger) (*storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		logg.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &storage{
			customers:    store.Customers(),
			accounts:     store.Accounts(),
			transactions: store.Transactions(),
			uow:          store,
			closer:       closerFunc(func() error { return nil }),
		}, nil
	}

	db, err := postgres.NewDB(ctx, cfg.ConnString(), postgres.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnectAttempts: cfg.DBConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.RunMigrations {
		if err := postgres.Migrate(db, logg); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &storage{
		customers:    postgres.NewCustomerRepository(db),
		accounts:     postgres.NewAccountRepository(db),
		transactions: postgres.NewTransactionRepository(db),
		uow: postgres.NewUnitOfWork(db, postgres.UnitOfWorkOptions{
			MaxAttempts: cfg.CommitMaxAttempts,
			LockTimeout: cfg.LockTimeout,
		}),
		closer: db,
	}, nil
}

func openLocker(ctx context.Context, cfg config.Config, logg *zap.Logger) (domain.AccountLocker, func(), error) {
	if cfg.LockBackend == config.LockLocal {
		return lock.NewLocalLocker(cfg.LockTimeout), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	opts := lock.DefaultRedisOptions()
	opts.Expiry = cfg.LockExpiry
	opts.RetryDelay = cfg.LockRetryDelay
	if cfg.LockRetryDelay > 0 {
		opts.Tries = int(cfg.LockTimeout/cfg.LockRetryDelay) + 1
	}

	logg.Info("Using redis account locks", zap.String("addr", cfg.RedisAddr))
	return lock.NewRedisLocker(client, opts, logg), func() { _ = client.Close() }, nil
}

func openPublisher(cfg config.Config, logg *zap.Logger) publisher {
	if cfg.RabbitMQURL == "" {
		logg.Info("RABBITMQ_URL not set; ledger events are disabled")
		return events.NewNopPublisher(logg)
	}

	pub, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.EventsExchange, logg)
	if err != nil {
		// Events are best effort; the ledger keeps serving without them
		logg.Warn("Failed to connect to rabbitmq; ledger events are disabled", zap.Error(err))
		return events.NewNopPublisher(logg)
	}
	return pub
}
