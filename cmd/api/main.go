package main

import (
	"context"
	"log"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/db"
	"storefront/internal/infra/observability"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"
	"storefront/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "storefront"

type publisher interface {
	usecase.EventPublisher
	Close() error
}

func main() {
	//.envは無くてもよい
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := observability.InitLogger(cfg.GoEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracer, err := observability.InitTracer(serviceName, cfg.JaegerEndpoint)
	if err != nil {
		logger.Fatal("tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	//DB接続
	gormDB, err := db.Connect(cfg.DSN())
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	//注文イベント（ブローカー未設定なら捨てる）
	var pub publisher = broker.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = broker.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicOrders)
		logger.Info("kafka publisher enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopicOrders))
	}
	defer func() { _ = pub.Close() }()

	//Repository（GORM実装）生成
	txm := infraRepo.NewTxManagerGorm(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	favoriteRepo := infraRepo.NewFavoriteGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)

	//usecaseに渡す部品
	clock := usecase.SystemClock{}
	metrics := observability.NewOrderMetrics()

	authUC := usecase.NewAuthUsecase(
		userRepo,
		rtRepo,
		auditRepo,
		validator.NewAuthValidator(userRepo),
		auth.NewBcryptPasswordHasher(cfg.BcryptCost),
		auth.NewBcryptPasswordVerifier(),
		auth.NewJWTIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		auth.UUIDGenerator{},
		clock,
		cfg.RefreshTokenTTL,
	)

	//Handler生成
	h := server.Handlers{
		Auth:          handler.NewAuthHandler(authUC, cfg.CookieSecure),
		Catalog:       handler.NewCatalogHandler(usecase.NewCatalogUsecase(categoryRepo, productRepo)),
		Cart:          handler.NewCartHandler(usecase.NewCartUsecase(cartRepo, cartRepo, inventoryRepo)),
		Order:         handler.NewOrderHandler(usecase.NewOrderUsecase(txm, orderRepo, pub, metrics, model.ZeroPricing(), clock)),
		Favorite:      handler.NewFavoriteHandler(usecase.NewFavoriteUsecase(favoriteRepo, productRepo)),
		Address:       handler.NewAddressHandler(usecase.NewAddressUsecase(addressRepo)),
		AdminProduct:  handler.NewAdminProductHandler(usecase.NewProductUsecase(txm, productRepo, clock)),
		AdminCategory: handler.NewAdminCategoryHandler(usecase.NewCategoryUsecase(txm, categoryRepo, clock)),
		AdminOrder:    handler.NewAdminOrderHandler(usecase.NewAdminOrderUsecase(txm, orderRepo, pub, metrics, clock)),
		AdminUser:     handler.NewAdminUserHandler(usecase.NewAdminUserUsecase(userRepo, orderRepo, productRepo, auditRepo), authUC),
	}

	//Server起動
	e := server.New(cfg, logger, userRepo, h)
	if err := server.Start(e, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
