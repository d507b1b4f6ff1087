package svc

import (
	"context"
	"log"
	"time"

	"nowink/internal/config"
	"nowink/internal/executor"
	"nowink/internal/model"

	"github.com/panjf2000/ants/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TaskRunner runs background jobs. *ants.Pool satisfies it.
type TaskRunner interface {
	Submit(task func()) error
}

type ServiceContext struct {
	Config        config.Config
	DB            *gorm.DB
	StreamsDao    model.StreamsDao
	NftsDao       model.NftsDao
	AuthNoncesDao model.AuthNoncesDao

	Storage executor.Storage
	Minter  executor.Minter
	// 平台钱包地址，写入元数据 creators
	PlatformWallet string
	MintPool       TaskRunner
}

func NewServiceContext(c config.Config) *ServiceContext {
	db, err := initDB(c.Postgres.DSN)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}

	keys := KeySourceFor(c.Solana)
	authority, err := keys.Load(context.Background())
	if err != nil {
		log.Fatalf("failed to load platform wallet: %v", err)
	}

	pool, err := newMintPool(c.Minter.Workers)
	if err != nil {
		log.Fatalf("failed to init mint pool: %v", err)
	}

	storage := executor.NewHTTPUploader(c.Storage.UploaderUrl, c.Storage.ApiKey)

	var minter executor.Minter
	switch c.Minter.Mode {
	case "process":
		minter = executor.NewProcessRunner(c.Minter.BinPath, c.Solana.Network)
	default:
		ledger := executor.NewSolanaLedger(executor.RPCEndpoint(c.Solana.Network, c.Solana.RpcUrl))
		minter = executor.NewExecutor(keys, ledger, storage, c.Solana.Network)
	}

	return &ServiceContext{
		Config:         c,
		DB:             db,
		StreamsDao:     model.NewStreamsDao(db),
		NftsDao:        model.NewNftsDao(db),
		AuthNoncesDao:  model.NewAuthNoncesDao(db),
		Storage:        storage,
		Minter:         minter,
		PlatformWallet: authority.PublicKey.ToBase58(),
		MintPool:       pool,
	}
}

// newMintPool 非阻塞：worker 全忙时 Submit 立即返回 ants.ErrPoolOverload
func newMintPool(workers int) (*ants.Pool, error) {
	return ants.NewPool(workers, ants.WithNonblocking(true))
}

// KeySourceFor prefers Secret Manager when a secret name is configured.
func KeySourceFor(c config.SolanaConf) executor.KeySource {
	if c.KeypairSecret != "" {
		return executor.SecretKeySource{Name: c.KeypairSecret}
	}
	return executor.FileKeySource{Path: c.KeypairPath}
}

// Close releases the mint pool, waiting for in-flight mints up to timeout.
func (s *ServiceContext) Close(timeout time.Duration) {
	if pool, ok := s.MintPool.(*ants.Pool); ok {
		if err := pool.ReleaseTimeout(timeout); err != nil {
			log.Printf("mint pool release: %v", err)
		}
	}
}

func initDB(dsn string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&model.Streams{}, &model.Nfts{}, &model.AuthNonces{}); err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}
