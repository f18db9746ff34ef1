package backend

import (
	"context"
	"time"

	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/database"
	"vincit.fi/media-preview/backend/loader"
	"vincit.fi/media-preview/backend/rediscache"
	"vincit.fi/media-preview/common"
	"vincit.fi/media-preview/common/event"
	"vincit.fi/media-preview/common/logger"
)

const (
	defaultCacheMaxBytes = 256 * 1024 * 1024
	redisCacheDb         = 0
	redisExpiration      = 7 * 24 * time.Hour
	eventBusQueueSize    = 1024
)

type Stores struct {
	// Cache is nil when persistent caching is disabled.
	Cache      api.BytesCache
	ImageCache *database.ImageCacheStore
	database   *database.Database
	redis      *rediscache.Store
}

func (s *Stores) Close() {
	if s.database != nil {
		defer s.database.Close()
	}
	if s.redis != nil {
		defer func() {
			if err := s.redis.Close(); err != nil {
				logger.Warn.Printf("Could not close redis client: %s", err)
			}
		}()
	}
}

type Brokers struct {
	Broker *event.Broker
	Runner *event.Runner
}

func InitializeEventBrokers(eventBusQueueSize int) *Brokers {
	logger.Debug.Printf("Initialize event brokers...")
	runner := event.NewRunner()
	brokers := &Brokers{
		Broker: event.InitBus(eventBusQueueSize, runner),
		Runner: runner,
	}
	logger.Debug.Printf("Event brokers initialized")
	return brokers
}

func InitializeDefaultEventBrokers() *Brokers {
	return InitializeEventBrokers(eventBusQueueSize)
}

type Services struct {
	PathFetcher *loader.PathFetcher
	S3Fetcher   *loader.S3Fetcher
	Loader      *loader.Loader
	Style       apitype.Style
	MaxFailures int
}

func (s *Services) Close() {
	s.Loader.Close()
}

// InitializeStores opens the persistent cache selected by the params.
func InitializeStores(ctx context.Context, params *common.Params) (*Stores, error) {
	logger.Debug.Printf("Initialize stores with '%s' cache...", params.GetCacheBackend())
	stores := &Stores{}
	switch params.GetCacheBackend() {
	case common.CacheBackendSqlite:
		var databaseInstance *database.Database
		var err error
		if params.GetCacheDb() == "" {
			databaseInstance, err = database.NewInMemoryDatabase()
		} else {
			databaseInstance, err = database.NewDatabase(params.GetCacheDb())
		}
		if err != nil {
			return nil, err
		}
		if _, err := databaseInstance.Migrate(); err != nil {
			databaseInstance.Close()
			return nil, err
		}
		imageCache := database.NewImageCacheStore(databaseInstance)
		if _, err := imageCache.TrimToSize(defaultCacheMaxBytes); err != nil {
			logger.Warn.Printf("Could not trim image cache: %s", err)
		}
		stores.database = databaseInstance
		stores.ImageCache = imageCache
		stores.Cache = imageCache
	case common.CacheBackendRedis:
		store, err := rediscache.NewStore(ctx, params.GetRedisAddr(), params.GetRedisPassword(), redisCacheDb, redisExpiration)
		if err != nil {
			return nil, err
		}
		stores.redis = store
		stores.Cache = store
	default:
		logger.Info.Printf("Persistent image cache disabled")
	}
	logger.Debug.Printf("Stores initialized")
	return stores, nil
}

// InitializeServices builds the fetchers and starts the loader. Files found
// locally are always served by the path fetcher, everything else falls
// through to S3 when a bucket is configured.
func InitializeServices(ctx context.Context, params *common.Params, stores *Stores, brokers *Brokers) (*Services, error) {
	logger.Debug.Printf("Initialize services...")
	pathFetcher := loader.NewPathFetcher()
	fetchers := loader.ChainFetcher{pathFetcher}

	s3Config := loader.S3Config{
		Bucket:      params.GetS3Bucket(),
		Region:      params.GetS3Region(),
		EndpointURL: params.GetS3Endpoint(),
	}
	var s3Fetcher *loader.S3Fetcher
	if s3Config.IsEnabled() {
		var err error
		if s3Fetcher, err = loader.NewS3Fetcher(ctx, s3Config); err != nil {
			return nil, err
		}
		fetchers = append(fetchers, s3Fetcher)
	}

	style := apitype.DefaultStyle()
	style.ReplyBarHeight = params.GetReplyBarSize()
	style.RetinaFactor = params.GetRetinaFactor()

	services := &Services{
		PathFetcher: pathFetcher,
		S3Fetcher:   s3Fetcher,
		Loader:      loader.NewLoader(fetchers, stores.Cache, brokers.Broker, params.GetWorkers(), params.GetQueueSize(), params.GetTimeout()),
		Style:       style,
		MaxFailures: params.GetMaxDecodeFailures(),
	}
	logger.Debug.Printf("Services initialized")
	return services, nil
}
