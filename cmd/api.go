package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	redisLib "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/blogcms/blog-api/internal/web"
	"github.com/blogcms/blog-api/internal/web/blog/controller"
	"github.com/blogcms/blog-api/internal/web/blog/dao"
	"github.com/blogcms/blog-api/internal/web/blog/service"
	"github.com/blogcms/blog-api/library/auth"
	"github.com/blogcms/blog-api/library/config"
	"github.com/blogcms/blog-api/library/db/mongo"
	"github.com/blogcms/blog-api/library/db/redis"
	"github.com/blogcms/blog-api/library/log"
	"github.com/blogcms/blog-api/library/notify"
	"github.com/blogcms/blog-api/library/storage"
	"github.com/blogcms/blog-api/library/throttle"
)

const (
	defaultUploadDir    = "uploads"
	defaultUploadPrefix = "/uploads"

	defaultRatePerSec      = 1
	defaultRateBurst       = 100
	defaultRateTotalPerSec = 1000
	defaultRateTotalBurst  = 2000

	throttleSweepInterval = time.Minute
	throttleIdle          = 15 * time.Minute
)

var apiCMD = &cobra.Command{
	Use:   "api",
	Short: "api",
	Long:  `run the blog REST API`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runAPI(ctx, log.Logger.Named("api")); err != nil {
			log.Logger.Panic("run api", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(apiCMD)
}

// runAPI wires every dependency, serves until ctx is done, then releases
// the clients in reverse order.
func runAPI(ctx context.Context, logger glog.Logger) error {
	db, err := connectBlogDB(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Error("close mongo", zap.Error(err))
		}
	}()

	blogDao := dao.New(logger.Named("blog_dao"), db)
	if err = blogDao.EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	files, staticRoot, err := newFileStore()
	if err != nil {
		return errors.Wrap(err, "new file store")
	}

	maxBytes := int64(gconfig.Shared.GetInt("settings.upload.max_bytes"))
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxUploadBytes
	}
	opts := []service.Option{service.WithFileStore(files, maxBytes)}
	if cache := newCache(logger); cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("close redis", zap.Error(err))
			}
		}()
		opts = append(opts, service.WithCache(cache))
	}
	notifier, err := newNotifier(logger)
	if err != nil {
		return errors.Wrap(err, "new notifier")
	}
	opts = append(opts, service.WithNotifier(notifier))

	svc, err := service.New(logger.Named("blog_svc"), blogDao, opts...)
	if err != nil {
		return errors.Wrap(err, "new blog service")
	}

	verifier, err := auth.NewVerifier([]byte(gconfig.Shared.GetString("settings.auth.secret")))
	if err != nil {
		return errors.Wrap(err, "new token verifier")
	}
	ctl, err := controller.New(svc, verifier)
	if err != nil {
		return errors.Wrap(err, "new blog controller")
	}

	th, err := newThrottle()
	if err != nil {
		return errors.Wrap(err, "new throttle")
	}
	go th.RunSweeper(ctx, throttleSweepInterval, throttleIdle)

	engineOpts := []web.EngineOption{
		web.WithCORSOrigins(gconfig.Shared.GetStringSlice("settings.web.cors_origins")...),
		web.WithThrottle(th),
	}
	if staticRoot != "" {
		engineOpts = append(engineOpts, web.WithStatic(uploadPrefix(), staticRoot))
	}
	engine, err := web.NewEngine(logger, ctl, engineOpts...)
	if err != nil {
		return errors.Wrap(err, "new engine")
	}

	if gconfig.Shared.GetBool("dry") {
		logger.Info("dry run, skip serving")
		return nil
	}
	return web.RunServer(ctx, logger, gconfig.Shared.GetString("listen"), engine)
}

func connectBlogDB(ctx context.Context, logger glog.Logger) (mongo.DB, error) {
	db, err := mongo.NewDB(ctx, logger, mongo.DialInfo{
		Addr:   gconfig.Shared.GetString("settings.db.blog.addr"),
		DBName: gconfig.Shared.GetString("settings.db.blog.db"),
		User:   gconfig.Shared.GetString("settings.db.blog.user"),
		Pwd:    gconfig.Shared.GetString("settings.db.blog.pwd"),
		AuthDB: gconfig.Shared.GetString("settings.db.blog.auth_db"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect blog db")
	}

	return db, nil
}

func uploadPrefix() string {
	if p := gconfig.Shared.GetString("settings.upload.public_prefix"); p != "" {
		return p
	}
	return defaultUploadPrefix
}

// newFileStore returns the upload backend, plus the directory to serve
// statically when files live on the local disk.
func newFileStore() (storage.Store, string, error) {
	switch backend := gconfig.Shared.GetString("settings.upload.backend"); backend {
	case "", "local":
		dir := gconfig.Shared.GetString("settings.upload.dir")
		if dir == "" {
			dir = defaultUploadDir
		}
		local, err := storage.NewLocal(config.ResolvePath(dir), uploadPrefix())
		if err != nil {
			return nil, "", errors.Wrap(err, "new local storage")
		}
		return local, local.Root(), nil
	case "minio":
		m, err := storage.NewMinio(storage.MinioOption{
			Endpoint:  gconfig.Shared.GetString("settings.upload.minio.endpoint"),
			AccessKey: gconfig.Shared.GetString("settings.upload.minio.access_key"),
			SecretKey: gconfig.Shared.GetString("settings.upload.minio.secret_key"),
			Bucket:    gconfig.Shared.GetString("settings.upload.minio.bucket"),
			Secure:    gconfig.Shared.GetBool("settings.upload.minio.secure"),
			PublicURL: gconfig.Shared.GetString("settings.upload.minio.public_url"),
		})
		if err != nil {
			return nil, "", errors.Wrap(err, "new minio storage")
		}
		return m, "", nil
	default:
		return nil, "", errors.Errorf("unknown upload backend %q", backend)
	}
}

// newCache returns nil when redis is not configured
func newCache(logger glog.Logger) *redis.DB {
	addr := gconfig.Shared.GetString("settings.db.redis.addr")
	if addr == "" {
		logger.Info("redis not configured, caching disabled")
		return nil
	}

	return redis.NewDB(&redisLib.Options{
		Addr:     addr,
		Password: gconfig.Shared.GetString("settings.db.redis.pwd"),
		DB:       gconfig.Shared.GetInt("settings.db.redis.db"),
	}, time.Duration(gconfig.Shared.GetInt("settings.db.redis.ttl_sec"))*time.Second)
}

func newNotifier(logger glog.Logger) (notify.Notifier, error) {
	token := gconfig.Shared.GetString("settings.notify.telegram.token")
	if token == "" {
		logger.Info("telegram not configured, contact notifications disabled")
		return notify.Nop{}, nil
	}

	tg, err := notify.NewTelegram(token,
		int64(gconfig.Shared.GetInt("settings.notify.telegram.chat_id")),
		gconfig.Shared.GetString("settings.notify.telegram.api"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "new telegram notifier")
	}
	return tg, nil
}

func newThrottle() (*throttle.Throttle, error) {
	intOr := func(key string, def int) int {
		if v := gconfig.Shared.GetInt(key); v > 0 {
			return v
		}
		return def
	}

	return throttle.New(throttle.Config{
		EachPerSec:  intOr("settings.web.rate_limit.per_sec", defaultRatePerSec),
		EachBurst:   intOr("settings.web.rate_limit.burst", defaultRateBurst),
		TotalPerSec: intOr("settings.web.rate_limit.total_per_sec", defaultRateTotalPerSec),
		TotalBurst:  intOr("settings.web.rate_limit.total_burst", defaultRateTotalBurst),
	})
}
