package cmd

import (
	"context"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/blogcms/blog-api/internal/web/blog/dao"
	"github.com/blogcms/blog-api/library/log"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `create the indexes the blog collections rely on`,
	Args:  gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if err := initialize(ctx, cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMigrate(cmd.Context(), log.Logger.Named("migrate")); err != nil {
			log.Logger.Panic("migrate", zap.Error(err))
		}
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}

func runMigrate(ctx context.Context, logger glog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := connectBlogDB(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Error("close mongo", zap.Error(err))
		}
	}()

	if gconfig.Shared.GetBool("dry") {
		logger.Info("dry run, connection ok, skip creating indexes")
		return nil
	}

	if err = dao.New(logger.Named("blog_dao"), db).EnsureIndexes(ctx); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	logger.Info("migrate done")
	return nil
}
