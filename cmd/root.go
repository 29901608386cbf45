// Package cmd command line
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	gutils "github.com/Laisky/go-utils/v6"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/blogcms/blog-api/library/config"
	"github.com/blogcms/blog-api/library/log"
)

var rootCMD = &cobra.Command{
	Use:   "blog-api",
	Short: "blog-api",
	Long:  `REST API of the blog: posts, categories, comments, uploads and contact messages`,
	Args:  gcmd.NoExtraArgs,
}

func initialize(ctx context.Context, cmd *cobra.Command) error {
	if err := gconfig.Shared.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "bind pflags")
	}

	if err := setupSettings(ctx); err != nil {
		return errors.Wrap(err, "setup settings")
	}
	if err := setupLogger(ctx); err != nil {
		return errors.Wrap(err, "setup logger")
	}
	if err := validateStartupConfig(); err != nil {
		return errors.Wrap(err, "validate settings")
	}

	return nil
}

func setupSettings(_ context.Context) error {
	// mode
	if gconfig.Shared.GetBool("debug") {
		fmt.Println("run in debug mode")
		gconfig.Shared.Set("log-level", "debug")
	} else { // prod mode
		fmt.Println("run in prod mode")
		gin.SetMode(gin.ReleaseMode)
	}

	// clock
	gutils.SetInternalClock(100 * time.Millisecond)

	// load configuration
	return config.LoadFromFile(gconfig.Shared.GetString("config"))
}

func setupLogger(_ context.Context) error {
	lvl := gconfig.Shared.GetString("log-level")
	if err := log.Logger.ChangeLevel(glog.Level(lvl)); err != nil {
		return errors.Wrapf(err, "change log level to %q", lvl)
	}

	return nil
}

func init() {
	rootCMD.PersistentFlags().Bool("debug", false, "run in debug mode")
	rootCMD.PersistentFlags().Bool("dry", false, "run in dry mode")
	rootCMD.PersistentFlags().String("listen", "localhost:8080", "like `localhost:8080`")
	rootCMD.PersistentFlags().StringP("config", "c", "/etc/blog-api/settings.yml", "config file path")
	rootCMD.PersistentFlags().String("log-level", "info", "`debug/info/error`")
}

// Execute execute root command
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		log.Logger.Panic("start", zap.Error(err))
	}
}
