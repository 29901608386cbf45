// Package log holds the process-wide logger.
package log

import (
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

// Logger is the root logger, components derive named children from it.
var Logger logSDK.Logger

func init() {
	var err error
	if Logger, err = logSDK.NewConsoleWithName("blog-api", logSDK.LevelInfo); err != nil {
		logSDK.Shared.Panic("new logger", zap.Error(err))
	}
}
