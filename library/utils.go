// Package library contains helper functions
package library

import (
	"time"

	gutils "github.com/Laisky/go-utils/v6"
)

// UTCNow current time truncated to milliseconds, the precision BSON
// datetimes keep, so values compare equal after a round trip.
func UTCNow() time.Time {
	return gutils.Clock.GetUTCNow().Truncate(time.Millisecond)
}
