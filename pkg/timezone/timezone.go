package timezone

import (
	"time"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Shanghai")
	if err != nil {
		// minimal containers ship without tzdata, Shanghai has had no DST since 1991
		Location = time.FixedZone("CST", 8*60*60)
	}
}

// force timezone to be in Shanghai since that is where the timestamps of
// the comment api come from, machines in other zones would otherwise shift
// dates around midnight.
func Now() time.Time {
	return time.Now().In(Location)
}

// weibo timestamps look like "Sat Aug 12 10:00:00 +0800 2023"
const weiboLayout = time.RubyDate

// Normalize converts a weibo timestamp into RFC3339 in the Shanghai zone,
// anything it can't parse is returned unchanged.
func Normalize(raw string) string {
	t, err := time.Parse(weiboLayout, raw)
	if err != nil {
		return raw
	}
	return t.In(Location).Format(time.RFC3339)
}
