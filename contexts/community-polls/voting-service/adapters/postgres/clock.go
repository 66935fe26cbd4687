package postgresadapter

import "time"

// SystemClock stamps votes with server time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
