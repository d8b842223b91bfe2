package constants

import "time"

const (
	IdentityCacheTTL  = 24 * time.Hour
	BackgroundTimeout = 5 * time.Second
)

const (
	RequiredCallTimeout   = 10 * time.Second
	BestEffortCallTimeout = 5 * time.Second
	RequiredCallRetries   = 2
	RequiredCallBackoff   = 250 * time.Millisecond
	DatabaseTimeout       = 5 * time.Second
	RequestTimeout        = 30 * time.Second
	DefaultRetryAfter     = 1 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout   = 5 * time.Second
	ReadHeaderTimeout = 5 * time.Second
)

const (
	UpstreamMaxConnsPerHost = 100
	UpstreamReadTimeout     = 10 * time.Second
	UpstreamWriteTimeout    = 10 * time.Second
	UpstreamIdleConn        = 1 * time.Minute
)
