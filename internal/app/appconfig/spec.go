package appconfig

import (
	"time"

	"onegov.dev/electionday/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address would listen on for serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9010"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// LogFile is the path of the rotated log file. Leaving this empty disables logging to a file.
	LogFile string `split_words:"true" default:"logs/app.log"`

	// LogFileMaxSizeMB is the size in megabytes at which the log file is rotated.
	LogFileMaxSizeMB int `split_words:"true" default:"100"`

	// LogFileMaxBackups is the number of rotated log files to keep.
	LogFileMaxBackups int `split_words:"true" default:"10"`

	// TrustedProxies is a list of trusted proxies that are trusted to report a real IP via the X-Forwarded-For header.
	TrustedProxies []string `required:"true" split_words:"true" default:"::1,127.0.0.1,10.0.0.0/8"`

	// DevMode to indicate development mode. When true, the program would spin up utilities for debugging and
	// provide a more contextual message when encountered a panic.
	DevMode bool `split_words:"true"`

	// TracingEnabled to indicate whether to enable OpenTelemetry tracing.
	TracingEnabled bool `split_words:"true"`

	// TracingExporters to indicate which exporters to use for tracing.
	// Valid values are: jaeger, otlp, stdout (for debug).
	TracingExporters []string `split_words:"true" default:"otlp"`

	// TracingSampleRate to indicate the sampling rate for tracing.
	TracingSampleRate float64 `split_words:"true" default:"1.0"`

	// PostgresDSN is the data source name for the PostgreSQL database. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// NatsURL is the URL of the NATS server. See https://pkg.go.dev/github.com/nats-io/nats.go#Connect
	// for more information on how to construct a NATS URL.
	NatsURL string `required:"true" split_words:"true" default:"nats://127.0.0.1:4222"`

	// RedisURL is the URL of the Redis server. See https://pkg.go.dev/github.com/redis/go-redis/v9#ParseURL
	// for more information on how to construct a Redis URL.
	RedisURL string `required:"true" split_words:"true" default:"redis://127.0.0.1:6379/0"`

	// SentryDSN is the DSN of the Sentry server. See https://pkg.go.dev/github.com/getsentry/sentry-go#ClientOptions
	SentryDSN string `split_words:"true"`

	// ArchiveBucket is the S3 bucket uploaded result files are archived to. Leaving this empty disables archiving.
	ArchiveBucket string `split_words:"true"`

	// ArchiveRegion is the region of the archive bucket.
	ArchiveRegion string `split_words:"true" default:"eu-central-1"`

	// ArchiveEndpoint overrides the S3 endpoint, e.g. for a MinIO instance.
	ArchiveEndpoint string `split_words:"true"`

	// ArchiveAccessKeyID and ArchiveSecretAccessKey are static credentials for the archive bucket.
	// When left empty, the default AWS credential chain is used.
	ArchiveAccessKeyID     string `split_words:"true"`
	ArchiveSecretAccessKey string `split_words:"true"`

	// PrincipalFile is the YAML file defining the principal and its entities per year.
	PrincipalFile string `required:"true" split_words:"true" default:"principal.yml"`

	// MailQueueDir is the directory of the outbound mail queue.
	MailQueueDir string `required:"true" split_words:"true" default:"mail"`

	// MailLockStaleAfter is the time after which the lock of a message that failed to be delivered
	// is removed, so the message is retried.
	MailLockStaleAfter time.Duration `split_words:"true" default:"10m"`

	// MailTransport is the transport queued mails are delivered with: postmark or smtp.
	MailTransport MailTransport `split_words:"true" default:"postmark"`

	// MailPostmarkToken is the server token of the Postmark account.
	MailPostmarkToken string `split_words:"true"`

	// MailPostmarkBatchSize is the number of messages sent per Postmark batch request, at most 500.
	MailPostmarkBatchSize int `split_words:"true" default:"500"`

	// MailSMTPAddress is the host:port of the SMTP server.
	MailSMTPAddress string `split_words:"true" default:"localhost:25"`

	MailSMTPUsername string `split_words:"true"`
	MailSMTPPassword string `split_words:"true"`

	// MailProcessInterval is the interval in-between mail queue runs of the worker. Zero disables the worker.
	MailProcessInterval time.Duration `split_words:"true" default:"0"`

	// MailProcessLimit is the maximum number of messages delivered per run. Zero means no limit.
	MailProcessLimit int `split_words:"true" default:"0"`

	// ImportWorkerCount is the number of concurrent consumers of queued imports. Zero disables the worker.
	ImportWorkerCount int `split_words:"true" default:"2"`

	// ImportTaskLifetime is how long the status of a queued import is kept.
	ImportTaskLifetime time.Duration `split_words:"true" default:"24h"`

	// SummaryCacheLifetime is how long election summaries are cached.
	SummaryCacheLifetime time.Duration `split_words:"true" default:"30s"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
