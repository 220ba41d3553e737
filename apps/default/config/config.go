package config

import (
	"github.com/pitabwire/frame"
)

// FileSizeBytes is a file size in bytes
type FileSizeBytes int64

// DefaultMaxFileSizeBytes defines the default size allowed for a single document
var DefaultMaxFileSizeBytes = FileSizeBytes(10485760)

type MovementConfig struct {
	frame.ConfigurationDefault

	StorageProvider       string `envDefault:"LOCAL" env:"STORAGE_PROVIDER"`
	LocalPrivateDirectory string `envDefault:"/tmp/file-movement" env:"LOCAL_PRIVATE_DIRECTORY"`

	ProviderGcsPrivateBucket  string `envDefault:"" env:"GCS_PRIVATE_BUCKET"`
	ProviderS3PrivateBucket   string `envDefault:"" env:"S3_PRIVATE_BUCKET"`
	ProviderS3Endpoint        string `envDefault:"" env:"S3_ENDPOINT"`
	ProviderS3Region          string `envDefault:"" env:"S3_REGION"`
	ProviderS3AccessKeySecret string `envDefault:"" env:"S3_ACCESS_KEY_SECRET"`
	ProviderS3SessionToken    string `envDefault:"" env:"S3_SESSION_TOKEN"`
	ProviderS3AccessKeyId     string `envDefault:"" env:"S3_ACCESS_KEY_ID"`

	// The maximum size of a single uploaded document. 0 means unlimited.
	MaxFileSizeBytes FileSizeBytes `envDefault:"10485760" env:"MAX_FILE_SIZE_BYTES"`

	QueueHolderChangedURL  string `envDefault:"mem://file_holder_changed" env:"QUEUE_FILE_HOLDER_CHANGED_URL"`
	QueueHolderChangedName string `envDefault:"file_holder_changed" env:"QUEUE_FILE_HOLDER_CHANGED_NAME"`

	// Redis fan out of holder changes for socket gateways, disabled when empty.
	RedisAddress       string `envDefault:"" env:"REDIS_ADDRESS"`
	RedisPassword      string `envDefault:"" env:"REDIS_PASSWORD"`
	RedisDB            int    `envDefault:"0" env:"REDIS_DB"`
	RedisChannelPrefix string `envDefault:"mailbox:" env:"REDIS_CHANNEL_PREFIX"`

	NotifyOnRevert bool `envDefault:"false" env:"NOTIFY_ON_REVERT"`

	ProfileServiceURI string `envDefault:"" env:"PROFILE_SERVICE_URI"`

	WorkflowPolicyFile string   `envDefault:"" env:"WORKFLOW_POLICY_FILE"`
	BootstrapAdminIDs  []string `envDefault:"" env:"BOOTSTRAP_ADMIN_IDS" envSeparator:","`

	PinHashCost int `envDefault:"10" env:"PIN_HASH_COST"`

	CursorSecret     string `envDefault:"" env:"CURSOR_SECRET"`
	DefaultPageLimit int    `envDefault:"20" env:"DEFAULT_PAGE_LIMIT"`
	MaxPageLimit     int    `envDefault:"100" env:"MAX_PAGE_LIMIT"`

	FileNumberPrefix string `envDefault:"FM" env:"FILE_NUMBER_PREFIX"`

	ActorCacheSize       int `envDefault:"1024" env:"ACTOR_CACHE_SIZE"`
	ActorCacheTTLSeconds int `envDefault:"60" env:"ACTOR_CACHE_TTL_SECONDS"`
}
