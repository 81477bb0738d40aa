package config

import (
	"strconv"
	"time"

	"github.com/caarlos0/env"

	"github.com/lumenpix/photostore/storage/api"
)

// ProviderConfig is the stored configuration document for one backend.
// At most one document exists per provider id. Settings holds the
// provider-specific fields (credentials for the cloud backends, base path
// for local) and is validated against the provider's required-key list
// before the config is considered usable.
type ProviderConfig struct {
	Provider  api.ProviderID    `json:"providerId"`
	Name      string            `json:"name"`
	Enabled   bool              `json:"isEnabled"`
	Settings  map[string]string `json:"config"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Setting keys shared by the typed views below.
const (
	KeyBasePath = "basePath"

	KeyRegion          = "region"
	KeyAccessKeyID     = "accessKeyId"
	KeySecretAccessKey = "secretAccessKey"
	KeyBucket          = "bucketName"
	KeyEndpoint        = "endpoint"

	KeyAccessKey = "accessKey"
	KeySecretKey = "secretKey"
	KeyUseSSL    = "useSSL"

	KeyClientID     = "clientId"
	KeyClientSecret = "clientSecret"
	KeyRefreshToken = "refreshToken"
	KeyRootFolderID = "rootFolderId"
)

// requiredSettings is the per-provider required-field table. Adding a
// backend means adding one entry here, not editing a branching function.
var requiredSettings = map[api.ProviderID][]string{
	api.ProviderLocal:       {KeyBasePath},
	api.ProviderAwsS3:       {KeyAccessKeyID, KeySecretAccessKey, KeyBucket},
	api.ProviderMinio:       {KeyEndpoint, KeyAccessKey, KeySecretKey, KeyBucket},
	api.ProviderGoogleDrive: {KeyClientID, KeyClientSecret, KeyRefreshToken},
}

// RequiredSettings returns the keys that must be present for the provider's
// config to be usable.
func RequiredSettings(p api.ProviderID) []string {
	return requiredSettings[p]
}

// MissingSettings returns the required keys that are absent or empty.
func (c *ProviderConfig) MissingSettings() []string {
	var missing []string
	for _, key := range requiredSettings[c.Provider] {
		if c.Settings[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

func (c *ProviderConfig) setting(key string) string {
	if c.Settings == nil {
		return ""
	}
	return c.Settings[key]
}

// LocalSettings is the typed view of a local filesystem config.
type LocalSettings struct {
	BasePath string
}

// S3Settings is the typed view of an AWS S3 config. Endpoint is optional
// and enables S3-compatible services.
type S3Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
}

// MinioSettings is the typed view of a MinIO config.
type MinioSettings struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// DriveSettings is the typed view of a Google Drive config. RootFolderID
// is optional; empty means the Drive root.
type DriveSettings struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	RootFolderID string
}

func (c *ProviderConfig) Local() LocalSettings {
	return LocalSettings{BasePath: c.setting(KeyBasePath)}
}

func (c *ProviderConfig) S3() S3Settings {
	return S3Settings{
		Region:          c.setting(KeyRegion),
		AccessKeyID:     c.setting(KeyAccessKeyID),
		SecretAccessKey: c.setting(KeySecretAccessKey),
		Bucket:          c.setting(KeyBucket),
		Endpoint:        c.setting(KeyEndpoint),
	}
}

func (c *ProviderConfig) Minio() MinioSettings {
	useSSL, _ := strconv.ParseBool(c.setting(KeyUseSSL))
	return MinioSettings{
		Endpoint:  c.setting(KeyEndpoint),
		AccessKey: c.setting(KeyAccessKey),
		SecretKey: c.setting(KeySecretKey),
		Bucket:    c.setting(KeyBucket),
		UseSSL:    useSSL,
	}
}

func (c *ProviderConfig) Drive() DriveSettings {
	return DriveSettings{
		ClientID:     c.setting(KeyClientID),
		ClientSecret: c.setting(KeyClientSecret),
		RefreshToken: c.setting(KeyRefreshToken),
		RootFolderID: c.setting(KeyRootFolderID),
	}
}

// Defaults holds the environment-derived default settings used when
// initializing configs for the first time.
type Defaults struct {
	LocalBasePath string `env:"STORAGE_LOCAL_PATH" envDefault:"uploads"`
	AWSRegion     string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3Bucket      string `env:"S3_BUCKET" envDefault:""`
	MinioEndpoint string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	MinioBucket   string `env:"MINIO_BUCKET" envDefault:"photostore"`
}

// LoadDefaults reads Defaults from the environment.
func LoadDefaults() (Defaults, error) {
	var d Defaults
	if err := env.Parse(&d); err != nil {
		return Defaults{}, err
	}
	return d, nil
}

// DefaultConfigs returns the safe initial document for every provider:
// disabled, with empty credentials and only non-secret defaults filled in.
func DefaultConfigs(d Defaults) []ProviderConfig {
	now := time.Now().UTC()
	return []ProviderConfig{
		{
			Provider: api.ProviderLocal,
			Name:     "Local Filesystem",
			Enabled:  false,
			Settings: map[string]string{
				KeyBasePath: d.LocalBasePath,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			Provider: api.ProviderAwsS3,
			Name:     "AWS S3",
			Enabled:  false,
			Settings: map[string]string{
				KeyRegion:          d.AWSRegion,
				KeyAccessKeyID:     "",
				KeySecretAccessKey: "",
				KeyBucket:          d.S3Bucket,
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			Provider: api.ProviderGoogleDrive,
			Name:     "Google Drive",
			Enabled:  false,
			Settings: map[string]string{
				KeyClientID:     "",
				KeyClientSecret: "",
				KeyRefreshToken: "",
				KeyRootFolderID: "",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			Provider: api.ProviderMinio,
			Name:     "MinIO",
			Enabled:  false,
			Settings: map[string]string{
				KeyEndpoint:  d.MinioEndpoint,
				KeyAccessKey: "",
				KeySecretKey: "",
				KeyBucket:    d.MinioBucket,
				KeyUseSSL:    "false",
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
