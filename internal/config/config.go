package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/audit"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/disclosure"
	"github.com/dmitrijs2005/facekeeper/internal/otp"
	"github.com/dmitrijs2005/facekeeper/internal/session"
)

const (
	KeySourceEphemeral = "ephemeral"
	KeySourceFile      = "file"
	KeySourceKMS       = "kms"

	FrameSourceCamera = "camera"
	FrameSourceSpool  = "spool"

	ReferenceStoreFS = "fs"
	ReferenceStoreS3 = "s3"

	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Config holds runtime settings for the FaceKeeper CLI.
type Config struct {
	DataDir        string
	DatabaseDriver string
	// DatabaseDSN defaults to a file in DataDir for SQLite.
	DatabaseDSN string

	KeySource        string
	KeyFile          string
	KeyPassphraseEnv string
	KMSKeyID         string
	KMSRegion        string
	Cipher           string

	FaceThreshold float64
	MaxAttempts   int
	FrameInterval time.Duration
	CascadePath   string
	FrameSource   string
	SpoolDir      string
	CameraID      int

	ReferenceStore string
	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3BaseEndpoint string
	S3RootUser     string
	S3RootPassword string

	TOTPIssuer string
	TOTPSkew   uint

	DisclosureExposure time.Duration
	VerificationMaxAge time.Duration
	SessionTTL         time.Duration

	LogFormat    string
	LogLevel     string
	NATSURL      string
	AuditSubject string
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "facekeeper")
	}
	return ".facekeeper"
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.DatabaseDriver = DatabaseSQLite
	c.DatabaseDSN = ""

	c.KeySource = KeySourceFile
	c.KeyFile = ""
	c.KeyPassphraseEnv = "FACEKEEPER_PASSPHRASE"
	c.KMSRegion = "us-east-1"
	c.Cipher = "aes-gcm"

	c.FaceThreshold = common.DefaultFaceThreshold
	c.MaxAttempts = common.DefaultMaxAttempts
	c.FrameInterval = 100 * time.Millisecond
	c.FrameSource = FrameSourceCamera
	c.CameraID = 0

	c.ReferenceStore = ReferenceStoreFS
	c.S3Bucket = "facekeeper"
	c.S3Region = "us-east-1"

	c.TOTPIssuer = otp.DefaultIssuer
	c.TOTPSkew = otp.DefaultSkew

	c.DisclosureExposure = common.DefaultExposure
	c.VerificationMaxAge = disclosure.DefaultMaxAge
	c.SessionTTL = session.DefaultTTL

	c.LogFormat = "text"
	c.LogLevel = "info"
	c.AuditSubject = audit.DefaultSubject
}

// KeyFilePath is the key file location, defaulting to DataDir/master.key.
func (c *Config) KeyFilePath() string {
	if c.KeyFile != "" {
		return c.KeyFile
	}
	return filepath.Join(c.DataDir, "master.key")
}

// DSN is the database DSN, defaulting to DataDir/facekeeper.db for SQLite.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" || c.DatabaseDriver != DatabaseSQLite {
		return c.DatabaseDSN
	}
	return filepath.Join(c.DataDir, "facekeeper.db")
}

// SpoolPath is the frame spool directory, defaulting to DataDir/spool.
func (c *Config) SpoolPath() string {
	if c.SpoolDir != "" {
		return c.SpoolDir
	}
	return filepath.Join(c.DataDir, "spool")
}

// Passphrase reads the key file passphrase from the environment.
func (c *Config) Passphrase() string {
	if c.KeyPassphraseEnv == "" {
		return ""
	}
	return os.Getenv(c.KeyPassphraseEnv)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
