package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/facekeeper/internal/flagx"
	"github.com/dmitrijs2005/facekeeper/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for decoding config files. Unset
// fields leave the current value alone; numbers are pointers so that an
// explicit zero is still applied.
type FileConfig struct {
	DataDir        string `json:"data_dir" toml:"data_dir" yaml:"data_dir"`
	DatabaseDriver string `json:"database_driver" toml:"database_driver" yaml:"database_driver"`
	DatabaseDSN    string `json:"database_dsn" toml:"database_dsn" yaml:"database_dsn"`

	KeySource        string `json:"key_source" toml:"key_source" yaml:"key_source"`
	KeyFile          string `json:"key_file" toml:"key_file" yaml:"key_file"`
	KeyPassphraseEnv string `json:"key_passphrase_env" toml:"key_passphrase_env" yaml:"key_passphrase_env"`
	KMSKeyID         string `json:"kms_key_id" toml:"kms_key_id" yaml:"kms_key_id"`
	KMSRegion        string `json:"kms_region" toml:"kms_region" yaml:"kms_region"`
	Cipher           string `json:"cipher" toml:"cipher" yaml:"cipher"`

	FaceThreshold *float64       `json:"face_threshold" toml:"face_threshold" yaml:"face_threshold"`
	MaxAttempts   *int           `json:"max_attempts" toml:"max_attempts" yaml:"max_attempts"`
	FrameInterval timex.Duration `json:"frame_interval" toml:"frame_interval" yaml:"frame_interval"`
	CascadePath   string         `json:"cascade_path" toml:"cascade_path" yaml:"cascade_path"`
	FrameSource   string         `json:"frame_source" toml:"frame_source" yaml:"frame_source"`
	SpoolDir      string         `json:"spool_dir" toml:"spool_dir" yaml:"spool_dir"`
	CameraID      *int           `json:"camera_id" toml:"camera_id" yaml:"camera_id"`

	ReferenceStore string `json:"reference_store" toml:"reference_store" yaml:"reference_store"`
	S3Bucket       string `json:"s3_bucket" toml:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix       string `json:"s3_prefix" toml:"s3_prefix" yaml:"s3_prefix"`
	S3Region       string `json:"s3_region" toml:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" toml:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3RootUser     string `json:"s3_root_user" toml:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" toml:"s3_root_password" yaml:"s3_root_password"`

	TOTPIssuer string `json:"totp_issuer" toml:"totp_issuer" yaml:"totp_issuer"`
	TOTPSkew   *uint  `json:"totp_skew" toml:"totp_skew" yaml:"totp_skew"`

	DisclosureExposure timex.Duration `json:"disclosure_exposure" toml:"disclosure_exposure" yaml:"disclosure_exposure"`
	VerificationMaxAge timex.Duration `json:"verification_max_age" toml:"verification_max_age" yaml:"verification_max_age"`
	SessionTTL         timex.Duration `json:"session_ttl" toml:"session_ttl" yaml:"session_ttl"`

	LogFormat    string `json:"log_format" toml:"log_format" yaml:"log_format"`
	LogLevel     string `json:"log_level" toml:"log_level" yaml:"log_level"`
	NATSURL      string `json:"nats_url" toml:"nats_url" yaml:"nats_url"`
	AuditSubject string `json:"audit_subject" toml:"audit_subject" yaml:"audit_subject"`
}

func decodeFile(path string, fc *FileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return json.Unmarshal(data, fc)
	case ".toml":
		_, err := toml.Decode(string(data), fc)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, fc)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
}

// parseFile overlays cfg with the file given by -c/-config. It panics when
// the file cannot be read or decoded.
func parseFile(cfg *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	var fc FileConfig
	if err := decodeFile(path, &fc); err != nil {
		panic(fmt.Errorf("config file %s: %w", path, err))
	}
	fc.apply(cfg)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.DatabaseDriver, fc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, fc.DatabaseDSN)

	setString(&cfg.KeySource, fc.KeySource)
	setString(&cfg.KeyFile, fc.KeyFile)
	setString(&cfg.KeyPassphraseEnv, fc.KeyPassphraseEnv)
	setString(&cfg.KMSKeyID, fc.KMSKeyID)
	setString(&cfg.KMSRegion, fc.KMSRegion)
	setString(&cfg.Cipher, fc.Cipher)

	if fc.FaceThreshold != nil {
		cfg.FaceThreshold = *fc.FaceThreshold
	}
	if fc.MaxAttempts != nil {
		cfg.MaxAttempts = *fc.MaxAttempts
	}
	if !fc.FrameInterval.IsZero() {
		cfg.FrameInterval = fc.FrameInterval.Duration
	}
	setString(&cfg.CascadePath, fc.CascadePath)
	setString(&cfg.FrameSource, fc.FrameSource)
	setString(&cfg.SpoolDir, fc.SpoolDir)
	if fc.CameraID != nil {
		cfg.CameraID = *fc.CameraID
	}

	setString(&cfg.ReferenceStore, fc.ReferenceStore)
	setString(&cfg.S3Bucket, fc.S3Bucket)
	setString(&cfg.S3Prefix, fc.S3Prefix)
	setString(&cfg.S3Region, fc.S3Region)
	setString(&cfg.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&cfg.S3RootUser, fc.S3RootUser)
	setString(&cfg.S3RootPassword, fc.S3RootPassword)

	setString(&cfg.TOTPIssuer, fc.TOTPIssuer)
	if fc.TOTPSkew != nil {
		cfg.TOTPSkew = *fc.TOTPSkew
	}

	if !fc.DisclosureExposure.IsZero() {
		cfg.DisclosureExposure = fc.DisclosureExposure.Duration
	}
	if !fc.VerificationMaxAge.IsZero() {
		cfg.VerificationMaxAge = fc.VerificationMaxAge.Duration
	}
	if !fc.SessionTTL.IsZero() {
		cfg.SessionTTL = fc.SessionTTL.Duration
	}

	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.NATSURL, fc.NATSURL)
	setString(&cfg.AuditSubject, fc.AuditSubject)
}
