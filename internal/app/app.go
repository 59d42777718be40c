// Package app wires configuration, storage, crypto and the biometric
// components into a running FaceKeeper shell.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dmitrijs2005/facekeeper/internal/audit"
	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/cli"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/config"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/disclosure"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/filex"
	"github.com/dmitrijs2005/facekeeper/internal/logging"
	"github.com/dmitrijs2005/facekeeper/internal/otp"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/references"
	"github.com/dmitrijs2005/facekeeper/internal/repositories/repomanager"
	"github.com/dmitrijs2005/facekeeper/internal/services"
	"github.com/dmitrijs2005/facekeeper/internal/session"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	discloser *disclosure.Discloser
	shell     *cli.App

	mu   sync.Mutex
	db   *sql.DB
	nats *audit.NATSSink
}

// NewApp builds every component from c. Resources opened before a failure
// are released.
func NewApp(ctx context.Context, c *config.Config) (_ *App, err error) {
	logger := logging.New(logging.Format(c.LogFormat), c.LogLevel, os.Stderr)
	a := &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			a.Close(ctx)
		}
	}()

	if _, err := filex.EnsureDir(c.DataDir, ""); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	master, err := loadMasterKey(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	cipherKey, err := cryptox.DeriveSubkey(master, cryptox.LabelCipher)
	if err != nil {
		return nil, err
	}
	sessionKey, err := cryptox.DeriveSubkey(master, cryptox.LabelSession)
	common.WipeByteArray(master)
	if err != nil {
		return nil, err
	}

	alg, err := cryptox.ParseAlgorithm(c.Cipher)
	if err != nil {
		return nil, err
	}
	box, err := cryptox.NewBox(cipherKey, alg)
	common.WipeByteArray(cipherKey)
	if err != nil {
		return nil, err
	}

	driver := dbx.DriverSQLite
	if c.DatabaseDriver == config.DatabasePostgres {
		driver = dbx.DriverPostgres
	}
	if a.db, err = dbx.Open(ctx, driver, c.DSN()); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	rm, err := repomanager.New(driver)
	if err != nil {
		return nil, err
	}
	if err := rm.RunMigrations(ctx, a.db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	refs, err := newReferenceStore(ctx, c)
	if err != nil {
		return nil, err
	}

	if c.CascadePath == "" {
		return nil, errors.New("cascade_path is required for face detection")
	}
	detector, err := face.NewDetector(c.CascadePath)
	if err != nil {
		return nil, err
	}
	matcher := face.NewMatcher(detector)

	gate := biometric.NewGate(references.Frames{Store: refs}, matcher, biometric.Config{
		MaxAttempts:   c.MaxAttempts,
		Threshold:     c.FaceThreshold,
		FrameInterval: c.FrameInterval,
	}, logger.With("component", "gate"))

	a.discloser = disclosure.NewDiscloser(box, nil,
		disclosure.WithExposure(c.DisclosureExposure),
		disclosure.WithMaxAge(c.VerificationMaxAge),
		disclosure.WithLogger(logger))

	sinks := audit.Multi{audit.NewLogSink(logger)}
	if c.NATSURL != "" {
		if a.nats, err = audit.DialNATS(c.NATSURL, c.AuditSubject, logger); err != nil {
			return nil, err
		}
		sinks = append(sinks, a.nats)
	}

	vault := services.NewVault(services.Deps{
		DB:         a.db,
		Repos:      rm,
		References: refs,
		Matcher:    matcher,
		Gate:       gate,
		OTP: otp.NewAuthority(a.db, rm, box,
			otp.WithIssuer(c.TOTPIssuer), otp.WithSkew(c.TOTPSkew), otp.WithLogger(logger)),
		Box: box,
		Discloser: a.discloser,
		Clipboard: disclosure.ClipboardSink{},
		Sessions:  session.NewIssuer(sessionKey, c.SessionTTL),
		Audit:     sinks,
		Log:       logger,
	})

	a.shell = cli.NewApp(vault, newFrameSource(c), cli.Options{DataDir: c.DataDir, MaxAttempts: c.MaxAttempts})
	return a, nil
}

func loadMasterKey(ctx context.Context, c *config.Config, logger logging.Logger) ([]byte, error) {
	var src cryptox.KeySource
	switch c.KeySource {
	case config.KeySourceEphemeral:
		src = cryptox.EphemeralKey{}
	case config.KeySourceFile:
		passphrase := c.Passphrase()
		if passphrase == "" {
			logger.Warn(ctx, "master key file is not passphrase protected; anyone who can read it can decrypt the vault",
				"path", c.KeyFilePath(), "passphrase_env", c.KeyPassphraseEnv)
		}
		src = cryptox.FileKey{Path: c.KeyFilePath(), Passphrase: passphrase}
	case config.KeySourceKMS:
		k, err := cryptox.NewKMSKey(ctx, c.KeyFilePath(), c.KMSKeyID, c.KMSRegion)
		if err != nil {
			return nil, err
		}
		src = k
	default:
		return nil, fmt.Errorf("unknown key source %q", c.KeySource)
	}

	key, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load master key: %w", err)
	}
	return key, nil
}

func newReferenceStore(ctx context.Context, c *config.Config) (references.Store, error) {
	switch c.ReferenceStore {
	case config.ReferenceStoreFS:
		return references.NewFSStore(c.DataDir)
	case config.ReferenceStoreS3:
		return references.NewS3Store(ctx, references.S3Config{
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
		})
	default:
		return nil, fmt.Errorf("unknown reference store %q", c.ReferenceStore)
	}
}

func newFrameSource(c *config.Config) face.Source {
	if c.FrameSource == config.FrameSourceSpool {
		return &face.SpoolSource{Dir: c.SpoolPath()}
	}
	return &face.CameraSource{DeviceID: c.CameraID}
}

// Run starts the shell and blocks until the user leaves it.
func (a *App) Run(ctx context.Context) {
	a.logger.Info(ctx, "Starting app...", "data_dir", a.config.DataDir)
	defer a.Close(ctx)

	a.shell.Run(ctx)
}

// Close clears disclosed secrets, then releases the database and the audit
// connection. It is safe to call from a signal handler while Run is active.
func (a *App) Close(ctx context.Context) {
	if a.discloser != nil {
		a.discloser.Close()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.nats != nil {
		if err := a.nats.Close(); err != nil {
			a.logger.Warn(ctx, "close nats", "error", err)
		}
		a.nats = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(ctx, "close db", "error", err)
		}
		a.db = nil
	}
}
