package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/disclosure"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/models"
	"github.com/dmitrijs2005/facekeeper/internal/otp"
	"github.com/dmitrijs2005/facekeeper/internal/services"
)

// vaultAPI is the subset of services.Vault the shell drives.
type vaultAPI interface {
	Enroll(ctx context.Context, token, principal string, src face.Source) error
	ResetFace(ctx context.Context, token string) error
	ResetAllFaces(ctx context.Context, token string) (int, error)
	Login(ctx context.Context, principal string, src face.Source, observe func(biometric.Status), secondFactor services.SecondFactor) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	SetupTOTP(ctx context.Context, token string) (*otp.Enrollment, error)
	TOTPStatus(ctx context.Context, token string) (*otp.RegistrationStatus, error)
	AddAccount(ctx context.Context, token string, in services.AccountInput) (*models.Account, error)
	UpdateAccount(ctx context.Context, token, id string, in services.AccountInput) (*models.Account, error)
	DeleteAccount(ctx context.Context, token, id string) error
	ListAccounts(ctx context.Context, token string) ([]models.Account, error)
	DueForChange(ctx context.Context, token string) ([]models.Account, error)
	Analytics(ctx context.Context, token string) (*services.Stats, error)
	CopySecret(ctx context.Context, token, accountID string, src face.Source, observe func(biometric.Status)) (*disclosure.Window, biometric.Outcome, error)
	RevealSecret(ctx context.Context, token, accountID string, src face.Source, observe func(biometric.Status)) (*disclosure.Window, biometric.Outcome, error)
}

// Options configure an App.
type Options struct {
	// DataDir receives the TOTP QR code image.
	DataDir     string
	MaxAttempts int
}

type App struct {
	vault     vaultAPI
	src       face.Source
	in        lineReader
	opts      Options
	principal string
	token     string
}

func NewApp(v *services.Vault, src face.Source, opts Options) *App {
	return &App{vault: v, src: src, opts: opts}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) status() string {
	if a.principal == "" {
		return ""
	}
	return "(" + a.principal + ")"
}

// observe prints gate progress.
func (a *App) observe(s biometric.Status) {
	printlnFn(renderStatus(s, a.opts.MaxAttempts))
}

// gateContext is cancelled by Ctrl-C so that a running verification stops
// without leaving the shell.
func gateContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}

// Run starts the shell and blocks until the user leaves it.
func (a *App) Run(ctx context.Context) {
	l := newLiner()
	a.in = l
	defer l.Close()

	printlnFn("Welcome to FaceKeeper (type 'help' for commands)")
	runREPL(ctx, a.commands(), a.isLoggedIn, a.status, a.in)

	if a.isLoggedIn() {
		_ = a.vault.Logout(ctx, a.token)
	}
}
