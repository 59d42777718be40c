package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/cryptox"
	"github.com/dmitrijs2005/facekeeper/internal/disclosure"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/models"
	"github.com/dmitrijs2005/facekeeper/internal/otp"
	"github.com/dmitrijs2005/facekeeper/internal/services"
	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptReader struct {
	lines   []string
	history []string
}

func (s *scriptReader) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func (s *scriptReader) AppendHistory(item string) { s.history = append(s.history, item) }
func (s *scriptReader) Close() error              { return nil }

type fakeVault struct {
	calls    []string
	denied   bool
	accounts []models.Account
	window   *disclosure.Window
	enr      *otp.Enrollment
}

func (f *fakeVault) Enroll(ctx context.Context, token, principal string, src face.Source) error {
	f.calls = append(f.calls, "enroll "+principal)
	return nil
}

func (f *fakeVault) ResetFace(ctx context.Context, token string) error {
	f.calls = append(f.calls, "reset-face")
	return nil
}

func (f *fakeVault) ResetAllFaces(ctx context.Context, token string) (int, error) {
	f.calls = append(f.calls, "reset-all "+token)
	return 2, nil
}

func (f *fakeVault) Login(ctx context.Context, principal string, src face.Source, observe func(biometric.Status), sf services.SecondFactor) (*services.LoginResult, error) {
	f.calls = append(f.calls, "login "+principal)
	observe(biometric.Status{State: biometric.StateAwaitingFrame, Attempt: 1, AttemptsRemaining: 3})
	if f.denied {
		return &services.LoginResult{Outcome: biometric.Outcome{Result: biometric.Denied, Reason: biometric.ReasonAttemptExhausted}}, nil
	}
	return &services.LoginResult{Token: "tok-" + principal, Outcome: biometric.Outcome{Result: biometric.Verified}}, nil
}

func (f *fakeVault) Logout(ctx context.Context, token string) error {
	f.calls = append(f.calls, "logout "+token)
	return nil
}

func (f *fakeVault) SetupTOTP(ctx context.Context, token string) (*otp.Enrollment, error) {
	f.calls = append(f.calls, "setup-2fa")
	return f.enr, nil
}

func (f *fakeVault) TOTPStatus(ctx context.Context, token string) (*otp.RegistrationStatus, error) {
	return &otp.RegistrationStatus{Enabled: true, BackupCodesRemaining: 7, CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeVault) AddAccount(ctx context.Context, token string, in services.AccountInput) (*models.Account, error) {
	f.calls = append(f.calls, "add "+in.Title+" "+in.Password)
	return &models.Account{ID: "id-1", Title: in.Title, Strength: services.Strength(in.Password)}, nil
}

func (f *fakeVault) UpdateAccount(ctx context.Context, token, id string, in services.AccountInput) (*models.Account, error) {
	f.calls = append(f.calls, "edit "+id+" "+in.Title)
	return &models.Account{ID: id}, nil
}

func (f *fakeVault) DeleteAccount(ctx context.Context, token, id string) error {
	f.calls = append(f.calls, "delete "+id)
	return nil
}

func (f *fakeVault) ListAccounts(ctx context.Context, token string) ([]models.Account, error) {
	return f.accounts, nil
}

func (f *fakeVault) DueForChange(ctx context.Context, token string) ([]models.Account, error) {
	return nil, nil
}

func (f *fakeVault) Analytics(ctx context.Context, token string) (*services.Stats, error) {
	return &services.Stats{Total: 1, AvgStrength: 80, Strong: 1}, nil
}

func (f *fakeVault) CopySecret(ctx context.Context, token, id string, src face.Source, observe func(biometric.Status)) (*disclosure.Window, biometric.Outcome, error) {
	f.calls = append(f.calls, "copy "+id)
	return f.disclose()
}

func (f *fakeVault) RevealSecret(ctx context.Context, token, id string, src face.Source, observe func(biometric.Status)) (*disclosure.Window, biometric.Outcome, error) {
	f.calls = append(f.calls, "show "+id)
	return f.disclose()
}

func (f *fakeVault) disclose() (*disclosure.Window, biometric.Outcome, error) {
	if f.denied {
		o := biometric.Outcome{Result: biometric.Denied, Reason: biometric.ReasonAttemptExhausted}
		return nil, o, common.ErrNotVerified
	}
	return f.window, biometric.Outcome{Result: biometric.Verified}, nil
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func stubSecret(t *testing.T, values ...string) {
	t.Helper()
	orig := readPassword
	readPassword = func(int) ([]byte, error) {
		if len(values) == 0 {
			return nil, errors.New("no input")
		}
		v := values[0]
		values = values[1:]
		return []byte(v), nil
	}
	t.Cleanup(func() { readPassword = orig })
}

func newWindow(t *testing.T, secret string) *disclosure.Window {
	t.Helper()
	box, err := cryptox.NewBox(common.GenerateRandByteArray(cryptox.KeySize), cryptox.AESGCM)
	require.NoError(t, err)
	es, err := box.EncryptString(secret)
	require.NoError(t, err)

	o := biometric.Outcome{ID: uuid.NewString(), Result: biometric.Verified, VerifiedAt: time.Now()}
	w, err := disclosure.NewDiscloser(box, nil).Reveal(es, o)
	require.NoError(t, err)
	t.Cleanup(w.Clear)
	return w
}

func run(t *testing.T, a *App, lines ...string) {
	t.Helper()
	in := &scriptReader{lines: lines}
	a.in = in
	runREPL(context.Background(), a.commands(), a.isLoggedIn, a.status, in)
}

func joined(out *[]string) string {
	return strings.Join(*out, "\n")
}

func TestREPL_LoginFlowAndCommands(t *testing.T) {
	out := captureOutput(t)
	stubSecret(t, "Secr3t!pass")

	v := &fakeVault{
		window:   newWindow(t, "hunter2"),
		accounts: []models.Account{{ID: "id-1", Title: "mail", Username: "bob", Strength: 80}},
	}
	a := &App{vault: v, opts: Options{MaxAttempts: 3}}

	run(t, a,
		"list",
		"login bob",
		"add", "mail", "bob", "", "", "",
		"list",
		"show id-1",
		"copy id-1",
		"delete id-1",
		"foobar",
		"logout",
		"exit",
		"list",
	)

	assert.Equal(t, []string{
		"login bob",
		"add mail Secr3t!pass",
		"show id-1",
		"copy id-1",
		"delete id-1",
		"logout tok-bob",
	}, v.calls)

	s := joined(out)
	assert.Contains(t, s, "log in first")
	assert.Contains(t, s, "[1/3] looking for a face")
	assert.Contains(t, s, "logged in as bob")
	assert.Contains(t, s, "hunter2")
	assert.Contains(t, s, "Unknown command: foobar")
	assert.Contains(t, s, "Bye!")
	assert.False(t, a.isLoggedIn())
}

func TestREPL_DeniedLogin(t *testing.T) {
	out := captureOutput(t)
	v := &fakeVault{denied: true}
	a := &App{vault: v, opts: Options{MaxAttempts: 3}}

	run(t, a, "login bob", "copy id-1")

	assert.False(t, a.isLoggedIn())
	assert.Contains(t, joined(out), "verification failed, try again")
	assert.Equal(t, []string{"login bob"}, v.calls)
}

func TestREPL_DisclosureDenied(t *testing.T) {
	out := captureOutput(t)
	v := &fakeVault{}
	a := &App{vault: v, opts: Options{MaxAttempts: 3}}

	run(t, a, "login bob")
	v.denied = true
	run(t, a, "show id-1")

	assert.Contains(t, joined(out), "error: verification failed, try again")
}

func TestREPL_AddGeneratesPassword(t *testing.T) {
	captureOutput(t)
	stubSecret(t, "")
	v := &fakeVault{}
	a := &App{vault: v, opts: Options{MaxAttempts: 3}}

	run(t, a, "login bob", "add", "bank", "", "", "", "")

	require.Len(t, v.calls, 2)
	fields := strings.Fields(v.calls[1])
	require.Len(t, fields, 3)
	assert.Len(t, fields[2], 16)
}

func TestREPL_Setup2FA(t *testing.T) {
	out := captureOutput(t)
	dir := t.TempDir()
	v := &fakeVault{enr: &otp.Enrollment{
		Secret:          "JBSWY3DPEHPK3PXP",
		ProvisioningURI: "otpauth://totp/Account%20Manager:bob",
		BackupCodes:     []string{"AAAA2222", "BBBB3333"},
		QRCodePNG:       []byte("png"),
	}}
	a := &App{vault: v, opts: Options{DataDir: dir, MaxAttempts: 3}}

	run(t, a, "login bob", "setup-2fa", "2fa-status")

	s := joined(out)
	assert.Contains(t, s, "JBSWY3DPEHPK3PXP")
	assert.Contains(t, s, "AAAA2222")
	assert.Contains(t, s, "totp-bob.png")
	assert.Contains(t, s, "7 backup code(s) left")
}

func TestREPL_ResetFace(t *testing.T) {
	out := captureOutput(t)
	v := &fakeVault{}
	a := &App{vault: v, opts: Options{MaxAttempts: 3}}

	run(t, a, "reset-face --all", "reset-face", "login bob", "reset-face --all", "no", "reset-face --all", "yes", "reset-face")

	assert.Equal(t, []string{"login bob", "reset-all tok-bob", "reset-face"}, v.calls)
	assert.Contains(t, joined(out), "log in first")
	assert.Contains(t, joined(out), "removed 2 reference(s)")
}

func TestREPL_HelpHidesAuthCommands(t *testing.T) {
	out := captureOutput(t)
	a := &App{vault: &fakeVault{}, opts: Options{MaxAttempts: 3}}

	run(t, a, "help")
	assert.NotContains(t, joined(out), "copy <id>")

	*out = nil
	a.token = "t"
	run(t, a, "help")
	assert.Contains(t, joined(out), "copy <id>")
}

func TestREPL_AbortAtPrompt(t *testing.T) {
	captureOutput(t)
	in := &abortReader{}
	runREPL(context.Background(), nil, func() bool { return false }, func() string { return "" }, in)
	assert.Equal(t, 1, in.prompts)
}

type abortReader struct{ prompts int }

func (r *abortReader) Prompt(string) (string, error) {
	r.prompts++
	return "", liner.ErrPromptAborted
}
func (r *abortReader) AppendHistory(string) {}
func (r *abortReader) Close() error         { return nil }

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{common.ErrNoEnrollment, "face enrollment required, run 'enroll' first"},
		{fmt.Errorf("wrap: %w", common.ErrSourceUnavailable), "camera unavailable, try again"},
		{common.ErrorUnauthorized, "verification failed, try again"},
		{common.ErrTokenExpired, "session expired, log in again"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, userMessage(tt.err))
	}
}

func TestRenderStatus(t *testing.T) {
	assert.Contains(t, renderStatus(biometric.Status{State: biometric.StateScoring, Attempt: 2, Similarity: 0.42}, 3), "[2/3] similarity 0.42")
	assert.Contains(t, renderStatus(biometric.Status{State: biometric.StateVerified}, 3), "verified")
}
