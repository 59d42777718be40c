package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dmitrijs2005/facekeeper/internal/biometric"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/disclosure"
	"github.com/dmitrijs2005/facekeeper/internal/face"
	"github.com/dmitrijs2005/facekeeper/internal/filex"
	"github.com/dmitrijs2005/facekeeper/internal/models"
	"github.com/dmitrijs2005/facekeeper/internal/services"
)

func (a *App) commands() []command {
	return []command{
		{names: []string{"enroll"}, usage: "enroll [principal]", run: a.enroll},
		{names: []string{"login"}, usage: "login [principal]", run: a.login},
		{names: []string{"reset-face"}, usage: "reset-face [--all]", auth: true, run: a.resetFace},
		{names: []string{"setup-2fa"}, usage: "setup-2fa", auth: true, run: a.setup2FA},
		{names: []string{"2fa-status"}, usage: "2fa-status", auth: true, run: a.twoFAStatus},
		{names: []string{"add"}, usage: "add", auth: true, run: a.add},
		{names: []string{"edit"}, usage: "edit <id>", auth: true, run: a.edit},
		{names: []string{"list", "l"}, usage: "list", auth: true, run: a.list},
		{names: []string{"due"}, usage: "due", auth: true, run: a.due},
		{names: []string{"stats"}, usage: "stats", auth: true, run: a.stats},
		{names: []string{"generate", "gen"}, usage: "generate [length]", run: a.generate},
		{names: []string{"copy"}, usage: "copy <id>", auth: true, run: a.copy},
		{names: []string{"show"}, usage: "show <id>", auth: true, run: a.show},
		{names: []string{"delete"}, usage: "delete <id>", auth: true, run: a.delete},
		{names: []string{"logout"}, usage: "logout", auth: true, run: a.logout},
	}
}

// userMessage keeps error text neutral for the failure kinds a user sees.
func userMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrNoEnrollment):
		return "face enrollment required, run 'enroll' first"
	case errors.Is(err, common.ErrNoFaceDetected):
		return "no face detected, try again"
	case errors.Is(err, common.ErrSourceUnavailable):
		return "camera unavailable, try again"
	case errors.Is(err, common.ErrSessionActive):
		return "a verification is already running"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrNotVerified):
		return "verification failed, try again"
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return "session expired, log in again"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	default:
		return err.Error()
	}
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return a.getText(prompt)
}

func (a *App) enroll(ctx context.Context, args []string) error {
	principal, err := a.argOrPrompt(args, "Principal")
	if err != nil {
		return err
	}

	printlnFn(dimStyle.Render("look at the camera..."))
	if err := a.vault.Enroll(ctx, a.token, principal, a.src); err != nil {
		return err
	}
	printlnFn(okStyle.Render("face enrolled for " + principal))
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	principal, err := a.argOrPrompt(args, "Principal")
	if err != nil {
		return err
	}

	gctx, stop := gateContext(ctx)
	defer stop()

	res, err := a.vault.Login(gctx, principal, a.src, a.observe, a.secondFactor)
	if err != nil {
		return err
	}
	if res.Token == "" {
		printlnFn(warnStyle.Render(res.Outcome.Message()))
		return nil
	}

	if a.isLoggedIn() {
		_ = a.vault.Logout(ctx, a.token)
	}
	a.principal, a.token = principal, res.Token
	printlnFn(okStyle.Render("logged in as " + principal))
	return nil
}

func (a *App) secondFactor(ctx context.Context) (string, error) {
	code, err := getSecret("One-time or backup code")
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(code)
	return string(code), nil
}

func (a *App) logout(ctx context.Context, args []string) error {
	err := a.vault.Logout(ctx, a.token)
	a.principal, a.token = "", ""
	if err != nil {
		return err
	}
	printlnFn("logged out")
	return nil
}

func (a *App) resetFace(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "--all" {
		answer, err := a.getText("Remove every enrolled face? (yes/no)")
		if err != nil {
			return err
		}
		if answer != "yes" {
			return nil
		}
		n, err := a.vault.ResetAllFaces(ctx, a.token)
		if err != nil {
			return err
		}
		printlnFn(fmt.Sprintf("removed %d reference(s)", n))
		return nil
	}

	if err := a.vault.ResetFace(ctx, a.token); err != nil {
		return err
	}
	printlnFn("face reference removed")
	return nil
}

func (a *App) setup2FA(ctx context.Context, args []string) error {
	e, err := a.vault.SetupTOTP(ctx, a.token)
	if err != nil {
		return err
	}

	printlnFn("Secret:      ", e.Secret)
	printlnFn("URI:         ", e.ProvisioningURI)
	if len(e.QRCodePNG) > 0 && a.opts.DataDir != "" {
		path := filepath.Join(a.opts.DataDir, "totp-"+a.principal+".png")
		if err := filex.WriteFileAtomic(path, e.QRCodePNG, 0o600); err != nil {
			return err
		}
		printlnFn("QR code:     ", path)
	}
	printlnFn("Backup codes (each works once):")
	for _, c := range e.BackupCodes {
		printlnFn("  " + c)
	}
	return nil
}

func (a *App) twoFAStatus(ctx context.Context, args []string) error {
	st, err := a.vault.TOTPStatus(ctx, a.token)
	if err != nil {
		return err
	}
	if !st.Enabled {
		printlnFn("two-factor authentication is not set up")
		return nil
	}
	printlnFn(fmt.Sprintf("two-factor authentication enabled since %s, %d backup code(s) left",
		st.CreatedAt.Format(time.DateOnly), st.BackupCodesRemaining))
	return nil
}

func (a *App) readAccount(current *models.Account) (services.AccountInput, error) {
	var in services.AccountInput
	fields := []struct {
		prompt string
		dst    *string
		cur    string
	}{
		{"Title", &in.Title, ""},
		{"Username", &in.Username, ""},
		{"URL", &in.URL, ""},
		{"Category", &in.Category, ""},
		{"Notes", &in.Notes, ""},
	}
	if current != nil {
		fields[0].cur, fields[1].cur, fields[2].cur = current.Title, current.Username, current.URL
		fields[3].cur, fields[4].cur = current.Category, current.Notes
	}

	for _, f := range fields {
		prompt := f.prompt
		if f.cur != "" {
			prompt += " [" + f.cur + "]"
		}
		v, err := a.getText(prompt)
		if err != nil {
			return in, err
		}
		if v == "" {
			v = f.cur
		}
		*f.dst = v
	}

	prompt := "Password (empty to generate)"
	if current != nil {
		prompt = "Password (empty to keep)"
	}
	pw, err := getSecret(prompt)
	if err != nil {
		return in, err
	}
	defer common.WipeByteArray(pw)
	in.Password = string(pw)

	if in.Password == "" && current == nil {
		if in.Password, err = services.GeneratePassword(services.DefaultGeneratorOptions()); err != nil {
			return in, err
		}
		printlnFn(dimStyle.Render("generated a random password"))
	}
	return in, nil
}

func (a *App) add(ctx context.Context, args []string) error {
	in, err := a.readAccount(nil)
	if err != nil {
		return err
	}
	acc, err := a.vault.AddAccount(ctx, a.token, in)
	if err != nil {
		return err
	}
	printlnFn(okStyle.Render(fmt.Sprintf("added %s (strength %d)", acc.ID, acc.Strength)))
	return nil
}

func (a *App) findAccount(ctx context.Context, id string) (*models.Account, error) {
	list, err := a.vault.ListAccounts(ctx, a.token)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, common.ErrorNotFound
}

func (a *App) edit(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Account id")
	if err != nil {
		return err
	}
	current, err := a.findAccount(ctx, id)
	if err != nil {
		return err
	}
	in, err := a.readAccount(current)
	if err != nil {
		return err
	}
	if _, err := a.vault.UpdateAccount(ctx, a.token, id, in); err != nil {
		return err
	}
	printlnFn(okStyle.Render("updated"))
	return nil
}

func renderAccounts(list []models.Account) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TITLE", "USERNAME", "CATEGORY", "STRENGTH", "CHANGE BY")
	for _, acc := range list {
		t.Row(acc.ID, acc.Title, acc.Username, acc.Category, strconv.Itoa(acc.Strength), acc.NextChangeAt.Format(time.DateOnly))
	}
	return t.String()
}

func (a *App) list(ctx context.Context, args []string) error {
	list, err := a.vault.ListAccounts(ctx, a.token)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("no accounts")
		return nil
	}
	printlnFn(renderAccounts(list))
	return nil
}

func (a *App) due(ctx context.Context, args []string) error {
	list, err := a.vault.DueForChange(ctx, a.token)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		printlnFn("no passwords are due for a change")
		return nil
	}
	printlnFn(renderAccounts(list))
	return nil
}

func (a *App) stats(ctx context.Context, args []string) error {
	s, err := a.vault.Analytics(ctx, a.token)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("accounts: %d  average strength: %.1f", s.Total, s.AvgStrength))
	printlnFn(errorStyle.Render(fmt.Sprintf("weak: %d", s.Weak)), warnStyle.Render(fmt.Sprintf("medium: %d", s.Medium)), okStyle.Render(fmt.Sprintf("strong: %d", s.Strong)))
	return nil
}

func (a *App) generate(ctx context.Context, args []string) error {
	opts := services.DefaultGeneratorOptions()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: length must be a positive number", common.ErrorValidation)
		}
		opts.Length = n
	}
	pw, err := services.GeneratePassword(opts)
	if err != nil {
		return err
	}
	printlnFn(pw)
	return nil
}

type revealFunc func(ctx context.Context, token, accountID string, src face.Source, observe func(biometric.Status)) (*disclosure.Window, biometric.Outcome, error)

func (a *App) reveal(ctx context.Context, args []string, fn revealFunc) (*disclosure.Window, error) {
	id, err := a.argOrPrompt(args, "Account id")
	if err != nil {
		return nil, err
	}

	gctx, stop := gateContext(ctx)
	defer stop()

	w, o, err := fn(gctx, a.token, id, a.src, a.observe)
	if err != nil {
		if errors.Is(err, common.ErrNotVerified) && o.Reason != 0 {
			return nil, errors.New(o.Message())
		}
		return nil, err
	}
	return w, nil
}

func (a *App) copy(ctx context.Context, args []string) error {
	w, err := a.reveal(ctx, args, a.vault.CopySecret)
	if err != nil {
		return err
	}
	printlnFn(okStyle.Render(fmt.Sprintf("copied, clipboard clears at %s", w.ExpiresAt().Format(time.TimeOnly))))
	return nil
}

func (a *App) show(ctx context.Context, args []string) error {
	w, err := a.reveal(ctx, args, a.vault.RevealSecret)
	if err != nil {
		return err
	}
	secret, ok := w.Read()
	if !ok {
		return errors.New("secret expired")
	}
	printlnFn(secret)
	printlnFn(dimStyle.Render(fmt.Sprintf("wiped from memory at %s", w.ExpiresAt().Format(time.TimeOnly))))
	return nil
}

func (a *App) delete(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Account id")
	if err != nil {
		return err
	}
	if err := a.vault.DeleteAccount(ctx, a.token, id); err != nil {
		return err
	}
	printlnFn("deleted")
	return nil
}
