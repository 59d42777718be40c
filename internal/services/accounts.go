package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/facekeeper/internal/audit"
	"github.com/dmitrijs2005/facekeeper/internal/common"
	"github.com/dmitrijs2005/facekeeper/internal/dbx"
	"github.com/dmitrijs2005/facekeeper/internal/models"
	"github.com/google/uuid"
)

// AccountInput is the user-editable part of an account. An empty Password
// on update keeps the current one.
type AccountInput struct {
	Title    string
	Username string
	Password string
	URL      string
	Notes    string
	Category string
}

// Stats summarises password strength across a principal's accounts.
type Stats struct {
	Total       int
	AvgStrength float64
	Weak        int
	Medium      int
	Strong      int
}

func (in AccountInput) validate(create bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrorValidation)
	}
	if create && in.Password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return nil
}

func (v *Vault) AddAccount(ctx context.Context, token string, in AccountInput) (*models.Account, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}

	sealed, err := v.box.EncryptString(in.Password)
	if err != nil {
		return nil, err
	}

	now := v.now()
	a := &models.Account{
		ID:           uuid.NewString(),
		Principal:    principal,
		Title:        strings.TrimSpace(in.Title),
		Username:     in.Username,
		Password:     sealed,
		URL:          in.URL,
		Notes:        in.Notes,
		Category:     in.Category,
		Strength:     Strength(in.Password),
		CreatedAt:    now,
		UpdatedAt:    now,
		NextChangeAt: now.Add(common.PasswordExpiry),
	}

	if err := v.accountsRepo().Create(ctx, a); err != nil {
		return nil, err
	}
	v.record(ctx, audit.KindAccountChange, principal, true, "create")
	return a, nil
}

// UpdateAccount overwrites the account. A new password moves the old one to
// the history and restarts the change interval.
func (v *Vault) UpdateAccount(ctx context.Context, token, id string, in AccountInput) (*models.Account, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}

	var updated *models.Account
	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := v.repos.Accounts(tx)

		a, err := repo.Get(ctx, principal, id)
		if err != nil {
			return err
		}

		now := v.now()
		if in.Password != "" {
			current, err := v.box.DecryptString(a.Password)
			if err != nil {
				return err
			}
			if current != in.Password {
				if err := repo.AddHistory(ctx, a.ID, a.Password, now); err != nil {
					return err
				}
				if a.Password, err = v.box.EncryptString(in.Password); err != nil {
					return err
				}
				a.Strength = Strength(in.Password)
				a.NextChangeAt = now.Add(common.PasswordExpiry)
			}
		}

		a.Title = strings.TrimSpace(in.Title)
		a.Username = in.Username
		a.URL = in.URL
		a.Notes = in.Notes
		a.Category = in.Category
		a.UpdatedAt = now

		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	v.record(ctx, audit.KindAccountChange, principal, true, "update")
	return updated, nil
}

func (v *Vault) DeleteAccount(ctx context.Context, token, id string) error {
	principal, err := v.principal(token)
	if err != nil {
		return err
	}
	if err := v.accountsRepo().Delete(ctx, principal, id); err != nil {
		return err
	}
	v.record(ctx, audit.KindAccountChange, principal, true, "delete")
	return nil
}

// ListAccounts returns the caller's accounts with passwords still sealed.
func (v *Vault) ListAccounts(ctx context.Context, token string) ([]models.Account, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, err
	}
	return v.accountsRepo().List(ctx, principal)
}

// DueForChange lists accounts whose password is past its change date.
func (v *Vault) DueForChange(ctx context.Context, token string) ([]models.Account, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, err
	}
	return v.accountsRepo().DueForChange(ctx, principal, v.now())
}

func (v *Vault) PasswordHistory(ctx context.Context, token, id string) ([]models.PasswordChange, error) {
	principal, err := v.principal(token)
	if err != nil {
		return nil, err
	}
	if _, err := v.accountsRepo().Get(ctx, principal, id); err != nil {
		return nil, err
	}
	return v.accountsRepo().History(ctx, id)
}

// Analytics buckets strengths as weak below 40, strong above 70 and medium
// otherwise. Zero scores are left out of the average.
func (v *Vault) Analytics(ctx context.Context, token string) (*Stats, error) {
	list, err := v.ListAccounts(ctx, token)
	if err != nil {
		return nil, err
	}

	s := &Stats{Total: len(list)}
	sum, scored := 0, 0
	for _, a := range list {
		switch {
		case a.Strength < 40:
			s.Weak++
		case a.Strength > 70:
			s.Strong++
		default:
			s.Medium++
		}
		if a.Strength > 0 {
			sum += a.Strength
			scored++
		}
	}
	if scored > 0 {
		s.AvgStrength = float64(sum) / float64(scored)
	}
	return s, nil
}
