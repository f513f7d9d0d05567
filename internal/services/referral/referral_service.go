package referral

import (
	"context"
	"errors"
	"fmt"

	"github.com/predyx/backend/internal/audit"
	"github.com/predyx/backend/internal/models"
	"github.com/predyx/backend/internal/repository"
	"github.com/predyx/backend/internal/utils"
)

// RejectReason explains why a referral claim was not linked. These are
// expected validation outcomes, returned as data.
type RejectReason string

const (
	RejectInvalidCode     RejectReason = "INVALID_CODE"
	RejectSelfReferral    RejectReason = "SELF_REFERRAL"
	RejectAlreadyReferred RejectReason = "ALREADY_REFERRED"
)

// LinkResult is the outcome of a referral claim, shaped for direct JSON
// serialization by the handler.
type LinkResult struct {
	Valid          bool         `json:"valid"`
	ReferrerWallet string       `json:"referrer_wallet,omitempty"`
	Reason         RejectReason `json:"reason,omitempty"`
}

// Service validates and records referrer -> referee relationships and
// provisions accounts with their referral codes.
type Service struct {
	accounts  repository.AccountRepo
	referrals repository.ReferralRepo
	codes     *CodeGenerator
	recorder  audit.Recorder
}

// NewService creates a new referral service
func NewService(accounts repository.AccountRepo, referrals repository.ReferralRepo, codes *CodeGenerator, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{
		accounts:  accounts,
		referrals: referrals,
		codes:     codes,
		recorder:  recorder,
	}
}

// EnsureAccount returns the account for a wallet, creating it with a
// fresh referral code on first sight. Concurrent first-time calls for
// the same wallet converge: the code is derived deterministically from
// the address, so both writers produce the same row and the loser of
// the insert race adopts the winner's.
func (s *Service) EnsureAccount(ctx context.Context, wallet string) (*models.Account, error) {
	normalized, err := utils.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByWallet(ctx, normalized)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	account = &models.Account{
		WalletAddress: normalized,
		ReferralCode:  s.codes.DeterministicFor(normalized),
	}
	createErr := s.accounts.Create(ctx, account)
	if createErr == nil {
		return account, nil
	}
	if !repository.IsUniqueViolation(createErr) {
		return nil, createErr
	}

	// Unique violation: either a concurrent call created the wallet row,
	// or the deterministic code collided with another account's. Re-read
	// for the former, fall back to random codes for the latter.
	if existing, err := s.accounts.FindByWallet(ctx, normalized); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	code, err := s.codes.GenerateUnique(ctx)
	if err != nil {
		return nil, err
	}
	account = &models.Account{WalletAddress: normalized, ReferralCode: code}
	if err := s.accounts.Create(ctx, account); err != nil {
		if repository.IsUniqueViolation(err) {
			return s.accounts.FindByWallet(ctx, normalized)
		}
		return nil, err
	}
	return account, nil
}

// ValidateAndLink checks a referral code for a referee wallet and, when
// valid, records the inactive edge. Checks run in order: the code must
// resolve to an account, the referrer must not be the referee, and the
// referee must never have used a code before.
func (s *Service) ValidateAndLink(ctx context.Context, code, refereeWallet string) (*LinkResult, error) {
	normalized := NormalizeCode(code)
	if !ValidCodeFormat(normalized) {
		return s.rejected(ctx, normalized, refereeWallet, RejectInvalidCode), nil
	}

	referrer, err := s.accounts.FindByReferralCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.rejected(ctx, normalized, refereeWallet, RejectInvalidCode), nil
		}
		return nil, err
	}

	if utils.SameWallet(referrer.WalletAddress, refereeWallet) {
		return s.rejected(ctx, normalized, refereeWallet, RejectSelfReferral), nil
	}

	referee, err := s.EnsureAccount(ctx, refereeWallet)
	if err != nil {
		return nil, err
	}

	if _, err := s.referrals.FindByReferee(ctx, referee.ID); err == nil {
		return s.rejected(ctx, normalized, refereeWallet, RejectAlreadyReferred), nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	edge := &models.Referral{
		ReferrerID:   referrer.ID,
		RefereeID:    referee.ID,
		ReferralCode: normalized,
	}
	if err := s.referrals.Create(ctx, edge); err != nil {
		// One code use per lifetime: a concurrent claim for the same
		// referee won the unique index on referee_id.
		if repository.IsUniqueViolation(err) {
			return s.rejected(ctx, normalized, refereeWallet, RejectAlreadyReferred), nil
		}
		return nil, fmt.Errorf("error linking referral: %w", err)
	}

	// First write wins; an existing referred_by is never overwritten.
	if err := s.accounts.SetReferredBy(ctx, referee.ID, referrer.ID); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.EventTypeReferralClaim, "linked", referee.WalletAddress, map[string]interface{}{
		"code":            normalized,
		"referrer_wallet": referrer.WalletAddress,
	})

	return &LinkResult{Valid: true, ReferrerWallet: referrer.WalletAddress}, nil
}

// Stats returns a referrer's referral standing for the dashboard.
func (s *Service) Stats(ctx context.Context, wallet string) (*models.Account, *models.ReferralStats, error) {
	account, err := s.EnsureAccount(ctx, wallet)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.referrals.StatsForReferrer(ctx, account.ID)
	if err != nil {
		return nil, nil, err
	}
	return account, stats, nil
}

func (s *Service) rejected(ctx context.Context, code, wallet string, reason RejectReason) *LinkResult {
	s.recorder.Record(ctx, audit.EventTypeReferralClaim, string(reason), wallet, map[string]interface{}{
		"code": code,
	})
	return &LinkResult{Valid: false, Reason: reason}
}
