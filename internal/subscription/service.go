package subscription

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/quantora/signals-backend/internal/model"
	"github.com/quantora/signals-backend/internal/repository"
)

// Service runs the lifecycle operations against the database. The
// review flow (status update + subscription insert) and the admin
// add-user flow (user insert + subscription insert) are the two
// multi-row writes of the system; both run in a single transaction so a
// crash mid-sequence cannot leave an approved verification without its
// subscription.
type Service struct {
	DB     *sql.DB
	Subs   *repository.SubscriptionRepo
	Verifs *repository.VerificationRepo
	Users  *repository.UserRepo
	Log    *zap.Logger
	nowFn  func() time.Time
}

func NewService(db *sql.DB, subs *repository.SubscriptionRepo, verifs *repository.VerificationRepo, users *repository.UserRepo, log *zap.Logger) *Service {
	return &Service{DB: db, Subs: subs, Verifs: verifs, Users: users, Log: log, nowFn: time.Now}
}

// ReviewVerification transitions a pending verification to approved or
// rejected. ErrNotFound covers both a missing id and an
// already-reviewed row. On approval the granted subscription is
// returned; rejections return nil.
func (s *Service) ReviewVerification(ctx context.Context, id uint64, action, requestedPlan string) (*model.Subscription, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	v, err := s.Verifs.PendingTx(ctx, tx, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// A verification is partner-sourced when the submitting user
	// registered through a partner code.
	user, err := s.Users.GetByID(ctx, v.UserID)
	if err != nil {
		return nil, err
	}
	partnerSourced := user.PartnerID != nil

	decision, err := DecideReview(action, requestedPlan, partnerSourced, s.nowFn().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.Verifs.MarkReviewedTx(ctx, tx, id, decision.Status); err != nil {
		return nil, err
	}

	var granted *model.Subscription
	if decision.Grant != nil {
		sub, err := s.Subs.InsertTx(ctx, tx, v.UserID, decision.Grant.PlanType, decision.Grant.Start, decision.Grant.End)
		if err != nil {
			return nil, err
		}
		granted = &sub
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.Log.Info("verification reviewed",
		zap.Uint64("verification_id", id),
		zap.String("action", decision.Status),
		zap.Uint64("user_id", v.UserID))
	return granted, nil
}

// CreateLifetimeSubscription grants a non-expiring lifetime_free plan.
func (s *Service) CreateLifetimeSubscription(ctx context.Context, userID uint64) (model.Subscription, error) {
	return s.Subs.Insert(ctx, userID, PlanLifetimeFree, s.nowFn().UTC(), nil)
}

// CreatePaidSubscription grants a paid plan starting at start with the
// calendar-computed end date.
func (s *Service) CreatePaidSubscription(ctx context.Context, userID uint64, planType string, start time.Time) (model.Subscription, error) {
	return s.Subs.Insert(ctx, userID, planType, start, ComputeEndDate(planType, start))
}

// AdminCreateUser inserts a user and, depending on the requested plan,
// a subscription, atomically. A partner referral or the lifetime flag
// grants lifetime_free; monthly/yearly grant a paid plan; plain free
// creates no subscription row.
func (s *Service) AdminCreateUser(ctx context.Context, fullName, email, passwordHash string, roleID uint8, partnerID *uint64, planType string, lifetime bool) (uint64, *model.Subscription, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var linkPartner *uint64
	if planType == PlanPartner {
		linkPartner = partnerID
	}
	userID, err := s.Users.CreateTx(ctx, tx, fullName, email, passwordHash, roleID, linkPartner)
	if err != nil {
		return 0, nil, err
	}

	now := s.nowFn().UTC()
	var granted *model.Subscription
	switch {
	case planType == PlanPartner && partnerID != nil, lifetime:
		sub, err := s.Subs.InsertTx(ctx, tx, userID, PlanLifetimeFree, now, nil)
		if err != nil {
			return 0, nil, err
		}
		granted = &sub
	case planType == PlanMonthly || planType == PlanYearly:
		sub, err := s.Subs.InsertTx(ctx, tx, userID, planType, now, ComputeEndDate(planType, now))
		if err != nil {
			return 0, nil, err
		}
		granted = &sub
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, err
	}
	return userID, granted, nil
}
