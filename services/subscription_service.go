package services

import (
	"context"
	"fmt"
	"time"

	"github.com/FloFRCD/nutrition-app-sub001/logger"
	"github.com/FloFRCD/nutrition-app-sub001/revenuecat"

	"go.uber.org/zap"
)

// SubscriberSource is the part of revenuecat.Client the service uses.
type SubscriberSource interface {
	Subscriber(ctx context.Context, appUserID string) (*revenuecat.Subscriber, error)
}

type SubscriptionStatus struct {
	Active      bool       `json:"active"`
	Entitlement string     `json:"entitlement"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ProductID   string     `json:"product_id,omitempty"`
}

// SubscriptionService answers whether a user holds the premium entitlement.
type SubscriptionService struct {
	source      SubscriberSource
	entitlement string
	now         func() time.Time
}

// NewSubscriptionService builds the service. A nil source treats every user
// as entitled.
func NewSubscriptionService(source SubscriberSource, entitlement string) *SubscriptionService {
	return &SubscriptionService{source: source, entitlement: entitlement, now: time.Now}
}

func (s *SubscriptionService) Status(ctx context.Context, userID string) (SubscriptionStatus, error) {
	status := SubscriptionStatus{Entitlement: s.entitlement}
	if s.source == nil {
		status.Active = true
		return status, nil
	}

	sub, err := s.source.Subscriber(ctx, userID)
	if err != nil {
		logger.Warn("subscription lookup failed", zap.String("user_id", userID), zap.Error(err))
		return SubscriptionStatus{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	ent, ok := sub.Entitlements[s.entitlement]
	if !ok {
		return status, nil
	}
	status.Active = ent.ActiveAt(s.now())
	status.ExpiresAt = ent.ExpiresDate
	status.ProductID = ent.ProductIdentifier
	return status, nil
}
