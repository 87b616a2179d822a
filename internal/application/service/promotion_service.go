package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sangkips/storefront-api/internal/application/pricing"
	"github.com/sangkips/storefront-api/internal/domain/entity"
	"github.com/sangkips/storefront-api/internal/domain/repository"
	"github.com/sangkips/storefront-api/pkg/apperror"
	"github.com/sangkips/storefront-api/pkg/money"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// PromotionService handles coupons, gift cards and checkout configuration
type PromotionService struct {
	api    repository.PromotionAPI
	calc   *pricing.Calculator
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	group singleflight.Group

	mu              sync.Mutex
	coupons         []entity.Coupon
	couponsAt       time.Time
	checkoutCfg     entity.CheckoutConfig
	checkoutCfgAt   time.Time
	checkoutCfgSeen bool
}

// NewPromotionService creates a new promotion service. Coupons and checkout
// configuration are cached for ttl.
func NewPromotionService(api repository.PromotionAPI, calc *pricing.Calculator, ttl time.Duration, logger *zap.Logger) *PromotionService {
	return &PromotionService{
		api:    api,
		calc:   calc,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// ActiveCoupons lists the coupons currently on offer
func (s *PromotionService) ActiveCoupons(ctx context.Context) ([]entity.Coupon, error) {
	s.mu.Lock()
	if s.coupons != nil && s.now().Sub(s.couponsAt) < s.ttl {
		out := append([]entity.Coupon(nil), s.coupons...)
		s.mu.Unlock()
		return out, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("coupons", func() (any, error) {
		coupons, err := s.api.ActiveCoupons(ctx)
		if err != nil {
			return nil, err
		}
		if coupons == nil {
			coupons = []entity.Coupon{}
		}
		s.mu.Lock()
		s.coupons = coupons
		s.couponsAt = s.now()
		s.mu.Unlock()
		return coupons, nil
	})
	if err != nil {
		s.logger.Warn("fetch coupons failed", zap.Error(err))
		return nil, apperror.ErrUpstream
	}
	return append([]entity.Coupon(nil), v.([]entity.Coupon)...), nil
}

// ApplyCoupon validates code against the active coupons and the current subtotal
func (s *PromotionService) ApplyCoupon(ctx context.Context, sess *Session, code string) (*entity.AppliedCoupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.NewFieldError("code", "Coupon code is required")
	}

	coupons, err := s.ActiveCoupons(ctx)
	if err != nil {
		return nil, err
	}
	var rule *entity.Coupon
	for i := range coupons {
		if coupons[i].Matches(code) {
			rule = &coupons[i]
			break
		}
	}
	if rule == nil {
		return nil, apperror.NewFieldError("code", "Invalid or expired coupon code")
	}

	summary := s.calc.CartSummary(sess.Cart.Items(), nil)
	discount, ok := pricing.CouponDiscount(*rule, summary.Subtotal)
	if !ok {
		return nil, apperror.NewFieldError("code",
			fmt.Sprintf("Add items worth %s more to use this coupon", money.FromMinor(rule.MinOrderValue-summary.Subtotal).StringFixed(2)))
	}

	applied := &entity.AppliedCoupon{
		Code:        rule.Code,
		Discount:    discount,
		Description: rule.Description,
		Rule:        *rule,
	}
	_ = sess.Checkout(func(st *CheckoutState) error {
		st.Coupon = applied
		return nil
	})
	return applied, nil
}

// RemoveCoupon drops the applied coupon
func (s *PromotionService) RemoveCoupon(sess *Session) {
	_ = sess.Checkout(func(st *CheckoutState) error {
		st.Coupon = nil
		return nil
	})
}

// ApplyGiftCard validates the gift card and attaches it to the checkout.
// The applied amount is computed by the checkout summary.
func (s *PromotionService) ApplyGiftCard(ctx context.Context, sess *Session, code string) (*entity.GiftCardBalance, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperror.NewFieldError("code", "Gift card code is required")
	}

	card, err := s.api.ValidateGiftCard(ctx, code)
	if errors.Is(err, repository.ErrGiftCardNotFound) {
		return nil, apperror.NewFieldError("code", "Invalid gift card")
	}
	if err != nil {
		s.logger.Warn("validate gift card failed", zap.Error(err))
		return nil, apperror.ErrUpstream
	}
	if card.Balance <= 0 {
		return nil, apperror.NewFieldError("code", "Gift card has no remaining balance")
	}

	currency := cartCurrency(sess.Cart.Items(), s.calc.Currency())
	if card.Currency != "" && currency != "" && !strings.EqualFold(card.Currency, currency) {
		return nil, apperror.NewFieldError("code", fmt.Sprintf("Gift card is in %s but the cart is in %s", card.Currency, currency))
	}

	_ = sess.Checkout(func(st *CheckoutState) error {
		st.GiftCard = card
		return nil
	})
	return card, nil
}

// RemoveGiftCard drops the applied gift card
func (s *PromotionService) RemoveGiftCard(sess *Session) {
	_ = sess.Checkout(func(st *CheckoutState) error {
		st.GiftCard = nil
		return nil
	})
}

// CheckoutConfig fetches the COD and prepaid discount configuration concurrently
func (s *PromotionService) CheckoutConfig(ctx context.Context) (entity.CheckoutConfig, error) {
	s.mu.Lock()
	if s.checkoutCfgSeen && s.now().Sub(s.checkoutCfgAt) < s.ttl {
		cfg := s.checkoutCfg
		s.mu.Unlock()
		return cfg, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("checkout-config", func() (any, error) {
		var (
			cod     *entity.CODConfig
			prepaid *entity.PrepaidDiscountConfig
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			cod, err = s.api.CODConfig(gctx)
			return err
		})
		g.Go(func() (err error) {
			prepaid, err = s.api.PrepaidDiscountConfig(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		var cfg entity.CheckoutConfig
		if cod != nil {
			cfg.COD = *cod
		}
		if prepaid != nil {
			cfg.Prepaid = *prepaid
		}
		s.mu.Lock()
		s.checkoutCfg = cfg
		s.checkoutCfgAt = s.now()
		s.checkoutCfgSeen = true
		s.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		s.logger.Warn("fetch checkout config failed", zap.Error(err))
		return entity.CheckoutConfig{}, apperror.ErrUpstream
	}
	return v.(entity.CheckoutConfig), nil
}

func cartCurrency(items []entity.LineItem, fallback string) string {
	for _, it := range items {
		if it.Currency != "" {
			return strings.ToUpper(it.Currency)
		}
	}
	return strings.ToUpper(fallback)
}
