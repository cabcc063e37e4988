// Package service implements affiliate attribution: vendor enablement,
// click, registration and purchase tracking, and vendor metrics.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"canna_portal_backend/internal/affiliates/domain"
	"canna_portal_backend/internal/affiliates/repository"
	"canna_portal_backend/internal/affiliates/transport"
	"canna_portal_backend/internal/events"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/metrics"
	"canna_portal_backend/platform/money"
)

const (
	maxCodeAttempts    = 10
	recentActivitySize = 10
)

// SessionStore remembers the affiliate code of a visitor session.
type SessionStore interface {
	Code(ctx context.Context, sid string) (string, error)
	Remember(ctx context.Context, sid, code string) (bool, error)
}

// Settings holds the affiliate program configuration.
type Settings struct {
	DefaultRate string
	LinkBaseURL string
}

// ClickMeta describes the request that carried an affiliate link.
type ClickMeta struct {
	SessionID string
	IPAddress string
	UserAgent string
	Referrer  string
}

// Service provides affiliate business operations.
type Service struct {
	repo     repository.Repository
	sessions SessionStore
	bus      events.Bus
	settings Settings
	log      *logger.Logger
}

// New creates a new affiliate service. sessions may be nil, in which case
// clicks are recorded without per-session deduplication.
func New(repo repository.Repository, sessions SessionStore, bus events.Bus, settings Settings, log *logger.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, bus: bus, settings: settings, log: log}
}

// EnableVendor makes the user an external vendor. A user who already has a
// code keeps it, along with their current rate.
func (s *Service) EnableVendor(ctx context.Context, userID uuid.UUID, req transport.EnableVendorRequest) (transport.EnableVendorResponse, error) {
	vendor, err := s.repo.GetVendorByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return transport.EnableVendorResponse{}, domain.VendorNotFound()
	}
	if err != nil {
		return transport.EnableVendorResponse{}, err
	}

	if vendor.AffiliateCode != nil && *vendor.AffiliateCode != "" {
		return s.enabledResponse(vendor, true), nil
	}

	rate := s.settings.DefaultRate
	if req.CommissionRate != nil && strings.TrimSpace(*req.CommissionRate) != "" {
		rate = *req.CommissionRate
	}
	rate = money.ParseRate(rate).String()

	if req.CustomCode != nil && strings.TrimSpace(*req.CustomCode) != "" {
		vendor, err = s.enableWithCustomCode(ctx, vendor, *req.CustomCode, rate)
	} else {
		vendor, err = s.enableWithGeneratedCode(ctx, vendor, rate)
	}
	if err != nil {
		return transport.EnableVendorResponse{}, err
	}

	s.log.Info("external vendor enabled", "vendorId", vendor.ID, "code", deref(vendor.AffiliateCode))
	return s.enabledResponse(vendor, false), nil
}

func (s *Service) enableWithCustomCode(ctx context.Context, vendor repository.Vendor, raw, rate string) (repository.Vendor, error) {
	code := domain.NormalizeCode(raw)
	if !domain.LooksLikeCode(code) {
		return repository.Vendor{}, domain.InvalidCustomCode(raw)
	}

	taken, err := s.repo.CodeExists(ctx, code)
	if err != nil {
		return repository.Vendor{}, err
	}
	if taken {
		return repository.Vendor{}, domain.DuplicateCustomCode(code)
	}

	enabled, err := s.repo.EnableVendor(ctx, vendor.ID, code, rate)
	if errors.Is(err, repository.ErrCodeTaken) {
		return repository.Vendor{}, domain.DuplicateCustomCode(code)
	}
	return enabled, err
}

func (s *Service) enableWithGeneratedCode(ctx context.Context, vendor repository.Vendor, rate string) (repository.Vendor, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := domain.GenerateCode(vendor.FullName)
		if err != nil {
			return repository.Vendor{}, err
		}

		taken, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return repository.Vendor{}, err
		}
		if taken {
			continue
		}

		enabled, err := s.repo.EnableVendor(ctx, vendor.ID, code, rate)
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		return enabled, err
	}
	return repository.Vendor{}, domain.CodeExhausted()
}

func (s *Service) enabledResponse(vendor repository.Vendor, already bool) transport.EnableVendorResponse {
	code := deref(vendor.AffiliateCode)
	return transport.EnableVendorResponse{
		VendorID:       vendor.ID,
		Code:           code,
		Link:           s.Link(code),
		CommissionRate: money.ParseRate(deref(vendor.CommissionRate)).String(),
		AlreadyEnabled: already,
	}
}

// Link builds the shareable URL for code.
func (s *Service) Link(code string) string {
	return strings.TrimRight(s.settings.LinkBaseURL, "/") + "/" + code
}

// TrackClick records a click for an active vendor's code, once per session
// and code. The session only takes the code after the click is stored.
// Failures are logged and never surface to the visitor.
func (s *Service) TrackClick(ctx context.Context, code string, meta ClickMeta) {
	log := s.log.WithContext(ctx)

	vendor, err := s.repo.GetActiveVendorByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		log.AffiliateEvent(repository.EventClick, code, false, "unknown_code")
		return
	}
	if err != nil {
		log.AffiliateEvent(repository.EventClick, code, false, err.Error())
		return
	}

	tracked := s.sessions != nil && meta.SessionID != ""
	if tracked {
		current, err := s.sessions.Code(ctx, meta.SessionID)
		if err != nil {
			log.AffiliateEvent(repository.EventClick, code, false, err.Error())
			return
		}
		if current == code {
			log.AffiliateEvent(repository.EventClick, code, false, "session_already_attributed")
			return
		}
	}

	err = s.repo.InsertClick(ctx, repository.ClickParams{
		VendorID:      vendor.ID,
		AffiliateCode: code,
		IPAddress:     optional(meta.IPAddress),
		UserAgent:     optional(meta.UserAgent),
		Referrer:      optional(meta.Referrer),
	})
	if err != nil {
		log.AffiliateEvent(repository.EventClick, code, false, err.Error())
		return
	}

	if tracked {
		if _, err := s.sessions.Remember(ctx, meta.SessionID, code); err != nil {
			log.Warn("affiliate session write failed", "error", err)
		}
	}

	metrics.RecordAffiliateEvent(repository.EventClick)
	log.AffiliateEvent(repository.EventClick, code, true, "")
}

// SessionCode returns the code stored for a visitor session, or "".
func (s *Service) SessionCode(ctx context.Context, sid string) string {
	if s.sessions == nil || sid == "" {
		return ""
	}
	code, err := s.sessions.Code(ctx, sid)
	if err != nil {
		s.log.WithContext(ctx).Warn("affiliate session lookup failed", "error", err)
		return ""
	}
	return code
}

// TrackRegistration attributes a newly registered client to the vendor
// behind code. A client already attributed keeps their first vendor.
func (s *Service) TrackRegistration(ctx context.Context, code string, clientID uuid.UUID) {
	if code == "" {
		return
	}
	log := s.log.WithContext(ctx)

	vendor, err := s.repo.GetActiveVendorByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		log.AffiliateEvent(repository.EventRegistration, code, false, "unknown_code")
		return
	}
	if err != nil {
		log.AffiliateEvent(repository.EventRegistration, code, false, err.Error())
		return
	}

	linked, err := s.repo.RecordRegistration(ctx, vendor, clientID)
	if err != nil {
		log.AffiliateEvent(repository.EventRegistration, code, false, err.Error())
		return
	}
	if !linked {
		log.AffiliateEvent(repository.EventRegistration, code, false, "client_already_attributed")
		return
	}

	metrics.RecordAffiliateEvent(repository.EventRegistration)
	log.AffiliateEvent(repository.EventRegistration, code, true, "")
}

// TrackPurchase records a purchase for the client's attributed vendor with
// a commission computed from the vendor's current rate. Clients without a
// vendor are ignored. Errors are returned so queued attempts can retry.
func (s *Service) TrackPurchase(ctx context.Context, clientID, orderID uuid.UUID, orderValue decimal.Decimal) error {
	log := s.log.WithContext(ctx)

	vendorID, err := s.repo.GetClientVendor(ctx, clientID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && vendorID == nil) {
		log.Debug("purchase without affiliate attribution", "clientId", clientID, "orderId", orderID)
		return nil
	}
	if err != nil {
		return err
	}

	vendor, err := s.repo.GetVendorByID(ctx, *vendorID)
	if errors.Is(err, repository.ErrNotFound) {
		log.AffiliateEvent(repository.EventPurchase, "", false, "vendor_missing")
		return nil
	}
	if err != nil {
		return err
	}

	code := deref(vendor.AffiliateCode)
	commission := Commission(orderValue, deref(vendor.CommissionRate))

	recorded, err := s.repo.RecordPurchase(ctx, repository.PurchaseParams{
		VendorID:        vendor.ID,
		AffiliateCode:   code,
		ClientID:        clientID,
		OrderID:         orderID,
		OrderValue:      orderValue,
		CommissionValue: commission,
	})
	if err != nil {
		return err
	}
	if !recorded {
		log.AffiliateEvent(repository.EventPurchase, code, false, "order_already_tracked")
		return nil
	}

	metrics.RecordAffiliateEvent(repository.EventPurchase)
	log.AffiliateEvent(repository.EventPurchase, code, true, "")
	s.bus.Publish(ctx, events.AffiliatePurchaseTracked{
		BaseEvent:       events.NewBaseEvent(),
		VendorID:        vendor.ID,
		ClientID:        clientID,
		OrderID:         orderID,
		OrderValue:      orderValue,
		CommissionValue: commission,
	})
	return nil
}

// Commission is orderValue times the normalized rate, rounded to cents.
func Commission(orderValue decimal.Decimal, rate string) decimal.Decimal {
	return orderValue.Mul(money.ParseRate(rate)).Round(2)
}

// VendorMetrics aggregates the vendor's stored events.
func (s *Service) VendorMetrics(ctx context.Context, vendorID uuid.UUID) (transport.VendorMetricsResponse, error) {
	vendor, err := s.repo.GetVendorByID(ctx, vendorID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !vendor.IsExternalVendor) {
		return transport.VendorMetricsResponse{}, domain.VendorNotFound()
	}
	if err != nil {
		return transport.VendorMetricsResponse{}, err
	}

	var (
		counts              repository.Counts
		revenue, commission decimal.Decimal
		recent              []repository.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		counts, err = s.repo.CountEvents(gctx, vendorID)
		return err
	})
	g.Go(func() error {
		var err error
		revenue, commission, err = s.repo.SumPurchases(gctx, vendorID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.repo.RecentEvents(gctx, vendorID, recentActivitySize)
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.VendorMetricsResponse{}, err
	}

	activity := make([]transport.ActivityResponse, 0, len(recent))
	for _, e := range recent {
		activity = append(activity, toActivityResponse(e))
	}

	return transport.VendorMetricsResponse{
		VendorID:        vendor.ID,
		Code:            deref(vendor.AffiliateCode),
		Clicks:          counts.Clicks,
		Registrations:   counts.Registrations,
		Purchases:       counts.Purchases,
		TotalRevenue:    revenue,
		TotalCommission: commission,
		ConversionRate:  domain.ConversionRate(counts.Registrations, counts.Clicks),
		RecentActivity:  activity,
	}, nil
}

func toActivityResponse(e repository.Event) transport.ActivityResponse {
	resp := transport.ActivityResponse{
		ID:        e.ID,
		EventType: e.EventType,
		ClientID:  e.ClientID,
		OrderID:   e.OrderID,
		Referrer:  e.Referrer,
		CreatedAt: e.CreatedAt,
	}
	if e.OrderValue.Valid {
		v := e.OrderValue.Decimal
		resp.OrderValue = &v
	}
	if e.CommissionValue.Valid {
		v := e.CommissionValue.Decimal
		resp.CommissionValue = &v
	}
	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
