package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"canna_portal_backend/internal/affiliates/domain"
	"canna_portal_backend/internal/affiliates/repository"
	"canna_portal_backend/internal/affiliates/transport"
	"canna_portal_backend/internal/events"
	"canna_portal_backend/platform/apperr"
	"canna_portal_backend/platform/logger"
)

type fakeRepo struct {
	mu         sync.Mutex
	users      map[uuid.UUID]repository.Vendor
	clients    map[uuid.UUID]*uuid.UUID
	events     []repository.Event
	orders     map[uuid.UUID]uuid.UUID
	collisions int
	enables    int
	clickErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:   make(map[uuid.UUID]repository.Vendor),
		clients: make(map[uuid.UUID]*uuid.UUID),
		orders:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeRepo) addUser(name string) repository.Vendor {
	v := repository.Vendor{ID: uuid.New(), FullName: name, Email: uuid.NewString() + "@example.com", IsActive: true}
	f.users[v.ID] = v
	return v
}

func (f *fakeRepo) addVendor(name, code, rate string) repository.Vendor {
	v := f.addUser(name)
	v.IsExternalVendor = true
	v.AffiliateCode = &code
	v.CommissionRate = &rate
	f.users[v.ID] = v
	return v
}

func (f *fakeRepo) addClient(vendorID *uuid.UUID) uuid.UUID {
	c := f.addUser("Cliente")
	f.clients[c.ID] = vendorID
	return c.ID
}

func (f *fakeRepo) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

func (f *fakeRepo) GetVendorByID(_ context.Context, id uuid.UUID) (repository.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.users[id]
	if !ok {
		return repository.Vendor{}, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeRepo) GetActiveVendorByCode(_ context.Context, code string) (repository.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.users {
		if v.IsExternalVendor && v.IsActive && v.AffiliateCode != nil && *v.AffiliateCode == code {
			return v, nil
		}
	}
	return repository.Vendor{}, repository.ErrNotFound
}

func (f *fakeRepo) CodeExists(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.collisions > 0 {
		f.collisions--
		return true, nil
	}
	for _, v := range f.users {
		if v.AffiliateCode != nil && *v.AffiliateCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) GetClientVendor(_ context.Context, clientID uuid.UUID) (*uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vendorID, ok := f.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return vendorID, nil
}

func (f *fakeRepo) EnableVendor(_ context.Context, id uuid.UUID, code string, rate string) (repository.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enables++
	v, ok := f.users[id]
	if !ok {
		return repository.Vendor{}, repository.ErrNotFound
	}
	v.IsExternalVendor = true
	v.AffiliateCode = &code
	v.CommissionRate = &rate
	f.users[id] = v
	return v, nil
}

func (f *fakeRepo) InsertClick(_ context.Context, params repository.ClickParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clickErr != nil {
		return f.clickErr
	}
	f.events = append(f.events, repository.Event{ID: uuid.New(), VendorID: params.VendorID, EventType: repository.EventClick, AffiliateCode: params.AffiliateCode})
	return nil
}

func (f *fakeRepo) RecordRegistration(_ context.Context, vendor repository.Vendor, clientID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if current, ok := f.clients[clientID]; ok && current != nil {
		return false, nil
	}
	id := vendor.ID
	f.clients[clientID] = &id
	f.events = append(f.events, repository.Event{ID: uuid.New(), VendorID: vendor.ID, EventType: repository.EventRegistration, ClientID: &clientID})
	return true, nil
}

func (f *fakeRepo) RecordPurchase(_ context.Context, params repository.PurchaseParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.orders[params.OrderID]; seen {
		return false, nil
	}
	f.orders[params.OrderID] = params.VendorID
	orderID := params.OrderID
	f.events = append(f.events, repository.Event{
		ID:              uuid.New(),
		VendorID:        params.VendorID,
		EventType:       repository.EventPurchase,
		ClientID:        &params.ClientID,
		OrderID:         &orderID,
		OrderValue:      decimal.NewNullDecimal(params.OrderValue),
		CommissionValue: decimal.NewNullDecimal(params.CommissionValue),
	})
	return true, nil
}

func (f *fakeRepo) CountEvents(_ context.Context, vendorID uuid.UUID) (repository.Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c repository.Counts
	for _, e := range f.events {
		if e.VendorID != vendorID {
			continue
		}
		switch e.EventType {
		case repository.EventClick:
			c.Clicks++
		case repository.EventRegistration:
			c.Registrations++
		case repository.EventPurchase:
			c.Purchases++
		}
	}
	return c, nil
}

func (f *fakeRepo) SumPurchases(_ context.Context, vendorID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	revenue, commission := decimal.Zero, decimal.Zero
	for _, e := range f.events {
		if e.VendorID == vendorID && e.EventType == repository.EventPurchase {
			revenue = revenue.Add(e.OrderValue.Decimal)
			commission = commission.Add(e.CommissionValue.Decimal)
		}
	}
	return revenue, commission, nil
}

func (f *fakeRepo) RecentEvents(_ context.Context, vendorID uuid.UUID, limit int) ([]repository.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Event, 0)
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		if f.events[i].VendorID == vendorID {
			out = append(out, f.events[i])
		}
	}
	return out, nil
}

type memorySessions struct {
	codes map[string]string
}

func (m *memorySessions) Code(_ context.Context, sid string) (string, error) {
	return m.codes[sid], nil
}

func (m *memorySessions) Remember(_ context.Context, sid, code string) (bool, error) {
	changed := m.codes[sid] != code
	m.codes[sid] = code
	return changed, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newService(repo *fakeRepo) (*Service, *recordingBus) {
	bus := &recordingBus{}
	settings := Settings{DefaultRate: "0.10", LinkBaseURL: "https://canna.example.com/"}
	return New(repo, &memorySessions{codes: map[string]string{}}, bus, settings, logger.New("test")), bus
}

func strPtr(s string) *string { return &s }

func TestTrackClickOncePerSession(t *testing.T) {
	repo := newFakeRepo()
	repo.addVendor("Maria Brito", "MARIAB7K2", "0.10")
	svc, _ := newService(repo)
	ctx := context.Background()

	svc.TrackClick(ctx, "MARIAB7K2", ClickMeta{SessionID: "sid-1", IPAddress: "10.0.0.1"})
	svc.TrackClick(ctx, "MARIAB7K2", ClickMeta{SessionID: "sid-1", IPAddress: "10.0.0.1"})
	if n := repo.count(repository.EventClick); n != 1 {
		t.Fatalf("expected one click, got %d", n)
	}

	svc.TrackClick(ctx, "MARIAB7K2", ClickMeta{SessionID: "sid-2"})
	if n := repo.count(repository.EventClick); n != 2 {
		t.Fatalf("expected a click for the new session, got %d", n)
	}
	if got := svc.SessionCode(ctx, "sid-1"); got != "MARIAB7K2" {
		t.Fatalf("expected session to carry code, got %q", got)
	}
}

func TestTrackClickFailedInsertLeavesSessionFree(t *testing.T) {
	repo := newFakeRepo()
	repo.addVendor("Maria Brito", "MARIAB7K2", "0.10")
	svc, _ := newService(repo)
	ctx := context.Background()

	repo.clickErr = errors.New("connection reset")
	svc.TrackClick(ctx, "MARIAB7K2", ClickMeta{SessionID: "sid-1"})
	if got := svc.SessionCode(ctx, "sid-1"); got != "" {
		t.Fatalf("failed click must not mark the session, got %q", got)
	}

	repo.clickErr = nil
	svc.TrackClick(ctx, "MARIAB7K2", ClickMeta{SessionID: "sid-1"})
	if n := repo.count(repository.EventClick); n != 1 {
		t.Fatalf("expected the retried click to be stored, got %d", n)
	}
	if got := svc.SessionCode(ctx, "sid-1"); got != "MARIAB7K2" {
		t.Fatalf("expected session to carry code after the stored click, got %q", got)
	}
}

func TestTrackClickUnknownCodeIsNoop(t *testing.T) {
	repo := newFakeRepo()
	repo.addVendor("Maria Brito", "MARIAB7K2", "0.10")
	svc, _ := newService(repo)

	svc.TrackClick(context.Background(), "mariab7k2", ClickMeta{SessionID: "sid-1"})
	if len(repo.events) != 0 {
		t.Fatalf("lowercase code must not match")
	}
	if got := svc.SessionCode(context.Background(), "sid-1"); got != "" {
		t.Fatalf("unknown code must not be stored, got %q", got)
	}
}

func TestTrackRegistrationFirstVendorWins(t *testing.T) {
	repo := newFakeRepo()
	first := repo.addVendor("Maria Brito", "MARIAB7K2", "0.10")
	repo.addVendor("Joao Souza", "JOAOSO11", "0.20")
	client := repo.addClient(nil)
	svc, _ := newService(repo)
	ctx := context.Background()

	svc.TrackRegistration(ctx, "MARIAB7K2", client)
	svc.TrackRegistration(ctx, "JOAOSO11", client)

	vendorID, _ := repo.GetClientVendor(ctx, client)
	if vendorID == nil || *vendorID != first.ID {
		t.Fatalf("expected client attributed to first vendor")
	}
	if n := repo.count(repository.EventRegistration); n != 1 {
		t.Fatalf("expected one registration event, got %d", n)
	}
}

func TestTrackPurchaseWithoutVendorIsNoop(t *testing.T) {
	repo := newFakeRepo()
	client := repo.addClient(nil)
	svc, bus := newService(repo)

	err := svc.TrackPurchase(context.Background(), client, uuid.New(), decimal.RequireFromString("250.00"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := svc.TrackPurchase(context.Background(), uuid.New(), uuid.New(), decimal.NewFromInt(10)); err != nil {
		t.Fatalf("unknown client must not fail: %v", err)
	}
	if len(repo.events) != 0 || len(repo.orders) != 0 || len(bus.events) != 0 {
		t.Fatalf("expected no writes")
	}
}

func TestTrackPurchaseSnapshotsCommission(t *testing.T) {
	repo := newFakeRepo()
	vendor := repo.addVendor("Maria Brito", "MARIAB7K2", "15%")
	client := repo.addClient(&vendor.ID)
	svc, bus := newService(repo)
	ctx := context.Background()
	orderID := uuid.New()

	if err := svc.TrackPurchase(ctx, client, orderID, decimal.RequireFromString("1234.56")); err != nil {
		t.Fatalf("track purchase: %v", err)
	}
	if err := svc.TrackPurchase(ctx, client, orderID, decimal.RequireFromString("1234.56")); err != nil {
		t.Fatalf("repeat purchase: %v", err)
	}
	if n := repo.count(repository.EventPurchase); n != 1 {
		t.Fatalf("expected one purchase event per order, got %d", n)
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected one tracked event, got %d", len(bus.events))
	}

	got := repo.events[0].CommissionValue.Decimal
	if !got.Equal(decimal.RequireFromString("185.18")) {
		t.Fatalf("expected commission 185.18, got %s", got)
	}

	// a later rate change leaves the stored snapshot alone
	rate := "0.50"
	v := repo.users[vendor.ID]
	v.CommissionRate = &rate
	repo.users[vendor.ID] = v
	if !repo.events[0].CommissionValue.Decimal.Equal(got) {
		t.Fatalf("stored commission changed")
	}
}

func TestEnableVendorIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("Maria Brito")
	svc, _ := newService(repo)
	ctx := context.Background()

	first, err := svc.EnableVendor(ctx, user.ID, transport.EnableVendorRequest{})
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if first.CommissionRate != "0.1" {
		t.Fatalf("expected default rate, got %s", first.CommissionRate)
	}
	if first.Link != "https://canna.example.com/"+first.Code {
		t.Fatalf("unexpected link %s", first.Link)
	}

	second, err := svc.EnableVendor(ctx, user.ID, transport.EnableVendorRequest{CommissionRate: strPtr("0.3")})
	if err != nil {
		t.Fatalf("enable again: %v", err)
	}
	if second.Code != first.Code || !second.AlreadyEnabled || second.CommissionRate != "0.1" {
		t.Fatalf("expected unchanged vendor, got %+v", second)
	}
	if repo.enables != 1 {
		t.Fatalf("expected a single write, got %d", repo.enables)
	}
}

func TestEnableVendorCustomCode(t *testing.T) {
	repo := newFakeRepo()
	repo.addVendor("Outra Pessoa", "PROMO2024", "0.10")
	user := repo.addUser("Maria Brito")
	svc, _ := newService(repo)
	ctx := context.Background()

	_, err := svc.EnableVendor(ctx, user.ID, transport.EnableVendorRequest{CustomCode: strPtr("promo-2024")})
	if apperr.GetCode(err) != domain.CodeDuplicateCustomCode {
		t.Fatalf("expected duplicate custom code, got %v", err)
	}
	if repo.enables != 0 {
		t.Fatalf("custom collision must not retry or write")
	}

	_, err = svc.EnableVendor(ctx, user.ID, transport.EnableVendorRequest{CustomCode: strPtr("a-b")})
	if apperr.GetCode(err) != domain.CodeInvalidCustomCode {
		t.Fatalf("expected invalid custom code, got %v", err)
	}

	resp, err := svc.EnableVendor(ctx, user.ID, transport.EnableVendorRequest{CustomCode: strPtr("Maria Saúde")})
	if err != nil {
		t.Fatalf("enable custom: %v", err)
	}
	if resp.Code != "MARIASAUDE" {
		t.Fatalf("expected normalized code, got %s", resp.Code)
	}
}

func TestEnableVendorRetriesGeneratedCollisions(t *testing.T) {
	repo := newFakeRepo()
	user := repo.addUser("Maria Brito")
	repo.collisions = 3
	svc, _ := newService(repo)

	resp, err := svc.EnableVendor(context.Background(), user.ID, transport.EnableVendorRequest{})
	if err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !domain.LooksLikeCode(resp.Code) {
		t.Fatalf("unexpected code %q", resp.Code)
	}

	other := repo.addUser("Joao Souza")
	repo.collisions = maxCodeAttempts
	_, err = svc.EnableVendor(context.Background(), other.ID, transport.EnableVendorRequest{})
	if apperr.GetCode(err) != domain.CodeCodeExhausted {
		t.Fatalf("expected exhausted error, got %v", err)
	}
}

func TestVendorMetrics(t *testing.T) {
	repo := newFakeRepo()
	vendor := repo.addVendor("Maria Brito", "MARIAB7K2", "0.10")
	svc, _ := newService(repo)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		svc.TrackClick(ctx, "MARIAB7K2", ClickMeta{SessionID: uuid.NewString()})
	}
	client := repo.addClient(nil)
	svc.TrackRegistration(ctx, "MARIAB7K2", client)
	if err := svc.TrackPurchase(ctx, client, uuid.New(), decimal.NewFromInt(300)); err != nil {
		t.Fatalf("track purchase: %v", err)
	}

	m, err := svc.VendorMetrics(ctx, vendor.ID)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.Clicks != 4 || m.Registrations != 1 || m.Purchases != 1 {
		t.Fatalf("unexpected counts %+v", m)
	}
	if m.ConversionRate != 0.25 {
		t.Fatalf("expected conversion 0.25, got %v", m.ConversionRate)
	}
	if !m.TotalRevenue.Equal(decimal.NewFromInt(300)) || !m.TotalCommission.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected totals %s / %s", m.TotalRevenue, m.TotalCommission)
	}
	if len(m.RecentActivity) != 6 || m.RecentActivity[0].EventType != repository.EventPurchase {
		t.Fatalf("unexpected activity %+v", m.RecentActivity)
	}

	plain := repo.addUser("Sem Codigo")
	if _, err := svc.VendorMetrics(ctx, plain.ID); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for non-vendor, got %v", err)
	}
}
