package service

import (
	"context"
	"sort"
	"time"

	"lendhub-backend/internal/calendar"
	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/repository"
)

// fakeStore backs the service tests with in-memory state. ExecTx runs the
// callback directly; isolation and retries belong to the postgres tests.
type fakeStore struct {
	categories   []domain.Category
	types        map[int64]*domain.ResourceType
	units        map[int64]*domain.Unit
	windows      map[int64]*domain.StatusWindow
	tiers        []domain.PriorityTier
	policies     map[int64]*domain.DurationPolicy
	holders      map[int64]*domain.Holder
	reservations map[int64]*domain.Reservation
	rentals      map[int64]*domain.Rental
	extensions   map[int64][]domain.Extension

	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		types:        make(map[int64]*domain.ResourceType),
		units:        make(map[int64]*domain.Unit),
		windows:      make(map[int64]*domain.StatusWindow),
		policies:     make(map[int64]*domain.DurationPolicy),
		holders:      make(map[int64]*domain.Holder),
		reservations: make(map[int64]*domain.Reservation),
		rentals:      make(map[int64]*domain.Rental),
		extensions:   make(map[int64][]domain.Extension),
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) Catalog() repository.CatalogRepository          { return (*fakeCatalog)(s) }
func (s *fakeStore) Policies() repository.PolicyRepository          { return (*fakePolicies)(s) }
func (s *fakeStore) Holders() repository.HolderRepository           { return (*fakeHolders)(s) }
func (s *fakeStore) Reservations() repository.ReservationRepository { return (*fakeReservations)(s) }
func (s *fakeStore) Rentals() repository.RentalRepository           { return (*fakeRentals)(s) }

func (s *fakeStore) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

// test fixtures

func (s *fakeStore) addType(prefix string) *domain.ResourceType {
	rt := &domain.ResourceType{ID: s.id(), CategoryID: 1, Name: "Type " + prefix, PrefixIdentifier: prefix, Visible: true}
	s.types[rt.ID] = rt
	return rt
}

func (s *fakeStore) addUnits(typeID int64, n int) []int64 {
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		u := &domain.Unit{ID: s.id(), ResourceTypeID: typeID, InternalIdentifier: i + 1, Rentable: true}
		s.units[u.ID] = u
		ids = append(ids, u.ID)
	}
	return ids
}

func (s *fakeStore) addHolder(email string, tierPrio int, staff bool) *domain.Holder {
	h := &domain.Holder{ID: s.id(), Email: email, FirstName: "Test", TierPrio: tierPrio, Staff: staff, Verified: true}
	s.holders[h.ID] = h
	return h
}

// fakeCatalog

type fakeCatalog fakeStore

func (c *fakeCatalog) CreateResourceType(ctx context.Context, rt *domain.ResourceType) error {
	rt.ID = (*fakeStore)(c).id()
	c.types[rt.ID] = rt
	return nil
}

func (c *fakeCatalog) GetResourceType(ctx context.Context, id int64) (*domain.ResourceType, error) {
	rt, ok := c.types[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rt
	return &out, nil
}

func (c *fakeCatalog) ListResourceTypes(ctx context.Context, visibleOnly bool) ([]domain.ResourceType, error) {
	var out []domain.ResourceType
	for _, rt := range c.types {
		if visibleOnly && !rt.Visible {
			continue
		}
		out = append(out, *rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *fakeCatalog) UpdateResourceType(ctx context.Context, rt *domain.ResourceType) error {
	if _, ok := c.types[rt.ID]; !ok {
		return domain.ErrNotFound
	}
	c.types[rt.ID] = rt
	return nil
}

func (c *fakeCatalog) DeleteResourceType(ctx context.Context, id int64) error {
	if _, ok := c.types[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.types, id)
	return nil
}

func (c *fakeCatalog) CreateCategory(ctx context.Context, cat *domain.Category) error {
	cat.ID = (*fakeStore)(c).id()
	c.categories = append(c.categories, *cat)
	return nil
}

func (c *fakeCatalog) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return append([]domain.Category(nil), c.categories...), nil
}

func (c *fakeCatalog) CreateUnit(ctx context.Context, u *domain.Unit) error {
	u.ID = (*fakeStore)(c).id()
	c.units[u.ID] = u
	return nil
}

func (c *fakeCatalog) GetUnit(ctx context.Context, id int64) (*domain.Unit, error) {
	u, ok := c.units[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (c *fakeCatalog) ListUnitsByType(ctx context.Context, typeID int64) ([]domain.Unit, error) {
	var out []domain.Unit
	for _, u := range c.units {
		if u.ResourceTypeID == typeID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *fakeCatalog) UpdateUnit(ctx context.Context, u *domain.Unit) error {
	if _, ok := c.units[u.ID]; !ok {
		return domain.ErrNotFound
	}
	c.units[u.ID] = u
	return nil
}

func (c *fakeCatalog) DeleteUnit(ctx context.Context, id int64) error {
	if _, ok := c.units[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.units, id)
	return nil
}

func (c *fakeCatalog) CreateStatusWindow(ctx context.Context, w *domain.StatusWindow) error {
	w.ID = (*fakeStore)(c).id()
	c.windows[w.ID] = w
	return nil
}

func (c *fakeCatalog) ListStatusWindowsByType(ctx context.Context, typeID int64) ([]domain.StatusWindow, error) {
	var out []domain.StatusWindow
	for _, w := range c.windows {
		if u, ok := c.units[w.UnitID]; ok && u.ResourceTypeID == typeID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (c *fakeCatalog) DeleteStatusWindow(ctx context.Context, id int64) error {
	if _, ok := c.windows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(c.windows, id)
	return nil
}

// fakePolicies

type fakePolicies fakeStore

func (p *fakePolicies) ListTiers(ctx context.Context) ([]domain.PriorityTier, error) {
	out := append([]domain.PriorityTier(nil), p.tiers...)
	sort.Slice(out, func(i, j int) bool { return out[i].Prio < out[j].Prio })
	return out, nil
}

func (p *fakePolicies) GetTier(ctx context.Context, id int64) (*domain.PriorityTier, error) {
	for _, t := range p.tiers {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (p *fakePolicies) ListDurationPoliciesByType(ctx context.Context, typeID int64) ([]domain.DurationPolicy, error) {
	var out []domain.DurationPolicy
	for _, pol := range p.policies {
		if pol.ResourceTypeID == typeID {
			out = append(out, *pol)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TierPrio < out[j].TierPrio })
	return out, nil
}

func (p *fakePolicies) UpsertDurationPolicy(ctx context.Context, pol *domain.DurationPolicy) error {
	for _, existing := range p.policies {
		if existing.TierID == pol.TierID && existing.ResourceTypeID == pol.ResourceTypeID {
			existing.DurationDays = pol.DurationDays
			pol.ID = existing.ID
			return nil
		}
	}
	pol.ID = (*fakeStore)(p).id()
	p.policies[pol.ID] = pol
	return nil
}

func (p *fakePolicies) DeleteDurationPolicy(ctx context.Context, id int64) error {
	if _, ok := p.policies[id]; !ok {
		return domain.ErrNotFound
	}
	delete(p.policies, id)
	return nil
}

// fakeHolders

type fakeHolders fakeStore

func (h *fakeHolders) Create(ctx context.Context, holder *domain.Holder) error {
	holder.ID = (*fakeStore)(h).id()
	h.holders[holder.ID] = holder
	return nil
}

func (h *fakeHolders) GetByID(ctx context.Context, id int64) (*domain.Holder, error) {
	holder, ok := h.holders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *holder
	return &out, nil
}

func (h *fakeHolders) GetByEmail(ctx context.Context, email string) (*domain.Holder, error) {
	for _, holder := range h.holders {
		if holder.Email == email {
			out := *holder
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (h *fakeHolders) Update(ctx context.Context, holder *domain.Holder) error {
	if _, ok := h.holders[holder.ID]; !ok {
		return domain.ErrNotFound
	}
	h.holders[holder.ID] = holder
	return nil
}

// fakeReservations

type fakeReservations fakeStore

func (r *fakeReservations) fulfilled(id int64) bool {
	for _, rt := range r.rentals {
		if rt.ReservationID == id {
			return true
		}
	}
	return false
}

func (r *fakeReservations) Create(ctx context.Context, res *domain.Reservation) error {
	res.ID = (*fakeStore)(r).id()
	copied := *res
	r.reservations[res.ID] = &copied
	return nil
}

func (r *fakeReservations) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *res
	return &out, nil
}

func (r *fakeReservations) ListConsuming(ctx context.Context, typeID int64, from, until time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range r.reservations {
		if res.ResourceTypeID != typeID || !res.Active() || r.fulfilled(res.ID) {
			continue
		}
		if res.ReservedFrom.After(until) || res.ReservedUntil.Before(from) {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

func (r *fakeReservations) FindMergeTarget(ctx context.Context, holderID, typeID int64, from, until time.Time) (*domain.Reservation, error) {
	for _, res := range r.reservations {
		if res.HolderID == holderID && res.ResourceTypeID == typeID &&
			res.ReservedFrom.Equal(from) && res.ReservedUntil.Equal(until) &&
			res.Active() && !r.fulfilled(res.ID) {
			out := *res
			return &out, nil
		}
	}
	return nil, nil
}

func (r *fakeReservations) AddCount(ctx context.Context, id int64, delta int) error {
	res, ok := r.reservations[id]
	if !ok {
		return domain.ErrNotFound
	}
	res.Count += delta
	return nil
}

func (r *fakeReservations) MarkCanceled(ctx context.Context, id int64, at time.Time) error {
	res, ok := r.reservations[id]
	if !ok || !res.Active() {
		return domain.ErrNotFound
	}
	res.CanceledAt = &at
	return nil
}

func (r *fakeReservations) NextOperationNumber(ctx context.Context) (int64, error) {
	var max int64
	for _, res := range r.reservations {
		if res.OperationNumber > max {
			max = res.OperationNumber
		}
	}
	return max + 1, nil
}

func (r *fakeReservations) ListByHolder(ctx context.Context, holderID int64, openOnly bool) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range r.reservations {
		if res.HolderID != holderID {
			continue
		}
		if openOnly && (!res.Active() || r.fulfilled(res.ID)) {
			continue
		}
		out = append(out, *res)
	}
	return out, nil
}

func (r *fakeReservations) ListByOperationNumber(ctx context.Context, opNumber int64) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range r.reservations {
		if res.OperationNumber == opNumber {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeReservations) ListStartingOn(ctx context.Context, date time.Time) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range r.reservations {
		if res.ReservedFrom.Equal(date) && res.Active() && res.NotifiedAt == nil {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r *fakeReservations) MarkNotified(ctx context.Context, ids []int64, at time.Time) error {
	for _, id := range ids {
		if res, ok := r.reservations[id]; ok {
			res.NotifiedAt = &at
		}
	}
	return nil
}

// fakeRentals

type fakeRentals fakeStore

func (r *fakeRentals) Create(ctx context.Context, rt *domain.Rental) error {
	unit, ok := r.units[rt.UnitID]
	if !ok {
		return domain.ErrNotFound
	}
	res, ok := r.reservations[rt.ReservationID]
	if !ok {
		return domain.ErrNotFound
	}
	if unit.ResourceTypeID != res.ResourceTypeID {
		return domain.ErrTypeMismatch
	}
	rt.ID = (*fakeStore)(r).id()
	copied := *rt
	r.rentals[rt.ID] = &copied
	return nil
}

func (r *fakeRentals) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	rt, ok := r.rentals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rt
	out.Extensions = append([]domain.Extension(nil), r.extensions[id]...)
	return &out, nil
}

func (r *fakeRentals) ListByReservation(ctx context.Context, reservationID int64) ([]domain.Rental, error) {
	var out []domain.Rental
	for _, rt := range r.rentals {
		if rt.ReservationID == reservationID {
			copied := *rt
			copied.Extensions = append([]domain.Extension(nil), r.extensions[rt.ID]...)
			out = append(out, copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRentals) ListOpenLoansByType(ctx context.Context, typeID int64, until time.Time) ([]domain.OpenLoan, error) {
	var out []domain.OpenLoan
	for _, rt := range r.rentals {
		if !rt.Open() || rt.HandedOutAt.After(until) {
			continue
		}
		unit := r.units[rt.UnitID]
		if unit == nil || unit.ResourceTypeID != typeID {
			continue
		}
		res := r.reservations[rt.ReservationID]
		due := res.ReservedUntil
		for _, e := range r.extensions[rt.ID] {
			if e.ExtendedUntil.After(due) {
				due = e.ExtendedUntil
			}
		}
		out = append(out, domain.OpenLoan{RentalID: rt.ID, UnitID: rt.UnitID, HandedOutAt: *rt.HandedOutAt, DueDate: due})
	}
	return out, nil
}

func (r *fakeRentals) DeletePendingExcept(ctx context.Context, reservationID int64, keepUnitIDs []int64) error {
	keep := make(map[int64]bool, len(keepUnitIDs))
	for _, id := range keepUnitIDs {
		keep[id] = true
	}
	for id, rt := range r.rentals {
		if rt.ReservationID == reservationID && rt.HandedOutAt == nil && !keep[rt.UnitID] {
			delete(r.rentals, id)
		}
	}
	return nil
}

func (r *fakeRentals) CountByReservation(ctx context.Context, reservationID int64) (int, error) {
	n := 0
	for _, rt := range r.rentals {
		if rt.ReservationID == reservationID {
			n++
		}
	}
	return n, nil
}

func (r *fakeRentals) MarkHandedOut(ctx context.Context, reservationID int64, lenderID int64, at time.Time) error {
	for _, rt := range r.rentals {
		if rt.ReservationID == reservationID && rt.HandedOutAt == nil {
			t := at
			rt.HandedOutAt = &t
			rt.LenderID = &lenderID
		}
	}
	return nil
}

func (r *fakeRentals) ListOpenByIDs(ctx context.Context, ids []int64) ([]domain.Rental, error) {
	var out []domain.Rental
	for _, id := range ids {
		if rt, ok := r.rentals[id]; ok && rt.Open() {
			out = append(out, *rt)
		}
	}
	return out, nil
}

func (r *fakeRentals) MarkReturned(ctx context.Context, ids []int64, processorID int64, at time.Time) error {
	for _, id := range ids {
		if rt, ok := r.rentals[id]; ok && rt.ReceivedBackAt == nil {
			t := at
			rt.ReceivedBackAt = &t
			rt.ReturnProcessorID = &processorID
		}
	}
	return nil
}

func (r *fakeRentals) NextRentalNumber(ctx context.Context) (int64, error) {
	var max int64
	for _, rt := range r.rentals {
		if rt.RentalNumber > max {
			max = rt.RentalNumber
		}
	}
	return max + 1, nil
}

func (r *fakeRentals) AddExtension(ctx context.Context, e *domain.Extension) error {
	if _, ok := r.rentals[e.RentalID]; !ok {
		return domain.ErrNotFound
	}
	e.ID = (*fakeStore)(r).id()
	r.extensions[e.RentalID] = append(r.extensions[e.RentalID], *e)
	return nil
}

func (r *fakeRentals) ClearNotified(ctx context.Context, rentalID int64) error {
	rt, ok := r.rentals[rentalID]
	if !ok {
		return domain.ErrNotFound
	}
	rt.NotifiedAt = nil
	return nil
}

func (r *fakeRentals) ListOpenDueOn(ctx context.Context, date time.Time, notified bool) ([]domain.Rental, error) {
	var out []domain.Rental
	for _, rt := range r.rentals {
		if !rt.Open() {
			continue
		}
		if notified != (rt.NotifiedAt != nil) {
			continue
		}
		res := r.reservations[rt.ReservationID]
		due := res.ReservedUntil
		for _, e := range r.extensions[rt.ID] {
			if e.ExtendedUntil.After(due) {
				due = e.ExtendedUntil
			}
		}
		if due.Equal(date) {
			out = append(out, *rt)
		}
	}
	return out, nil
}

func (r *fakeRentals) MarkNotified(ctx context.Context, ids []int64, at time.Time) error {
	for _, id := range ids {
		if rt, ok := r.rentals[id]; ok {
			t := at
			rt.NotifiedAt = &t
		}
	}
	return nil
}

func (r *fakeRentals) FreeUnits(ctx context.Context, typeID int64, on time.Time) ([]domain.Unit, error) {
	open := make(map[int64]bool)
	for _, rt := range r.rentals {
		if rt.Open() {
			open[rt.UnitID] = true
		}
	}
	var out []domain.Unit
	for _, u := range r.units {
		if u.ResourceTypeID != typeID || !u.Rentable || open[u.ID] {
			continue
		}
		blocked := false
		for _, w := range r.windows {
			if w.UnitID == u.ID && !w.Rentable && w.Overlaps(on, on) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ repository.Store = (*fakeStore)(nil)

func fixedNow(y int, m time.Month, d int) func() time.Time {
	return func() time.Time {
		return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
	}
}

func mustPolicy(handout, ret, turnaround int) calendar.Policy {
	p, err := calendar.New(handout, ret, turnaround)
	if err != nil {
		panic(err)
	}
	return p
}

type sentMail struct {
	kind  string
	email string
	label string
}

// mailRecorder collects outgoing mail instead of talking to SendGrid.
type mailRecorder struct {
	sent []sentMail
}

var _ EmailService = (*mailRecorder)(nil)

func (m *mailRecorder) SendReservationReminder(ctx context.Context, email, name, typeName string, from, until time.Time, count int) error {
	m.sent = append(m.sent, sentMail{kind: "reminder", email: email, label: typeName})
	return nil
}

func (m *mailRecorder) SendDueReminder(ctx context.Context, email, name, unitLabel string, due time.Time) error {
	m.sent = append(m.sent, sentMail{kind: "due", email: email, label: unitLabel})
	return nil
}

func (m *mailRecorder) SendMissingReturnNotice(ctx context.Context, email, name, unitLabel string, due time.Time) error {
	m.sent = append(m.sent, sentMail{kind: "missing", email: email, label: unitLabel})
	return nil
}

func (m *mailRecorder) SendReservationConfirmation(ctx context.Context, email, name, typeName string, from, until time.Time, count int) error {
	m.sent = append(m.sent, sentMail{kind: "confirmation", email: email, label: typeName})
	return nil
}

func (m *mailRecorder) SendCancellationNotice(ctx context.Context, email, name, typeName string, from, until time.Time) error {
	m.sent = append(m.sent, sentMail{kind: "canceled", email: email, label: typeName})
	return nil
}

func (m *mailRecorder) SendHandoutReceipt(ctx context.Context, email, name, typeName string, count int, due time.Time) error {
	m.sent = append(m.sent, sentMail{kind: "handout", email: email, label: typeName})
	return nil
}

func (m *mailRecorder) SendExtensionConfirmation(ctx context.Context, email, name, unitLabel string, due time.Time) error {
	m.sent = append(m.sent, sentMail{kind: "extension", email: email, label: unitLabel})
	return nil
}
