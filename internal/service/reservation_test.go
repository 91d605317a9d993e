package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendhub-backend/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Fridays out, Thursdays back, one day of turnaround. 2026-03-06 is a Friday,
// 2026-03-12 the Thursday after.
func newReservationFixture(t *testing.T) (*fakeStore, ReservationService, *domain.Holder, *domain.ResourceType, *mailRecorder) {
	t.Helper()
	s := newFakeStore()
	rt := s.addType("LZ")
	s.addUnits(rt.ID, 3)
	h := s.addHolder("holder@example.com", 50, false)
	mail := &mailRecorder{}
	svc := NewReservationService(s, mustPolicy(5, 4, 1), 7, mail, fixedNow(2026, time.March, 2))
	return s, svc, h, rt, mail
}

func TestCreateBatchSingleEntry(t *testing.T) {
	s, svc, h, rt, mail := newReservationFixture(t)

	out, err := svc.CreateBatch(context.Background(), h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 2},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	assert.Equal(t, h.ID, out[0].HolderID)
	assert.Equal(t, 2, out[0].Count)
	assert.Equal(t, int64(1), out[0].OperationNumber)
	assert.Len(t, s.reservations, 1)

	// The holder gets one confirmation mail per booked entry.
	require.Len(t, mail.sent, 1)
	assert.Equal(t, sentMail{kind: "confirmation", email: h.Email, label: rt.Name}, mail.sent[0])
}

func TestCreateBatchMergesDuplicateEntries(t *testing.T) {
	s, svc, h, rt, _ := newReservationFixture(t)

	// Same type and range submitted twice in one batch collapses into one row.
	out, err := svc.CreateBatch(context.Background(), h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 2},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Count)
	assert.Len(t, s.reservations, 1)
}

func TestCreateBatchMergesIntoExistingReservation(t *testing.T) {
	s, svc, h, rt, _ := newReservationFixture(t)
	ctx := context.Background()
	candidate := domain.ReservationCandidate{
		ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1,
	}

	first, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{candidate})
	require.NoError(t, err)

	second, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{candidate})
	require.NoError(t, err)
	require.Len(t, second, 1)

	// The second submission tops up the first row instead of adding one, and
	// the merged row keeps its original operation number.
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 2, second[0].Count)
	assert.Equal(t, first[0].OperationNumber, second[0].OperationNumber)
	assert.Len(t, s.reservations, 1)
}

func TestCreateBatchSharesOneOperationNumber(t *testing.T) {
	s := newFakeStore()
	typeA := s.addType("LZ")
	s.addUnits(typeA.ID, 3)
	typeB := s.addType("BM")
	s.addUnits(typeB.ID, 2)
	holder := s.addHolder("holder@example.com", 50, false)
	svc := NewReservationService(s, mustPolicy(5, 4, 1), 7, &mailRecorder{}, fixedNow(2026, time.March, 2))

	out, err := svc.CreateBatch(context.Background(), holder.ID, []domain.ReservationCandidate{
		{ResourceTypeID: typeA.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
		{ResourceTypeID: typeB.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 2},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, out[0].OperationNumber, out[1].OperationNumber)
}

func TestCreateBatchInsufficientCapacity(t *testing.T) {
	s, svc, h, rt, mail := newReservationFixture(t)

	_, err := svc.CreateBatch(context.Background(), h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 4},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	assert.Empty(t, s.reservations)
	assert.Empty(t, mail.sent, "a failed batch sends no mail")
}

func TestCreateBatchEarlierEntriesCountAgainstLaterOnes(t *testing.T) {
	s := newFakeStore()
	rt := s.addType("LZ")
	s.addUnits(rt.ID, 3)
	h := s.addHolder("holder@example.com", 50, false)
	// Two days of turnaround make the first week's occupancy reach into the
	// second week.
	svc := NewReservationService(s, mustPolicy(5, 4, 2), 7, &mailRecorder{}, fixedNow(2026, time.March, 2))

	// Each entry alone fits the pool of 3, but the first one still occupies
	// 2 units during the second week. The whole batch fails and nothing is
	// persisted.
	_, err := svc.CreateBatch(context.Background(), h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 2},
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 13), ReservedUntil: date(2026, time.March, 19), Count: 2},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	assert.Empty(t, s.reservations)
}

func TestCreateBatchChecksEachCandidateWindow(t *testing.T) {
	s, svc, h, rt, _ := newReservationFixture(t)
	rival := s.addHolder("rival@example.com", 50, false)
	blocker := &domain.Reservation{
		ID:              s.id(),
		HolderID:        rival.ID,
		ResourceTypeID:  rt.ID,
		ReservedFrom:    date(2026, time.March, 20),
		ReservedUntil:   date(2026, time.March, 26),
		Count:           3,
		OperationNumber: 9,
	}
	s.reservations[blocker.ID] = blocker

	// The second window is fully booked by another holder. A free first
	// window for the same type must not hide that.
	_, err := svc.CreateBatch(context.Background(), h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 20), ReservedUntil: date(2026, time.March, 26), Count: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientCapacity)
	assert.Len(t, s.reservations, 1, "nothing besides the blocker persists")
}

func TestCreateBatchDurationExceeded(t *testing.T) {
	s, svc, h, rt, _ := newReservationFixture(t)
	pol := &domain.DurationPolicy{TierID: 1, TierPrio: 50, ResourceTypeID: rt.ID, DurationDays: 5}
	s.policies[s.id()] = pol
	ctx := context.Background()

	// 13 days requested against a 5-day cap plus the one-week grace.
	_, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 19), Count: 1},
	})
	assert.ErrorIs(t, err, domain.ErrDurationExceeded)

	// With a 6-day cap the same range sits exactly at cap plus grace.
	pol.DurationDays = 6
	_, err = svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 19), Count: 1},
	})
	assert.NoError(t, err)
}

func TestCreateBatchRejectsWrongWeekdays(t *testing.T) {
	_, svc, h, rt, _ := newReservationFixture(t)
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 7), ReservedUntil: date(2026, time.March, 12), Count: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidHandoutDay)

	_, err = svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 13), Count: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidReturnDay)
}

func TestCreateBatchRejectsEmptyAndNonPositive(t *testing.T) {
	_, svc, h, rt, _ := newReservationFixture(t)
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, h.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 0},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestCancelDropsPendingRentals(t *testing.T) {
	s, svc, h, rt, mail := newReservationFixture(t)
	ctx := context.Background()

	out, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
	})
	require.NoError(t, err)
	resID := out[0].ID

	rental := &domain.Rental{ID: s.id(), UnitID: 2, ReservationID: resID, RentalNumber: 1}
	s.rentals[rental.ID] = rental

	require.NoError(t, svc.Cancel(ctx, h.ID, resID))

	got, err := svc.GetReservation(ctx, resID)
	require.NoError(t, err)
	assert.False(t, got.Active())
	assert.Empty(t, s.rentals, "assigned but not handed-out rentals fall away")

	require.Len(t, mail.sent, 2)
	assert.Equal(t, sentMail{kind: "canceled", email: h.Email, label: rt.Name}, mail.sent[1])
}

func TestCancelGuards(t *testing.T) {
	s, svc, h, rt, _ := newReservationFixture(t)
	ctx := context.Background()
	stranger := s.addHolder("other@example.com", 50, false)
	staff := s.addHolder("staff@example.com", 10, true)

	out, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
	})
	require.NoError(t, err)
	resID := out[0].ID

	assert.ErrorIs(t, svc.Cancel(ctx, stranger.ID, resID), domain.ErrForbidden)

	// Staff may cancel on behalf of the holder.
	require.NoError(t, svc.Cancel(ctx, staff.ID, resID))
	assert.ErrorIs(t, svc.Cancel(ctx, h.ID, resID), domain.ErrAlreadyCanceled)
}

func TestCancelRefusesHandedOutReservation(t *testing.T) {
	s, svc, h, rt, _ := newReservationFixture(t)
	ctx := context.Background()

	out, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
	})
	require.NoError(t, err)
	resID := out[0].ID

	handedOut := date(2026, time.March, 6)
	rental := &domain.Rental{ID: s.id(), UnitID: 2, ReservationID: resID, RentalNumber: 1, HandedOutAt: &handedOut}
	s.rentals[rental.ID] = rental

	assert.ErrorIs(t, svc.Cancel(ctx, h.ID, resID), domain.ErrForbidden)
	got, err := svc.GetReservation(ctx, resID)
	require.NoError(t, err)
	assert.True(t, got.Active())
}

func TestFulfilledReservationFreesCapacity(t *testing.T) {
	s, svc, h, rt, _ := newReservationFixture(t)
	ctx := context.Background()
	candidate := domain.ReservationCandidate{
		ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 3,
	}

	out, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{candidate})
	require.NoError(t, err)

	// The pool is exhausted while the reservation is pending.
	_, err = svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCapacity)

	// Attaching a rental fulfills the reservation; capacity now flows from
	// the open loans instead. With nothing handed out yet the window frees up
	// entirely.
	rental := &domain.Rental{ID: s.id(), UnitID: 2, ReservationID: out[0].ID, RentalNumber: 1}
	s.rentals[rental.ID] = rental

	more, err := svc.CreateBatch(ctx, h.ID, []domain.ReservationCandidate{
		{ResourceTypeID: rt.ID, ReservedFrom: date(2026, time.March, 6), ReservedUntil: date(2026, time.March, 12), Count: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, more[0].Count)
}
