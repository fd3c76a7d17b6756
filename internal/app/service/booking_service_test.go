package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/ikkim/provider-portal-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	repos    *testRepos
	svc      BookingService
	mail     *fakeMailer
	redis    *miniredis.Miniredis
	business *model.BusinessProfile
	owner    *model.Provider
}

func setupBookingTest(t *testing.T) *bookingFixture {
	t.Helper()
	r := setupServiceTest(t)

	srv := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { cli.Close() })

	mail := &fakeMailer{}
	business, owner := createBusiness(t, r, "user-1", true)
	return &bookingFixture{
		repos:    r,
		svc:      NewBookingService(r.bookings, redis.NewStore(cli), mail, nil),
		mail:     mail,
		redis:    srv,
		business: business,
		owner:    owner,
	}
}

func (f *bookingFixture) booking(t *testing.T, status model.BookingStatus, providerID *uint) *model.Booking {
	t.Helper()
	b := &model.Booking{
		BusinessID:    f.business.ID,
		CustomerID:    "cust-1",
		CustomerEmail: "customer@example.com",
		ProviderID:    providerID,
		ServiceID:     1,
		BookingDate:   time.Now().Add(48 * time.Hour),
		StartTime:     "10:00",
		TotalAmount:   80,
		BookingStatus: status,
	}
	require.NoError(t, f.repos.bookings.Create(context.Background(), b))
	return b
}

func TestBookingUpdateStatus_FollowsTransitionTable(t *testing.T) {
	f := setupBookingTest(t)
	ctx := context.Background()
	b := f.booking(t, model.BookingPending, nil)

	confirmed, err := f.svc.UpdateStatus(ctx, f.owner, b.ID, model.BookingConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.BookingStatus)
	assert.NotNil(t, confirmed.ConfirmedAt)

	_, err = f.svc.UpdateStatus(ctx, f.owner, b.ID, model.BookingPending, "")
	require.Error(t, err)
	info := apperrors.Normalize(err)
	assert.Equal(t, 422, info.Status)
	assert.Equal(t, apperrors.BookingInvalidTransition, info.Code)
	details := info.Details.(map[string]interface{})
	assert.Equal(t, model.BookingConfirmed, details["from"])
	assert.ElementsMatch(t, []model.BookingStatus{model.BookingInProgress, model.BookingCancelled, model.BookingNoShow}, details["allowed"])

	cancelled, err := f.svc.UpdateStatus(ctx, f.owner, b.ID, model.BookingCancelled, " customer asked ")
	require.NoError(t, err)
	assert.Equal(t, "customer asked", cancelled.CancellationReason)
	assert.NotNil(t, cancelled.CancelledAt)

	// terminal
	_, err = f.svc.UpdateStatus(ctx, f.owner, b.ID, model.BookingConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBookingUpdateStatus_UnknownAndForeign(t *testing.T) {
	f := setupBookingTest(t)
	ctx := context.Background()
	b := f.booking(t, model.BookingPending, nil)

	_, err := f.svc.UpdateStatus(ctx, f.owner, b.ID, "teleported", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, otherOwner := createBusiness(t, f.repos, "user-2", true)
	_, err = f.svc.UpdateStatus(ctx, otherOwner, b.ID, model.BookingConfirmed, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingUpdateStatus_ProviderOnlyOwnBookings(t *testing.T) {
	f := setupBookingTest(t)
	ctx := context.Background()
	staff := addStaff(t, f.repos, f.business.ID, "user-staff", model.RoleProvider)
	colleague := addStaff(t, f.repos, f.business.ID, "user-colleague", model.RoleProvider)

	mine := f.booking(t, model.BookingPending, &staff.ID)
	theirs := f.booking(t, model.BookingPending, &colleague.ID)

	_, err := f.svc.UpdateStatus(ctx, staff, theirs.ID, model.BookingConfirmed, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.AuthzCapabilityMissing, apperrors.Normalize(err).Code)

	_, err = f.svc.UpdateStatus(ctx, staff, mine.ID, model.BookingConfirmed, "")
	assert.NoError(t, err)

	dispatcher := addStaff(t, f.repos, f.business.ID, "user-dispatch", model.RoleDispatcher)
	_, err = f.svc.UpdateStatus(ctx, dispatcher, theirs.ID, model.BookingConfirmed, "")
	assert.NoError(t, err)
}

func TestBookingList_ScopedByRole(t *testing.T) {
	f := setupBookingTest(t)
	ctx := context.Background()
	staff := addStaff(t, f.repos, f.business.ID, "user-staff", model.RoleProvider)
	f.booking(t, model.BookingPending, &staff.ID)
	f.booking(t, model.BookingPending, nil)
	f.booking(t, model.BookingConfirmed, nil)

	all, total, err := f.svc.List(ctx, f.owner, BookingQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, int64(3), total)

	own, total, err := f.svc.List(ctx, staff, BookingQuery{})
	require.NoError(t, err)
	assert.Len(t, own, 1)
	assert.Equal(t, int64(1), total)

	pending, _, err := f.svc.List(ctx, f.owner, BookingQuery{Status: model.BookingPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, _, err = f.svc.List(ctx, f.owner, BookingQuery{BusinessID: f.business.ID + 100})
	assert.ErrorIs(t, err, ErrBusinessMismatch)
}

func TestBookingNotification_SentOncePerStatus(t *testing.T) {
	f := setupBookingTest(t)
	ctx := context.Background()
	b := f.booking(t, model.BookingPending, nil)

	_, err := f.svc.UpdateStatus(ctx, f.owner, b.ID, model.BookingConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.mail.count())
	assert.True(t, f.redis.Exists(notificationKey(b.ID, model.BookingConfirmed)))

	// a replayed notification for the same status is suppressed
	f.svc.(*bookingService).notifyCustomer(ctx, &model.Booking{ID: b.ID, CustomerEmail: "customer@example.com", BookingStatus: model.BookingConfirmed})
	assert.Equal(t, 1, f.mail.count())
}

func TestBookingNotification_ReleasedOnSendFailure(t *testing.T) {
	f := setupBookingTest(t)
	ctx := context.Background()
	b := f.booking(t, model.BookingPending, nil)
	f.mail.err = errors.New("smtp unavailable")

	updated, err := f.svc.UpdateStatus(ctx, f.owner, b.ID, model.BookingConfirmed, "")
	require.NoError(t, err, "a failed email never undoes the transition")
	assert.Equal(t, model.BookingConfirmed, updated.BookingStatus)
	assert.False(t, f.redis.Exists(notificationKey(b.ID, model.BookingConfirmed)))
}
