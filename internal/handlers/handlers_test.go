package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/EvgenyiK/pulsefit-service/internal/models"
	"github.com/EvgenyiK/pulsefit-service/internal/repository"
	"github.com/EvgenyiK/pulsefit-service/internal/subscription"
)

// mockStore — mock-реализация repository.Store
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateMember(ctx context.Context, member *models.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockStore) GetMember(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *mockStore) ListMembers(ctx context.Context) ([]models.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Member), args.Error(1)
}

func (m *mockStore) UpdateMember(ctx context.Context, member *models.Member) error {
	return m.Called(ctx, member).Error(0)
}

func (m *mockStore) UpdateProfile(ctx context.Context, id uuid.UUID, p models.Profile) error {
	return m.Called(ctx, id, p).Error(0)
}

func (m *mockStore) RenewSubscription(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	return m.Called(ctx, id, endDate).Error(0)
}

func (m *mockStore) DeleteMember(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) TotalCost(ctx context.Context, date time.Time, f repository.TotalCostFilter) (int, error) {
	args := m.Called(ctx, date, f)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Close() {}

var today = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, store repository.Store) *Handler {
	return NewHandler(store, subscription.FixedClock(today), zaptest.NewLogger(t))
}

func TestListMembers_StoreFailure(t *testing.T) {
	store := new(mockStore)
	store.On("ListMembers", mock.Anything).Return(nil, errors.New("connection refused"))

	rec := httptest.NewRecorder()
	newTestHandler(t, store).ListMembers(rec, httptest.NewRequest(http.MethodGet, "/members", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Error fetching members"}`, rec.Body.String())
	store.AssertExpectations(t)
}

func TestRenewSubscription_UsesClock(t *testing.T) {
	id := uuid.New()
	end := time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	member := &models.Member{
		ID: id,
		Subscription: &models.Subscription{
			Category:  "Strength Training",
			Price:     800,
			StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			EndDate:   end,
		},
	}

	store := new(mockStore)
	store.On("RenewSubscription", mock.Anything, id, end).Return(nil)
	store.On("GetMember", mock.Anything, id).Return(member, nil)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/members/"+id.String()+"/renew", nil), map[string]string{"id": id.String()})
	rec := httptest.NewRecorder()
	newTestHandler(t, store).RenewSubscription(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	store.AssertExpectations(t)
}

func TestDeleteMember_StoreErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", errors.Join(errors.New("tx"), repository.ErrNotFound), http.StatusNotFound},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New()
			store := new(mockStore)
			store.On("DeleteMember", mock.Anything, id).Return(tt.err)

			req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/members/"+id.String(), nil), map[string]string{"id": id.String()})
			rec := httptest.NewRecorder()
			newTestHandler(t, store).DeleteMember(rec, req)

			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestGetMember_BadID(t *testing.T) {
	store := new(mockStore)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/members/x", nil), map[string]string{"id": "x"})
	rec := httptest.NewRecorder()
	newTestHandler(t, store).GetMember(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	store.AssertNotCalled(t, "GetMember", mock.Anything, mock.Anything)
}

func TestResolvePeriod(t *testing.T) {
	s := func(v string) *string { return &v }

	start, end, msg := resolvePeriod(MemberInput{}, today)
	require.Empty(t, msg)
	assert.Equal(t, today, start)
	assert.Equal(t, time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC), end)

	start, end, msg = resolvePeriod(MemberInput{StartDate: s("2024-01-01")}, today)
	require.Empty(t, msg)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), end)

	_, _, msg = resolvePeriod(MemberInput{EndDate: s("31.12.2024")}, today)
	assert.Equal(t, "Invalid end_date format", msg)
}

func TestAlertMessage(t *testing.T) {
	assert.Empty(t, alertMessage(models.SubscriptionView{DaysLeft: 10, Status: models.StatusActive}))
	assert.Equal(t, "Your subscription expires in 1 day. Consider renewing soon.",
		alertMessage(models.SubscriptionView{DaysLeft: 1, Status: models.StatusExpiring}))
	assert.Contains(t, alertMessage(models.SubscriptionView{DaysLeft: -3, Status: models.StatusExpired}), "has expired")
}

func TestSummarize(t *testing.T) {
	sub := func(price int) *models.Subscription { return &models.Subscription{Price: price} }
	view := func(s models.Status) *models.SubscriptionView { return &models.SubscriptionView{Status: s} }

	stats := Summarize([]models.MemberView{
		{Member: models.Member{Subscription: sub(1000)}, View: view(models.StatusActive)},
		{Member: models.Member{Subscription: sub(800)}, View: view(models.StatusActive)},
		{Member: models.Member{Subscription: sub(800)}, View: view(models.StatusExpired)},
		{Member: models.Member{Role: models.RoleAdmin}},
	})

	assert.Equal(t, models.Stats{Active: 2, Expired: 1, Total: 3, TotalRevenue: 2600}, stats)
}
