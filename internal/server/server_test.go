package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"

	"github.com/EvgenyiK/pulsefit-service/internal/handlers"
	"github.com/EvgenyiK/pulsefit-service/internal/models"
	"github.com/EvgenyiK/pulsefit-service/internal/plans"
	"github.com/EvgenyiK/pulsefit-service/internal/repository"
	"github.com/EvgenyiK/pulsefit-service/internal/subscription"
)

var today = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, opts Options) *mux.Router {
	t.Helper()

	store := repository.NewMemory()
	require.NoError(t, repository.Seed(context.Background(), store, today))

	h := handlers.NewHandler(store, subscription.FixedClock(today), zaptest.NewLogger(t))
	return NewRouter(h, opts)
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func memberByEmail(t *testing.T, r http.Handler, email string) models.MemberView {
	t.Helper()
	rec := do(t, r, http.MethodGet, "/members", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, m := range decode[[]models.MemberView](t, rec) {
		if m.Email == email {
			return m
		}
	}
	t.Fatalf("member %s not found", email)
	return models.MemberView{}
}

func strPtr(s string) *string { return &s }

func TestPlans(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := do(t, r, http.MethodGet, "/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]plans.Plan](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, plans.StrengthTraining, got[0].Name)
}

func TestListMembers_DerivesStatus(t *testing.T) {
	r := newTestRouter(t, Options{})

	tests := []struct {
		email    string
		status   models.Status
		daysLeft int
	}{
		{"user@pulsefit.com", models.StatusActive, 185},
		{"jane@example.com", models.StatusExpiring, 2},
		{"mike@example.com", models.StatusExpired, -5},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			m := memberByEmail(t, r, tt.email)
			require.NotNil(t, m.View)
			assert.Equal(t, tt.status, m.View.Status)
			assert.Equal(t, tt.daysLeft, m.View.DaysLeft)
		})
	}

	admin := memberByEmail(t, r, "admin@pulsefit.com")
	assert.Nil(t, admin.View)
}

func TestStats(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := do(t, r, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[handlers.StatsResponse](t, rec)
	assert.Equal(t, 1, got.Active)
	assert.Equal(t, 1, got.Expiring)
	assert.Equal(t, 1, got.Expired)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2800, got.TotalRevenue)
	assert.Equal(t, "1 user has subscriptions expiring within 3 days.", got.Notice)
}

func TestCreateMember(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := do(t, r, http.MethodPost, "/members", handlers.MemberInput{
		Name:     "Alex Petrov",
		Email:    "alex@example.com",
		Category: plans.StrengthTraining,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[models.MemberView](t, rec)
	require.NotNil(t, got.Subscription)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Equal(t, 800, got.Subscription.Price)
	assert.Equal(t, today, got.Subscription.StartDate)
	assert.Equal(t, today.AddDate(0, 0, 365), got.Subscription.EndDate)
	assert.Equal(t, models.StatusActive, got.View.Status)
	assert.Equal(t, 365, got.View.DaysLeft)
	assert.Equal(t, 0.0, got.View.ProgressPercent)

	rec = do(t, r, http.MethodGet, "/members/"+got.ID.String(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateMember_WithDates(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := do(t, r, http.MethodPost, "/members", handlers.MemberInput{
		Name:      "Olga",
		Email:     "olga@example.com",
		Category:  plans.StrengthCardio,
		StartDate: strPtr("2024-05-01"),
		EndDate:   strPtr("2024-06-05"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[models.MemberView](t, rec)
	assert.Equal(t, 1000, got.Subscription.Price)
	assert.Equal(t, models.StatusExpiring, got.View.Status)
}

func TestCreateMember_Validation(t *testing.T) {
	r := newTestRouter(t, Options{})

	tests := []struct {
		name  string
		input handlers.MemberInput
		code  int
	}{
		{"missing name", handlers.MemberInput{Email: "x@example.com", Category: plans.StrengthTraining}, http.StatusBadRequest},
		{"unknown plan", handlers.MemberInput{Name: "X", Email: "x@example.com", Category: "Yoga"}, http.StatusBadRequest},
		{"bad role", handlers.MemberInput{Name: "X", Email: "x@example.com", Category: plans.StrengthTraining, Role: "root"}, http.StatusBadRequest},
		{"bad date", handlers.MemberInput{Name: "X", Email: "x@example.com", Category: plans.StrengthTraining, StartDate: strPtr("03-06-2024")}, http.StatusBadRequest},
		{"duplicate email", handlers.MemberInput{Name: "X", Email: "jane@example.com", Category: plans.StrengthTraining}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, "/members", tt.input)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionDetails(t *testing.T) {
	r := newTestRouter(t, Options{})
	jane := memberByEmail(t, r, "jane@example.com")

	rec := do(t, r, http.MethodGet, "/members/"+jane.ID.String()+"/subscription", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[handlers.SubscriptionDetails](t, rec)
	assert.Equal(t, 2, got.View.DaysLeft)
	assert.Equal(t, models.StatusExpiring, got.View.Status)
	assert.Equal(t, "Your subscription expires in 2 days. Consider renewing soon.", got.Alert)
	assert.Len(t, got.Features, 5)

	admin := memberByEmail(t, r, "admin@pulsefit.com")
	rec = do(t, r, http.MethodGet, "/members/"+admin.ID.String()+"/subscription", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenewSubscription(t *testing.T) {
	r := newTestRouter(t, Options{})
	mike := memberByEmail(t, r, "mike@example.com")

	rec := do(t, r, http.MethodPost, "/members/"+mike.ID.String()+"/renew", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[models.MemberView](t, rec)
	assert.Equal(t, time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC), got.Subscription.EndDate)
	assert.Equal(t, models.StatusActive, got.View.Status)
	assert.Equal(t, 30, got.View.DaysLeft)

	rec = do(t, r, http.MethodPost, "/members/00000000-0000-0000-0000-000000000000/renew", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMember(t *testing.T) {
	r := newTestRouter(t, Options{})
	john := memberByEmail(t, r, "user@pulsefit.com")

	rec := do(t, r, http.MethodPut, "/members/"+john.ID.String(), handlers.MemberInput{
		Name:      "John Doe",
		Email:     "user@pulsefit.com",
		Category:  plans.StrengthTraining,
		StartDate: strPtr("2024-01-01"),
		EndDate:   strPtr("2024-12-31"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[models.MemberView](t, rec)
	assert.Equal(t, 800, got.Subscription.Price)
	assert.Equal(t, john.Subscription.ID, got.Subscription.ID)

	rec = do(t, r, http.MethodPut, "/members/"+john.ID.String(), handlers.MemberInput{
		Name: "John Doe", Email: "user@pulsefit.com", Category: plans.StrengthTraining,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMember_KeepsRoleWhenOmitted(t *testing.T) {
	r := newTestRouter(t, Options{})
	admin := memberByEmail(t, r, "admin@pulsefit.com")

	rec := do(t, r, http.MethodPut, "/members/"+admin.ID.String(), handlers.MemberInput{
		Name:      "Club Admin",
		Email:     "admin@pulsefit.com",
		Category:  plans.StrengthCardio,
		StartDate: strPtr("2024-06-01"),
		EndDate:   strPtr("2024-12-01"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RoleAdmin, decode[models.MemberView](t, rec).Role)
	assert.Equal(t, models.RoleAdmin, memberByEmail(t, r, "admin@pulsefit.com").Role)

	rec = do(t, r, http.MethodPut, "/members/"+admin.ID.String(), handlers.MemberInput{
		Name:      "Club Admin",
		Email:     "admin@pulsefit.com",
		Role:      models.RoleUser,
		Category:  plans.StrengthCardio,
		StartDate: strPtr("2024-06-01"),
		EndDate:   strPtr("2024-12-01"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RoleUser, decode[models.MemberView](t, rec).Role)
}

func TestCreateMember_EmailCaseInsensitive(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := do(t, r, http.MethodPost, "/members", handlers.MemberInput{
		Name: "Jane Again", Email: "JANE@Example.com", Category: plans.StrengthTraining,
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodPost, "/members", handlers.MemberInput{
		Name: "Anna", Email: "  Anna.K@Example.COM ", Category: plans.StrengthTraining,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "anna.k@example.com", decode[models.MemberView](t, rec).Email)
}

func TestMemberDates_RoundTrip(t *testing.T) {
	r := newTestRouter(t, Options{})
	jane := memberByEmail(t, r, "jane@example.com")

	rec := do(t, r, http.MethodGet, "/members/"+jane.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var raw struct {
		Subscription struct {
			StartDate string `json:"start_date"`
			EndDate   string `json:"end_date"`
		} `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Equal(t, "2024-01-15", raw.Subscription.StartDate)
	assert.Equal(t, "2024-06-05", raw.Subscription.EndDate)

	// даты из ответа принимаются обратно без преобразования
	rec = do(t, r, http.MethodPut, "/members/"+jane.ID.String(), handlers.MemberInput{
		Name:      jane.Name,
		Email:     jane.Email,
		Category:  jane.Subscription.Category,
		StartDate: strPtr(raw.Subscription.StartDate),
		EndDate:   strPtr(raw.Subscription.EndDate),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[models.MemberView](t, rec)
	assert.Equal(t, jane.Subscription.StartDate, got.Subscription.StartDate)
	assert.Equal(t, jane.Subscription.EndDate, got.Subscription.EndDate)
}

func TestUpdateProfile_ComputesBMI(t *testing.T) {
	r := newTestRouter(t, Options{})
	john := memberByEmail(t, r, "user@pulsefit.com")

	rec := do(t, r, http.MethodPut, "/members/"+john.ID.String()+"/profile", map[string]interface{}{
		"age":          28,
		"height_cm":    170,
		"weight_kg":    70,
		"fitness_goal": "Weight Loss",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[models.MemberView](t, rec)
	require.NotNil(t, got.BMI)
	assert.Equal(t, 24.2, *got.BMI)
	assert.Equal(t, "Weight Loss", got.Profile.FitnessGoal)

	rec = do(t, r, http.MethodPut, "/members/"+john.ID.String()+"/profile", map[string]interface{}{"height_cm": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMember(t *testing.T) {
	r := newTestRouter(t, Options{})
	mike := memberByEmail(t, r, "mike@example.com")

	rec := do(t, r, http.MethodDelete, "/members/"+mike.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, r, http.MethodGet, "/members/"+mike.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodDelete, "/members/"+mike.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExport(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := do(t, r, http.MethodGet, "/admin/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pulsefit-users.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Name,Email,Subscription,Price,Start Date,End Date,Status", lines[0])
	assert.Equal(t, "Jane Smith,jane@example.com,Strength Training,800,2024-01-15,2024-06-05,expiring", lines[2])

	rec = do(t, r, http.MethodGet, "/admin/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	rec = do(t, r, http.MethodGet, "/admin/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTotalCost(t *testing.T) {
	r := newTestRouter(t, Options{})

	rec := do(t, r, http.MethodGet, "/subscriptions/view/total/2024-06-03", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[map[string]interface{}](t, rec)
	assert.Equal(t, 1800.0, got["total"])

	rec = do(t, r, http.MethodGet, "/subscriptions/view/total/2024-06-03?category=Strength+Training", nil)
	got = decode[map[string]interface{}](t, rec)
	assert.Equal(t, 800.0, got["total"])

	rec = do(t, r, http.MethodGet, "/subscriptions/view/total/June", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/subscriptions/view/total/2024-06-03?member_id=42", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	r := newTestRouter(t, Options{RateLimiter: NewRateLimiter(0.001, 1)})

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, r, http.MethodGet, "/health", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, Options{MetricsEnabled: true})

	do(t, r, http.MethodGet, "/members", nil)

	rec := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pulsefit_subscription_views_total")
	assert.Contains(t, rec.Body.String(), `route="/members"`)

	r = newTestRouter(t, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/metrics", nil).Code)
}
