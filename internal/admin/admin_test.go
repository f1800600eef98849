package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/medication"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/carelink/internal/repository"
	"github.com/dmehra2102/prod-golang-projects/carelink/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	ctx := context.Background()
	repos := repository.New(db)

	users := []struct {
		email  string
		role   domain.Role
		active bool
		p      any
	}{
		{"alice@example.com", domain.RolePatient, true, &profile.PatientProfile{BloodGroup: profile.BloodGroupAPos}},
		{"bob@example.com", domain.RolePatient, false, &profile.PatientProfile{}},
		{"carol@example.com", domain.RoleDoctor, true, &profile.DoctorProfile{Specialization: "Cardiology", IsVerified: true}},
	}
	for _, u := range users {
		user := &domain.User{Email: u.email, PasswordHash: "x", Role: u.role, IsActive: u.active, FirstName: strings.Split(u.email, "@")[0]}
		if err := repos.Users.CreateWithProfile(ctx, user, u.p); err != nil {
			t.Fatalf("seed %s: %v", u.email, err)
		}
		if !u.active {
			if err := db.Model(user).Update("is_active", false).Error; err != nil {
				t.Fatalf("deactivate: %v", err)
			}
		}
	}
	for _, name := range []string{"Lisinopril", "Metformin"} {
		if err := repos.Medications.Create(ctx, &medication.Medication{Name: name, Category: "chronic"}); err != nil {
			t.Fatalf("seed medication: %v", err)
		}
	}
}

func TestEveryResourceQueries(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	reg := NewRegistry(db)

	for _, res := range reg.Resources() {
		t.Run(res.Name, func(t *testing.T) {
			if _, err := reg.List(context.Background(), res.Name, Query{Search: "a"}); err != nil {
				t.Fatalf("List: %v", err)
			}
		})
	}
}

func TestListFiltersAndSearch(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	reg := NewRegistry(db)

	tests := []struct {
		name     string
		resource string
		q        Query
		want     int64
		wantErr  error
	}{
		{"all users", "users", Query{}, 3, nil},
		{"search email", "users", Query{Search: "ALICE"}, 1, nil},
		{"filter role", "users", Query{Filters: map[string]string{"role": "patient"}}, 2, nil},
		{"bool filter", "users", Query{Filters: map[string]string{"is_active": "false"}}, 1, nil},
		{"join search", "doctor_profiles", Query{Search: "carol"}, 1, nil},
		{"verified doctors", "doctor_profiles", Query{Filters: map[string]string{"is_verified": "true"}}, 1, nil},
		{"blood group", "patient_profiles", Query{Filters: map[string]string{"blood_group": "A+"}}, 1, nil},
		{"medication category", "medications", Query{Filters: map[string]string{"category": "chronic"}}, 2, nil},
		{"unknown resource", "invoices", Query{}, 0, ErrUnknownResource},
		{"unknown filter", "users", Query{Filters: map[string]string{"password_hash": "x"}}, 0, ErrUnknownFilter},
		{"bad bool", "users", Query{Filters: map[string]string{"is_active": "maybe"}}, 0, ErrBadFilterValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := reg.List(context.Background(), tt.resource, tt.q)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if page.TotalCount != tt.want || int64(len(page.Rows)) != tt.want {
				t.Errorf("total=%d rows=%d, want %d", page.TotalCount, len(page.Rows), tt.want)
			}
		})
	}
}

func TestListPaginates(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	reg := NewRegistry(db)

	page, err := reg.List(context.Background(), "users", Query{Page: domain.Page{Page: 2, PageSize: 2}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalCount != 3 || len(page.Rows) != 1 || page.TotalPages != 2 {
		t.Errorf("page = %+v", page)
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	seed(t, db)

	r := gin.New()
	NewHandler(NewRegistry(db), zap.NewNop()).Register(r.Group("/admin"))

	tests := []struct {
		path string
		want int
	}{
		{"/admin/resources", http.StatusOK},
		{"/admin/medications?search=metf", http.StatusOK},
		{"/admin/nope", http.StatusNotFound},
		{"/admin/users?is_active=maybe", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/medications?search=metf", nil))
	var body struct {
		Data Page `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Rows) != 1 || body.Data.Rows[0]["name"] != "Metformin" {
		t.Errorf("rows = %v", body.Data.Rows)
	}
}
