package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pictora/pictora/internal/handler/dto"
	"github.com/pictora/pictora/internal/model"
	"github.com/pictora/pictora/internal/service"
)

type stubUsers struct {
	limit   int
	updated service.UpdateUserInput
}

func (s *stubUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if id != "user-1" {
		return nil, service.ErrUserNotFound
	}
	return &model.User{ID: id, Name: "Ann"}, nil
}

func (s *stubUsers) GetUsers(_ context.Context, limit int) ([]*model.User, error) {
	s.limit = limit
	return []*model.User{{ID: "user-2"}, {ID: "user-1"}}, nil
}

func (s *stubUsers) UpdateUser(_ context.Context, in service.UpdateUserInput) (*model.User, error) {
	s.updated = in
	if in.AccountID != "acc-1" {
		return nil, service.ErrForbidden
	}
	return &model.User{ID: in.UserID, Name: in.Name, Bio: in.Bio}, nil
}

func userRouter(h *UserHandler, accountID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, withAccount(req, accountID))
		})
	})
	r.Get("/users", h.List)
	r.Get("/users/{id}", h.Get)
	r.Patch("/users/{id}", h.Update)
	return r
}

func TestUserHandler_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"no limit", "", http.StatusOK, 0},
		{"limit", "?limit=10", http.StatusOK, 10},
		{"zero", "?limit=0", http.StatusBadRequest, 0},
		{"not a number", "?limit=ten", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := &stubUsers{}
			router := userRouter(NewUserHandler(users, 1<<20, discardLogger()), "acc-1")

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if users.limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", users.limit, tt.wantLimit)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp dto.ListResponse[*model.User]
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Data) != 2 || resp.Pagination != nil {
				t.Errorf("unexpected response: %+v", resp)
			}
		})
	}
}

func TestUserHandler_GetMissing(t *testing.T) {
	t.Parallel()

	router := userRouter(NewUserHandler(&stubUsers{}, 1<<20, discardLogger()), "acc-1")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/ghost", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUserHandler_Update_URLEncoded(t *testing.T) {
	t.Parallel()

	users := &stubUsers{}
	router := userRouter(NewUserHandler(users, 1<<20, discardLogger()), "acc-1")

	form := url.Values{"name": {"Ann Lee"}, "bio": {"Street photography"}, "image_id": {"img-1"}}
	req := httptest.NewRequest(http.MethodPatch, "/users/user-1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if users.updated.Name != "Ann Lee" || users.updated.ImageID != "img-1" || users.updated.File != nil {
		t.Errorf("unexpected input: %+v", users.updated)
	}
}

func TestUserHandler_Update_Forbidden(t *testing.T) {
	t.Parallel()

	router := userRouter(NewUserHandler(&stubUsers{}, 1<<20, discardLogger()), "acc-2")

	body, contentType := multipartBody(t, map[string]string{"name": "Mallory"}, "", "", nil)
	req := httptest.NewRequest(http.MethodPatch, "/users/user-1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
