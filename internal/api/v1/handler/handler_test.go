package handler

import (
	"context"
	"net/http"

	"dirigia/internal/apperr"
	"dirigia/internal/middleware"
	"dirigia/internal/model"
	"dirigia/internal/payment"
	"dirigia/internal/service"

	"github.com/rs/zerolog"
)

var nopLogger = zerolog.Nop()

// fakeAuth stands in for the JWT middleware with a fixed subject.
func fakeAuth(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserContextKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type fakeProfiles struct {
	ensured []string
}

func (f *fakeProfiles) Ensure(_ context.Context, id, email, name string) (*model.Profile, error) {
	f.ensured = append(f.ensured, id)
	return &model.Profile{ID: id, Email: email, Name: name, Plan: model.PlanFree}, nil
}

func (f *fakeProfiles) Get(_ context.Context, id string) (*model.Profile, error) {
	return &model.Profile{ID: id, Plan: model.PlanFree}, nil
}

func (f *fakeProfiles) UpdateName(_ context.Context, id, name string) (*model.Profile, error) {
	return &model.Profile{ID: id, Name: name, Plan: model.PlanFree}, nil
}

func (f *fakeProfiles) Delete(context.Context, string) error { return nil }

type fakeWebhooks struct {
	applied []*payment.Event
	result  *service.ApplyResult
	err     error
}

func (f *fakeWebhooks) Apply(_ context.Context, ev *payment.Event) (*service.ApplyResult, error) {
	f.applied = append(f.applied, ev)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeExports struct {
	body []byte
	err  error
}

func (f *fakeExports) CSV(_ context.Context, _, table string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if table != "payments" {
		return nil, apperr.New(apperr.KindValidation, service.MsgInvalidTable)
	}
	return f.body, nil
}
