package handler

import (
	"context"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/personalizer/internal/entity"
)

type stubPersonalizer struct {
	pitch  *entity.Pitch
	err    error
	calls  int
	lastID entity.Identifier
}

func (s *stubPersonalizer) Personalize(_ context.Context, id entity.Identifier) (*entity.Pitch, error) {
	s.calls++
	s.lastID = id
	return s.pitch, s.err
}

type stubLookup struct {
	data   entity.ContactData
	err    error
	lastID entity.Identifier
}

func (s *stubLookup) Lookup(_ context.Context, id entity.Identifier) (entity.ContactData, error) {
	s.lastID = id
	return s.data, s.err
}

type stubOTP struct {
	sendErr    error
	verifyErr  error
	sentTo     string
	verifyCode string
}

func (s *stubOTP) Send(_ context.Context, email string) error {
	s.sentTo = email
	return s.sendErr
}

func (s *stubOTP) Verify(_ context.Context, email, code string) error {
	s.verifyCode = code
	return s.verifyErr
}

type stubLister struct {
	names []string
	err   error
}

func (s *stubLister) ListCollections(context.Context) ([]string, error) {
	return s.names, s.err
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func strPtr(s string) *string { return &s }

