package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/personalizer/internal/mailer"
	"github.com/octobees/personalizer/internal/otp"
)

var (
	// ErrInvalidCode is returned when no code is pending for the email or the code does not match.
	ErrInvalidCode = errors.New("invalid one-time code")
	// ErrCodeExpired is returned when the pending code is past its expiry.
	ErrCodeExpired = errors.New("one-time code expired")
	// ErrDelivery is returned when the code could not be mailed.
	ErrDelivery = errors.New("failed to deliver one-time code")
)

const otpSubject = "Your OTP Code"

// OTPService issues and verifies single-use email codes.
type OTPService struct {
	store  otp.Store
	mailer mailer.Mailer
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

// NewOTPService creates an OTPService. Codes expire after ttl.
func NewOTPService(store otp.Store, m mailer.Mailer, ttl time.Duration) *OTPService {
	return &OTPService{store: store, mailer: m, ttl: ttl, cost: bcrypt.DefaultCost, now: time.Now}
}

// Send generates a 6-digit code for email, replaces any pending one, and mails it.
func (s *OTPService) Send(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	s.store.Put(email, otp.Entry{Hash: hash, ExpiresAt: s.now().Add(s.ttl)})

	msg := mailer.Message{
		To:      email,
		Subject: otpSubject,
		Body:    fmt.Sprintf("Your OTP code is: %s. It expires in %s.", code, humanDuration(s.ttl)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.store.Delete(email)
		zap.L().Error("otp delivery failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	return nil
}

// Verify checks code against the pending one for email and consumes it on success.
// The entry is taken out of the store before comparing, so concurrent calls cannot
// both accept the same code. A wrong guess puts it back unless a newer code was sent.
func (s *OTPService) Verify(_ context.Context, email, code string) error {
	entry, ok := s.store.Take(email)
	if !ok {
		return ErrInvalidCode
	}
	if entry.Expired(s.now()) {
		return ErrCodeExpired
	}
	if err := bcrypt.CompareHashAndPassword(entry.Hash, []byte(code)); err != nil {
		s.store.Restore(email, entry)
		return ErrInvalidCode
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.String()
}
