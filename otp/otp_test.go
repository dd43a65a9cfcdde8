package otp_test

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/event-auth-server/otp"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []string
	err   error
	block bool
}

func (s *recordingSender) SendOTP(ctx context.Context, to, code string, _ time.Duration) error {
	if s.block {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+":"+code)
	return s.err
}

func TestIssueRangeAndExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	issuer := otp.NewIssuer(&recordingSender{}, otp.WithLifetime(5*time.Minute), otp.WithNowFunc(func() time.Time { return now }))

	for i := 0; i < 200; i++ {
		code, err := issuer.Issue()
		require.NoError(t, err)
		require.Len(t, code.Value, 6)
		n, err := strconv.Atoi(code.Value)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
		require.Equal(t, now.Add(5*time.Minute), code.ExpiresAt)
	}
}

func TestIssueLowerBound(t *testing.T) {
	issuer := otp.NewIssuer(&recordingSender{}, otp.WithRandom(bytes.NewReader(make([]byte, 64))))
	code, err := issuer.Issue()
	require.NoError(t, err)
	require.Equal(t, "100000", code.Value)
}

func TestIssueFailsWithoutEntropy(t *testing.T) {
	issuer := otp.NewIssuer(&recordingSender{}, otp.WithRandom(bytes.NewReader(nil)))
	_, err := issuer.Issue()
	require.Error(t, err)
}

func TestDeliver(t *testing.T) {
	sender := &recordingSender{}
	issuer := otp.NewIssuer(sender)

	require.NoError(t, issuer.Deliver(context.Background(), "a@example.com", otp.Code{Value: "123456"}))
	require.Equal(t, []string{"a@example.com:123456"}, sender.sent)

	sender.err = errors.New("smtp down")
	require.ErrorContains(t, issuer.Deliver(context.Background(), "a@example.com", otp.Code{Value: "123456"}), "smtp down")
}

func TestDeliverTimesOut(t *testing.T) {
	issuer := otp.NewIssuer(&recordingSender{block: true}, otp.WithSendTimeout(20*time.Millisecond))

	start := time.Now()
	err := issuer.Deliver(context.Background(), "a@example.com", otp.Code{Value: "123456"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestMatchesAndExpired(t *testing.T) {
	require.True(t, otp.Matches("123456", "123456"))
	require.False(t, otp.Matches("123456", "123457"))
	require.False(t, otp.Matches("123456", " 123456"))

	now := time.Now()
	require.False(t, otp.Expired(now, now))
	require.True(t, otp.Expired(now, now.Add(time.Nanosecond)))
}
