package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorderChannel captures dispatched alerts.
type recorderChannel struct {
	sent int32
	last atomic.Value
}

func (r *recorderChannel) Name() string { return "recorder" }

func (r *recorderChannel) Send(ctx context.Context, alert *Alert) error {
	atomic.AddInt32(&r.sent, 1)
	r.last.Store(alert)
	return nil
}

func TestDispatchSeverityFilter(t *testing.T) {
	rec := &recorderChannel{}
	m := NewManager(ManagerOptions{MinSeverity: SeverityWarning}, []Channel{rec}, nil)

	ctx := context.Background()

	sent, err := m.Dispatch(ctx, NewAlert(SeverityInfo, "fyi", "nothing urgent"))
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Equal(t, int32(0), atomic.LoadInt32(&rec.sent))

	sent, err = m.Dispatch(ctx, NewAlert(SeverityCritical, "outage", "registry down"))
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, int32(1), atomic.LoadInt32(&rec.sent))
}

func TestDispatchCooldown(t *testing.T) {
	rec := &recorderChannel{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(ManagerOptions{
		MinSeverity: SeverityInfo,
		Cooldown:    5 * time.Minute,
		Now:         func() time.Time { return now },
	}, []Channel{rec}, nil)

	ctx := context.Background()
	alert := func() *Alert {
		return NewAlert(SeverityWarning, "latency anomaly", "p99 spiked").WithService("Registry", "latency")
	}

	sent, _ := m.Dispatch(ctx, alert())
	assert.True(t, sent)

	// Same service/metric/title inside the window is suppressed.
	now = now.Add(2 * time.Minute)
	sent, _ = m.Dispatch(ctx, alert())
	assert.False(t, sent)

	// A different alert key is not.
	sent, _ = m.Dispatch(ctx, NewAlert(SeverityWarning, "latency anomaly", "p99 spiked").WithService("Console", "latency"))
	assert.True(t, sent)

	// After the window the original key fires again.
	now = now.Add(10 * time.Minute)
	sent, _ = m.Dispatch(ctx, alert())
	assert.True(t, sent)

	assert.Equal(t, int32(3), atomic.LoadInt32(&rec.sent))
}

func TestWebhookChannelPostsJSON(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.Store(string(body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	ch := NewWebhookChannel(srv.URL, time.Second)
	alert := NewAlert(SeverityCritical, "major outage", "3 services down").WithDetail("indicator", "major")
	require.NoError(t, ch.Send(context.Background(), alert))

	var decoded Alert
	require.NoError(t, json.Unmarshal([]byte(got.Load().(string)), &decoded))
	assert.Equal(t, alert.ID, decoded.ID)
	assert.Equal(t, "major outage", decoded.Title)
	assert.Equal(t, "major", decoded.Details["indicator"])
}

func TestWebhookChannelRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	ch := NewWebhookChannel(srv.URL, time.Second)
	err := ch.Send(context.Background(), NewAlert(SeverityWarning, "t", "m"))
	assert.Error(t, err)
}

func TestEmailChannelBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	ch := &emailChannel{
		cfg: EmailConfig{
			Server:     "smtp.example.com",
			Port:       587,
			From:       "statuswatch@example.com",
			Recipients: []string{"ops@example.com"},
		},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	alert := NewAlert(SeverityCritical, "Registry outage", "pulls failing").WithService("Registry", "availability")
	require.NoError(t, ch.Send(context.Background(), alert))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "statuswatch@example.com", gotFrom)
	assert.Equal(t, []string{"ops@example.com"}, gotTo)

	msg := string(gotMsg)
	assert.True(t, strings.Contains(msg, "Subject: [statuswatch/critical] Registry outage"))
	assert.True(t, strings.Contains(msg, "Service: Registry"))
	assert.True(t, strings.Contains(msg, alert.ID))
}

func TestEmailChannelRequiresRecipients(t *testing.T) {
	ch := NewEmailChannel(EmailConfig{Server: "smtp.example.com", Port: 587})
	err := ch.Send(context.Background(), NewAlert(SeverityInfo, "t", "m"))
	assert.Error(t, err)
}
