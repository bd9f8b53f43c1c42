package mdns

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvert_TXTRecords(t *testing.T) {
	a := Advert{InstanceID: "inst-1", Name: "Team Board", Version: "1.2.0", Port: 8080}
	assert.Equal(t, []string{"id=inst-1", "name=Team Board", "api=v1", "version=1.2.0"}, a.TXTRecords())

	a.Version = ""
	assert.NotContains(t, a.TXTRecords(), "version=")
}

func TestServiceStop(t *testing.T) {
	service := NewService(slog.New(slog.DiscardHandler))

	// Safe before Start and when repeated.
	service.Stop()
	service.Stop()
	assert.False(t, service.Running())
}

func TestServiceStart(t *testing.T) {
	var buf bytes.Buffer
	service := NewService(slog.New(slog.NewTextHandler(&buf, nil)))

	err := service.Start(Advert{InstanceID: "inst-test", Name: "Test Server", Port: 8080})
	if err != nil {
		t.Skipf("multicast unavailable: %v", err)
	}
	defer service.Stop()

	assert.True(t, service.Running())
	assert.Contains(t, buf.String(), "mDNS advertisement started")
	assert.Contains(t, buf.String(), "_kanban._tcp")
}
