package syshealth_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/syshealth"
)

type constRandom struct {
	v   float64
	now time.Time
}

func (r constRandom) Float64() float64 { return r.v }
func (r constRandom) Now() time.Time   { return r.now }

func TestClassify(t *testing.T) {
	tests := []struct {
		gauge string
		value float64
		want  dashboard.Status
	}{
		{syshealth.GaugeSystemLoad, 45, dashboard.StatusHealthy},
		{syshealth.GaugeSystemLoad, 60, dashboard.StatusHealthy},
		{syshealth.GaugeSystemLoad, 61, dashboard.StatusWarning},
		{syshealth.GaugeSystemLoad, 81, dashboard.StatusCritical},
		{syshealth.GaugeDatabaseConnections, 85, dashboard.StatusWarning},
		{syshealth.GaugeDatabaseConnections, 91, dashboard.StatusCritical},
		{syshealth.GaugeCacheHitRate, 92, dashboard.StatusHealthy},
		{syshealth.GaugeCacheHitRate, 89, dashboard.StatusWarning},
		{syshealth.GaugeCacheHitRate, 79, dashboard.StatusCritical},
		{syshealth.GaugeQueueDepth, 12, dashboard.StatusHealthy},
		{syshealth.GaugeQueueDepth, 16, dashboard.StatusWarning},
		{syshealth.GaugeQueueDepth, 31, dashboard.StatusCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, syshealth.Classify(tt.gauge, tt.value), "%s=%v", tt.gauge, tt.value)
	}
}

func TestNewSnapshot_InitialScore(t *testing.T) {
	snap := syshealth.NewSnapshot(syshealth.InitialGauges(), time.Time{})

	require.Len(t, snap.Readings, 4)
	// load healthy, connections warning, cache healthy, queue healthy
	assert.Equal(t, 88, snap.Score)
	assert.Equal(t, dashboard.StatusWarning, snap.Readings[1].Status)
	assert.Equal(t, "", snap.Readings[3].Unit)
}

func TestScore(t *testing.T) {
	all := func(st dashboard.Status) []syshealth.Reading {
		return []syshealth.Reading{{Status: st}, {Status: st}, {Status: st}, {Status: st}}
	}
	assert.Equal(t, 100, syshealth.Score(all(dashboard.StatusHealthy)))
	assert.Equal(t, 50, syshealth.Score(all(dashboard.StatusWarning)))
	assert.Equal(t, 0, syshealth.Score(all(dashboard.StatusCritical)))
	assert.Equal(t, 100, syshealth.Score(nil))
}

func TestMonitor_StepClamps(t *testing.T) {
	now := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	up := syshealth.NewMonitor(constRandom{v: 1, now: now})
	var snap syshealth.Snapshot
	for i := 0; i < 100; i++ {
		snap = up.Step()
	}
	assert.Equal(t, float64(100), snap.Gauges.SystemLoad)
	assert.Equal(t, float64(100), snap.Gauges.DatabaseConnections)
	assert.Equal(t, float64(98), snap.Gauges.CacheHitRate)
	assert.Equal(t, float64(50), snap.Gauges.QueueDepth)
	assert.Equal(t, now, snap.Timestamp)

	down := syshealth.NewMonitor(constRandom{v: 0, now: now})
	for i := 0; i < 100; i++ {
		snap = down.Step()
	}
	assert.Equal(t, float64(10), snap.Gauges.SystemLoad)
	assert.Equal(t, float64(50), snap.Gauges.DatabaseConnections)
	assert.Equal(t, float64(70), snap.Gauges.CacheHitRate)
	assert.Equal(t, float64(0), snap.Gauges.QueueDepth)
	assert.Equal(t, snap, down.Snapshot())
}

func TestMonitor_StepSize(t *testing.T) {
	m := syshealth.NewMonitor(constRandom{v: 0.75})
	snap := m.Step()

	assert.InDelta(t, 47.5, snap.Gauges.SystemLoad, 1e-9)
	assert.InDelta(t, 86.25, snap.Gauges.DatabaseConnections, 1e-9)
	assert.InDelta(t, 92.5, snap.Gauges.CacheHitRate, 1e-9)
	assert.InDelta(t, 13.25, snap.Gauges.QueueDepth, 1e-9)
}

func TestMonitor_Run(t *testing.T) {
	m := syshealth.NewMonitor(constRandom{v: 0.5})
	ctx, cancel := context.WithCancel(context.Background())

	got := make(chan syshealth.Snapshot, 1)
	go m.Run(ctx, 5*time.Millisecond, func(s syshealth.Snapshot) {
		select {
		case got <- s:
		default:
		}
	})
	defer cancel()

	select {
	case snap := <-got:
		assert.Equal(t, syshealth.InitialGauges(), snap.Gauges)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestHub_StreamsSnapshots(t *testing.T) {
	m := syshealth.NewMonitor(constRandom{v: 1})
	hub := syshealth.NewHub(syshealth.HubConfig{
		Logger:  zerolog.Nop(),
		Current: m.Snapshot,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first struct {
		Type string             `json:"type"`
		Data syshealth.Snapshot `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "health", first.Type)
	assert.Equal(t, syshealth.InitialGauges(), first.Data.Gauges)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(m.Step())

	var second struct {
		Data syshealth.Snapshot `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&second))
	assert.InDelta(t, 50, second.Data.Gauges.SystemLoad, 1e-9)
}
