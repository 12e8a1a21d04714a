package env

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/negicon/pkg/framework"
	"github.com/robotalks/negicon/pkg/port"
	"github.com/robotalks/negicon/pkg/sensor"
)

func TestPortEntries(t *testing.T) {
	c := NewConfig()
	c.Ports = []string{"a:GPIO5", " b:GPIO6"}
	entries, err := c.PortEntries()
	require.NoError(t, err)
	require.Equal(t, []PortEntry{{"a", "GPIO5"}, {"b", "GPIO6"}}, entries)

	for _, bad := range []string{"a", ":GPIO5", "a:"} {
		c.Ports = []string{bad}
		_, err = c.PortEntries()
		require.Error(t, err, bad)
	}
}

func TestSensorOptions(t *testing.T) {
	opts, err := NewConfig().SensorOptions()
	require.NoError(t, err)
	require.Equal(t, sensor.DefaultOptions, opts)

	c := NewConfig()
	c.Mode = "absolute"
	opts, err = c.SensorOptions()
	require.NoError(t, err)
	require.Equal(t, sensor.ModeAbsolute, opts.Mode)

	c.Mode = "sideways"
	_, err = c.SensorOptions()
	require.Error(t, err)

	c = NewConfig()
	c.ButtonThreshold = 300
	_, err = c.SensorOptions()
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "negicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: knobs
ports: ["x:GPIO1", "y:GPIO2"]
interval: 10ms
mode: absolute
mqtt: mqtt://broker:1883/negicon/
`), 0644))
	c := NewConfig()
	require.NoError(t, c.LoadFile(path))
	require.Equal(t, "knobs", c.ID)
	require.Equal(t, []string{"x:GPIO1", "y:GPIO2"}, c.Ports)
	require.Equal(t, 10*time.Millisecond, c.Interval)
	require.Equal(t, "absolute", c.Mode)
	require.Equal(t, "mqtt://broker:1883/negicon/", c.MQTTURL)
	require.Equal(t, defaultConfig.QueueSize, c.QueueSize)

	require.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "none.yaml")))
}

func simConfig() *Config {
	c := NewConfig()
	c.Sim = 2
	c.HIDGadget = ""
	c.SerialPath = ""
	c.MQTTURL = ""
	c.HTTPAddr = "127.0.0.1:0"
	return c
}

func TestNewEnvNoSink(t *testing.T) {
	c := simConfig()
	c.HTTPAddr = ""
	_, err := c.NewEnv()
	require.Error(t, err)
}

func TestSimEnv(t *testing.T) {
	e, err := simConfig().NewEnv()
	require.NoError(t, err)
	defer e.Close()
	require.Len(t, e.Sensors, 2)
	require.NotNil(t, e.Hub)

	loop := fx.NewLoop()
	e.AddToLoop(loop)
	for i := 0; i < 20; i++ {
		loop.Step(context.Background())
	}

	srv := httptest.NewServer(e.Mux())
	defer srv.Close()
	resp, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status []port.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	require.Len(t, status, 2)
	for _, st := range status {
		require.Equal(t, port.Initialized.String(), st.State)
		require.Equal(t, "MLX90363", st.Device)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
