package env

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/robotalks/negicon/pkg/bus"
	"github.com/robotalks/negicon/pkg/controller"
	"github.com/robotalks/negicon/pkg/event"
	fx "github.com/robotalks/negicon/pkg/framework"
	"github.com/robotalks/negicon/pkg/metrics"
	"github.com/robotalks/negicon/pkg/port"
	"github.com/robotalks/negicon/pkg/sensor"
	"github.com/robotalks/negicon/pkg/sim"
	"github.com/robotalks/negicon/pkg/system"
	"github.com/robotalks/negicon/pkg/upstream/hidg"
	"github.com/robotalks/negicon/pkg/upstream/link"
	"github.com/robotalks/negicon/pkg/upstream/mqtt"
	"github.com/robotalks/negicon/pkg/upstream/ws"
)

// Version is reported in the MQTT meta message.
var Version = "dev"

// mqttRetryInterval is the delay between initial connect attempts.
const mqttRetryInterval = 5 * time.Second

// Env is the assembled controller.
type Env struct {
	Config     *Config
	Controller *controller.Controller
	// Sensors are the simulated sensors in simulation mode.
	Sensors []*sim.Sensor
	Hub     *ws.Hub

	runnables []fx.Runnable
	closers   []io.Closer
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	opts, err := c.SensorOptions()
	if err != nil {
		return nil, err
	}
	if c.QueueSize <= 0 {
		return nil, fmt.Errorf("invalid queue size %d", c.QueueSize)
	}
	e := &Env{Config: c}
	table := port.NewTable(uint8(c.Group))
	classes := sensor.Register(port.DefaultClasses(), opts)
	if c.Sim > 0 {
		e.setupSim(table, classes)
	} else if err := e.setupBus(table, classes); err != nil {
		e.Close()
		return nil, err
	}

	e.Controller = controller.New(table, event.NewQueue(c.QueueSize), &system.Exec{Before: e.close})
	if err := e.setupSinks(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

func (e *Env) setupSim(table *port.Table, classes port.Classes) {
	simBus := sim.NewBus()
	transport := bus.NewTransport(simBus)
	for n := 0; n < e.Config.Sim; n++ {
		s := sim.NewSensor(uint16(n * 2))
		e.Sensors = append(e.Sensors, s)
		table.Add(port.New(fmt.Sprintf("sim%d", n), transport.NewEndpoint(simBus.Attach(s)), classes))
	}
	e.runnables = append(e.runnables, sim.NewMotion(e.Sensors...))
	glog.Infof("simulating %d sensors", len(e.Sensors))
}

func (e *Env) setupBus(table *port.Table, classes port.Classes) error {
	entries, err := e.Config.PortEntries()
	if err != nil {
		return err
	}
	var freq physic.Frequency
	if err := freq.Set(e.Config.SPIFrequency); err != nil {
		return fmt.Errorf("invalid spi frequency %q: %w", e.Config.SPIFrequency, err)
	}
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("init host: %w", err)
	}
	spiPort, err := bus.OpenSPI(e.Config.SPIDevice, freq)
	if err != nil {
		return err
	}
	e.closers = append(e.closers, spiPort)
	transport := bus.NewTransport(spiPort)
	for _, entry := range entries {
		sel, err := bus.OpenSelectLine(entry.GPIO)
		if err != nil {
			return fmt.Errorf("port %s: %w", entry.Name, err)
		}
		table.Add(port.New(entry.Name, transport.NewEndpoint(sel), classes))
	}
	glog.Infof("spi %s at %s with %d ports", spiPort, freq, len(entries))
	return nil
}

func (e *Env) setupSinks() error {
	c := e.Config
	if c.HIDGadget != "" {
		sink, err := hidg.Open(c.HIDGadget)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, sink)
		e.Controller.AddSink(sink)
	}
	if c.SerialPath != "" {
		stream, err := link.OpenSerial(c.SerialPath, c.SerialBaud)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, stream)
		e.runnables = append(e.runnables, fx.NamedRun("link", stream))
		e.Controller.AddSink(stream)
	}
	if c.MQTTURL != "" {
		client, err := mqtt.NewClientFromURL(c.MQTTURL, "negicon-"+c.ID)
		if err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		sink := mqtt.NewSink(client, c.ID)
		sink.Version = Version
		e.runnables = append(e.runnables, fx.NamedRun("mqtt", fx.RunFunc(func(ctx context.Context) error {
			return runMQTT(ctx, client)
		})))
		e.Controller.AddSink(sink)
	}
	if c.HTTPAddr != "" {
		e.Hub = ws.NewHub()
		e.Controller.AddSink(e.Hub)
		e.runnables = append(e.runnables, fx.NamedRun("http", fx.RunFunc(e.serveHTTP)))
	}
	if len(e.Controller.Dispatcher.Sinks) == 0 {
		return errors.New("no upstream sink enabled")
	}
	return nil
}

// AddToLoop implements framework.LoopAdder.
func (e *Env) AddToLoop(loop *fx.Loop) {
	if e.Config.Interval > 0 {
		loop.Interval = e.Config.Interval
	}
	loop.Add(e.Controller)
	loop.AddRunnable(e.runnables...)
}

// Close releases devices.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	for n := len(e.closers) - 1; n >= 0; n-- {
		errs.Add(e.closers[n].Close())
	}
	e.closers = nil
	return errs.Aggregate()
}

func (e *Env) close() {
	if err := e.Close(); err != nil {
		glog.Warningf("close: %v", err)
	}
}

// Mux returns the HTTP handlers.
func (e *Env) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/status", e.serveStatus)
	if e.Hub != nil {
		mux.Handle("/ws", e.Hub.Handler())
	}
	return mux
}

func (e *Env) serveStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.Controller.Status()); err != nil {
		glog.Warningf("status: %v", err)
	}
}

func (e *Env) serveHTTP(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.Config.HTTPAddr)
	if err != nil {
		return err
	}
	glog.Infof("http listening on %s", ln.Addr())
	server := &http.Server{Handler: e.Mux()}
	err = fx.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}

func runMQTT(ctx context.Context, client *mqtt.Client) error {
	for {
		token := client.Connect()
		token.Wait()
		if token.Error() == nil {
			break
		}
		glog.Warningf("mqtt connect: %v", token.Error())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(mqttRetryInterval):
		}
	}
	<-ctx.Done()
	client.Close()
	return ctx.Err()
}
