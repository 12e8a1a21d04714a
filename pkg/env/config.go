// Package env sets up the controller from configuration.
package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/spf13/viper"

	"github.com/robotalks/negicon/pkg/event"
	fx "github.com/robotalks/negicon/pkg/framework"
	"github.com/robotalks/negicon/pkg/sensor"
)

// Config provides all options of the controller.
type Config struct {
	// ID identifies the controller in MQTT topics.
	ID string `mapstructure:"id"`

	SPIDevice    string `mapstructure:"spi-device"`
	SPIFrequency string `mapstructure:"spi-freq"`
	// Ports lists the ports as name:gpio, in index order.
	Ports []string `mapstructure:"ports"`
	// Sim replaces the bus with this many simulated sensors.
	Sim int `mapstructure:"sim"`

	Interval  time.Duration `mapstructure:"interval"`
	QueueSize int           `mapstructure:"queue-size"`
	Group     int           `mapstructure:"group"`

	Mode            string `mapstructure:"mode"`
	Deadzone        int    `mapstructure:"deadzone"`
	ButtonThreshold int    `mapstructure:"button-threshold"`
	SettleTicks     int    `mapstructure:"settle-ticks"`

	HIDGadget  string `mapstructure:"hidg"`
	SerialPath string `mapstructure:"serial"`
	SerialBaud int    `mapstructure:"serial-baud"`
	MQTTURL    string `mapstructure:"mqtt"`
	HTTPAddr   string `mapstructure:"http"`
}

// PortEntry is a parsed entry of the port list.
type PortEntry struct {
	Name string
	GPIO string
}

var defaultConfig = Config{
	SPIFrequency:    "2.5MHz",
	Ports:           []string{"p0:GPIO5", "p1:GPIO6", "p2:GPIO13", "p3:GPIO19"},
	Interval:        fx.DefaultInterval,
	QueueSize:       event.DefaultQueueSize,
	Mode:            sensor.DefaultOptions.Mode.String(),
	Deadzone:        int(sensor.DefaultOptions.Deadzone),
	ButtonThreshold: int(sensor.DefaultOptions.ButtonThreshold),
	SettleTicks:     int(sensor.DefaultOptions.SettleTicks),
	HIDGadget:       "/dev/hidg0",
	SerialBaud:      115200,
	HTTPAddr:        ":8039",
}

func init() {
	defaultConfig.ID = MachineID()
	if val := os.Getenv("NEGICON_ID"); val != "" {
		defaultConfig.ID = val
	}
	if val := os.Getenv("NEGICON_SPI"); val != "" {
		defaultConfig.SPIDevice = val
	}
	if val := os.Getenv("NEGICON_PORTS"); val != "" {
		defaultConfig.Ports = strings.Split(val, ",")
	}
	if val := os.Getenv("NEGICON_SIM"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			defaultConfig.Sim = n
		}
	}
	if val := os.Getenv("NEGICON_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("NEGICON_SERIAL"); val != "" {
		defaultConfig.SerialPath = val
	}
	if val := os.Getenv("NEGICON_CONFIG"); val != "" {
		if err := defaultConfig.LoadFile(val); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// MachineID derives the default controller id from the machine id.
func MachineID() string {
	id, err := machineid.ProtectedID("negicon")
	if err != nil {
		if id, err = os.Hostname(); err != nil {
			return "negicon"
		}
		return id
	}
	return id[:12]
}

type portsFlag struct {
	ports *[]string
}

func (f portsFlag) String() string {
	if f.ports == nil {
		return ""
	}
	return strings.Join(*f.ports, ",")
}

func (f portsFlag) Set(val string) error {
	*f.ports = nil
	if val != "" {
		*f.ports = strings.Split(val, ",")
	}
	return nil
}

// SetupFlags sets command line flags. A -config file is loaded when
// the flag is parsed, so flags after it take precedence.
func SetupFlags() {
	c := &defaultConfig
	flag.Func("config", "Config file (yaml, toml or json)", c.LoadFile)
	flag.StringVar(&c.ID, "id", c.ID, "Controller ID")
	flag.StringVar(&c.SPIDevice, "spi", c.SPIDevice, "SPI device, empty for the first one")
	flag.StringVar(&c.SPIFrequency, "spi-freq", c.SPIFrequency, "SPI clock")
	flag.Var(portsFlag{&c.Ports}, "ports", "Ports as name:gpio, comma separated")
	flag.IntVar(&c.Sim, "sim", c.Sim, "Number of simulated sensors instead of the SPI bus")
	flag.DurationVar(&c.Interval, "interval", c.Interval, "Tick interval")
	flag.IntVar(&c.QueueSize, "queue-size", c.QueueSize, "Event queue capacity")
	flag.IntVar(&c.Group, "group", c.Group, "Group id stamped on events")
	flag.StringVar(&c.Mode, "mode", c.Mode, "Sensor output mode: relative or absolute")
	flag.IntVar(&c.Deadzone, "deadzone", c.Deadzone, "Minimum angle change to report")
	flag.IntVar(&c.ButtonThreshold, "button-threshold", c.ButtonThreshold, "Gain below which the knob is pressed")
	flag.IntVar(&c.SettleTicks, "settle-ticks", c.SettleTicks, "Ticks ignoring movement after release")
	flag.StringVar(&c.HIDGadget, "hidg", c.HIDGadget, "HID gadget device, empty to disable")
	flag.StringVar(&c.SerialPath, "serial", c.SerialPath, "Serial link device, empty to disable")
	flag.IntVar(&c.SerialBaud, "serial-baud", c.SerialBaud, "Serial link baud rate")
	flag.StringVar(&c.MQTTURL, "mqtt", c.MQTTURL, "MQTT broker URL, e.g. mqtt://host:1883/negicon/")
	flag.StringVar(&c.HTTPAddr, "http", c.HTTPAddr, "HTTP listen address for /metrics and /ws, empty to disable")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Ports = append([]string(nil), defaultConfig.Ports...)
	return &conf
}

// LoadFile overlays settings from a config file.
func (c *Config) LoadFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	return nil
}

// PortEntries parses the port list.
func (c *Config) PortEntries() ([]PortEntry, error) {
	entries := make([]PortEntry, 0, len(c.Ports))
	for _, p := range c.Ports {
		name, gpio, ok := strings.Cut(strings.TrimSpace(p), ":")
		if !ok || name == "" || gpio == "" {
			return nil, fmt.Errorf("invalid port %q, expect name:gpio", p)
		}
		entries = append(entries, PortEntry{Name: name, GPIO: gpio})
	}
	return entries, nil
}

// SensorOptions builds the sensor driver options.
func (c *Config) SensorOptions() (sensor.Options, error) {
	mode, err := sensor.ParseMode(c.Mode)
	if err != nil {
		return sensor.Options{}, err
	}
	if c.ButtonThreshold < 0 || c.ButtonThreshold > 0xff {
		return sensor.Options{}, fmt.Errorf("invalid button threshold %d", c.ButtonThreshold)
	}
	return sensor.Options{
		Mode:            mode,
		Deadzone:        int32(c.Deadzone),
		ButtonThreshold: byte(c.ButtonThreshold),
		SettleTicks:     int16(c.SettleTicks),
	}, nil
}
