// Package env provides the common configuration of bridge commands.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/Ffreasy/crazyflie-firmware/pkg/bridge/mqtt"
	"github.com/Ffreasy/crazyflie-firmware/pkg/hal/uart"
	"github.com/Ffreasy/crazyflie-firmware/pkg/hal/usart"
)

// Mode selects the consumer of received bytes.
type Mode string

// Supported modes.
const (
	ModeCRTP    Mode = "crtp"
	ModeGPS     Mode = "gps"
	ModeConsole Mode = "console"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeCRTP, ModeGPS, ModeConsole:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Config provides common options of bridge commands.
type Config struct {
	SerialPort string
	BaudRate   int
	Mode       string

	// MQTTURL is the broker, e.g. mqtt://host:1883/crazyflie/.
	// The bridge ID is appended to the topic prefix. Empty disables MQTT.
	MQTTURL string

	// WebsocketAddr is the listen address of the websocket endpoint.
	// Empty disables it.
	WebsocketAddr string

	// TCPAddr is the listen address of the length-prefixed TCP endpoint.
	// Empty disables it.
	TCPAddr string

	// ID identifies this bridge, defaults to the machine ID.
	ID string
}

var defaultConfig = Config{
	SerialPort: "/dev/ttyUSB0",
	BaudRate:   usart.DefaultBaudRate,
	Mode:       string(ModeCRTP),
	MQTTURL:    "mqtt://localhost:1883/crazyflie/",
}

func init() {
	if val := os.Getenv("CRTP_SERIAL_PORT"); val != "" {
		defaultConfig.SerialPort = val
	}
	if val := os.Getenv("CRTP_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.BaudRate = baud
		}
	}
	if val := os.Getenv("CRTP_MQTT_URL"); val != "" {
		defaultConfig.MQTTURL = val
	}
	if val := os.Getenv("CRTP_MODE"); val != "" {
		defaultConfig.Mode = val
	}
	if val := os.Getenv("CRTP_TCP_ADDR"); val != "" {
		defaultConfig.TCPAddr = val
	}
	if val := os.Getenv("CRTP_ID"); val != "" {
		defaultConfig.ID = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.SerialPort, "port", defaultConfig.SerialPort, "Serial port of the UART link.")
	flag.IntVar(&defaultConfig.BaudRate, "baud", defaultConfig.BaudRate, "Baud rate of the serial port.")
	flag.StringVar(&defaultConfig.Mode, "mode", defaultConfig.Mode, "Receive mode: crtp, gps or console.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listen address, empty to disable.")
	flag.StringVar(&defaultConfig.TCPAddr, "tcp", defaultConfig.TCPAddr, "TCP listen address, empty to disable.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Bridge ID, defaults to machine ID.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// MachineID retrieves the unique ID identifying the machine.
func MachineID() (string, error) {
	return machineid.ProtectedID("crtp-bridge")
}

// BridgeID returns ID or falls back to the machine ID.
func (c *Config) BridgeID() string {
	if c.ID != "" {
		return c.ID
	}
	id, err := MachineID()
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		host, _ := os.Hostname()
		return host
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

// ParsedMode validates Mode.
func (c *Config) ParsedMode() (Mode, error) {
	return ParseMode(c.Mode)
}

// UARTConfig returns driver tunables for the mode.
func (c *Config) UARTConfig() uart.Config {
	conf := uart.DefaultConfig()
	if mode, err := c.ParsedMode(); err == nil && mode == ModeCRTP {
		conf.StartDelay = 0
	}
	return conf
}

// OpenUSART opens the serial port.
func (c *Config) OpenUSART() (*usart.USART, error) {
	return usart.OpenSerial(c.SerialPort, c.BaudRate)
}

// MustOpenUSART opens the serial port or fails.
func (c *Config) MustOpenUSART() *usart.USART {
	u, err := c.OpenUSART()
	if err != nil {
		log.Fatalln(err)
	}
	return u
}

// NewQueue creates the MQTT queue with the bridge ID appended to the
// topic prefix. It returns nil when MQTT is disabled.
func (c *Config) NewQueue() (*mqtt.Queue, error) {
	if c.MQTTURL == "" {
		return nil, nil
	}
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT URL: %v", err)
	}
	id := c.BridgeID()
	if opts.ClientID == "" {
		opts.SetClientID("crtp-bridge-" + id)
	}
	return mqtt.NewQueue(opts, prefix+id+"/"), nil
}

// MustNewQueue creates the MQTT queue or fails.
func (c *Config) MustNewQueue() *mqtt.Queue {
	q, err := c.NewQueue()
	if err != nil {
		log.Fatalln(err)
	}
	return q
}
