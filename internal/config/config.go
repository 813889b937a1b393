package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/rvhal/internal/demo"
	"github.com/danmuck/rvhal/internal/firmware"
)

// SimConfig is one host simulation: the machine, the network its radio can
// join, the guest program's parameters and the optional inspector.
type SimConfig struct {
	Machine       MachineConfig
	Network       firmware.Network
	Guest         demo.Config
	InspectorAddr string
	CORSOrigins   []string
}

type MachineConfig struct {
	Name       string
	RAMSize    uint32
	ListenHost string
	AcceptWait time.Duration
	DelayScale float64
}

type fileConfig struct {
	Name          string      `toml:"name"`
	RAMSize       uint32      `toml:"ram_size"`
	ListenHost    string      `toml:"listen_host"`
	AcceptWait    string      `toml:"accept_wait"`
	DelayScale    float64     `toml:"delay_scale"`
	InspectorAddr string      `toml:"inspector_addr"`
	CORSOrigins   []string    `toml:"cors_origins"`
	Radio         fileNetwork `toml:"radio"`
	Guest         fileGuest   `toml:"guest"`
}

type fileNetwork struct {
	SSID      string `toml:"ssid"`
	Password  string `toml:"password"`
	Channel   uint32 `toml:"channel"`
	Addr      string `toml:"addr"`
	JoinPolls int    `toml:"join_polls"`
}

type fileGuest struct {
	SSID           string `toml:"ssid"`
	Password       string `toml:"password"`
	Channel        uint32 `toml:"channel"`
	Port           uint32 `toml:"port"`
	Greeting       string `toml:"greeting"`
	BootDelayMS    uint32 `toml:"boot_delay_ms"`
	PollDelayMS    uint32 `toml:"poll_delay_ms"`
	MaxPolls       int    `toml:"max_polls"`
	MaxConnections int    `toml:"max_connections"`
}

func DefaultSimConfig() SimConfig {
	fw := firmware.DefaultConfig()
	return SimConfig{
		Machine: MachineConfig{
			Name:       fw.Name,
			RAMSize:    fw.RAMSize,
			ListenHost: fw.ListenHost,
			AcceptWait: fw.AcceptWait,
			DelayScale: 1,
		},
		Network: firmware.Network{
			SSID:      "rvhal-lab",
			Password:  "rvhal-pass",
			Channel:   6,
			Addr:      netip.MustParseAddr("192.168.0.10"),
			JoinPolls: 3,
		},
		Guest: demo.DefaultConfig(),
	}
}

// LoadSimConfig overlays the keys present in path onto DefaultSimConfig.
func LoadSimConfig(path string) (SimConfig, error) {
	cfg := DefaultSimConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return SimConfig{}, fmt.Errorf("load sim config: %w", err)
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Machine.Name = name
		}
	}
	if meta.IsDefined("ram_size") {
		cfg.Machine.RAMSize = raw.RAMSize
	}
	if meta.IsDefined("listen_host") {
		cfg.Machine.ListenHost = strings.TrimSpace(raw.ListenHost)
	}
	if meta.IsDefined("accept_wait") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.AcceptWait))
		if err != nil {
			return SimConfig{}, fmt.Errorf("parse accept_wait: %w", err)
		}
		cfg.Machine.AcceptWait = d
	}
	if meta.IsDefined("delay_scale") {
		cfg.Machine.DelayScale = raw.DelayScale
	}
	if meta.IsDefined("inspector_addr") {
		cfg.InspectorAddr = strings.TrimSpace(raw.InspectorAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = raw.CORSOrigins
	}

	if meta.IsDefined("radio", "ssid") {
		cfg.Network.SSID = raw.Radio.SSID
	}
	if meta.IsDefined("radio", "password") {
		cfg.Network.Password = raw.Radio.Password
	}
	if meta.IsDefined("radio", "channel") {
		cfg.Network.Channel = raw.Radio.Channel
	}
	if meta.IsDefined("radio", "addr") {
		addr, err := netip.ParseAddr(strings.TrimSpace(raw.Radio.Addr))
		if err != nil {
			return SimConfig{}, fmt.Errorf("parse radio.addr: %w", err)
		}
		cfg.Network.Addr = addr
	}
	if meta.IsDefined("radio", "join_polls") {
		cfg.Network.JoinPolls = raw.Radio.JoinPolls
	}

	applyGuest(&cfg.Guest, raw.Guest, meta)

	if err := Validate(cfg); err != nil {
		return SimConfig{}, err
	}
	return cfg, nil
}

func applyGuest(g *demo.Config, raw fileGuest, meta toml.MetaData) {
	if meta.IsDefined("guest", "ssid") {
		g.SSID = raw.SSID
	}
	if meta.IsDefined("guest", "password") {
		g.Password = raw.Password
	}
	if meta.IsDefined("guest", "channel") {
		g.Channel = raw.Channel
	}
	if meta.IsDefined("guest", "port") {
		g.Port = raw.Port
	}
	if meta.IsDefined("guest", "greeting") {
		g.Greeting = raw.Greeting
	}
	if meta.IsDefined("guest", "boot_delay_ms") {
		g.BootDelayMS = raw.BootDelayMS
	}
	if meta.IsDefined("guest", "poll_delay_ms") {
		g.PollDelayMS = raw.PollDelayMS
	}
	if meta.IsDefined("guest", "max_polls") {
		g.MaxPolls = raw.MaxPolls
	}
	if meta.IsDefined("guest", "max_connections") {
		g.MaxConnections = raw.MaxConnections
	}
}

func Validate(cfg SimConfig) error {
	if strings.TrimSpace(cfg.Machine.Name) == "" {
		return fmt.Errorf("sim config missing name")
	}
	if cfg.Machine.RAMSize != 0 && cfg.Machine.RAMSize <= firmware.StartAddr {
		return fmt.Errorf("ram_size must exceed 0x%x", firmware.StartAddr)
	}
	if cfg.Machine.DelayScale < 0 {
		return fmt.Errorf("delay_scale must not be negative")
	}
	if !cfg.Network.Addr.Is4() {
		return fmt.Errorf("radio.addr must be an IPv4 address")
	}
	if len(cfg.Guest.SSID) > 67 {
		return fmt.Errorf("guest.ssid longer than 67 bytes")
	}
	if len(cfg.Guest.Password) > 32 {
		return fmt.Errorf("guest.password longer than 32 bytes")
	}
	if cfg.Guest.Port > 0xFFFF {
		return fmt.Errorf("guest.port out of range: %d", cfg.Guest.Port)
	}
	return nil
}

// FirmwareConfig turns the machine section into a firmware.Config. The
// caller fills in the console, logger and radio.
func (c SimConfig) FirmwareConfig() firmware.Config {
	return firmware.Config{
		Name:       c.Machine.Name,
		RAMSize:    c.Machine.RAMSize,
		ListenHost: c.Machine.ListenHost,
		AcceptWait: c.Machine.AcceptWait,
		Clock:      firmware.WallClock{Scale: c.Machine.DelayScale},
	}
}
