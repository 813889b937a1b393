// Package demo is the sample guest program: join a network, then greet every
// client that connects on one port.
package demo

import (
	"context"
	"errors"
	"fmt"

	"github.com/danmuck/rvhal/internal/hal"
)

var (
	ErrJoinRejected = errors.New("demo: station join rejected")
	ErrJoinTimeout  = errors.New("demo: station join timed out")
)

// Config drives one run of the guest program.
type Config struct {
	SSID     string
	Password string
	Channel  uint32
	Port     uint32
	Greeting string
	// BootDelayMS is slept once before joining.
	BootDelayMS uint32
	// PollDelayMS is slept between connection polls.
	PollDelayMS uint32
	// MaxPolls bounds the connection wait; 0 waits forever.
	MaxPolls int
	// MaxConnections stops serving after that many clients; 0 serves forever.
	MaxConnections int
}

func DefaultConfig() Config {
	return Config{
		Port:        8080,
		Greeting:    "hi",
		BootDelayMS: 1000,
		PollDelayMS: 500,
	}
}

// Run executes the program against c and exits the guest when done. ctx is
// checked between firmware calls; the calls themselves cannot be interrupted.
func Run(ctx context.Context, c *hal.Client, cfg Config) error {
	out := c.Console()
	c.Print("hi!\n")
	c.Delay(cfg.BootDelayMS)

	ip, err := join(ctx, c, cfg)
	if err != nil {
		out.Printf("\n%v\n", err)
		_ = c.Exit(1)
		return err
	}
	out.Printf("Connected. local IP = %s\n", ip)

	served, err := serve(ctx, c, cfg)
	if err != nil {
		out.Printf("%v\n", err)
		_ = c.Exit(1)
		return err
	}
	out.Printf("served %d connection(s)\n", served)
	return c.Exit(0)
}

func join(ctx context.Context, c *hal.Client, cfg Config) (string, error) {
	c.Print("connecting...")
	w := c.WiFi()
	accepted, err := w.JoinStation(cfg.SSID, cfg.Password, cfg.Channel)
	if err != nil {
		return "", fmt.Errorf("demo: join: %w", err)
	}
	if !accepted {
		return "", ErrJoinRejected
	}

	for polls := 0; ; polls++ {
		connected, err := w.Connected()
		if err != nil {
			return "", fmt.Errorf("demo: poll: %w", err)
		}
		if connected {
			break
		}
		if cfg.MaxPolls > 0 && polls >= cfg.MaxPolls {
			return "", ErrJoinTimeout
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c.Delay(cfg.PollDelayMS)
		c.Print(".")
	}

	ip, err := w.IPv4()
	if err != nil {
		return "", fmt.Errorf("demo: address: %w", err)
	}
	c.Print("\n")
	return ip.String(), nil
}

func serve(ctx context.Context, c *hal.Client, cfg Config) (int, error) {
	l, err := c.Listen(cfg.Port)
	if err != nil {
		return 0, err
	}
	defer l.Close()

	served := 0
	for cfg.MaxConnections == 0 || served < cfg.MaxConnections {
		if err := ctx.Err(); err != nil {
			return served, nil
		}
		conn, err := l.Accept()
		if errors.Is(err, hal.ErrNoConnection) {
			continue
		}
		if err != nil {
			return served, err
		}
		_, _ = conn.WriteString(cfg.Greeting)
		_ = conn.Close()
		served++
	}
	return served, nil
}
