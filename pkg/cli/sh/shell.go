// Package sh provides an interactive shell over a CRTP link.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/Ffreasy/crazyflie-firmware/pkg/crtp"
	"github.com/Ffreasy/crazyflie-firmware/pkg/hal/uart"
)

// Link is the link used by the shell.
type Link interface {
	uart.LinkOperations
	ReceivePacketContext(ctx context.Context) (*crtp.Packet, error)
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Link  Link
	Stats func() uart.Stats
}

const (
	shellKey    = "$shell"
	prompt      = "crtp > "
	recvTimeout = time.Second
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&SendCmd,
		&RecvCmd,
		&StatsCmd,
		&EnableCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell on link. stats may be nil.
func New(link Link, stats func() uart.Stats) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Link:  link,
		Stats: stats,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(prompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// ParsePacket parses PORT CHANNEL [BYTE...]. Bytes are hex, with or
// without a 0x prefix.
func ParsePacket(args []string) (*crtp.Packet, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("PORT and CHANNEL expected")
	}
	port, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil || port > 0x0f {
		return nil, fmt.Errorf("invalid port %q", args[0])
	}
	ch, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil || ch > 3 {
		return nil, fmt.Errorf("invalid channel %q", args[1])
	}
	data := make([]byte, 0, len(args)-2)
	for _, arg := range args[2:] {
		b, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(arg), "0x"), 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", arg)
		}
		data = append(data, byte(b))
	}
	return crtp.NewPacket(crtp.NewHeader(crtp.Port(port), crtp.Channel(ch)), data)
}

// FormatPacket prints a packet into friendly string for display.
func FormatPacket(pkt *crtp.Packet) string {
	return fmt.Sprintf("port=%d ch=%d size=%d data=[% x]",
		pkt.Header.Port(), pkt.Header.Channel(), pkt.Size, pkt.Payload())
}

type packetJSON struct {
	Port    crtp.Port    `json:"port"`
	Channel crtp.Channel `json:"channel"`
	Data    []int        `json:"data"`
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// SendCmd sends a packet.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "PORT CHANNEL [HEX...]",
		Func: func(c *ishell.Context) {
			pkt, err := ParsePacket(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if err = ShellFrom(c).Link.SendPacket(pkt); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}

	// RecvCmd waits for a packet.
	RecvCmd = ishell.Cmd{
		Name:    "recv",
		Aliases: []string{"r"},
		Help:    "[TIMEOUT]",
		Func: func(c *ishell.Context) {
			timeout := recvTimeout
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				timeout = d
			}
			s := ShellFrom(c)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			pkt, err := s.Link.ReceivePacketContext(ctx)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				out := packetJSON{Port: pkt.Header.Port(), Channel: pkt.Header.Channel(), Data: []int{}}
				for _, b := range pkt.Payload() {
					out.Data = append(out.Data, int(b))
				}
				s.printJSON(c, out)
				return
			}
			c.Println(FormatPacket(pkt))
		},
	}

	// StatsCmd prints the driver counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Stats == nil {
				c.Err(fmt.Errorf("stats not available"))
				return
			}
			st := s.Stats()
			if s.OutputJSON {
				s.printJSON(c, st)
				return
			}
			c.Printf("rx bytes %d (dropped %d)\n", st.RxBytes, st.RxDropped)
			c.Printf("frames %d, checksum errors %d, oversize %d, timeouts %d, queue drops %d\n",
				st.Frames, st.BadChecksum, st.Oversize, st.Timeouts, st.PacketDrops)
			c.Printf("tx frames %d\n", st.TxFrames)
		},
	}

	// EnableCmd enables or disables the link.
	EnableCmd = ishell.Cmd{
		Name: "enable",
		Help: "on|off",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("on or off expected"))
				return
			}
			var en bool
			switch c.Args[0] {
			case "on", "1", "true":
				en = true
			case "off", "0", "false":
			default:
				c.Err(fmt.Errorf("on or off expected"))
				return
			}
			if err := ShellFrom(c).Link.SetEnable(en); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}
)
