package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"net"

	"github.com/golang/glog"

	env "github.com/Ffreasy/crazyflie-firmware/pkg/bridge/env"
	"github.com/Ffreasy/crazyflie-firmware/pkg/cli/sh"
	fx "github.com/Ffreasy/crazyflie-firmware/pkg/framework"
	"github.com/Ffreasy/crazyflie-firmware/pkg/hal/uart"
	"github.com/Ffreasy/crazyflie-firmware/pkg/hal/usart"
)

var loopback bool

func init() {
	env.SetupFlags()
	flag.BoolVar(&loopback, "loopback", loopback, "Talk to an in-process echo peer instead of the serial port.")
}

func newDriver(u *usart.USART) *uart.Driver {
	conf := uart.DefaultConfig()
	conf.DMA = u
	d := uart.NewDriver(u, nil, conf)
	u.Attach(d)
	return d
}

// echo sends back every packet received by d.
func echo(d *uart.Driver) fx.RunFunc {
	return func(ctx context.Context) error {
		for {
			pkt, err := d.ReceivePacket(ctx)
			if err != nil {
				return err
			}
			if err = d.SendPacket(pkt); err != nil {
				return err
			}
		}
	}
}

func main() {
	flag.Parse()

	runner := fx.NewRunner()
	var u *usart.USART
	if loopback {
		local, remote := net.Pipe()
		u = usart.New(local)
		peer := usart.New(remote)
		peerDriver := newDriver(peer)
		runner.Go(fx.NamedRun("peer-usart", peer), fx.NamedRun("peer-receive", peerDriver))
		runner.Go(fx.NamedRun("echo", echo(peerDriver)))
	} else {
		u = env.NewConfig().MustOpenUSART()
	}
	driver := newDriver(u)
	runner.Go(fx.NamedRun("usart", u), fx.NamedRun("receive", driver))

	sh.New(driver.Link(), driver.Stats).Run(flag.Args()...)
	runner.Stop()
	if err := runner.Wait(); err != nil {
		glog.Warning(err)
	}
	u.Close()
	glog.Flush()
}
