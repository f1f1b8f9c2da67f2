package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/golang/glog"

	"github.com/Ffreasy/crazyflie-firmware/pkg/bridge"
	env "github.com/Ffreasy/crazyflie-firmware/pkg/bridge/env"
	"github.com/Ffreasy/crazyflie-firmware/pkg/bridge/mqtt"
	"github.com/Ffreasy/crazyflie-firmware/pkg/bridge/stream"
	ws "github.com/Ffreasy/crazyflie-firmware/pkg/bridge/websocket"
	fx "github.com/Ffreasy/crazyflie-firmware/pkg/framework"
	"github.com/Ffreasy/crazyflie-firmware/pkg/hal/uart"
)

func init() {
	env.SetupFlags()
}

func serveWebsocket(addr string, b *bridge.Bridge) fx.RunFunc {
	return func(ctx context.Context) error {
		mux := http.NewServeMux()
		mux.Handle("/crtp", ws.Handler(ctx, b))
		server := &http.Server{Addr: addr, Handler: mux}
		go func() {
			<-ctx.Done()
			server.Close()
		}()
		glog.Infof("websocket listening on %s/crtp", addr)
		err := server.ListenAndServe()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

func serveTCP(addr string, b *bridge.Bridge) fx.RunFunc {
	return func(ctx context.Context) error {
		return stream.ListenAndServe(ctx, addr, b)
	}
}

func newConsumer(mode env.Mode, queue *mqtt.Queue) uart.FrameConsumer {
	switch mode {
	case env.ModeGPS:
		gps := uart.NewGPSConsumer()
		if queue != nil {
			gps.OnMessage = (&bridge.GPSTelemetry{Publisher: queue}).HandleMessage
		}
		return gps
	case env.ModeConsole:
		if queue != nil {
			return &uart.ConsoleConsumer{
				Console:   &bridge.ConsoleSink{Publisher: queue},
				Connected: queue.Connected,
			}
		}
		return &uart.ConsoleConsumer{Console: os.Stdout}
	}
	return nil
}

func run(conf *env.Config) error {
	mode, err := conf.ParsedMode()
	if err != nil {
		return err
	}

	queue, err := conf.NewQueue()
	if err != nil {
		return err
	}
	if queue != nil {
		token := queue.Connect()
		if token.Wait(); token.Error() != nil {
			return fmt.Errorf("mqtt connect failed: %v", token.Error())
		}
		defer queue.Close()
	}

	u, err := conf.OpenUSART()
	if err != nil {
		return err
	}
	defer u.Close()
	driverConf := conf.UARTConfig()
	driverConf.DMA = u
	driver := uart.NewDriver(u, newConsumer(mode, queue), driverConf)
	u.Attach(driver)
	glog.Infof("%s mode on %s at %d baud", mode, conf.SerialPort, conf.BaudRate)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("usart", u), fx.NamedRun("receive", driver))
	if mode == env.ModeCRTP {
		b := bridge.New(driver.Link())
		runner.Go(fx.NamedRun("bridge", b))
		if queue != nil {
			rw := mqtt.NewPacketReadWriter(queue)
			runner.Go(fx.NamedRun("mqtt", rw), b.Attach("mqtt", rw))
		}
		if conf.WebsocketAddr != "" {
			runner.Go(fx.NamedRun("websocket", serveWebsocket(conf.WebsocketAddr, b)))
		}
		if conf.TCPAddr != "" {
			runner.Go(fx.NamedRun("tcp", serveTCP(conf.TCPAddr, b)))
		}
	}
	return runner.Wait()
}

func main() {
	flag.Parse()
	if err := run(env.NewConfig()); err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
}
