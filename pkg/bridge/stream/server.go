package stream

import (
	"context"
	"net"

	"github.com/golang/glog"

	"github.com/Ffreasy/crazyflie-firmware/pkg/bridge"
)

// Serve accepts connections on l and attaches each one to b until ctx is
// canceled or l fails. l is closed on return.
func Serve(ctx context.Context, l net.Listener, b *bridge.Bridge) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		name := "tcp:" + conn.RemoteAddr().String()
		glog.V(2).Infof("%s: connected", name)
		go func() {
			err := b.Attach(name, New(conn)).Run(ctx)
			glog.V(2).Infof("%s: %v", name, err)
		}()
	}
}

// ListenAndServe listens on the TCP address addr and calls Serve.
func ListenAndServe(ctx context.Context, addr string, b *bridge.Bridge) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	glog.Infof("stream listening on %s", l.Addr())
	return Serve(ctx, l, b)
}
