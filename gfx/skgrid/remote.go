package skgrid

import (
	"fmt"
	"net"
	"time"

	"github.com/golang/glog"
)

// Remote is a Driver that forwards frames over TCP to an LED server, which
// acknowledges every frame with a single 0x01 byte.
type Remote struct {
	sock    net.Conn
	timeout time.Duration
}

// NewRemote dials the LED server at addr. A zero timeout waits forever for
// each acknowledgement.
func NewRemote(addr string, timeout time.Duration) (*Remote, error) {
	sock, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		return nil, fmt.Errorf("dialing led remote %s: %w", addr, err)
	}
	return &Remote{sock: sock, timeout: timeout}, nil
}

func (s *Remote) Send(b []byte) error {
	if s.timeout > 0 {
		if err := s.sock.SetDeadline(time.Now().Add(s.timeout)); err != nil {
			return err
		}
	}
	n, err := s.sock.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("only wrote %d of %d bytes", n, len(b))
	}
	r := []byte{0}
	if _, err := s.sock.Read(r); err != nil {
		return err
	}
	if r[0] != 0x01 {
		return fmt.Errorf("remote returned error code %02x", r[0])
	}
	if glog.V(3) {
		glog.Infoln("received remote ack")
	}
	return nil
}

func (s *Remote) Close() error {
	return s.sock.Close()
}
