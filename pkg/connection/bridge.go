package connection

import (
	"fmt"
	"io"
	"net"

	"go.bug.st/serial"
)

// Bridge relays raw bytes between a single TCP listener and a serial
// port running the bootloader, so a host that can't open a local
// serial device can still drive it remotely with NewConnection's TCP
// form. Unlike a protocol-aware relay, Bridge never parses the frames
// it forwards — internal/btl's guard+size+cmd header is self-
// describing on the wire, so a dumb byte pipe is enough.
type Bridge struct {
	tcpHost    string
	tcpPort    int
	serialPort string
	baudRate   int
}

// NewBridge creates a new TCP bridge.
func NewBridge(tcpHost string, tcpPort int, serialPort string, baudRate int) *Bridge {
	return &Bridge{
		tcpHost:    tcpHost,
		tcpPort:    tcpPort,
		serialPort: serialPort,
		baudRate:   baudRate,
	}
}

// Listen opens the serial port once, starts the TCP listener, and
// relays bytes between whichever single client is connected and the
// serial port until the listener errors out.
func (b *Bridge) Listen() error {
	mode := &serial.Mode{BaudRate: b.baudRate, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := serial.Open(b.serialPort, mode)
	if err != nil {
		return fmt.Errorf("bridge: open serial port %s: %w", b.serialPort, err)
	}
	defer port.Close()

	addr := fmt.Sprintf("%s:%d", b.tcpHost, b.tcpPort)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bridge: start TCP listener on %s: %w", addr, err)
	}
	defer listener.Close()

	fmt.Printf("bridge: relaying %s on %s:%d\n", b.serialPort, b.tcpHost, b.tcpPort)

	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("bridge: accept: %w", err)
		}
		b.relay(conn, port)
	}
}

// relay pumps bytes in both directions until either side closes, then
// returns so Listen can accept the next client. Only one client is
// served at a time since the serial port itself is single-owner.
func (b *Bridge) relay(tcpConn net.Conn, port serial.Port) {
	defer tcpConn.Close()

	fmt.Printf("bridge: connection from %s\n", tcpConn.RemoteAddr())
	done := make(chan struct{}, 2)

	go func() {
		io.Copy(port, tcpConn)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(tcpConn, port)
		done <- struct{}{}
	}()

	<-done
}
