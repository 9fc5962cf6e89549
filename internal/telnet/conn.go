// Package telnet seats human players behind plain telnet clients.
package telnet

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	iac  byte = 255
	dont byte = 254
	do   byte = 253
	wont byte = 252
	will byte = 251
	sb   byte = 250
	se   byte = 240
	nop  byte = 241
	dm   byte = 242
	brk  byte = 243
	ip   byte = 244
	ao   byte = 245
	ayt  byte = 246
	ec   byte = 247
	el   byte = 248
	ga   byte = 249
)

const (
	optEcho         byte = 1
	optSuppressGA   byte = 3
	optTerminalType byte = 24
	optWindowSize   byte = 31
	optLineMode     byte = 34
)

var (
	serverOptions = map[byte]bool{
		optSuppressGA: true,
	}
	clientOptions = map[byte]bool{
		optTerminalType: true,
		optWindowSize:   true,
	}
)

// Conn speaks just enough telnet to exchange lines of text.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader

	mu     sync.Mutex
	width  int
	height int
	term   string
}

// NewConn wraps c and sends the option handshake.
func NewConn(c net.Conn) *Conn {
	s := &Conn{
		conn:   c,
		reader: bufio.NewReader(c),
		width:  80,
		height: 24,
	}
	s.handshake()
	return s
}

func (s *Conn) handshake() {
	_ = s.command(will, optSuppressGA)
	_ = s.command(wont, optEcho)
	_ = s.command(dont, optLineMode)
	_ = s.command(do, optTerminalType)
	_ = s.command(do, optWindowSize)
}

func (s *Conn) command(cmd, opt byte) error {
	return s.writeRaw([]byte{iac, cmd, opt})
}

func (s *Conn) writeRaw(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Write(payload)
	return err
}

// WriteString sends msg with telnet line endings.
func (s *Conn) WriteString(msg string) error {
	return s.writeRaw(translate([]byte(msg)))
}

func translate(msg []byte) []byte {
	var buf bytes.Buffer
	var prev byte
	for _, b := range msg {
		switch b {
		case '\n':
			if prev != '\r' {
				buf.WriteByte('\r')
			}
			buf.WriteByte('\n')
		case iac:
			buf.WriteByte(iac)
			buf.WriteByte(iac)
		default:
			buf.WriteByte(b)
		}
		prev = b
	}
	return buf.Bytes()
}

// ReadLine returns the next line typed by the client with negotiation and
// control bytes removed. Input that is not valid UTF-8 is read as Latin-1.
func (s *Conn) ReadLine() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case '\r':
			if next, err := s.reader.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = s.reader.ReadByte()
			}
			return decode(buf.Bytes()), nil
		case '\n':
			return decode(buf.Bytes()), nil
		case 0x08, 0x7f:
			if n := buf.Len(); n > 0 {
				buf.Truncate(n - 1)
			}
		case iac:
			if err := s.handleIAC(&buf); err != nil {
				return "", err
			}
		case '\t':
			buf.WriteByte(' ')
		default:
			if b >= 0x20 {
				buf.WriteByte(b)
			}
		}
	}
}

func decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "")
	}
	return string(out)
}

func (s *Conn) handleIAC(buf *bytes.Buffer) error {
	cmd, err := s.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case iac:
		buf.WriteByte(iac)
	case do, dont, will, wont:
		opt, err := s.reader.ReadByte()
		if err != nil {
			return err
		}
		s.negotiate(cmd, opt)
	case sb:
		return s.subnegotiate()
	case nop, dm, brk, ip, ao, ayt, ec, el, ga:
		// ignored
	}
	return nil
}

func (s *Conn) negotiate(cmd, opt byte) {
	switch cmd {
	case do:
		if serverOptions[opt] {
			_ = s.command(will, opt)
		} else {
			_ = s.command(wont, opt)
		}
	case dont:
		_ = s.command(wont, opt)
	case will:
		if clientOptions[opt] {
			_ = s.command(do, opt)
		} else {
			_ = s.command(dont, opt)
		}
	case wont:
		_ = s.command(dont, opt)
	}
}

func (s *Conn) subnegotiate() error {
	opt, err := s.reader.ReadByte()
	if err != nil {
		return err
	}
	payload := make([]byte, 0, 16)
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return err
		}
		if b == iac {
			esc, err := s.reader.ReadByte()
			if err != nil {
				return err
			}
			if esc == iac {
				payload = append(payload, iac)
				continue
			}
			if esc == se {
				break
			}
			continue
		}
		payload = append(payload, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch opt {
	case optTerminalType:
		if len(payload) > 1 && payload[0] == 0 { // IS
			s.term = strings.ToUpper(string(payload[1:]))
		}
	case optWindowSize:
		if len(payload) >= 4 {
			s.width = int(payload[0])<<8 | int(payload[1])
			s.height = int(payload[2])<<8 | int(payload[3])
		}
	}
	return nil
}

// Close closes the underlying connection.
func (s *Conn) Close() error {
	return s.conn.Close()
}

// Size reports the client window size, 80x24 until the client says
// otherwise.
func (s *Conn) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Terminal reports the terminal type the client announced.
func (s *Conn) Terminal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.term
}
