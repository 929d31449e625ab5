package mailer

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"net"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// smtpServer is a single-connection SMTP relay good enough for go-mail.
type smtpServer struct {
	addr      *net.TCPAddr
	tlsConfig *tls.Config // nil: STARTTLS is not offered
	username  string
	password  string

	// clientTLS trusts the server certificate.
	clientTLS *tls.Config

	mu       sync.Mutex
	upgraded bool
	authOK   bool
	rcpt     []string
	data     string
	quit     bool
	done     chan struct{}
}

func newSMTPServer(t *testing.T, offerTLS bool, username, password string) *smtpServer {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	s := &smtpServer{
		addr:     l.Addr().(*net.TCPAddr),
		username: username,
		password: password,
		done:     make(chan struct{}),
	}

	if offerTLS {
		// Borrow httptest's localhost certificate.
		hs := httptest.NewTLSServer(nil)
		cert := hs.TLS.Certificates[0]
		pool := x509.NewCertPool()
		pool.AddCert(hs.Certificate())
		hs.Close()

		s.tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		s.clientTLS = &tls.Config{RootCAs: pool, ServerName: "127.0.0.1"}
	}

	go func() {
		conn, err := l.Accept()
		if err != nil {
			close(s.done)
			return
		}
		s.serve(conn)
	}()

	return s
}

func (s *smtpServer) serve(conn net.Conn) {
	defer close(s.done)
	defer conn.Close()

	tp := textproto.NewConn(conn)
	reply := func(format string, args ...any) {
		_ = tp.PrintfLine(format, args...)
	}

	reply("220 127.0.0.1 ESMTP test")
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")

		switch strings.ToUpper(verb) {
		case "EHLO", "HELO":
			lines := []string{"127.0.0.1"}
			if s.tlsConfig != nil && !s.isUpgraded() {
				lines = append(lines, "STARTTLS")
			}
			lines = append(lines, "AUTH PLAIN")
			for i, l := range lines {
				sep := "-"
				if i == len(lines)-1 {
					sep = " "
				}
				reply("250%s%s", sep, l)
			}

		case "STARTTLS":
			if s.tlsConfig == nil {
				reply("502 5.5.1 not supported")
				continue
			}
			reply("220 2.0.0 ready")
			tlsConn := tls.Server(conn, s.tlsConfig)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			conn = tlsConn
			tp = textproto.NewConn(conn)
			s.mu.Lock()
			s.upgraded = true
			s.mu.Unlock()

		case "AUTH":
			mech, resp, _ := strings.Cut(arg, " ")
			raw, _ := base64.StdEncoding.DecodeString(resp)
			want := "\x00" + s.username + "\x00" + s.password
			if strings.ToUpper(mech) != "PLAIN" || string(raw) != want {
				reply("535 5.7.8 Username and Password not accepted")
				continue
			}
			s.mu.Lock()
			s.authOK = true
			s.mu.Unlock()
			reply("235 2.7.0 accepted")

		case "MAIL", "NOOP", "RSET":
			reply("250 2.0.0 ok")

		case "RCPT":
			s.mu.Lock()
			s.rcpt = append(s.rcpt, arg)
			s.mu.Unlock()
			reply("250 2.1.5 ok")

		case "DATA":
			reply("354 go ahead")
			b, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.data = string(b)
			s.mu.Unlock()
			reply("250 2.0.0 queued")

		case "QUIT":
			s.mu.Lock()
			s.quit = true
			s.mu.Unlock()
			reply("221 2.0.0 bye")
			return

		default:
			reply("502 5.5.2 unknown command %s", verb)
		}
	}
}

func (s *smtpServer) isUpgraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upgraded
}

// waitClosed reports whether the client ended the session within d.
func (s *smtpServer) waitClosed(d time.Duration) bool {
	select {
	case <-s.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (s *smtpServer) mailer() *SMTP {
	return New(Config{
		Host:      "127.0.0.1",
		Port:      s.addr.Port,
		Username:  s.username,
		Password:  s.password,
		Timeout:   3 * time.Second,
		TLSConfig: s.clientTLS,
	})
}
