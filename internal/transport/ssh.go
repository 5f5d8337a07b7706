package transport

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// LoadOrGenerateHostKey reads an OpenSSH private key from path, creating a
// new ed25519 key there when the file is missing or unreadable.
func LoadOrGenerateHostKey(path string) (ssh.Signer, error) {
	if data, err := os.ReadFile(path); err == nil {
		if signer, err := ssh.ParsePrivateKey(data); err == nil {
			return signer, nil
		}
	}

	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	block, err := ssh.MarshalPrivateKey(key, "linecli host key")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		return nil, fmt.Errorf("write host key: %w", err)
	}
	return ssh.NewSignerFromKey(key)
}

// SSHServer serves shell sessions over SSH. Clients are not authenticated
// by SSH itself; the shell's own users and "su" do that.
type SSHServer struct {
	HostKey     ssh.Signer
	MaxSessions int
	Serve       ServeFunc
	Log         zerolog.Logger
}

func (s *SSHServer) config() *ssh.ServerConfig {
	cfg := &ssh.ServerConfig{
		NoClientAuth:  true,
		ServerVersion: "SSH-2.0-linecli",
	}
	cfg.AddHostKey(s.HostKey)
	return cfg
}

// ListenAndServe listens on addr until ctx is done.
func (s *SSHServer) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener accepts connections from ln until ctx is done, then closes
// it. Connections over MaxSessions are dropped at once.
func (s *SSHServer) ServeListener(ctx context.Context, ln net.Listener) error {
	if s.HostKey == nil {
		return errors.New("ssh: missing host key")
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.Log.Info().Str("addr", ln.Addr().String()).Msg("ssh listening")

	limit := s.MaxSessions
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	cfg := s.config()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		select {
		case sem <- struct{}{}:
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				s.handleConn(ctx, conn, cfg)
			}()
		default:
			s.Log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("connection limit reached")
			conn.Close()
		}
	}
}

func (s *SSHServer) handleConn(ctx context.Context, conn net.Conn, cfg *ssh.ServerConfig) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, cfg)
	if err != nil {
		s.Log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("ssh handshake failed")
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	log := s.Log.With().Str("remote", sshConn.RemoteAddr().String()).Str("ssh_user", sshConn.User()).Logger()
	log.Info().Msg("ssh connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		sshConn.Close()
	}()

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		ch, chReqs, err := newChan.Accept()
		if err != nil {
			break
		}
		go s.handleSession(ctx, ch, chReqs, sshConn, log)
	}
	log.Info().Msg("ssh disconnected")
}

func (s *SSHServer) handleSession(ctx context.Context, ch ssh.Channel, reqs <-chan *ssh.Request, sshConn *ssh.ServerConn, log zerolog.Logger) {
	defer ch.Close()

	started := false
	done := make(chan struct{})

	for {
		select {
		case <-done:
			return
		case req, ok := <-reqs:
			if !ok {
				if started {
					<-done
				}
				return
			}

			switch req.Type {
			case "pty-req", "env", "window-change":
				req.Reply(true, nil)
			case "shell":
				if started {
					req.Reply(false, nil)
					continue
				}
				started = true
				req.Reply(true, nil)

				go func() {
					defer close(done)

					c := NewConn("ssh", sshConn.RemoteAddr().String(), ch, ch)
					c.User = sshConn.User()
					defer c.Close()

					status := []byte{0, 0, 0, 0}
					if err := s.Serve(ctx, c); err != nil && !errors.Is(err, context.Canceled) {
						log.Warn().Err(err).Str("session", c.ID).Msg("session ended with error")
						status[3] = 1
					}
					ch.SendRequest("exit-status", false, status)
				}()
			default:
				// exec and subsystems are not offered
				if req.WantReply {
					req.Reply(false, nil)
				}
			}
		}
	}
}
