package actors

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/actorflow/actorflow/pkg/engine"
	"github.com/actorflow/actorflow/pkg/record"
	"github.com/actorflow/actorflow/pkg/transports/ssh"
)

// SFTPOutput renders records like output-file, buffers them and uploads
// the result to remote-file when finalized. Nothing is uploaded if the
// actor never started.
type SFTPOutput struct {
	config     *ssh.Config
	remotePath string
	mode       os.FileMode
	buf        strings.Builder
	count      int
}

// Start implements engine.Starter.
func (s *SFTPOutput) Start(a *engine.Actor) error {
	cfg := ssh.DefaultConfig(a.RequireProperty("host"), a.RequireProperty("user"))
	cfg.Port = a.IntProperty("port", 22)
	cfg.KnownHostsPath = a.PropertyOr("known-hosts", "")
	cfg.ConnectionTimeout = a.DurationProperty("timeout", cfg.ConnectionTimeout)

	if key, ok := a.FirstPropertyValue("private-key"); ok && key != "" {
		cfg.AuthMethod = ssh.AuthMethodKey
		cfg.PrivateKeyPath = key
		cfg.PrivateKeyPassphrase = a.PropertyOr("passphrase", "")
	} else {
		cfg.Password = a.RequireProperty("password")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if mode, ok := a.FirstPropertyValue("mode"); ok && mode != "" {
		m, err := strconv.ParseUint(mode, 8, 32)
		if err != nil {
			return fmt.Errorf("invalid mode %q: %w", mode, err)
		}
		s.mode = os.FileMode(m)
	}

	s.config = cfg
	s.remotePath = a.RequireProperty("remote-file")
	return nil
}

// Handle implements engine.Handler.
func (s *SFTPOutput) Handle(a *engine.Actor, r *record.Record) error {
	s.buf.WriteString(RenderRecord(r))
	s.count++
	a.Emit(r)
	return nil
}

// Finalize implements engine.Finalizer.
func (s *SFTPOutput) Finalize(a *engine.Actor) error {
	if s.config == nil {
		return nil
	}

	client, err := ssh.NewClient(s.config, *a.Logger().Zerolog())
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := a.Context()
	if err := client.Connect(ctx); err != nil {
		return err
	}
	if _, err := client.Upload(ctx, strings.NewReader(s.buf.String()), s.remotePath, s.mode); err != nil {
		return err
	}

	a.Logger().WithFields(map[string]interface{}{
		"remote":  s.remotePath,
		"records": s.count,
	}).Info("records uploaded")
	return nil
}
