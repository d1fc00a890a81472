package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/yndnr/syncx-go/internal/infra/confloader"
	"github.com/yndnr/syncx-go/internal/telemetry/logger"
)

// ErrNoCertsFound is returned when a PEM file holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM file")

// Keypair is a server certificate that follows its files on disk.
type Keypair struct {
	certFile string
	keyFile  string
	cert     atomic.Pointer[tls.Certificate]
	log      logger.Logger
	watcher  *confloader.Watcher
}

// LoadKeypair loads the certificate and key. log may be nil.
func LoadKeypair(certFile, keyFile string, log logger.Logger) (*Keypair, error) {
	if log == nil {
		log = logger.NewNop()
	}
	k := &Keypair{certFile: certFile, keyFile: keyFile, log: log}
	if err := k.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return k, nil
}

func (k *Keypair) reload() error {
	cert, err := tls.LoadX509KeyPair(k.certFile, k.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	k.cert.Store(&cert)
	return nil
}

// Watch reloads the pair whenever either file changes. A pair that fails to
// load is logged and the previous certificate stays in service.
func (k *Keypair) Watch() error {
	w, err := confloader.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	for _, path := range []string{k.certFile, k.keyFile} {
		if err := w.Watch(path); err != nil {
			w.Stop()
			return fmt.Errorf("tlsroots: watch %s: %w", path, err)
		}
	}
	w.OnChange(func(path string) {
		if err := k.reload(); err != nil {
			k.log.Error("certificate reload failed", "file", path, "error", err)
			return
		}
		k.log.Info("certificate reloaded", "cert_file", k.certFile)
	})
	w.StartAsync()
	k.watcher = w
	return nil
}

// Stop ends watching. It is safe to call without Watch.
func (k *Keypair) Stop() error {
	if k.watcher == nil {
		return nil
	}
	return k.watcher.Stop()
}

// Certificate returns the certificate currently served.
func (k *Keypair) Certificate() *tls.Certificate {
	return k.cert.Load()
}

// GetCertificate implements tls.Config.GetCertificate.
func (k *Keypair) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return k.cert.Load(), nil
}

// LoadClientCAs reads every certificate in a PEM file into a new pool.
func LoadClientCAs(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}

	pool := x509.NewCertPool()
	added := 0
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return nil, ErrNoCertsFound
	}
	return pool, nil
}

// ServerConfig returns a TLS 1.2+ config serving k. A non-nil clientCAs
// requires and verifies client certificates against it.
func ServerConfig(k *Keypair, clientCAs *x509.CertPool) *tls.Config {
	cfg := &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: k.GetCertificate,
	}
	if clientCAs != nil {
		cfg.ClientCAs = clientCAs
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg
}
