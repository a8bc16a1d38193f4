package adapter_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePEM(t *testing.T, dir, name, typ string, b []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: b})
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func selfSigned(t *testing.T) (certPath, keyPath string) {
	t.Helper()
	dir := t.TempDir()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "storefront-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	return writePEM(t, dir, "cert.pem", "CERTIFICATE", der),
		writePEM(t, dir, "key.pem", "EC PRIVATE KEY", keyDER)
}

func TestMakeTLSConfig(t *testing.T) {
	cert, key := selfSigned(t)

	t.Run("CAOnly", func(t *testing.T) {
		cfg, err := adapter.MakeTLSConfig(cert, "", "")
		require.NoError(t, err)
		assert.NotNil(t, cfg.RootCAs)
		assert.Empty(t, cfg.Certificates)
	})

	t.Run("ClientCertificate", func(t *testing.T) {
		cfg, err := adapter.MakeTLSConfig(cert, cert, key)
		require.NoError(t, err)
		assert.Len(t, cfg.Certificates, 1)
	})

	t.Run("MissingCA", func(t *testing.T) {
		_, err := adapter.MakeTLSConfig(filepath.Join(t.TempDir(), "none.pem"), "", "")
		assert.Error(t, err)
	})

	t.Run("InvalidCA", func(t *testing.T) {
		_, err := adapter.MakeTLSConfig(key, "", "")
		assert.Error(t, err)
	})
}
