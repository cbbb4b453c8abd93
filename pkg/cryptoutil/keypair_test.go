package cryptoutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyPEM(t *testing.T) []byte {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func TestFromPEMAndSign(t *testing.T) {
	kp, err := FromPEM(testKeyPEM(t))
	require.NoError(t, err)

	sig, err := kp.Sign([]byte("{}"))
	require.NoError(t, err)
	assert.NotEmpty(t, sig)

	// Re-signing the same input is deterministic for PKCS1v15.
	sig2, err := kp.Sign([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, sig, sig2)
}

func TestFromPEMRejectsGarbage(t *testing.T) {
	_, err := FromPEM([]byte("not a pem file"))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(path, testKeyPEM(t), 0o600))

	kp, err := FromFile(path)
	require.NoError(t, err)
	assert.NotNil(t, kp)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)
}
