// Package cryptoutil wraps the RSA signing and base64 codecs the auth
// subsystem needs: PKCS#8 key loading, PKCS1v15-SHA512 signing, and the two
// base64 variants the wire protocol mixes (standard-padded for the
// Signature header, URL-safe-no-pad for JWT payload segments).
package cryptoutil

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"crypto/x509"
	"encoding/pem"
	"io"
	"os"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// KeyPair is an immutable handle over an RSA private key parsed from a
// PKCS#8 PEM file. It is exclusively owned by a Client.
type KeyPair struct {
	key *rsa.PrivateKey
}

// FromFile loads and parses the first PKCS#8 RSA private key found in path.
func FromFile(path string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apierr.Wrap(apierr.IO, "reading private key file "+path, err)
	}
	return FromPEM(data)
}

// FromReader loads a KeyPair from an arbitrary reader of PEM bytes.
func FromReader(r io.Reader) (*KeyPair, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apierr.Wrap(apierr.IO, "reading private key", err)
	}
	return FromPEM(data)
}

// FromPEM parses the first PKCS#8 private-key block in data.
func FromPEM(data []byte) (*KeyPair, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, apierr.New(apierr.KeyMissing, "no PEM block found")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, apierr.Wrap(apierr.KeyRejected, "parsing PKCS#8 private key", err)
	}

	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, apierr.New(apierr.KeyRejected, "private key is not RSA")
	}

	return &KeyPair{key: rsaKey}, nil
}

// Sign produces a base64-standard-padded RSA-PKCS1v15-SHA512 signature of
// data. The decoded signature is as long as the modulus in bytes.
func (k *KeyPair) Sign(data []byte) (string, error) {
	digest := sha512.Sum512(data)
	signature, err := rsa.SignPKCS1v15(rand.Reader, k.key, crypto.SHA512, digest[:])
	if err != nil {
		return "", apierr.Wrap(apierr.Sign, "rsa pkcs1v15 sha512 signing failed", err)
	}
	return EncodeStandard(signature), nil
}
