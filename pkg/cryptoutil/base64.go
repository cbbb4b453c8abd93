package cryptoutil

import (
	"encoding/base64"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// EncodeStandard encodes data as standard-padded base64, used for the
// Signature header on the auth request.
func EncodeStandard(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeURLSafeNoPad decodes a URL-safe, unpadded base64 string, the
// encoding used for each segment of a compact JWT.
func DecodeURLSafeNoPad(s string) ([]byte, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, apierr.Wrap(apierr.Base64Decode, "url-safe-no-pad decode", err)
	}
	return decoded, nil
}
