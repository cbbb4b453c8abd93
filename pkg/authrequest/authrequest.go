// Package authrequest builds the one-shot login payload sent to the auth
// endpoint and signed by the caller's KeyPair.
package authrequest

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// ExpirationUnit is the closed set of units the provider accepts for a
// requested token lifetime.
type ExpirationUnit string

const (
	Seconds ExpirationUnit = "seconds"
	Minutes ExpirationUnit = "minutes"
	Hours   ExpirationUnit = "hours"
)

// Expiration is a small non-negative count paired with a unit, rendered as
// the human-readable string the provider expects (e.g. "120 seconds").
type Expiration struct {
	Count uint
	Unit  ExpirationUnit
}

func (e Expiration) String() string {
	return fmt.Sprintf("%d %s", e.Count, e.Unit)
}

// ParseExpiration parses the "N seconds|minutes|hours" form read from
// TRANSIP_API_TOKEN_EXPIRATION.
func ParseExpiration(s string) (Expiration, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Expiration{}, apierr.New(apierr.ParseExpiration, "expected \"<count> <seconds|minutes|hours>\", got "+strconv.Quote(s))
	}

	count, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return Expiration{}, apierr.Wrap(apierr.ParseInt, "parsing token expiration count", err)
	}

	var unit ExpirationUnit
	switch fields[1] {
	case string(Seconds):
		unit = Seconds
	case string(Minutes):
		unit = Minutes
	case string(Hours):
		unit = Hours
	default:
		return Expiration{}, apierr.New(apierr.ParseEnum, "unknown expiration unit "+strconv.Quote(fields[1]))
	}

	return Expiration{Count: uint(count), Unit: unit}, nil
}

// Request is the AuthRequest value object. It is constructed once,
// serialized exactly once, and the serialized bytes are both the HTTP body
// and the signature input — callers must never re-serialize it, or the
// signed bytes and the sent bytes could diverge.
type Request struct {
	Login          string `json:"login"`
	Nonce          string `json:"nonce"`
	ReadOnly       bool   `json:"read_only"`
	ExpirationTime string `json:"expiration_time"`
	Label          string `json:"label"`
	GlobalKey      bool   `json:"global_key"`
}

// New builds an AuthRequest with the current millisecond epoch as nonce.
// globalKey is the negation of "whitelisted IP only".
func New(login string, expiration Expiration, readOnly, whitelistedOnly bool) Request {
	return Request{
		Login:          login,
		Nonce:          strconv.FormatInt(time.Now().UnixMilli(), 10),
		ReadOnly:       readOnly,
		ExpirationTime: expiration.String(),
		Label:          label(),
		GlobalKey:      !whitelistedOnly,
	}
}

// label builds "<hostname>-YYYYMMDDTHHMMSS" when the local hostname is
// obtainable, else falls back to "<pkg-name> <epoch-ms>".
func label() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return fmt.Sprintf("transip-acme-go %d", time.Now().UnixMilli())
	}
	return fmt.Sprintf("%s-%s", host, time.Now().Format("20060102T150405"))
}

// JSON serializes the request exactly once. The returned bytes must be used
// both as the HTTP body and as the input to KeyPair.Sign.
func (r Request) JSON() ([]byte, error) {
	return json.Marshal(r)
}
