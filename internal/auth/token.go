package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat = errors.New("invalid token format")
	ErrTokenSig    = errors.New("invalid token signature")
	ErrTokenExp    = errors.New("token expired")
	ErrTokenRoom   = errors.New("room id mismatch")
	ErrNoSecret    = errors.New("screen token secret not configured")
)

// GenerateScreenToken binds a screen to one room until expUnix.
// Format: base64url(room_id + "." + exp_unix + "." + hex(hmac_sha256(secret, room_id+"."+exp)))
func GenerateScreenToken(secret, roomID string, expUnix int64) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	msg := roomID + "." + strconv.FormatInt(expUnix, 10)
	raw := msg + "." + sign(secret, msg)
	return base64.RawURLEncoding.EncodeToString([]byte(raw)), nil
}

// ValidateScreenToken checks signature, room and expiry (with skew) and
// returns the embedded room id and expiry.
func ValidateScreenToken(secret, token, expectRoomID string, now time.Time, skewSeconds int) (string, int64, error) {
	if secret == "" {
		return "", 0, ErrNoSecret
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", 0, ErrTokenFormat
	}
	// Room ids are uuids and never contain dots.
	parts := strings.Split(string(b), ".")
	if len(parts) != 3 {
		return "", 0, ErrTokenFormat
	}
	rid, expStr, sigHex := parts[0], parts[1], parts[2]
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return "", 0, ErrTokenFormat
	}
	if expectRoomID != "" && rid != expectRoomID {
		return "", 0, ErrTokenRoom
	}
	want, _ := hex.DecodeString(sign(secret, rid+"."+expStr))
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return "", 0, ErrTokenFormat
	}
	if !hmac.Equal(want, got) {
		return "", 0, ErrTokenSig
	}
	if now.Unix() > exp+int64(skewSeconds) {
		return "", 0, ErrTokenExp
	}
	return rid, exp, nil
}

func sign(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
