package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataMissingHash = errors.New("init data: hash missing")
	ErrInitDataBadHash     = errors.New("init data: hash mismatch")
	ErrInitDataExpired     = errors.New("init data: auth_date expired")
	ErrInitDataNoUser      = errors.New("init data: user missing")
)

// DefaultInitDataMaxAge bounds how old auth_date may be
const DefaultInitDataMaxAge = time.Hour

// maxClockSkew allows auth_date slightly in the future
const maxClockSkew = 5 * time.Minute

type WebAppUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ValidateInitData verifies the Mini App init data signature and checks that
// auth_date is recent. maxAge <= 0 uses DefaultInitDataMaxAge.
func ValidateInitData(initData, botToken string, maxAge time.Duration) (url.Values, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, ErrInitDataMissingHash
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrInitDataBadHash
	}
	if !hmac.Equal(Sign(values, botToken), provided) {
		return nil, ErrInitDataBadHash
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, ErrInitDataExpired
	}
	if maxAge <= 0 {
		maxAge = DefaultInitDataMaxAge
	}
	age := time.Since(time.Unix(authDate, 0))
	if age > maxAge || age < -maxClockSkew {
		return nil, ErrInitDataExpired
	}

	return values, nil
}

// Sign computes the init data hash over values (without "hash")
func Sign(values url.Values, botToken string) []byte {
	pairs := make([]string, 0, len(values))
	for k, v := range values {
		pairs = append(pairs, k+"="+strings.Join(v, ""))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(pairs, "\n")))
	return h.Sum(nil)
}

// ParseUser extracts the user object from validated init data
func ParseUser(values url.Values) (*WebAppUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, ErrInitDataNoUser
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, ErrInitDataNoUser
	}
	return &user, nil
}
