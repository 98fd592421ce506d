package api

import (
	"crypto/subtle"
	"errors"
	"strings"

	"innkeeper/internal/config"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	clientKeyUnknown      = "unknown"

	permReadAvailability = "read:availability"
	permReadReports      = "read:reports"
	permWriteCalendar    = "write:calendar"
)

var (
	errMissingCredentials = errors.New("missing api key headers")
	errInvalidAPIKey      = errors.New("invalid api key")
	errInvalidExtra       = errors.New("invalid extra header")
	errPermissionDenied   = errors.New("permission denied")
)

// keyring validates API key pairs shared by the HTTP and gRPC front ends.
type keyring struct {
	headerAPIKey string
	headerExtra  string
	clients      map[string]config.APIClientKey
}

func newKeyring(cfg config.APIAuthConfig) *keyring {
	k := &keyring{
		headerAPIKey: strings.ToLower(strings.TrimSpace(cfg.HeaderAPIKey)),
		headerExtra:  strings.ToLower(strings.TrimSpace(cfg.HeaderExtra)),
		clients:      make(map[string]config.APIClientKey, len(cfg.APIKeys)),
	}
	if k.headerAPIKey == "" {
		k.headerAPIKey = apiKeyHeaderDefault
	}
	if k.headerExtra == "" {
		k.headerExtra = apiExtraHeaderDefault
	}
	for _, c := range cfg.APIKeys {
		k.clients[c.Key] = c
	}
	return k
}

// authenticate checks the key pair and that the client holds required.
// An empty permission list on the client grants everything.
func (k *keyring) authenticate(apiKey, extra, required string) (config.APIClientKey, error) {
	apiKey = strings.TrimSpace(apiKey)
	extra = strings.TrimSpace(extra)
	if apiKey == "" || extra == "" {
		return config.APIClientKey{}, errMissingCredentials
	}

	client, ok := k.clients[apiKey]
	if !ok {
		return config.APIClientKey{}, errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return config.APIClientKey{}, errInvalidExtra
	}

	if required == "" || len(client.Permissions) == 0 {
		return client, nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return client, nil
		}
	}
	return client, errPermissionDenied
}
