package dispatch

import "strings"

// Credentials maps provider id to API key. An empty key means not configured.
type Credentials map[string]string

// CredentialsFromKeys expands keys indexed by credential name (e.g. GEMINI_API_KEY) into
// per-provider credentials; providers sharing a key name share the key.
func CredentialsFromKeys(providers []Provider, keys map[string]string) Credentials {
	creds := make(Credentials, len(providers))
	for _, p := range providers {
		if key := strings.TrimSpace(keys[p.KeyName]); key != "" {
			creds[p.ID] = key
		}
	}
	return creds
}

func (c Credentials) Get(id string) string {
	return strings.TrimSpace(c[id])
}

// Merge returns a new set where non-empty override keys replace the receiver's.
func (c Credentials) Merge(override Credentials) Credentials {
	merged := make(Credentials, len(c)+len(override))
	for id, key := range c {
		merged[id] = key
	}
	for id, key := range override {
		if strings.TrimSpace(key) != "" {
			merged[id] = key
		}
	}
	return merged
}
