package llms

import "time"

// Profile bundles the generation settings a session runs under. Lite
// keeps answers short for slow local models; complete trades latency
// for richer narration.
type Profile struct {
	Name        string        `json:"nombre"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperatura"`
	Timeout     time.Duration `json:"timeout"`
}

var profiles = map[string]Profile{
	"lite":     {Name: "lite", MaxTokens: 300, Temperature: 0.6, Timeout: 20 * time.Second},
	"normal":   {Name: "normal", MaxTokens: 500, Temperature: 0.7, Timeout: 30 * time.Second},
	"completo": {Name: "completo", MaxTokens: 900, Temperature: 0.8, Timeout: 60 * time.Second},
}

// DefaultProfile is used when no profile is configured.
const DefaultProfile = "lite"

// LookupProfile resolves a profile by name, falling back to the
// default for unknown names.
func LookupProfile(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	return profiles[DefaultProfile]
}

// ProfileNames lists the known profiles in escalation order.
func ProfileNames() []string {
	return []string{"lite", "normal", "completo"}
}

// Apply copies the profile's generation settings onto a config.
func (p Profile) Apply(cfg Config) Config {
	cfg.MaxTokens = p.MaxTokens
	cfg.Temperature = p.Temperature
	cfg.Timeout = p.Timeout
	return cfg
}
