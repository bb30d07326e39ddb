package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/alfredjeanlab/landreg/internal/config"
	"github.com/alfredjeanlab/landreg/internal/model"
)

// ProfilesConfig holds all named profiles and tracks which one is active.
type ProfilesConfig struct {
	Active   string             `toml:"active"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile is a named ledger connection. Empty fields leave the environment
// value in place.
type Profile struct {
	Host       string           `toml:"host"`
	Transport  string           `toml:"transport,omitempty"`
	CanisterID string           `toml:"canister_id,omitempty"`
	Principal  *model.Principal `toml:"principal,omitempty"`
	Token      string           `toml:"token,omitempty"`
	NATSURL    string           `toml:"nats_url,omitempty"`
}

func (p *Profile) apply(c *config.Config) {
	if p.Transport != "" {
		c.Transport = p.Transport
	}
	if p.Host != "" {
		c.Host = p.Host
	}
	if p.CanisterID != "" {
		c.CanisterID = p.CanisterID
	}
	if p.Principal != nil {
		c.Principal = p.Principal.String()
	}
	if p.Token != "" {
		c.Token = p.Token
	}
	if p.NATSURL != "" {
		c.NATSURL = p.NATSURL
	}
}

func profileConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "landreg")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.toml"), nil
}

func loadProfilesConfig() (ProfilesConfig, error) {
	path, err := profileConfigPath()
	if err != nil {
		return ProfilesConfig{}, err
	}
	var cfg ProfilesConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return ProfilesConfig{Profiles: map[string]Profile{}}, nil
		}
		return ProfilesConfig{}, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return cfg, nil
}

func saveProfilesConfig(cfg ProfilesConfig) error {
	path, err := profileConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// selectProfile returns the named profile, or the active one when name is
// empty. It returns nil when no profile applies. Naming a missing profile is
// an error; a stale active entry is not.
func selectProfile(name string) (*Profile, error) {
	cfg, err := loadProfilesConfig()
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	explicit := name != ""
	if !explicit {
		name = cfg.Active
	}
	if name == "" {
		return nil, nil
	}
	p, ok := cfg.Profiles[name]
	if !ok {
		if explicit {
			return nil, fmt.Errorf("profile %q not found", name)
		}
		return nil, nil
	}
	return &p, nil
}
