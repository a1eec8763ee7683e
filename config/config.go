// Package config reads and writes the named connection profiles kept in the aws-ec2 configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
	"gopkg.in/ini.v1"
)

// DefaultProfile is the profile used when none is named
const DefaultProfile = "default"

const (
	keyBastion      = "bastion"
	keyBastionUser  = "bastion_user"
	keyBastionPort  = "bastion_port"
	keyInstanceUser = "instance_user"
	keyKey          = "key"
)

// DefaultPath returns the location of the configuration file, under the XDG config home directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "aws-ec2", "config")
}

// Profile is a named set of default connection settings.
type Profile struct {
	// Bastion is the instance ID of the bastion host, empty if no bastion is used
	Bastion      string
	BastionUser  string
	BastionPort  int
	InstanceUser string
	// Key is the path to the private SSH key, its public key is expected at the same path with a .pub suffix
	Key string
}

// Store holds the configuration file content, and the name of the profile being used.
type Store struct {
	path    string
	profile string
	file    *ini.File
}

// Load reads the configuration file at path.  A missing file is not an error, an empty configuration is
// returned instead, and the file is created on the first call to Update.
func Load(path, profile string) (*Store, error) {
	if profile == "" {
		profile = DefaultProfile
	}

	f := ini.Empty()
	if _, err := os.Stat(path); err == nil {
		if f, err = ini.Load(path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	return &Store{path: path, profile: profile, file: f}, nil
}

// Path returns the location of the configuration file.
func (s *Store) Path() string {
	return s.path
}

// Name returns the name of the profile used by the store.
func (s *Store) Name() string {
	return s.profile
}

// Profile returns the settings of the store's profile.  Unset values are returned as their zero value, except
// BastionPort, which is 0 when unset or invalid.
func (s *Store) Profile() Profile {
	sec, err := s.file.GetSection(s.profile)
	if err != nil {
		return Profile{}
	}

	p := Profile{
		Bastion:      sec.Key(keyBastion).String(),
		BastionUser:  sec.Key(keyBastionUser).String(),
		InstanceUser: sec.Key(keyInstanceUser).String(),
		Key:          sec.Key(keyKey).String(),
	}
	p.BastionPort, _ = sec.Key(keyBastionPort).Int()

	return p
}

// Update applies fn to the store's profile, and writes the result to the configuration file.
func (s *Store) Update(fn func(p *Profile)) error {
	p := s.Profile()
	fn(&p)

	sec := s.file.Section(s.profile)
	sec.Key(keyBastion).SetValue(p.Bastion)
	sec.Key(keyBastionUser).SetValue(p.BastionUser)
	if p.BastionPort > 0 {
		sec.Key(keyBastionPort).SetValue(strconv.Itoa(p.BastionPort))
	} else {
		sec.DeleteKey(keyBastionPort)
	}
	sec.Key(keyInstanceUser).SetValue(p.InstanceUser)
	sec.Key(keyKey).SetValue(p.Key)

	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("save config %s: %w", s.path, err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("save config %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err = s.file.WriteTo(f); err != nil {
		return fmt.Errorf("save config %s: %w", s.path, err)
	}
	return f.Sync()
}
