// Package keys loads the local SSH key pair and pushes its public half to EC2 instances with EC2 Instance Connect.
package keys

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// PublicKeySuffix is appended to the private key file name to find the matching public key
const PublicKeySuffix = ".pub"

// Pair references a private key file along with the content of its matching public key.
type Pair struct {
	PrivateKeyPath string
	PublicKey      string
}

// PublicKeyPath returns the location of the public key matching the private key at path.
func PublicKeyPath(path string) string {
	return path + PublicKeySuffix
}

// ExpandPath expands a leading ~ to the user's home directory, and returns the absolute form of path.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}

// LoadPair checks that the private key at path and its public key both exist, and reads the public key.
func LoadPair(path string) (*Pair, error) {
	p, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	if err = isFile(p); err != nil {
		return nil, err
	}

	pub, err := readPublicKey(PublicKeyPath(p))
	if err != nil {
		return nil, err
	}

	return &Pair{PrivateKeyPath: p, PublicKey: pub}, nil
}

// ValidatePath performs the same checks as LoadPair, without keeping the result.
func ValidatePath(path string) error {
	_, err := LoadPair(path)
	return err
}

func isFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("private key %s: %w", path, err)
	}

	if !fi.Mode().IsRegular() {
		return fmt.Errorf("private key %s: path is not a file", path)
	}
	return nil
}

func readPublicKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("matching public key not found (%s): %w", path, err)
	}

	// Instance Connect only accepts keys in the OpenSSH authorized_keys format
	if _, _, _, _, err = ssh.ParseAuthorizedKey(data); err != nil {
		return "", fmt.Errorf("public key %s: %w", path, err)
	}

	return strings.TrimSpace(string(data)), nil
}
