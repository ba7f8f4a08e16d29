// Package auth locates provider API keys and checks that they work.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const credentialDir = ".media-hooks"

// Credential names where a provider key may be found.
type Credential struct {
	// Provider is used in log lines and errors.
	Provider string
	// EnvVar is checked first.
	EnvVar string
	// File is a GPG-encrypted file under ~/.media-hooks.
	File string
}

var (
	GeminiCredential = Credential{Provider: "gemini", EnvVar: "GEMINI_API_KEY", File: "gemini.gpg"}
	OpenAICredential = Credential{Provider: "openai", EnvVar: "OPENAI_API_KEY", File: "openai.gpg"}
)

// ErrNoAPIKey is returned when no source yields a key.
var ErrNoAPIKey = errors.New("API key not found")

// GetAPIKey retrieves a provider key. The environment variable wins over the
// GPG-encrypted file at ~/.media-hooks/<file>.
func GetAPIKey(c Credential) (string, error) {
	if key := strings.TrimSpace(os.Getenv(c.EnvVar)); key != "" {
		log.Debug().Str("provider", c.Provider).Msg("Using API key from environment variable")
		return key, nil
	}

	key, err := getFromGPG(c.File)
	if err == nil && key != "" {
		log.Debug().Str("provider", c.Provider).Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Debug().Err(err).Str("provider", c.Provider).Msg("No API key available")
	return "", fmt.Errorf("%s: %w; set %s or store it in ~/%s/%s", c.Provider, ErrNoAPIKey, c.EnvVar, credentialDir, c.File)
}

func getFromGPG(file string) (string, error) {
	credPath, err := getCredentialPath(file)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	args := []string{"--decrypt", "--quiet"}
	if passphrasePath, ok := passphraseFile(); ok {
		args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
	}
	args = append(args, credPath)

	output, err := exec.Command("gpg", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("GPG decryption failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

func getCredentialPath(file string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, credentialDir, file), nil
}

// passphraseFile returns ~/.media-hooks/.gpg-passphrase when it exists and is
// readable only by its owner.
func passphraseFile() (string, bool) {
	path, err := getCredentialPath(".gpg-passphrase")
	if err != nil {
		return "", false
	}
	fi, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	if mode := fi.Mode().Perm(); mode&0o077 != 0 {
		log.Warn().
			Str("passphrase_file", path).
			Str("permissions", fmt.Sprintf("%04o", mode)).
			Msg("Passphrase file has insecure permissions (should be 0600); skipping")
		return "", false
	}
	return path, true
}
