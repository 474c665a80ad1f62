package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/ports"
)

// Store implements ports.TokenStore using the local filesystem.
// It stores one JSON file per client in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".homecare/auth".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".homecare", "auth")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(clientID string) (string, error) {
	if clientID == "" {
		return "", fmt.Errorf("clientID cannot be empty")
	}
	if strings.ContainsAny(clientID, `/\`) || clientID == "." || clientID == ".." {
		return "", fmt.Errorf("invalid clientID %q", clientID)
	}
	return filepath.Join(s.BasePath, clientID+".json"), nil
}

// Save persists the token to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, clientID string, token ports.Token) error {
	destPath, err := s.path(clientID)
	if err != nil {
		return err
	}

	// The user id grants access to the account; keep the directory private.
	if err := os.MkdirAll(s.BasePath, 0700); err != nil {
		return fmt.Errorf("failed to ensure token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+clientID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows cannot rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing token file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to token file: %w", err)
	}
	return nil
}

// Load retrieves the token from its JSON file.
func (s *Store) Load(ctx context.Context, clientID string) (ports.Token, error) {
	filePath, err := s.path(clientID)
	if err != nil {
		return ports.Token{}, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.Token{}, domain.ErrTokenNotFound
		}
		return ports.Token{}, fmt.Errorf("failed to read token file: %w", err)
	}

	var token ports.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return ports.Token{}, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	if token.UserID == "" {
		return ports.Token{}, domain.ErrTokenNotFound
	}
	return token, nil
}

// Delete removes the token file.
func (s *Store) Delete(ctx context.Context, clientID string) error {
	filePath, err := s.path(clientID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// List returns every client with a stored token.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}

	var clients []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		clients = append(clients, strings.TrimSuffix(name, ".json"))
	}
	return clients, nil
}
