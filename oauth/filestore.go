package oauth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const authFileName = "auth.json"

type authFile struct {
	Method      Method       `json:"method"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

// FileStore is a JSON-file-backed Store. Writes go through a temp file
// and an atomic rename so a crash never leaves a torn auth file.
type FileStore struct {
	filePath string
	ioLock   sync.Mutex
}

// NewFileStore creates a FileStore rooted at dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create auth store directory: %w", err)
	}
	return &FileStore{filePath: filepath.Join(dataDir, authFileName)}, nil
}

// Method returns the currently active login method.
func (s *FileStore) Method() (Method, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	file, err := s.read()
	if err != nil {
		return MethodNone, err
	}
	if file.Method == "" {
		return MethodNone, nil
	}
	return file.Method, nil
}

// Credentials returns the stored ChatGPT credentials, or nil when absent.
func (s *FileStore) Credentials() (*Credentials, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	file, err := s.read()
	if err != nil {
		return nil, err
	}
	return file.Credentials, nil
}

// SaveCredentials replaces the stored credentials, marking ChatGPT OAuth
// as the active login method.
func (s *FileStore) SaveCredentials(creds *Credentials) error {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	return s.write(&authFile{Method: MethodChatGPT, Credentials: creds})
}

// Clear removes any stored login.
func (s *FileStore) Clear() error {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	return s.write(&authFile{Method: MethodNone})
}

func (s *FileStore) read() (*authFile, error) {
	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return &authFile{Method: MethodNone}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read auth file: %w", err)
	}

	var file authFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse auth file: %w", err)
	}
	return &file, nil
}

func (s *FileStore) write(file *authFile) error {
	serialized, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize auth file: %w", err)
	}

	tempPath := fmt.Sprintf("%s.%d.%d.tmp", s.filePath, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tempPath, serialized, 0o600); err != nil {
		return fmt.Errorf("write auth temp file: %w", err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("finalize auth file: %w", err)
	}
	return nil
}
