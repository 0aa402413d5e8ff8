package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/bookmarkauth/internal/common"
	"github.com/dmitrijs2005/bookmarkauth/internal/filex"
	"github.com/dmitrijs2005/bookmarkauth/internal/server/config"
)

// KeySource supplies the signing secret.
type KeySource interface {
	Load(ctx context.Context) ([]byte, error)
}

// StaticKeySource returns a fixed secret, usually from configuration.
type StaticKeySource []byte

func (s StaticKeySource) Load(context.Context) ([]byte, error) {
	out := make([]byte, len(s))
	copy(out, s)
	return out, nil
}

// generatedKeyBytes is the size of a secret generated by FileKeySource.
const generatedKeyBytes = 32

// FileKeySource reads the secret from a file. A missing file is created
// with a random hex secret so that a fresh deployment gets a stable key.
// Surrounding whitespace in the file is ignored.
type FileKeySource struct {
	Path string
}

func (f FileKeySource) Load(context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if err == nil {
		return []byte(strings.TrimSpace(string(b))), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	secret, err := common.MakeRandHexString(generatedKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	if _, err := filex.EnsureParentDir(f.Path, 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(f.Path, []byte(secret+"\n"), 0o600); err != nil {
		return nil, err
	}
	return []byte(secret), nil
}

// KeySourceFromConfig picks the secret source: an S3 object when
// SecretS3Key is set, then a key file, then the inline secret.
func KeySourceFromConfig(cfg *config.Config) KeySource {
	switch {
	case cfg.SecretS3Key != "":
		return NewS3KeySource(S3Config{
			Bucket:   cfg.S3Bucket,
			Key:      cfg.SecretS3Key,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3BaseEndpoint,
			User:     cfg.S3RootUser,
			Password: cfg.S3RootPassword,
		})
	case cfg.SecretKeyFile != "":
		return FileKeySource{Path: cfg.SecretKeyFile}
	default:
		return StaticKeySource(cfg.SecretKey)
	}
}
