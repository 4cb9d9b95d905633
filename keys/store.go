package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore keeps Ed25519 seeds on the local filesystem.
//
// EXPERIMENTAL: this storage surface is not part of the transaction protocol
// and may change in MINOR releases.
//
// Layout:
//
//	<Directory>/<name>/root.key
//	<Directory>/<name>/roles/<role>.key
//
// Each file holds a hex-encoded seed and is written with mode 0600.
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Identifier string
	Roles      []string
}

func GetDefaultDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".ledgertx", "keys"), nil
}

func CreateKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = GetDefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootKeyPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.key")
}

func (ks *KeyStore) roleKeyPath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".key")
}

func checkName(what, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", char, what)
	}
	return nil
}

func CheckKeyName(identifier string) error { return checkName("identifier", identifier) }

func CheckRole(role string) error { return checkName("role", role) }

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", SeedSize, len(data))
	}
	return data, nil
}

func (ks *KeyStore) saveSeed(filePath string, seed []byte, overwrite bool) error {
	if len(seed) != SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(filePath, flags, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return file.Close()
}

func (ks *KeyStore) loadSeed(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// InitializeRootKey stores seed as the root key of identifier.
func (ks *KeyStore) InitializeRootKey(identifier string, seed []byte, overwrite bool) (PublicKey, string, error) {
	if err := CheckKeyName(identifier); err != nil {
		return PublicKey{}, "", err
	}
	pub, err := PublicKeyFromSeed(seed)
	if err != nil {
		return PublicKey{}, "", err
	}
	filePath := ks.rootKeyPath(identifier)
	if err := ks.saveSeed(filePath, seed, overwrite); err != nil {
		return PublicKey{}, "", err
	}
	return pub, filePath, nil
}

// DeriveKeyFromRole derives and stores a role key under from.
func (ks *KeyStore) DeriveKeyFromRole(from, role string, overwrite bool) (PublicKey, string, error) {
	if err := CheckKeyName(from); err != nil {
		return PublicKey{}, "", err
	}
	if err := CheckRole(role); err != nil {
		return PublicKey{}, "", err
	}
	rootSeed, err := ks.loadSeed(ks.rootKeyPath(from))
	if err != nil {
		return PublicKey{}, "", err
	}
	roleSeed, err := DeriveRoleSeed(rootSeed, role)
	if err != nil {
		return PublicKey{}, "", err
	}
	filePath := ks.roleKeyPath(from, role)
	if err := ks.saveSeed(filePath, roleSeed, overwrite); err != nil {
		return PublicKey{}, "", err
	}
	pub, err := PublicKeyFromSeed(roleSeed)
	return pub, filePath, err
}

// LoadKeyPair loads the root key of identifier, or its role key when role is set.
func (ks *KeyStore) LoadKeyPair(identifier, role string) (*KeyPair, error) {
	if err := CheckKeyName(identifier); err != nil {
		return nil, err
	}
	path := ks.rootKeyPath(identifier)
	if role != "" {
		if err := CheckRole(role); err != nil {
			return nil, err
		}
		path = ks.roleKeyPath(identifier, role)
	}
	seed, err := ks.loadSeed(path)
	if err != nil {
		return nil, err
	}
	return NewKeyPairFromSeed(seed)
}

// ExportKey returns the public key of identifier (or of its role key).
func (ks *KeyStore) ExportKey(identifier, role string) (PublicKey, error) {
	kp, err := ks.LoadKeyPair(identifier, role)
	if err != nil {
		return PublicKey{}, err
	}
	return kp.Pubkey(), nil
}

func (ks *KeyStore) ListKeys() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var identifiers []string
	for _, entry := range entries {
		if entry.IsDir() {
			identifiers = append(identifiers, entry.Name())
		}
	}
	sort.Strings(identifiers)

	var result []KeyEntry
	for _, identifier := range identifiers {
		roleEntries, rerr := os.ReadDir(filepath.Join(ks.Directory, identifier, "roles"))
		var roles []string
		if rerr == nil {
			for _, roleEntry := range roleEntries {
				if roleEntry.IsDir() {
					continue
				}
				if name, ok := strings.CutSuffix(roleEntry.Name(), ".key"); ok {
					roles = append(roles, name)
				}
			}
			sort.Strings(roles)
		}
		result = append(result, KeyEntry{Identifier: identifier, Roles: roles})
	}
	return result, nil
}
