// Package users loads shell accounts from a YAML file. Passwords are stored
// as bcrypt hashes; a user without a hash can be selected freely.
package users

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/Neev4n/linecli/pkg/shell"
)

const BcryptCost = 12

var (
	ErrMissingName = errors.New("users: entry without a name")
	ErrGuestName   = errors.New("users: guest is reserved")
)

// Entry is one account in the users file.
//
//	users:
//	  - name: admin
//	    password_hash: $2a$12$...
//	    prompt: "admin# "
//	    commands: [uptime, users]
type Entry struct {
	Name         string   `yaml:"name"`
	PasswordHash string   `yaml:"password_hash"`
	Prompt       string   `yaml:"prompt"`
	Commands     []string `yaml:"commands"`
}

type File struct {
	Users []Entry `yaml:"users"`
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Load reads and validates a users file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("users: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("users: parse: %w", err)
	}

	for i, e := range f.Users {
		if e.Name == "" {
			return nil, fmt.Errorf("%w (entry %d)", ErrMissingName, i)
		}
		if e.Name == shell.GuestName {
			return nil, fmt.Errorf("%w (entry %d)", ErrGuestName, i)
		}
	}
	return &f, nil
}

// PasswordCheck returns the check the shell runs on "su", or nil when the
// entry has no password.
func (e Entry) PasswordCheck() func(string) bool {
	if e.PasswordHash == "" {
		return nil
	}
	hash := e.PasswordHash
	return func(password string) bool {
		return CheckPassword(password, hash)
	}
}

// Settings converts the entry for shell.AddUser. The prompt defaults to
// "name> ".
func (e Entry) Settings() shell.UserSettings {
	prompt := e.Prompt
	if prompt == "" {
		prompt = e.Name + "> "
	}
	return shell.UserSettings{
		Name:          e.Name,
		PasswordCheck: e.PasswordCheck(),
		Prompt:        prompt,
	}
}
