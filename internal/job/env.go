package job

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// PasswordEnv is the environment variable read when no password is given.
const PasswordEnv = "ADDRLIST_PASSWORD"

// LoadDotEnv loads variables from the .env file at path if it exists.
// Variables already set in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// PasswordFromEnv fills an empty password from ADDRLIST_PASSWORD.
func (j *Job) PasswordFromEnv() {
	if j.Password == "" {
		j.Password = os.Getenv(PasswordEnv)
	}
}
