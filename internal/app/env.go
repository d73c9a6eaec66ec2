package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// LoadEnvFiles loads one or more dotenv files of KEY=VALUE pairs into the
// process environment. Later files override earlier ones and values already
// in the environment. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := gotenv.OverLoad(p); err != nil {
			return fmt.Errorf("load env %s: %w", p, err)
		}
	}
	return nil
}
