package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
)

const defaultConfig = `# qtsctl configuration
#
# hostname drives automatic environment detection when no environment has
# been chosen with "qtsctl env use" (loopback -> LOCAL, contains "test" -> TEST,
# anything else -> PROD).
# hostname: localhost

timeout: 30s
log_level: warn
login_path: /login
whitelist:
  - /login

# Requests per second sent to the backend; 0 disables throttling.
rate_limit: 0

# Override or add environments:
# environments:
#   test:
#     url: https://test-api.qtsbackend.com
#   staging:
#     name: Staging
#     url: https://staging-api.qtsbackend.com
`

// InitializeStateDir creates the state directory with a default config and
// an empty requests folder the first time it runs. Status lines go to out.
func InitializeStateDir(dir string, out io.Writer) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		fmt.Fprintf(out, "Initializing %s folder for the first time...\n", dir)

		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", dir, err)
		}

		configPath := filepath.Join(dir, ConfigName+".yaml")
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Fprintf(out, "%s folder initialized\n", dir)
	} else if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	// Folders created by older versions may lack requests/.
	return ensureDir(storage.GetRequestsDir(dir))
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return nil
}
