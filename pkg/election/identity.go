package election

import (
	"fmt"
	"os"
)

// identityPrefix is the compile-time constant naming the embedding
// framework.
const identityPrefix = "nestjs"

// Identity computes this participant's stable holder identity,
// "<prefix>-<hostname>". hostname is the value os.Hostname reports at
// each call; two replicas sharing a hostname are a deployment error and
// out of scope for this package to detect.
func Identity() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to read hostname: %w", err)
	}
	return fmt.Sprintf("%s-%s", identityPrefix, hostname), nil
}
