package instance

import (
	"os"
	"strconv"
	"strings"
)

// ID names this process in logs and lock values. The configured id wins;
// otherwise the hostname and pid are used, which is unique per container.
func ID(configured string) string {
	if id := strings.TrimSpace(configured); id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "galata"
	}
	return host + "-" + strconv.Itoa(os.Getpid())
}
