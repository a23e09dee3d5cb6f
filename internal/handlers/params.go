package handlers

import (
	"net/http"
	"strconv"
)

// parsePathID reads a numeric path value from a Go 1.22 route pattern
func parsePathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
