// Package apptcache holds session-scoped appointment query results.
package apptcache

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/md-rashed-zaman/salondesk/services/appointment-service/internal/model"
	"golang.org/x/crypto/blake2b"
)

// Key returns appointments_<tenant>_<start>_<end>[_<filterHash>] for a filter.
// The hash suffix appears only when an optional filter is present.
func Key(f model.Filter) string {
	f = f.Normalized()
	key := fmt.Sprintf("appointments_%d_%s_%s", f.TenantID, f.Start.Format(model.DateLayout), f.End.Format(model.DateLayout))
	if !f.HasOptional() {
		return key
	}
	return key + "_" + FilterHash(f)
}

// FilterHash is hex BLAKE2b-256 over the canonical form of the optional filters.
func FilterHash(f model.Filter) string {
	sum := blake2b.Sum256([]byte(canonicalFilters(f.Normalized())))
	return hex.EncodeToString(sum[:])
}

// canonicalFilters renders present optional filters as sorted name=value lines.
// Week and day share the full projection, so only month is encoded.
func canonicalFilters(f model.Filter) string {
	var lines []string
	if f.ViewMode.Compact() {
		lines = append(lines, "view_mode="+string(f.ViewMode))
	}
	if f.StaffID != nil {
		lines = append(lines, "staff_id="+strconv.FormatInt(*f.StaffID, 10))
	}
	if f.Status != "" {
		lines = append(lines, "status="+strconv.Quote(f.Status))
	}
	if f.Search != "" {
		lines = append(lines, "search="+strconv.Quote(strings.ToLower(f.Search)))
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
