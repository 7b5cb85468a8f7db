package resource

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hodei/pipelines/pkg/types"
)

// NewID returns a fresh opaque identifier
func NewID() string {
	return uuid.New().String()
}

// NewToken returns a fresh bearer token for one execution session.
func NewToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(buf)
}

// memory suffix multipliers (binary units)
const (
	kib = int64(1) << 10
	mib = int64(1) << 20
	gib = int64(1) << 30
	tib = int64(1) << 40
)

// ParseCPU parses a canonical CPU string into millicores.
// "<n>m" means millicores, a bare number means whole cores.
// "0" and "0m" both parse to zero.
func ParseCPU(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &types.ValidationError{Field: "cpu", Reason: "must not be empty"}
	}

	if strings.HasSuffix(s, "m") {
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "m"), 10, 64)
		if err != nil || n < 0 {
			return 0, &types.ValidationError{Field: "cpu", Reason: fmt.Sprintf("invalid millicore value %q", s)}
		}
		return n, nil
	}

	cores, err := strconv.ParseFloat(s, 64)
	if err != nil || cores < 0 {
		return 0, &types.ValidationError{Field: "cpu", Reason: fmt.Sprintf("invalid core value %q", s)}
	}
	return int64(cores * 1000), nil
}

// FormatCPU renders millicores in canonical form: whole cores as "<n>",
// fractional as "<n>m".
func FormatCPU(millis int64) string {
	if millis%1000 == 0 {
		return strconv.FormatInt(millis/1000, 10)
	}
	return strconv.FormatInt(millis, 10) + "m"
}

// ParseMemory parses a memory string into bytes. Accepts Ki|Mi|Gi|Ti
// suffixes and unit-less byte counts. Unknown suffixes are rejected.
func ParseMemory(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &types.ValidationError{Field: "memory", Reason: "must not be empty"}
	}

	mult := int64(1)
	num := s
	switch {
	case strings.HasSuffix(s, "Ki"):
		mult, num = kib, strings.TrimSuffix(s, "Ki")
	case strings.HasSuffix(s, "Mi"):
		mult, num = mib, strings.TrimSuffix(s, "Mi")
	case strings.HasSuffix(s, "Gi"):
		mult, num = gib, strings.TrimSuffix(s, "Gi")
	case strings.HasSuffix(s, "Ti"):
		mult, num = tib, strings.TrimSuffix(s, "Ti")
	}

	n, err := strconv.ParseInt(num, 10, 64)
	if err != nil || n < 0 {
		return 0, &types.ValidationError{Field: "memory", Reason: fmt.Sprintf("invalid memory value %q", s)}
	}
	return n * mult, nil
}

// FormatMemory renders bytes with the largest exact binary suffix
func FormatMemory(bytes int64) string {
	switch {
	case bytes >= tib && bytes%tib == 0:
		return strconv.FormatInt(bytes/tib, 10) + "Ti"
	case bytes >= gib && bytes%gib == 0:
		return strconv.FormatInt(bytes/gib, 10) + "Gi"
	case bytes >= mib && bytes%mib == 0:
		return strconv.FormatInt(bytes/mib, 10) + "Mi"
	case bytes >= kib && bytes%kib == 0:
		return strconv.FormatInt(bytes/kib, 10) + "Ki"
	default:
		return strconv.FormatInt(bytes, 10)
	}
}

// CompareVersions compares two dotted version strings component by
// component. Returns -1, 0 or 1. Non-numeric components compare
// lexicographically.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		var ac, bc string
		if i < len(as) {
			ac = as[i]
		}
		if i < len(bs) {
			bc = bs[i]
		}

		ai, aerr := strconv.Atoi(ac)
		bi, berr := strconv.Atoi(bc)
		if aerr == nil && berr == nil {
			if ai != bi {
				if ai < bi {
					return -1
				}
				return 1
			}
			continue
		}
		if ac != bc {
			if ac < bc {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ValidatePoolName enforces DNS-1123 label rules: lowercase alphanumerics
// and hyphens, must start and end alphanumeric, at most 63 characters.
func ValidatePoolName(name string) error {
	if name == "" || len(name) > 63 {
		return &types.ValidationError{Field: "name", Reason: "must be 1-63 characters"}
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-':
			if i == 0 || i == len(name)-1 {
				return &types.ValidationError{Field: "name", Reason: "must start and end with an alphanumeric character"}
			}
		default:
			return &types.ValidationError{Field: "name", Reason: fmt.Sprintf("invalid character %q", c)}
		}
	}
	return nil
}
