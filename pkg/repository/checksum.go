package repository

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/matzehuels/mvnfetch/pkg/errors"
)

// ChecksumPolicy decides what happens when a repository publishes no .sha1.
type ChecksumPolicy string

const (
	ChecksumFail   ChecksumPolicy = "fail"   // missing checksum is an error
	ChecksumWarn   ChecksumPolicy = "warn"   // log a warning and accept the bytes
	ChecksumIgnore ChecksumPolicy = "ignore" // accept silently
)

// ParseChecksumPolicy validates a policy name. Empty means warn.
func ParseChecksumPolicy(s string) (ChecksumPolicy, error) {
	switch p := ChecksumPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ChecksumWarn, nil
	case ChecksumFail, ChecksumWarn, ChecksumIgnore:
		return p, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidConfig, "unknown checksum policy %q (want fail, warn or ignore)", s)
	}
}

// SHA1 returns the lowercase hex SHA-1 of data.
func SHA1(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// parseChecksumFile extracts the digest from a .sha1 file. Some repositories
// append the file name ("<hash>  name.jar"), so only the first field counts.
func parseChecksumFile(data []byte) (string, bool) {
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", false
	}
	sum := strings.ToLower(fields[0])
	if len(sum) != 40 {
		return "", false
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return "", false
	}
	return sum, true
}
