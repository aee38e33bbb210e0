package sqliteutil

import (
	"fmt"
	"net/url"
	"strings"
)

// FileDSN builds a modernc sqlite URI for a file path. Read-only handles use
// mode=ro so a missing file fails instead of being created.
func FileDSN(path string, readOnly bool) string {
	u := url.URL{Scheme: "file", Opaque: (&url.URL{Path: path}).EscapedPath()}
	dsn := u.String()
	if readOnly {
		dsn = addParam(dsn, "mode=ro")
	}
	return dsn
}

// EnsurePragmas appends SQLite pragmas to the DSN when missing.
// It is a no-op for in-memory databases.
func EnsurePragmas(dsn string, journalMode string, busyTimeoutMS int) string {
	if dsn == "" {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:") {
		return dsn
	}
	if journalMode != "" && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, fmt.Sprintf("journal_mode(%s)", journalMode))
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	return addParam(dsn, "_pragma="+pragma)
}

func addParam(dsn, param string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + param
}
