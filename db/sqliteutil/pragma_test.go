package sqliteutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/a.h5", FileDSN("/tmp/a.h5", false))
	assert.Equal(t, "file:/tmp/a.h5?mode=ro", FileDSN("/tmp/a.h5", true))
	assert.Equal(t, "file:/tmp/a%3Fb.h5", FileDSN("/tmp/a?b.h5", false))
}

func TestEnsurePragmas(t *testing.T) {
	var testCases = []struct {
		description string
		dsn         string
		journal     string
		busy        int
		expect      string
	}{
		{description: "both", dsn: "file:/x", journal: "DELETE", busy: 5000, expect: "file:/x?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)"},
		{description: "existing query", dsn: "file:/x?mode=ro", busy: 10, expect: "file:/x?mode=ro&_pragma=busy_timeout(10)"},
		{description: "already set", dsn: "file:/x?_pragma=busy_timeout(1)", busy: 10, expect: "file:/x?_pragma=busy_timeout(1)"},
		{description: "memory", dsn: ":memory:", journal: "WAL", busy: 10, expect: ":memory:"},
		{description: "empty", dsn: "", busy: 10, expect: ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, EnsurePragmas(testCase.dsn, testCase.journal, testCase.busy))
		})
	}
}
