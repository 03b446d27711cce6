package scenario

import (
	"strconv"
	"testing"
)

func parseInt(t *testing.T, s string) int64 {
	t.Helper()
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		t.Fatalf("not an int: %q", s)
	}
	return n
}
