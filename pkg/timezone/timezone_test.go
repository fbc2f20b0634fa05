package timezone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{raw: "Sat Aug 12 10:00:00 +0800 2023", expected: "2023-08-12T10:00:00+08:00"},
		{raw: "Fri Aug 11 22:30:00 -0400 2023", expected: "2023-08-12T10:30:00+08:00"},
		{raw: "刚刚", expected: "刚刚"},
		{raw: "", expected: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, Normalize(test.raw), test.raw)
	}
}

func TestNowIsInLocation(t *testing.T) {
	require.Equal(t, Location, Now().Location())
}
