package keys

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordKeyShapes(t *testing.T) {
	require.Equal(t, "review:0xabc:scale:repoA", Record("0xAbC", "scale", "repoA"))
	require.Equal(t, "review:0xabc:profile", Record("0xAbC", "profile", ""))
	require.Equal(t, "review:0xabc:scale:_index", Index("0xABC", "scale"))
	require.Equal(t, "review:0xabc:evaluation_plan", Plan("0xAbC"))
	require.Equal(t, "review:0xabc:profile", Profile("0xabc"))
}

func TestNormalizeUser(t *testing.T) {
	require.Equal(t, "0xdeadbeef", NormalizeUser("  0xDeadBeef "))
	// the checksummed and lower-case spellings of a wallet address
	// must address the same keys
	require.Equal(t,
		Record("0xAbCdEf", "scale", "x"),
		Record("0xabcdef", "scale", "x"))
}

func TestValidateItemID(t *testing.T) {
	require.Error(t, ValidateItemID("_index"))
	require.NoError(t, ValidateItemID("repoA"))
	// repository URLs are legal ids even though they contain colons
	require.NoError(t, ValidateItemID("https://github.com/org/repo"))
}
