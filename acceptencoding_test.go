package polyhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAcceptEncodingWeights(t *testing.T) {
	entries := ParseAcceptEncoding("gzip;q=0.5, br;q=0.8, deflate")
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "gzip", entries[0].Name)
		assert.InDelta(t, 0.5, entries[0].Weight, 0.0001)
		assert.Equal(t, "br", entries[1].Name)
		assert.InDelta(t, 0.8, entries[1].Weight, 0.0001)
		assert.Equal(t, "deflate", entries[2].Name)
		assert.InDelta(t, 1.0, entries[2].Weight, 0.0001)
	}
}

func TestSelectEncodingPrefersHighestWeight(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("gzip;q=0.5, br;q=0.8"))
	assert.Equal(t, "br", got)
}

func TestSelectEncodingTieBreaksByOrder(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("gzip, br"))
	assert.Equal(t, "gzip", got)
}

// TestSelectEncodingPlainNameWithoutIdentityMention guards against identity
// implicitly outranking a client's only named, unweighted encoding — spec
// §2 says "identity wins if chosen", which only applies when the client
// actually names identity.
func TestSelectEncodingPlainNameWithoutIdentityMention(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("gzip"))
	assert.Equal(t, "gzip", got)
}

func TestSelectEncodingExplicitIdentityBeatsLowerWeightNamed(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("gzip;q=0.3, identity;q=0.9"))
	assert.Equal(t, "", got)
}

func TestSelectEncodingWildcardResolvesToPreferenceOrder(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("*"))
	assert.Equal(t, "br", got)
}

func TestSelectEncodingWildcardSkipsDisqualified(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("br;q=0, *"))
	assert.Equal(t, "zstd", got)
}

func TestSelectEncodingNeverReturnsUnsupportedName(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("sdch;q=1.0, identity;q=0.1"))
	assert.NotEqual(t, "sdch", got)
}

func TestSelectEncodingEmptyHeaderIsIdentity(t *testing.T) {
	assert.Equal(t, "", SelectEncoding(ParseAcceptEncoding("")))
}

func TestSelectEncodingExplicitIdentityOnly(t *testing.T) {
	got := SelectEncoding(ParseAcceptEncoding("identity"))
	assert.Equal(t, "", got)
}

func TestSelectEncodingDeterministic(t *testing.T) {
	header := "gzip;q=0.9, br;q=0.9, deflate;q=0.1"
	first := SelectEncoding(ParseAcceptEncoding(header))
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, SelectEncoding(ParseAcceptEncoding(header)))
	}
}
