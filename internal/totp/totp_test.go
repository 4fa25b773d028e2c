package totp

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// base32 of the ASCII secret "12345678901234567890" from RFC 6238 appendix B.
const rfcSeed = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCodeAt_RFC6238Vectors(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, tt := range tests {
		got, err := CodeAt(rfcSeed, time.Unix(tt.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "T=%d", tt.unix)
	}
}

func TestCodeAt_SeedFormattingIgnored(t *testing.T) {
	at := time.Unix(1234567890, 0)
	want, err := CodeAt(rfcSeed, at)
	require.NoError(t, err)

	for _, seed := range []string{
		"gezdgnbvgy3tqojqgezdgnbvgy3tqojq",
		"GEZD GNBV GY3T QOJQ GEZD GNBV GY3T QOJQ",
		"GEZD-GNBV-GY3T-QOJQ-GEZD-GNBV-GY3T-QOJQ",
	} {
		got, err := CodeAt(seed, at)
		require.NoError(t, err)
		assert.Equal(t, want, got, seed)
	}
}

func TestCodeAt_StableWithinStep(t *testing.T) {
	a, err := CodeAt("JBSWY3DPEHPK3PXP", time.Unix(1700000010, 0))
	require.NoError(t, err)
	b, err := CodeAt("JBSWY3DPEHPK3PXP", time.Unix(1700000019, 0))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 6)
}

func TestGenerator_UsesClock(t *testing.T) {
	g := NewGenerator(WithClock(func() time.Time { return time.Unix(59, 0) }))

	code, err := g.Code(rfcSeed)
	require.NoError(t, err)
	assert.Equal(t, "287082", code)
	assert.Equal(t, 1, g.RemainingTime())
}

func TestRemainingAndProgress(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, 10, RemainingTimeAt(at))
	assert.InDelta(t, 66.6667, ProgressAt(at), 0.001)

	start := time.Unix(1700000010, 0)
	assert.Equal(t, 30, RemainingTimeAt(start))
	assert.Equal(t, 0.0, ProgressAt(start))

	g := NewGenerator(WithClock(func() time.Time { return at }))
	assert.Equal(t, 10, g.RemainingTime())
	assert.InDelta(t, 66.6667, g.Progress(), 0.001)
}

func TestValidateSeed(t *testing.T) {
	tests := []struct {
		seed string
		want bool
	}{
		{"JBSWY3DPEHPK3PXP", true},
		{"jbsw y3dp ehpk 3pxp", true},
		{rfcSeed, true},
		{"JBSWY3DPEHPK3PX1", false},
		{"not-base32!!", false},
		{"", false},
		{"A", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSeed(tt.seed), "%q", tt.seed)
	}
}

func TestValidateSeedLength(t *testing.T) {
	assert.NoError(t, ValidateSeedLength("JBSWY3DPEHPK3PXP"))
	assert.NoError(t, ValidateSeedLength("JBSW Y3DP EHPK 3PXP"))
	assert.ErrorIs(t, ValidateSeedLength("JBSWY3DP"), ErrSeedLength)

	long := ""
	for len(long) <= MaxSeedLength {
		long += "A"
	}
	assert.ErrorIs(t, ValidateSeedLength(long), ErrSeedLength)
}

func TestNormalizeSeed(t *testing.T) {
	assert.Equal(t, "JBSWY3DPEHPK3PXP", NormalizeSeed(" jbsw-y3dp ehpk3pxp=="))
}

func TestURI(t *testing.T) {
	raw, err := URI(Params{Seed: "jbsw y3dp-ehpk3pxp", AccountName: "alice@example.com", Issuer: "ACME Co"})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "otpauth", u.Scheme)
	assert.Equal(t, "totp", u.Host)
	assert.Equal(t, "/ACME Co:alice@example.com", u.Path)

	q := u.Query()
	assert.Equal(t, "JBSWY3DPEHPK3PXP", q.Get("secret"))
	assert.Equal(t, "ACME Co", q.Get("issuer"))
	assert.Equal(t, "SHA1", q.Get("algorithm"))
	assert.Equal(t, "6", q.Get("digits"))
	assert.Equal(t, "30", q.Get("period"))

	_, err = URI(Params{Seed: "JBSWY3DPEHPK3PXP"})
	require.ErrorIs(t, err, ErrMissingAccount)

	_, err = URI(Params{Seed: "!!", AccountName: "a"})
	require.ErrorIs(t, err, ErrInvalidSeed)
}
