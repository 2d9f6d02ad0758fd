package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	cases := []string{
		"0.1.0",
		"1.4.2-dev.3",
		"1.0.0-rc.1",
		"0.3.0-rc.1+build.2",
		"2.0.0+abc1234",
	}
	for _, s := range cases {
		v, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, v.String())
	}

	for _, s := range []string{"", "1.2", "v1.2.3", "1.2.3.4", "01.2.3", "a.b.c"} {
		_, err := Parse(s)
		assert.ErrorIs(t, err, ErrInvalidVersion, s)
	}
}

func TestBumpCoreResetsLowerFields(t *testing.T) {
	e, err := NewEngine("1.4.2-dev.3")
	require.NoError(t, err)

	require.NoError(t, e.Bump(Major, BumpOptions{}))
	assert.Equal(t, "2.0.0", e.String())

	require.NoError(t, e.Bump(Minor, BumpOptions{}))
	assert.Equal(t, "2.1.0", e.String())

	require.NoError(t, e.Bump(Patch, BumpOptions{}))
	assert.Equal(t, "2.1.1", e.String())
}

func TestBumpCoreWithPreReleaseLabel(t *testing.T) {
	e, err := NewEngine("0.2.0")
	require.NoError(t, err)

	require.NoError(t, e.Bump(Minor, BumpOptions{PreReleaseLabel: "dev"}))
	assert.Equal(t, "0.3.0-dev.1", e.String())
}

func TestBumpPreRelease(t *testing.T) {
	e, err := NewEngine("1.0.0-dev.2")
	require.NoError(t, err)

	require.NoError(t, e.Bump(PreRelease, BumpOptions{PreReleaseLabel: "dev"}))
	assert.Equal(t, "1.0.0-dev.3", e.String())

	// Label switch finalizes first, then restarts the counter.
	require.NoError(t, e.Bump(PreRelease, BumpOptions{PreReleaseLabel: "rc"}))
	assert.Equal(t, "1.0.0-rc.1", e.String())

	require.NoError(t, e.Bump(PreRelease, BumpOptions{PreReleaseLabel: "dev"}))
	assert.Equal(t, "1.0.0-dev.1", e.String())
}

func TestBumpPreReleaseValidation(t *testing.T) {
	e, err := NewEngine("1.0.0")
	require.NoError(t, err)

	err = e.Bump(PreRelease, BumpOptions{PreReleaseLabel: "nightly"})
	assert.ErrorIs(t, err, ErrInvalidPreReleaseLabel)

	err = e.Bump(PreRelease, BumpOptions{})
	assert.ErrorIs(t, err, ErrInvalidPreReleaseLabel)

	err = e.Bump(Severity(42), BumpOptions{})
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}

func TestBumpBuild(t *testing.T) {
	e, err := NewEngine("0.3.0-rc.1")
	require.NoError(t, err)

	err = e.Bump(Build, BumpOptions{})
	assert.ErrorIs(t, err, ErrBuildMetadataMissing)

	require.NoError(t, e.Bump(Build, BumpOptions{BuildMetadata: "meta"}))
	assert.Equal(t, "0.3.0-rc.1+meta.1", e.String())

	require.NoError(t, e.Bump(Build, BumpOptions{BuildMetadata: "meta"}))
	assert.Equal(t, "0.3.0-rc.1+meta.2", e.String())

	// A different token restarts the counter.
	require.NoError(t, e.Bump(Build, BumpOptions{BuildMetadata: "other"}))
	assert.Equal(t, "0.3.0-rc.1+other.1", e.String())

	// Static metadata is set verbatim, overwriting any counter.
	require.NoError(t, e.Bump(Build, BumpOptions{BuildMetadata: "abc1234", StaticBuild: true}))
	assert.Equal(t, "0.3.0-rc.1+abc1234", e.String())
}

func TestFinalizeStripsPreReleaseAndBuild(t *testing.T) {
	e, err := NewEngine("1.2.3-rc.4+meta.1")
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", e.Finalize().String())
	assert.True(t, e.Version().Core())
}

func TestCompareBumps(t *testing.T) {
	cases := []struct {
		previous, requested, effective Severity
	}{
		{NoChange, Minor, Minor},
		{NoChange, Patch, Patch},
		{Patch, Minor, Minor},
		{Minor, Major, Major},
		{Patch, Patch, PreRelease},
		{Major, Minor, PreRelease},
		{PreRelease, Patch, Patch},
		{Build, Build, Build},
		{Build, PreRelease, PreRelease},
	}
	for _, tc := range cases {
		got, err := CompareBumps(tc.previous, tc.requested)
		require.NoError(t, err)
		assert.Equal(t, tc.effective, got, "previous=%s requested=%s", tc.previous, tc.requested)
	}
}

func TestCompareBumpsErrors(t *testing.T) {
	_, err := CompareBumps(Patch, NoChange)
	assert.ErrorIs(t, err, ErrNoChangeRequested)

	_, err = CompareBumps(Severity(-1), Patch)
	assert.ErrorIs(t, err, ErrInvalidSeverity)

	_, err = CompareBumps(Patch, Severity(99))
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}

// Folding any severity sequence through CompareBumps must never regress the
// core version, and once any change has been seen the effective rank never
// falls below PreRelease.
func TestCompareBumpsFoldIsMonotonic(t *testing.T) {
	sequences := [][]Severity{
		{Patch, Patch, Patch},
		{Minor, Patch, Minor, Major},
		{Major, Patch, Patch},
		{Patch, Minor, Minor, Patch},
	}
	for _, seq := range sequences {
		e, err := NewEngine("1.0.0")
		require.NoError(t, err)
		prev := e.Version()
		past := NoChange
		for _, next := range seq {
			eff, err := CompareBumps(past, next)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, eff, PreRelease)
			require.NoError(t, e.Bump(eff, BumpOptions{PreReleaseLabel: "dev"}))
			assert.GreaterOrEqual(t, Compare(e.Version().Finalize(), prev.Finalize()), 0)
			prev = e.Version()
			if !(eff == PreRelease && past > next) {
				past = next
			}
		}
	}
}

func TestParseSeverityRoundTrip(t *testing.T) {
	for _, sev := range []Severity{NoChange, Build, PreRelease, Patch, Minor, Major} {
		got, err := ParseSeverity(sev.String())
		require.NoError(t, err)
		assert.Equal(t, sev, got)
	}

	got, err := ParseSeverity("")
	require.NoError(t, err)
	assert.Equal(t, NoChange, got)

	_, err = ParseSeverity("gigantic")
	assert.ErrorIs(t, err, ErrInvalidSeverity)
}
