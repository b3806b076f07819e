package asset_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grael-network/graeld/asset"
)

func TestFromStringRoundTrip(t *testing.T) {
	cases := []string{"0.00000", "1.00000", "999.99999", "-5.00001", "1000.00000"}
	for _, c := range cases {
		a, err := asset.FromString(c)
		require.NoError(t, err)
		require.Equal(t, c+" GRAEL", a.String())
	}
}

func TestFromStringRejectsGarbage(t *testing.T) {
	for _, c := range []string{"", "abc", "1.234567", "1.2.3", "-", "."} {
		_, err := asset.FromString(c)
		require.Error(t, err, c)
	}
}

func TestAddOverflow(t *testing.T) {
	a := asset.New(math.MaxInt64)
	_, err := a.Add(asset.New(1))
	require.ErrorIs(t, err, asset.ErrOverflow)
}

func TestSubUnderflow(t *testing.T) {
	a := asset.New(math.MinInt64)
	_, err := a.Sub(asset.New(1))
	require.ErrorIs(t, err, asset.ErrOverflow)
}

func TestMulFixedPoint(t *testing.T) {
	a := asset.MustFromString("2.00000")
	b := asset.MustFromString("3.00000")
	got, err := a.Mul(b)
	require.NoError(t, err)
	require.Equal(t, asset.MustFromString("6.00000"), got)
}

func TestMulOverflow(t *testing.T) {
	a := asset.New(math.MaxInt64)
	_, err := a.Mul(asset.New(math.MaxInt64))
	require.ErrorIs(t, err, asset.ErrOverflow)
}

func TestPow(t *testing.T) {
	base := asset.MustFromString("1.10000")
	got, err := base.Pow(2)
	require.NoError(t, err)
	require.Equal(t, asset.MustFromString("1.21000"), got)

	identity, err := base.Pow(0)
	require.NoError(t, err)
	require.Equal(t, asset.MustFromString("1.00000"), identity)
}

func TestCmp(t *testing.T) {
	require.Equal(t, -1, asset.MustFromString("1.00000").Cmp(asset.MustFromString("2.00000")))
	require.Equal(t, 0, asset.MustFromString("1.00000").Cmp(asset.MustFromString("1.00000")))
	require.Equal(t, 1, asset.MustFromString("2.00000").Cmp(asset.MustFromString("1.00000")))
}
