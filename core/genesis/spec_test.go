package genesis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ebendttl/SwiftEstate/crypto"
)

func testAddress(t *testing.T, fill byte) string {
	t.Helper()
	var raw [20]byte
	for i := range raw {
		raw[i] = fill
	}
	return crypto.EncodeRaw(raw)
}

func TestLoadValidSpec(t *testing.T) {
	admin := testAddress(t, 0xAD)
	buyer := testAddress(t, 0x02)
	path := filepath.Join(t.TempDir(), "genesis.json")
	payload := `{"admin":"` + admin + `","feeBps":250,"alloc":{"` + buyer + `":"5000000"}}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	spec, err := Load(path)
	require.NoError(t, err)

	resolved, err := spec.AdminAddress()
	require.NoError(t, err)
	require.Equal(t, admin, crypto.EncodeRaw(resolved))

	allocs, err := spec.Allocations()
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	require.Equal(t, "5000000", allocs[0].Amount.String())
}

func TestValidateRejections(t *testing.T) {
	admin := testAddress(t, 0xAD)

	require.Error(t, (&Spec{}).Validate())
	require.Error(t, (&Spec{Admin: "not-bech32"}).Validate())

	bad := uint32(10_001)
	require.Error(t, (&Spec{Admin: admin, FeeBps: &bad}).Validate())

	require.Error(t, (&Spec{Admin: admin, Alloc: map[string]string{"nope": "1"}}).Validate())
	require.Error(t, (&Spec{Admin: admin, Alloc: map[string]string{testAddress(t, 0x01): "abc"}}).Validate())

	ok := uint32(250)
	require.NoError(t, (&Spec{Admin: admin, FeeBps: &ok}).Validate())
}

func TestAllocationsDeterministicOrder(t *testing.T) {
	spec := &Spec{
		Admin: testAddress(t, 0xAD),
		Alloc: map[string]string{
			testAddress(t, 0x03): "3",
			testAddress(t, 0x01): "1",
			testAddress(t, 0x02): "2",
		},
	}
	first, err := spec.Allocations()
	require.NoError(t, err)
	second, err := spec.Allocations()
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Len(t, first, 3)
}
