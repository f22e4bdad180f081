package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	addr := key.PubKey().Address()
	encoded := addr.String()
	require.True(t, strings.HasPrefix(encoded, "se1"))

	decoded, err := DecodeAddress(encoded)
	require.NoError(t, err)
	require.True(t, addr.Equal(decoded))
	require.Equal(t, addr.Raw(), decoded.Raw())
}

func TestDecodeAddressRejections(t *testing.T) {
	_, err := DecodeAddress("not-bech32")
	require.Error(t, err)

	// Wrong prefix is rejected even when the payload is well-formed.
	other := NewAddress("nhb", make([]byte, 20))
	_, err = DecodeAddress(other.String())
	require.Error(t, err)
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	restored, err := PrivateKeyFromBytes(key.Bytes())
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().Raw(), restored.PubKey().Address().Raw())
}

func TestTitleHashDeterministic(t *testing.T) {
	doc := []byte("deed of 12 Harbor Lane")
	require.Equal(t, TitleHash(doc), TitleHash(doc))
	require.NotEqual(t, TitleHash(doc), TitleHash([]byte("other deed")))
}
