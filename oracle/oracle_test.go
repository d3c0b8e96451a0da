package oracle

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func randomKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key
}

func TestAttest(t *testing.T) {
	oracleKey := randomKey(t)
	nonce := randomKey(t)
	msg := []byte("BTCUSD:50000")

	sig, err := Attest(oracleKey, nonce, msg)
	require.NoError(t, err)
	require.Len(t, sig, AttestationSize)

	require.NoError(t, VerifyAttestation(sig, oracleKey.PubKey(), nonce.PubKey(), msg))
	require.Error(t, VerifyAttestation(sig, oracleKey.PubKey(), nonce.PubKey(), []byte("BTCUSD:49999")))
	require.Error(t, VerifyAttestation(sig, randomKey(t).PubKey(), nonce.PubKey(), msg))
	require.Error(t, VerifyAttestation(sig, oracleKey.PubKey(), randomKey(t).PubKey(), msg))

	_, err = Attest(oracleKey, nonce, nil)
	var invalidMsg *InvalidMessageError
	require.ErrorAs(t, err, &invalidMsg)
}

// The s scalar of an attestation must be the discrete log of the
// signature point of its outcome. This is the property the whole CET
// construction rests on.
func TestSignaturePointMatchesAttestation(t *testing.T) {
	oracleKey := randomKey(t)
	nonce := randomKey(t)

	for _, outcome := range [][]byte{
		[]byte("win"), []byte("lose"), []byte("BTCUSD:50000"),
	} {
		sigPoint, err := SignaturePoint(oracleKey.PubKey(), nonce.PubKey(), outcome)
		require.NoError(t, err)

		sig, err := Attest(oracleKey, nonce, outcome)
		require.NoError(t, err)

		noncePk, decryptionKey, err := DecomposeAttestation(sig)
		require.NoError(t, err)
		require.Equal(
			t,
			nonce.PubKey().SerializeCompressed()[1:],
			noncePk.SerializeCompressed()[1:],
		)
		require.Equal(
			t,
			sigPoint.SerializeCompressed(),
			decryptionKey.PubKey().SerializeCompressed(),
		)
	}
}

func TestSignaturePointDiffersPerOutcome(t *testing.T) {
	oracleKey := randomKey(t)
	nonce := randomKey(t)

	winPoint, err := SignaturePoint(oracleKey.PubKey(), nonce.PubKey(), []byte("win"))
	require.NoError(t, err)
	losePoint, err := SignaturePoint(oracleKey.PubKey(), nonce.PubKey(), []byte("lose"))
	require.NoError(t, err)
	require.NotEqual(
		t, winPoint.SerializeCompressed(), losePoint.SerializeCompressed(),
	)

	_, err = SignaturePoint(oracleKey.PubKey(), nonce.PubKey(), nil)
	var invalidMsg *InvalidMessageError
	require.ErrorAs(t, err, &invalidMsg)
}

func TestDecomposeAttestationRejectsGarbage(t *testing.T) {
	_, _, err := DecomposeAttestation(make([]byte, AttestationSize-1))
	require.Error(t, err)

	_, _, err = DecomposeAttestation(make([]byte, AttestationSize))
	require.Error(t, err)
}
