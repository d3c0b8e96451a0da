package adaptor

import (
	"crypto/rand"
	"crypto/sha256"
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

func randomDigest(t *testing.T) []byte {
	t.Helper()
	var buf [32]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	digest := sha256.Sum256(buf[:])
	return digest[:]
}

func TestEncryptVerifyDecrypt(t *testing.T) {
	signer := randomKey(t)
	decryptionKey := randomKey(t)
	encryptionPoint := decryptionKey.PubKey()
	msgHash := randomDigest(t)

	encSig, err := Encrypt(signer, encryptionPoint, msgHash)
	require.NoError(t, err)

	require.NoError(t, encSig.Verify(signer.PubKey(), encryptionPoint, msgHash))

	// Verification is bound to the signer, the encryption point and the
	// message.
	require.Error(t, encSig.Verify(randomKey(t).PubKey(), encryptionPoint, msgHash))
	require.Error(t, encSig.Verify(signer.PubKey(), randomKey(t).PubKey(), msgHash))
	require.Error(t, encSig.Verify(signer.PubKey(), encryptionPoint, randomDigest(t)))

	sig, err := encSig.Decrypt(decryptionKey)
	require.NoError(t, err)
	require.True(t, sig.Verify(msgHash, signer.PubKey()))

	// Decrypting with an unrelated key yields garbage.
	wrongSig, err := encSig.Decrypt(randomKey(t))
	require.NoError(t, err)
	require.False(t, wrongSig.Verify(msgHash, signer.PubKey()))
}

func TestRecover(t *testing.T) {
	signer := randomKey(t)
	decryptionKey := randomKey(t)
	encryptionPoint := decryptionKey.PubKey()
	msgHash := randomDigest(t)

	encSig, err := Encrypt(signer, encryptionPoint, msgHash)
	require.NoError(t, err)

	sig, err := encSig.Decrypt(decryptionKey)
	require.NoError(t, err)

	recovered, err := encSig.Recover(sig, encryptionPoint)
	require.NoError(t, err)
	require.Equal(t, decryptionKey.Serialize(), recovered.Serialize())

	// A signature decrypted from another adaptor signature does not
	// reveal this one's key.
	otherEncSig, err := Encrypt(signer, randomKey(t).PubKey(), randomDigest(t))
	require.NoError(t, err)
	otherSig, err := otherEncSig.Decrypt(randomKey(t))
	require.NoError(t, err)
	_, err = encSig.Recover(otherSig, encryptionPoint)
	require.Error(t, err)
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	signer := randomKey(t)
	encryptionPoint := randomKey(t).PubKey()
	msgHash := randomDigest(t)

	encSig, err := Encrypt(signer, encryptionPoint, msgHash)
	require.NoError(t, err)

	var one btcec.ModNScalar
	one.SetInt(1)

	tampered := *encSig
	tampered.Proof.Z.Add(&one)
	require.Error(t, tampered.Verify(signer.PubKey(), encryptionPoint, msgHash))

	tampered = *encSig
	tampered.SPrime.Add(&one)
	require.Error(t, tampered.Verify(signer.PubKey(), encryptionPoint, msgHash))
}

func TestSerializeParse(t *testing.T) {
	signer := randomKey(t)
	encryptionPoint := randomKey(t).PubKey()
	msgHash := randomDigest(t)

	encSig, err := Encrypt(signer, encryptionPoint, msgHash)
	require.NoError(t, err)

	buf := encSig.Serialize()
	require.Len(t, buf, SignatureSize)

	parsed, err := ParseSignature(buf)
	require.NoError(t, err)
	require.Equal(t, buf, parsed.Serialize())
	require.NoError(t, parsed.Verify(signer.PubKey(), encryptionPoint, msgHash))

	_, err = ParseSignature(buf[:SignatureSize-1])
	require.Error(t, err)
}

func TestEncryptRejectsBadDigest(t *testing.T) {
	_, err := Encrypt(randomKey(t), randomKey(t).PubKey(), []byte("short"))
	var encodingErr *InvalidMessageEncodingError
	require.ErrorAs(t, err, &encodingErr)
}
