package store

import "github.com/btcsuite/btcd/btcec/v2"

// WalletData is what the single-key wallet persists: the private key
// encrypted with the unlock password, the password hash and the plain
// public key.
type WalletData struct {
	EncryptedPrvkey []byte
	PasswordHash    []byte
	PubKey          *btcec.PublicKey
}

type WalletStore interface {
	AddWallet(data WalletData) error
	GetWallet() (*WalletData, error)
}
