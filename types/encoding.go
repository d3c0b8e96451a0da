package types

import (
	"bytes"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/tlv"
)

const (
	versionContractIDType tlv.Type = 1
	versionNumberType     tlv.Type = 2
	versionCommitTxidType tlv.Type = 3
	versionMakerRevType   tlv.Type = 4
	versionMakerPubType   tlv.Type = 5
	versionTakerRevType   tlv.Type = 6
	versionTakerPubType   tlv.Type = 7
	versionRevokedType    tlv.Type = 8
	versionSecretType     tlv.Type = 9
	versionCreatedAtType  tlv.Type = 10
)

// EncodeTlv serializes the version for exchange with the counterparty
// during a rollover. The same encoding is reused by the file store.
func (v *ContractVersion) EncodeTlv() ([]byte, error) {
	contractID := []byte(v.ContractID)
	commitTxid := []byte(v.CommitTxid)
	revoked := uint8(0)
	if v.Revoked {
		revoked = 1
	}
	createdAt := uint64(v.CreatedAt.Unix())

	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(versionContractIDType, &contractID),
		tlv.MakePrimitiveRecord(versionNumberType, &v.Number),
		tlv.MakePrimitiveRecord(versionCommitTxidType, &commitTxid),
		tlv.MakePrimitiveRecord(versionMakerRevType, &v.MakerRevocationPk),
		tlv.MakePrimitiveRecord(versionMakerPubType, &v.MakerPublishPk),
		tlv.MakePrimitiveRecord(versionTakerRevType, &v.TakerRevocationPk),
		tlv.MakePrimitiveRecord(versionTakerPubType, &v.TakerPublishPk),
		tlv.MakePrimitiveRecord(versionRevokedType, &revoked),
		tlv.MakePrimitiveRecord(versionSecretType, &v.RevocationSecret),
		tlv.MakePrimitiveRecord(versionCreatedAtType, &createdAt),
	)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := stream.Encode(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (v *ContractVersion) DecodeTlv(b []byte) error {
	var (
		contractID []byte
		commitTxid []byte
		revoked    uint8
		createdAt  uint64
	)

	stream, err := tlv.NewStream(
		tlv.MakePrimitiveRecord(versionContractIDType, &contractID),
		tlv.MakePrimitiveRecord(versionNumberType, &v.Number),
		tlv.MakePrimitiveRecord(versionCommitTxidType, &commitTxid),
		tlv.MakePrimitiveRecord(versionMakerRevType, &v.MakerRevocationPk),
		tlv.MakePrimitiveRecord(versionMakerPubType, &v.MakerPublishPk),
		tlv.MakePrimitiveRecord(versionTakerRevType, &v.TakerRevocationPk),
		tlv.MakePrimitiveRecord(versionTakerPubType, &v.TakerPublishPk),
		tlv.MakePrimitiveRecord(versionRevokedType, &revoked),
		tlv.MakePrimitiveRecord(versionSecretType, &v.RevocationSecret),
		tlv.MakePrimitiveRecord(versionCreatedAtType, &createdAt),
	)
	if err != nil {
		return err
	}

	if err := stream.Decode(bytes.NewReader(b)); err != nil {
		return fmt.Errorf("failed to decode contract version: %s", err)
	}

	v.ContractID = string(contractID)
	v.CommitTxid = string(commitTxid)
	v.Revoked = revoked == 1
	v.CreatedAt = time.Unix(int64(createdAt), 0)

	return nil
}
