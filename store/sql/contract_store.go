package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cfd-protocol/go-sdk/types"
	log "github.com/sirupsen/logrus"
)

type contractRepository struct {
	db      *sql.DB
	lock    *sync.Mutex
	eventCh chan types.ContractEvent
}

func NewContractStore(db *sql.DB) types.ContractStore {
	return &contractRepository{
		db:      db,
		lock:    &sync.Mutex{},
		eventCh: make(chan types.ContractEvent, 100),
	}
}

func (r *contractRepository) AddContracts(
	ctx context.Context, contracts []types.Contract,
) (int, error) {
	addedContracts := make([]types.Contract, 0, len(contracts))
	txBody := func(tx *sql.Tx) error {
		for _, contract := range contracts {
			res, err := tx.ExecContext(
				ctx,
				`INSERT INTO contract (
					id, maker_pk, taker_pk, lock_txid, lock_amount,
					refund_after, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING`,
				contract.ID, contract.MakerPk, contract.TakerPk,
				contract.LockTxid, int64(contract.LockAmount),
				int64(contract.RefundAfter), unixOrZero(contract.CreatedAt),
			)
			if err != nil {
				return err
			}
			if count, err := res.RowsAffected(); err == nil && count > 0 {
				addedContracts = append(addedContracts, contract)
			}
		}
		return nil
	}
	if err := execTx(r.db, txBody); err != nil {
		return -1, err
	}

	if len(addedContracts) > 0 {
		go r.sendEvent(types.ContractEvent{
			Type: types.ContractsAdded, Contracts: addedContracts,
		})
	}

	return len(addedContracts), nil
}

func (r *contractRepository) GetContract(
	ctx context.Context, id string,
) (*types.Contract, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, maker_pk, taker_pk, lock_txid, lock_amount,
			refund_after, created_at
		FROM contract WHERE id = ?`,
		id,
	)
	contract, err := scanContract(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return contract, nil
}

func (r *contractRepository) GetAllContracts(
	ctx context.Context,
) ([]types.Contract, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, maker_pk, taker_pk, lock_txid, lock_amount,
			refund_after, created_at
		FROM contract ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer rows.Close()

	var contracts []types.Contract
	for rows.Next() {
		contract, err := scanContract(rows.Scan)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *contract)
	}
	return contracts, rows.Err()
}

func (r *contractRepository) AddVersions(
	ctx context.Context, versions []types.ContractVersion,
) (int, error) {
	addedVersions := make([]types.ContractVersion, 0, len(versions))
	txBody := func(tx *sql.Tx) error {
		for _, version := range versions {
			if version.CreatedAt.IsZero() {
				version.CreatedAt = time.Now()
			}
			res, err := tx.ExecContext(
				ctx,
				`INSERT INTO contract_version (
					contract_id, number, commit_txid,
					maker_revocation_pk, maker_publish_pk,
					taker_revocation_pk, taker_publish_pk,
					revoked, revocation_secret, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(contract_id, number) DO NOTHING`,
				version.ContractID, int64(version.Number), version.CommitTxid,
				version.MakerRevocationPk, version.MakerPublishPk,
				version.TakerRevocationPk, version.TakerPublishPk,
				version.Revoked, version.RevocationSecret,
				unixOrZero(version.CreatedAt),
			)
			if err != nil {
				return err
			}
			if count, err := res.RowsAffected(); err == nil && count > 0 {
				addedVersions = append(addedVersions, version)
			}
		}
		return nil
	}
	if err := execTx(r.db, txBody); err != nil {
		return -1, err
	}

	if len(addedVersions) > 0 {
		go r.sendEvent(types.ContractEvent{
			Type: types.ContractVersionsAdded, Versions: addedVersions,
		})
	}

	return len(addedVersions), nil
}

func (r *contractRepository) RevokeVersions(
	ctx context.Context, secrets map[string][]byte,
) (int, error) {
	revokedVersions := make([]types.ContractVersion, 0, len(secrets))
	txBody := func(tx *sql.Tx) error {
		for key, secret := range secrets {
			contractID, number, ok := splitVersionKey(key)
			if !ok {
				continue
			}
			res, err := tx.ExecContext(
				ctx,
				`UPDATE contract_version SET revoked = true, revocation_secret = ?
				WHERE contract_id = ? AND number = ? AND revoked = false`,
				secret, contractID, number,
			)
			if err != nil {
				return err
			}
			count, err := res.RowsAffected()
			if err != nil || count <= 0 {
				continue
			}

			row := tx.QueryRowContext(
				ctx,
				`SELECT contract_id, number, commit_txid,
					maker_revocation_pk, maker_publish_pk,
					taker_revocation_pk, taker_publish_pk,
					revoked, revocation_secret, created_at
				FROM contract_version WHERE contract_id = ? AND number = ?`,
				contractID, number,
			)
			version, err := scanVersion(row.Scan)
			if err != nil {
				return err
			}
			revokedVersions = append(revokedVersions, *version)
		}
		return nil
	}
	if err := execTx(r.db, txBody); err != nil {
		return -1, err
	}

	if len(revokedVersions) > 0 {
		go r.sendEvent(types.ContractEvent{
			Type: types.ContractVersionsRevoked, Versions: revokedVersions,
		})
	}

	return len(revokedVersions), nil
}

func (r *contractRepository) GetCurrentVersion(
	ctx context.Context, contractID string,
) (*types.ContractVersion, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT contract_id, number, commit_txid,
			maker_revocation_pk, maker_publish_pk,
			taker_revocation_pk, taker_publish_pk,
			revoked, revocation_secret, created_at
		FROM contract_version WHERE contract_id = ?
		ORDER BY number DESC LIMIT 1`,
		contractID,
	)
	version, err := scanVersion(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return version, nil
}

func (r *contractRepository) GetVersions(
	ctx context.Context, contractID string,
) ([]types.ContractVersion, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT contract_id, number, commit_txid,
			maker_revocation_pk, maker_publish_pk,
			taker_revocation_pk, taker_publish_pk,
			revoked, revocation_secret, created_at
		FROM contract_version WHERE contract_id = ? ORDER BY number ASC`,
		contractID,
	)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer rows.Close()

	var versions []types.ContractVersion
	for rows.Next() {
		version, err := scanVersion(rows.Scan)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *version)
	}
	return versions, rows.Err()
}

func (r *contractRepository) Clean(ctx context.Context) error {
	txBody := func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contract_version`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM contract`)
		return err
	}
	return execTx(r.db, txBody)
}

func (r *contractRepository) GetEventChannel() <-chan types.ContractEvent {
	return r.eventCh
}

func (r *contractRepository) Close() {
	if err := r.db.Close(); err != nil {
		log.Debugf("error on closing db: %s", err)
	}
}

func (r *contractRepository) sendEvent(event types.ContractEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	select {
	case r.eventCh <- event:
		return
	default:
		time.Sleep(100 * time.Millisecond)
	}
}

func scanContract(scan func(dest ...any) error) (*types.Contract, error) {
	var contract types.Contract
	var lockAmount, refundAfter, createdAt int64
	if err := scan(
		&contract.ID, &contract.MakerPk, &contract.TakerPk,
		&contract.LockTxid, &lockAmount, &refundAfter, &createdAt,
	); err != nil {
		return nil, err
	}
	contract.LockAmount = uint64(lockAmount)
	contract.RefundAfter = uint32(refundAfter)
	if createdAt > 0 {
		contract.CreatedAt = time.Unix(createdAt, 0)
	}
	return &contract, nil
}

func scanVersion(scan func(dest ...any) error) (*types.ContractVersion, error) {
	var version types.ContractVersion
	var number, createdAt int64
	if err := scan(
		&version.ContractID, &number, &version.CommitTxid,
		&version.MakerRevocationPk, &version.MakerPublishPk,
		&version.TakerRevocationPk, &version.TakerPublishPk,
		&version.Revoked, &version.RevocationSecret, &createdAt,
	); err != nil {
		return nil, err
	}
	version.Number = uint32(number)
	if createdAt > 0 {
		version.CreatedAt = time.Unix(createdAt, 0)
	}
	return &version, nil
}

func splitVersionKey(key string) (string, int64, bool) {
	index := strings.LastIndex(key, ":")
	if index < 0 {
		return "", 0, false
	}
	number, err := strconv.ParseInt(key[index+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return key[:index], number, true
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
