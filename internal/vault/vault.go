// Package vault stores named API credential sets in a local SQLite database.
// Secrets are encrypted at rest; plaintext rows written by older versions are
// upgraded in place when the vault is opened.
package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/kmandrev/bybit-cli/internal/crypto"
)

const dbFilename = "accounts.db"

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS accounts (
		name TEXT PRIMARY KEY,
		api_key TEXT NOT NULL,
		api_secret TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0
	)`

var (
	ErrAccountExists   = errors.New("account already exists")
	ErrAccountNotFound = errors.New("account not found")
)

// Account is one named credential set. The secret is decrypted on read and
// excluded from JSON serialization.
type Account struct {
	Name      string `json:"name"`
	APIKey    string `json:"apiKey"`
	APISecret string `json:"-"`
	IsDefault bool   `json:"isDefault"`
}

type accountRow struct {
	Name      string `db:"name"`
	APIKey    string `db:"api_key"`
	APISecret string `db:"api_secret"`
	IsDefault int    `db:"is_default"`
}

// Vault owns the accounts database between Open and Close. A single local
// process is assumed to hold it at a time.
type Vault struct {
	db     *sqlx.DB
	cipher *crypto.Cipher
}

// Open opens (creating if absent) the accounts database under dataDir,
// ensures the schema exists and upgrades any plaintext secrets left by
// older versions. Callers must Close the returned vault.
func Open(dataDir string, cipher *crypto.Cipher) (*Vault, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sqlx.Connect("sqlite", filepath.Join(dataDir, dbFilename))
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create accounts table: %w", err)
	}

	v := &Vault{db: db, cipher: cipher}

	if err := v.migrateSecrets(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate stored secrets: %w", err)
	}

	return v, nil
}

// List returns all accounts ordered by name, secrets decrypted.
func (v *Vault) List() ([]Account, error) {
	var rows []accountRow
	err := v.db.Select(&rows, `SELECT name, api_key, api_secret, is_default FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}

	accounts := make([]Account, 0, len(rows))
	for _, row := range rows {
		account, err := v.rowToAccount(row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

// Add inserts a new account. The first account ever added becomes the
// default. Fails with ErrAccountExists on a case-sensitive name collision.
func (v *Vault) Add(name, apiKey, apiSecret string) error {
	var count int
	if err := v.db.Get(&count, `SELECT COUNT(*) FROM accounts WHERE name = ?`, name); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("account %q: %w", name, ErrAccountExists)
	}

	var total int
	if err := v.db.Get(&total, `SELECT COUNT(*) FROM accounts`); err != nil {
		return err
	}

	isDefault := 0
	if total == 0 {
		isDefault = 1
	}

	encrypted, err := v.cipher.Encrypt(apiSecret)
	if err != nil {
		return err
	}

	_, err = v.db.Exec(
		`INSERT INTO accounts (name, api_key, api_secret, is_default) VALUES (?, ?, ?, ?)`,
		name, apiKey, encrypted, isDefault,
	)
	return err
}

// Remove deletes the named account. When the removed account was the default,
// no replacement is promoted: the caller must pick a new default explicitly.
func (v *Vault) Remove(name string) error {
	result, err := v.db.Exec(`DELETE FROM accounts WHERE name = ?`, name)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("account %q: %w", name, ErrAccountNotFound)
	}

	return nil
}

// Get returns the named account, or nil when it does not exist.
func (v *Vault) Get(name string) (*Account, error) {
	var row accountRow
	err := v.db.Get(&row, `SELECT name, api_key, api_secret, is_default FROM accounts WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	account, err := v.rowToAccount(row)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetDefault returns the account marked as default, or nil when none is.
func (v *Vault) GetDefault() (*Account, error) {
	var row accountRow
	err := v.db.Get(&row, `SELECT name, api_key, api_secret, is_default FROM accounts WHERE is_default = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	account, err := v.rowToAccount(row)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// SetDefault marks the named account as the default. The clear-then-set runs
// inside one transaction so a reader never observes two defaults or none.
func (v *Vault) SetDefault(name string) error {
	var count int
	if err := v.db.Get(&count, `SELECT COUNT(*) FROM accounts WHERE name = ?`, name); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("account %q: %w", name, ErrAccountNotFound)
	}

	tx, err := v.db.Beginx()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE accounts SET is_default = 0`); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`UPDATE accounts SET is_default = 1 WHERE name = ?`, name); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// Close releases the database handle.
func (v *Vault) Close() error {
	return v.db.Close()
}

func (v *Vault) rowToAccount(row accountRow) (Account, error) {
	secret, err := v.cipher.Decrypt(row.APISecret)
	if err != nil {
		return Account{}, fmt.Errorf("account %q: %w", row.Name, err)
	}

	return Account{
		Name:      row.Name,
		APIKey:    row.APIKey,
		APISecret: secret,
		IsDefault: row.IsDefault == 1,
	}, nil
}

// migrateSecrets encrypts every plaintext secret in place. Rows that are
// already encrypted are left untouched byte-for-byte, so repeated opens are
// idempotent and do not churn ciphertext.
func (v *Vault) migrateSecrets() error {
	var rows []struct {
		Name      string `db:"name"`
		APISecret string `db:"api_secret"`
	}
	if err := v.db.Select(&rows, `SELECT name, api_secret FROM accounts`); err != nil {
		return err
	}

	var pending []struct{ name, secret string }
	for _, row := range rows {
		if crypto.IsEncrypted(row.APISecret) {
			continue
		}
		encrypted, err := v.cipher.Encrypt(row.APISecret)
		if err != nil {
			return err
		}
		pending = append(pending, struct{ name, secret string }{row.Name, encrypted})
	}

	if len(pending) == 0 {
		return nil
	}

	tx, err := v.db.Beginx()
	if err != nil {
		return err
	}

	for _, p := range pending {
		if _, err := tx.Exec(`UPDATE accounts SET api_secret = ? WHERE name = ?`, p.secret, p.name); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
