package vault

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"github.com/kmandrev/bybit-cli/internal/crypto"
)

func newTestVault(t *testing.T) (*Vault, sqlmock.Sqlmock, *crypto.Cipher) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cipher, err := crypto.NewCipher("vault-test-passphrase")
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	return &Vault{db: sqlx.NewDb(db, "sqlmock"), cipher: cipher}, mock, cipher
}

func accountColumns() []string {
	return []string{"name", "api_key", "api_secret", "is_default"}
}

func TestAddFirstAccountBecomesDefault(t *testing.T) {
	v, mock, _ := newTestVault(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE name = \?`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("main", "key-1", sqlmock.AnyArg(), 1).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := v.Add("main", "key-1", "secret-1"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAddSubsequentAccountIsNotDefault(t *testing.T) {
	v, mock, _ := newTestVault(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE name = \?`).
		WithArgs("second").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO accounts`).
		WithArgs("second", "key-2", sqlmock.AnyArg(), 0).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := v.Add("second", "key-2", "secret-2"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAddDuplicateName(t *testing.T) {
	v, mock, _ := newTestVault(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE name = \?`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := v.Add("main", "key", "secret")
	if !errors.Is(err, ErrAccountExists) {
		t.Errorf("Add duplicate: got %v, want %v", err, ErrAccountExists)
	}

	// No INSERT may run after the collision is detected.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		wantErr      error
	}{
		{"existing account", 1, nil},
		{"missing account", 0, ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, mock, _ := newTestVault(t)

			mock.ExpectExec(`DELETE FROM accounts WHERE name = \?`).
				WithArgs("main").
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			err := v.Remove("main")
			if tt.wantErr == nil && err != nil {
				t.Errorf("Remove: unexpected error %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Remove: got %v, want %v", err, tt.wantErr)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestSetDefaultIsTransactional(t *testing.T) {
	v, mock, _ := newTestVault(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE name = \?`).
		WithArgs("second").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET is_default = 0`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE accounts SET is_default = 1 WHERE name = \?`).
		WithArgs("second").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := v.SetDefault("second"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSetDefaultMissingAccount(t *testing.T) {
	v, mock, _ := newTestVault(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE name = \?`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := v.SetDefault("ghost")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("SetDefault: got %v, want %v", err, ErrAccountNotFound)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSetDefaultRollsBackOnFailure(t *testing.T) {
	v, mock, _ := newTestVault(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE name = \?`).
		WithArgs("second").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET is_default = 0`).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	if err := v.SetDefault("second"); err == nil {
		t.Error("SetDefault should propagate the update failure")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetAbsentAccount(t *testing.T) {
	v, mock, _ := newTestVault(t)

	mock.ExpectQuery(`SELECT name, api_key, api_secret, is_default FROM accounts WHERE name = \?`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	account, err := v.Get("ghost")
	if err != nil {
		t.Fatalf("Get: unexpected error %v", err)
	}
	if account != nil {
		t.Errorf("Get absent account = %+v, want nil", account)
	}
}

func TestListDecryptsSecrets(t *testing.T) {
	v, mock, cipher := newTestVault(t)

	encrypted, err := cipher.Encrypt("raw-secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	rows := sqlmock.NewRows(accountColumns()).
		AddRow("alpha", "key-a", encrypted, 1).
		AddRow("beta", "key-b", encrypted, 0)
	mock.ExpectQuery(`SELECT name, api_key, api_secret, is_default FROM accounts ORDER BY name`).
		WillReturnRows(rows)

	accounts, err := v.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(accounts) != 2 {
		t.Fatalf("List returned %d accounts, want 2", len(accounts))
	}
	if accounts[0].Name != "alpha" || !accounts[0].IsDefault {
		t.Errorf("first account = %+v, want alpha/default", accounts[0])
	}
	if accounts[0].APISecret != "raw-secret" {
		t.Errorf("secret not decrypted: got %q", accounts[0].APISecret)
	}
}

func TestGetDefaultDecryptFailurePropagates(t *testing.T) {
	v, mock, _ := newTestVault(t)

	other, err := crypto.NewCipher("a-different-passphrase")
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	foreign, err := other.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	mock.ExpectQuery(`SELECT name, api_key, api_secret, is_default FROM accounts WHERE is_default = 1`).
		WillReturnRows(sqlmock.NewRows(accountColumns()).AddRow("main", "key", foreign, 1))

	_, err = v.GetDefault()
	if !errors.Is(err, crypto.ErrDecryptionFailed) {
		t.Errorf("GetDefault with foreign ciphertext: got %v, want %v", err, crypto.ErrDecryptionFailed)
	}
}

func TestMigrateEncryptsOnlyPlaintextRows(t *testing.T) {
	v, mock, cipher := newTestVault(t)

	alreadyEncrypted, err := cipher.Encrypt("old-secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	mock.ExpectQuery(`SELECT name, api_secret FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "api_secret"}).
			AddRow("legacy", "plaintext-secret").
			AddRow("modern", alreadyEncrypted))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE accounts SET api_secret = \? WHERE name = \?`).
		WithArgs(sqlmock.AnyArg(), "legacy").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := v.migrateSecrets(); err != nil {
		t.Fatalf("migrateSecrets failed: %v", err)
	}

	// Only the plaintext row may be rewritten; the encrypted row stays
	// byte-for-byte untouched so repeated opens are idempotent.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestMigrateNoopWhenAllEncrypted(t *testing.T) {
	v, mock, cipher := newTestVault(t)

	encrypted, err := cipher.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	mock.ExpectQuery(`SELECT name, api_secret FROM accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "api_secret"}).
			AddRow("main", encrypted))

	if err := v.migrateSecrets(); err != nil {
		t.Fatalf("migrateSecrets failed: %v", err)
	}

	// No transaction may start when nothing needs rewriting.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAccountJSONNeverContainsSecret(t *testing.T) {
	account := Account{
		Name:      "main",
		APIKey:    "public-key",
		APISecret: "very-secret-value",
		IsDefault: true,
	}

	out, err := jsoniter.MarshalToString(account)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	if strings.Contains(out, "very-secret-value") {
		t.Errorf("serialized account leaks the secret: %s", out)
	}
	if !strings.Contains(out, "public-key") {
		t.Errorf("serialized account should include the api key: %s", out)
	}
}
