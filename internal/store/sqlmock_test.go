package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/valpere/tear/internal"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return newStore(db), mock
}

func TestStore_GetCached_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM translation_memory WHERE").
		WillReturnError(errors.New("disk I/O error"))

	_, found, err := s.GetCached(context.Background(), testKey)
	if err == nil || found {
		t.Errorf("expected query error, got found=%v err=%v", found, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStore_GetCached_BumpsUsage(t *testing.T) {
	s, mock := newMockStore(t)

	// sq.Eq orders its columns by name.
	keyArgs := []driver.Value{"zh-en", "gpt-4", "我们走吧。", "few-shot_few-shot_beta"}

	rows := sqlmock.NewRows([]string{"hypothesis", "correction", "need_correction", "mqm_info", "invalidated", "last_used"}).
		AddRow("Let's go.", "Let's go!", 1, `{"minor": "punctuation"}`, false, time.Now())
	mock.ExpectQuery("SELECT (.+) FROM translation_memory WHERE lang_pair = \\? AND model = \\? AND source_text = \\? AND strategies = \\? LIMIT 1").
		WithArgs(keyArgs...).
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE translation_memory SET usage_count = usage_count \\+ 1, last_used = \\?").
		WithArgs(append([]driver.Value{sqlmock.AnyArg()}, keyArgs...)...).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, found, err := s.GetCached(context.Background(), testKey)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if !res.NeedsCorrection || res.Correction != "Let's go!" || res.Source != testKey.Source {
		t.Errorf("unexpected result %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStore_SaveToMemory_ExecError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT OR REPLACE INTO translation_memory").
		WillReturnError(errors.New("database is locked"))

	err := s.SaveToMemory(context.Background(), testKey, &internal.Result{Hypothesis: "h", Correction: "h"})
	if err == nil {
		t.Error("expected exec error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStore_SaveRun_Args(t *testing.T) {
	s, mock := newMockStore(t)

	run := NewRun("en-de", "qwen2.5:7b", "few-shot_few-shot_beta", "test.en")
	mock.ExpectExec("INSERT INTO runs").
		WithArgs(run.ID, run.LangPair, run.Model, run.Strategies, run.SourceFile, run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.SaveRun(context.Background(), run); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
