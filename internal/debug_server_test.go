package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestDebugHandler_ListsEntriesUnderPrefix(t *testing.T) {
	req := require.New(t)

	// Given a store holding two agoras and one membership
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })
	req.NoError(db.Update(func(txn *badger.Txn) error {
		_ = txn.Set([]byte("agora:0000000000000000001"), []byte(`{"id":1}`))
		_ = txn.Set([]byte("agora:0000000000000000002"), []byte(`{"id":2}`))
		return txn.Set([]byte("member:0000000000000000001:0000000000000000007"), []byte("raw"))
	}))
	handler := NewDebugHandler(db, func() map[string]any { return map[string]any{"shards": 2} })

	// When the agoras are inspected
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect", nil))

	// Then only the agora keys are listed with their JSON value
	req.Equal(http.StatusOK, rec.Code)
	var page PageData
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	req.Equal("agora:", page.Prefix)
	req.Len(page.Items, 2)
	req.Equal("agora", page.Items[0].Namespace)
	req.Equal("1", page.Items[0].EntityID)
	req.JSONEq(`{"id":1}`, string(page.Items[0].Value))
	req.EqualValues(2, page.Stats["shards"])

	// When memberships are inspected with a limit
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?prefix=member:&limit=5", nil))
	var members PageData
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &members))

	// Then non JSON values are reported by size only
	req.Len(members.Items, 1)
	req.Equal("7", members.Items[0].EntityID)
	req.Equal(3, members.Items[0].Size)
	req.Nil(members.Items[0].Value)
}

func TestDebugHandler_RejectsBadLimit(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	rec := httptest.NewRecorder()
	NewDebugHandler(db, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/inspect?limit=-1", nil))

	req.Equal(http.StatusBadRequest, rec.Code)
}
