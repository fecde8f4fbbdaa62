package repositories

import (
	"agora/domain/agora"
	"agora/errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// SessionTx exposes one agora and its memberships inside a single badger
// transaction. Everything done through it commits or fails together.
type SessionTx interface {
	Agora() (agora.Agora, error)
	SaveAgora(a agora.Agora) error
	Membership(userID agora.UserID) (agora.Membership, error)
	SaveMembership(m agora.Membership) error
	CountMemberships() (int, error)
}

type IAgoraRepository interface {
	Create(a agora.Agora) (agora.Agora, error)
	Get(id agora.ID) (agora.Agora, error)
	List() ([]agora.Agora, error)
	ListByStatus(status agora.Status) ([]agora.Agora, error)
	InSession(id agora.ID, fn func(tx SessionTx) error) error
	NextMembershipID() (int64, error)
	Membership(id agora.ID, userID agora.UserID) (agora.Membership, error)
	Memberships(id agora.ID) ([]agora.Membership, error)
	CountMemberships(id agora.ID) (int, error)
}

type AgoraRepository struct {
	db            *badger.DB
	log           *slog.Logger
	agoraSeq      *badger.Sequence
	membershipSeq *badger.Sequence
}

func NewAgoraRepository(db *badger.DB, log *slog.Logger) (*AgoraRepository, error) {
	agoraSeq, err := db.GetSequence([]byte("seq:agora"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("agora sequence: %w", err)
	}
	membershipSeq, err := db.GetSequence([]byte("seq:member"), sequenceBandwidth)
	if err != nil {
		_ = agoraSeq.Release()
		return nil, fmt.Errorf("membership sequence: %w", err)
	}
	return &AgoraRepository{db: db, log: log, agoraSeq: agoraSeq, membershipSeq: membershipSeq}, nil
}

// Close hands the unused leased ids back to badger.
func (r *AgoraRepository) Close() error {
	if err := r.agoraSeq.Release(); err != nil {
		return err
	}
	return r.membershipSeq.Release()
}

// Create assigns the next agora id and persists the agora.
func (r *AgoraRepository) Create(a agora.Agora) (agora.Agora, error) {
	id, err := nextID(r.agoraSeq)
	if err != nil {
		return agora.Agora{}, err
	}
	a.ID = agora.ID(id)
	err = r.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, agoraKey(a.ID), a)
	})
	if err != nil {
		return agora.Agora{}, err
	}
	return a, nil
}

func (r *AgoraRepository) Get(id agora.ID) (agora.Agora, error) {
	var a agora.Agora
	err := r.db.View(func(txn *badger.Txn) error {
		return readAgora(txn, id, &a)
	})
	return a, err
}

func (r *AgoraRepository) List() ([]agora.Agora, error) {
	var res []agora.Agora
	err := r.db.View(func(txn *badger.Txn) (err error) {
		res, err = scanJSON[agora.Agora](txn, []byte("agora:"))
		return err
	})
	return res, err
}

func (r *AgoraRepository) ListByStatus(status agora.Status) ([]agora.Agora, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	var res []agora.Agora
	for _, a := range all {
		if a.Status == status {
			res = append(res, a)
		}
	}
	return res, nil
}

// InSession runs fn against agora id in one read-write transaction.
// Conflicts with concurrent transactions replay fn from scratch, so fn must
// only act through tx.
func (r *AgoraRepository) InSession(id agora.ID, fn func(tx SessionTx) error) error {
	return updateWithRetry(r.db, func(txn *badger.Txn) error {
		return fn(&sessionTx{txn: txn, id: id})
	})
}

func (r *AgoraRepository) NextMembershipID() (int64, error) {
	return nextID(r.membershipSeq)
}

func (r *AgoraRepository) Membership(id agora.ID, userID agora.UserID) (agora.Membership, error) {
	var m agora.Membership
	err := r.db.View(func(txn *badger.Txn) error {
		return readMembership(txn, id, userID, &m)
	})
	return m, err
}

func (r *AgoraRepository) Memberships(id agora.ID) ([]agora.Membership, error) {
	var res []agora.Membership
	err := r.db.View(func(txn *badger.Txn) (err error) {
		res, err = scanJSON[agora.Membership](txn, membershipPrefix(id))
		return err
	})
	return res, err
}

func (r *AgoraRepository) CountMemberships(id agora.ID) (int, error) {
	var count int
	err := r.db.View(func(txn *badger.Txn) error {
		count = countPrefix(txn, membershipPrefix(id))
		return nil
	})
	return count, err
}

type sessionTx struct {
	txn *badger.Txn
	id  agora.ID
}

func (s *sessionTx) Agora() (agora.Agora, error) {
	var a agora.Agora
	err := readAgora(s.txn, s.id, &a)
	return a, err
}

func (s *sessionTx) SaveAgora(a agora.Agora) error {
	if a.ID != s.id {
		return fmt.Errorf("agora %d saved in the session of agora %d", a.ID, s.id)
	}
	return setJSON(s.txn, agoraKey(a.ID), a)
}

func (s *sessionTx) Membership(userID agora.UserID) (agora.Membership, error) {
	var m agora.Membership
	err := readMembership(s.txn, s.id, userID, &m)
	return m, err
}

func (s *sessionTx) SaveMembership(m agora.Membership) error {
	if m.AgoraID != s.id {
		return fmt.Errorf("membership of agora %d saved in the session of agora %d", m.AgoraID, s.id)
	}
	return setJSON(s.txn, membershipKey(m.AgoraID, m.UserID), m)
}

func (s *sessionTx) CountMemberships() (int, error) {
	return countPrefix(s.txn, membershipPrefix(s.id)), nil
}

func readAgora(txn *badger.Txn, id agora.ID, a *agora.Agora) error {
	err := getJSON(txn, agoraKey(id), a)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: id=%d", errors.ErrAgoraNotFound, id)
	}
	return err
}

func readMembership(txn *badger.Txn, id agora.ID, userID agora.UserID, m *agora.Membership) error {
	err := getJSON(txn, membershipKey(id, userID), m)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: agora=%d user=%d", errors.ErrMembershipNotFound, id, userID)
	}
	return err
}
