package checkpoints

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	a "vsc-polls/modules/aggregate"
	"vsc-polls/modules/common"
	pollRegistry "vsc-polls/modules/poll-registry"
	voteLedger "vsc-polls/modules/vote-ledger"

	"github.com/chebyrash/promise"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-datastore"
	flatfs "github.com/ipfs/go-ds-flatfs"
	"github.com/multiformats/go-multicodec"
)

var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint is the state of one poll and its tallies at a block height.
type Checkpoint struct {
	Poll        pollRegistry.Poll        `json:"poll"`
	Options     []voteLedger.OptionTally `json:"options"`
	VoteCount   uint64                   `json:"vote_count"`
	BlockHeight uint64                   `json:"block_height"`
}

// Store keeps the latest checkpoint per poll on disk, one flatfs entry per poll id.
type Store struct {
	conf common.PollsConfig
	path string

	db  *flatfs.Datastore
	mtx *sync.Mutex
}

var _ a.Plugin = &Store{}

// New defers opening to Init so the directory can come from loaded config.
func New(conf common.PollsConfig) *Store {
	return &Store{conf: conf, mtx: &sync.Mutex{}}
}

func Open(path string) (*Store, error) {
	s := &Store{path: path, mtx: &sync.Mutex{}}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	if err := os.MkdirAll(s.path, 0755); err != nil {
		return err
	}

	// uses default sharding
	fs, err := flatfs.CreateOrOpen(s.path, flatfs.NextToLast(2), false)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store [%s]: %w", s.path, err)
	}
	s.db = fs
	return nil
}

func (s *Store) Init() error {
	s.path = s.conf.Get().CheckpointDir
	return s.open()
}

func (s *Store) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		resolve(nil)
	})
}

func (s *Store) Stop() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put replaces the checkpoint of cp.Poll.Id and returns the CID of the stored bytes.
func (s *Store) Put(ctx context.Context, cp Checkpoint) (cid.Cid, error) {
	data, err := json.Marshal(cp)
	if err != nil {
		return cid.Undef, err
	}
	c, err := common.HashBytes(data, multicodec.Json)
	if err != nil {
		return cid.Undef, err
	}

	key, err := makeFlatFsKey(common.PollIdString(cp.Poll.Id))
	if err != nil {
		return cid.Undef, fmt.Errorf("failed to make flat fs key [poll:%d]: %w", cp.Poll.Id, err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.db.Put(ctx, *key, data); err != nil {
		return cid.Undef, fmt.Errorf("failed to put checkpoint [poll:%d]: %w", cp.Poll.Id, err)
	}
	return c, nil
}

// Get returns the stored checkpoint of pollId and its CID, or ErrCheckpointNotFound.
func (s *Store) Get(ctx context.Context, pollId uint64) (Checkpoint, cid.Cid, error) {
	key, err := makeFlatFsKey(common.PollIdString(pollId))
	if err != nil {
		return Checkpoint{}, cid.Undef, fmt.Errorf("failed to make flat fs key [poll:%d]: %w", pollId, err)
	}

	s.mtx.Lock()
	data, err := s.db.Get(ctx, *key)
	s.mtx.Unlock()
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return Checkpoint{}, cid.Undef, ErrCheckpointNotFound
		}
		return Checkpoint{}, cid.Undef, fmt.Errorf("failed to get checkpoint [poll:%d]: %w", pollId, err)
	}

	cp := Checkpoint{}
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, cid.Undef, err
	}
	c, err := common.HashBytes(data, multicodec.Json)
	if err != nil {
		return Checkpoint{}, cid.Undef, err
	}
	return cp, c, nil
}

func makeFlatFsKey(k string) (*datastore.Key, error) {
	buf := &bytes.Buffer{}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)

	encoder := base32.NewEncoder(enc, buf)
	if _, err := encoder.Write([]byte(k)); err != nil {
		return nil, err
	}
	encoder.Close()

	datastoreKey := datastore.NewKey(buf.String())

	return &datastoreKey, nil
}
