package oracle

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// ErrInsufficientCredit is returned when the randomness service rejects a
// request because the prepaid subscription cannot cover it.
var ErrInsufficientCredit = errors.New("oracle: insufficient prepaid credit")

// RequestID is the opaque correlation token linking a randomness request to
// its later fulfilment.
type RequestID [32]byte

// String renders the id as 0x-prefixed hex.
func (id RequestID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseRequestID decodes a 0x-prefixed hex request id.
func ParseRequestID(raw string) (RequestID, error) {
	var id RequestID
	trimmed := raw
	if len(trimmed) >= 2 && trimmed[:2] == "0x" {
		trimmed = trimmed[2:]
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("oracle: invalid request id %q: %w", raw, err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("oracle: invalid request id length %d", len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

// RandomnessCoordinator is the request half of the randomness contract. The
// response arrives later as a separate invocation against the registered
// consumer; it is never a return value of the request.
type RandomnessCoordinator interface {
	RequestRandomWords(numWords uint32) (RequestID, error)
}

// RandomnessConsumer receives fulfilments from the coordinator's
// infrastructure.
type RandomnessConsumer interface {
	FulfillRandomWords(id RequestID, words []*big.Int) error
}

// SimCoordinator is an in-process coordinator for dev networks and tests. It
// hands out keccak-derived request ids and replays fulfilments to a single
// registered consumer on demand, which is enough to exercise the two-phase
// request/response protocol end to end.
type SimCoordinator struct {
	mu       sync.Mutex
	consumer RandomnessConsumer
	pending  map[RequestID]uint32
	seq      uint64
	credit   int64
}

// NewSimCoordinator constructs a simulator with unlimited prepaid credit.
func NewSimCoordinator() *SimCoordinator {
	return &SimCoordinator{pending: make(map[RequestID]uint32), credit: -1}
}

// SetConsumer registers the consumer that receives fulfilments.
func (c *SimCoordinator) SetConsumer(consumer RandomnessConsumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumer = consumer
}

// SetCredit caps the number of requests the simulator will accept. Negative
// means unlimited.
func (c *SimCoordinator) SetCredit(credit int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credit = credit
}

// RequestRandomWords implements the RandomnessCoordinator interface.
func (c *SimCoordinator) RequestRandomWords(numWords uint32) (RequestID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.credit == 0 {
		return RequestID{}, ErrInsufficientCredit
	}
	if c.credit > 0 {
		c.credit--
	}
	c.seq++
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], c.seq)
	nonce := uuid.New()
	digest := crypto.Keccak256(nonce[:], seed[:])
	var id RequestID
	copy(id[:], digest)
	c.pending[id] = numWords
	return id, nil
}

// Pending returns the ids of requests awaiting fulfilment.
func (c *SimCoordinator) Pending() []RequestID {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]RequestID, 0, len(c.pending))
	for id := range c.pending {
		ids = append(ids, id)
	}
	return ids
}

// Fulfill delivers the supplied words for a pending request. Unknown ids are
// rejected; the consumer decides how to treat stale or duplicate deliveries.
func (c *SimCoordinator) Fulfill(id RequestID, words []*big.Int) error {
	c.mu.Lock()
	consumer := c.consumer
	_, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("oracle: unknown request %s", id)
	}
	if consumer == nil {
		return errors.New("oracle: no consumer registered")
	}
	return consumer.FulfillRandomWords(id, words)
}

// FulfillPending derives words for every pending request and delivers them.
// The derivation hashes the request id with the word index, which keeps dev
// runs reproducible for a given request.
func (c *SimCoordinator) FulfillPending() error {
	for _, id := range c.Pending() {
		c.mu.Lock()
		numWords := c.pending[id]
		c.mu.Unlock()
		if numWords == 0 {
			numWords = 1
		}
		words := make([]*big.Int, 0, numWords)
		for i := uint32(0); i < numWords; i++ {
			var idx [4]byte
			binary.BigEndian.PutUint32(idx[:], i)
			words = append(words, new(big.Int).SetBytes(crypto.Keccak256(id[:], idx[:])))
		}
		if err := c.Fulfill(id, words); err != nil {
			return err
		}
	}
	return nil
}
