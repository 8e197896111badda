package keeper

import (
	"encoding/binary"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	// ParamsKey is the key for module parameters
	ParamsKey = []byte{0x01}

	// NextAuctionIDKey is the key for the next auction ID counter
	NextAuctionIDKey = []byte{0x02}

	// NextEventIDKey is the key for the lifecycle event sequence
	NextEventIDKey = []byte{0x03}

	// AuctionKeyPrefix is the prefix for auction storage
	AuctionKeyPrefix = []byte{0x10}

	// ActiveAuctionPrefix indexes open auctions by ID.
	// Key: prefix + auctionID
	ActiveAuctionPrefix = []byte{0x11}

	// BidKeyPrefix is the prefix for bid storage.
	// Key: prefix + auctionID + provider address
	BidKeyPrefix = []byte{0x12}

	// TaskKeyPrefix is the prefix for task storage
	TaskKeyPrefix = []byte{0x20}

	// EscrowKeyPrefix is the prefix for escrow storage
	EscrowKeyPrefix = []byte{0x21}

	// PerformanceKeyPrefix is the prefix for provider reputation records
	PerformanceKeyPrefix = []byte{0x30}

	// DeadlinePrefix indexes pending forced transitions by due time.
	// Key: prefix + due unix seconds + kind + entity ID
	DeadlinePrefix = []byte{0x40}

	// DeadlineReversePrefix maps an entity to its due time so the index
	// entry can be removed without iteration.
	// Key: prefix + kind + entity ID -> due unix seconds
	DeadlineReversePrefix = []byte{0x41}
)

// Entity kinds tracked by the deadline index.
const (
	deadlineKindAuction byte = 0x01
	deadlineKindTask    byte = 0x02
)

// indexMarker is stored as the value of index entries.
var indexMarker = []byte{0x01}

func uint64Bytes(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}

// AuctionKey returns the store key for an auction
func AuctionKey(auctionID uint64) []byte {
	return append(append([]byte{}, AuctionKeyPrefix...), uint64Bytes(auctionID)...)
}

// ActiveAuctionKey returns the index key for an open auction
func ActiveAuctionKey(auctionID uint64) []byte {
	return append(append([]byte{}, ActiveAuctionPrefix...), uint64Bytes(auctionID)...)
}

// BidsPrefix returns the prefix for all bids on an auction
func BidsPrefix(auctionID uint64) []byte {
	return append(append([]byte{}, BidKeyPrefix...), uint64Bytes(auctionID)...)
}

// BidKey returns the store key for a provider's bid on an auction
func BidKey(auctionID uint64, provider sdk.AccAddress) []byte {
	return append(BidsPrefix(auctionID), provider.Bytes()...)
}

// TaskKey returns the store key for a task
func TaskKey(taskID uint64) []byte {
	return append(append([]byte{}, TaskKeyPrefix...), uint64Bytes(taskID)...)
}

// EscrowKey returns the store key for a task's escrow
func EscrowKey(taskID uint64) []byte {
	return append(append([]byte{}, EscrowKeyPrefix...), uint64Bytes(taskID)...)
}

// PerformanceKey returns the store key for a provider's reputation record
func PerformanceKey(provider sdk.AccAddress) []byte {
	return append(append([]byte{}, PerformanceKeyPrefix...), provider.Bytes()...)
}

// DeadlineKey returns the deadline index key for an entity due at the given
// time. Times before the epoch sort first.
func DeadlineKey(due time.Time, kind byte, id uint64) []byte {
	unix := due.Unix()
	if unix < 0 {
		unix = 0
	}
	key := make([]byte, 0, len(DeadlinePrefix)+8+1+8)
	key = append(key, DeadlinePrefix...)
	key = append(key, uint64Bytes(uint64(unix))...)
	key = append(key, kind)
	return append(key, uint64Bytes(id)...)
}

// DeadlineReverseKey returns the reverse deadline index key for an entity
func DeadlineReverseKey(kind byte, id uint64) []byte {
	key := make([]byte, 0, len(DeadlineReversePrefix)+1+8)
	key = append(key, DeadlineReversePrefix...)
	key = append(key, kind)
	return append(key, uint64Bytes(id)...)
}

// parseDeadlineKey splits a deadline index key into its parts.
func parseDeadlineKey(key []byte) (dueUnix int64, kind byte, id uint64, ok bool) {
	offset := len(DeadlinePrefix)
	if len(key) != offset+8+1+8 {
		return 0, 0, 0, false
	}
	dueUnix = int64(binary.BigEndian.Uint64(key[offset : offset+8]))
	kind = key[offset+8]
	id = binary.BigEndian.Uint64(key[offset+9:])
	return dueUnix, kind, id, true
}
