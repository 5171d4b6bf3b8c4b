package messaging

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/sha3"

	apperrors "github.com/louisbranch/podcom/internal/platform/errors"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/account"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/address"
	"github.com/louisbranch/podcom/internal/services/ledger/domain/securebuf"
)

// messageHashBufLen is the packed size with every optional field present.
const messageHashBufLen = 3*32 + MaxPointerLen + 2 + 8 + (1 + 8) + (1 + 32)

// ContentHash returns the SHA3-256 of content, computed in a scoped buffer.
func ContentHash(content string) ([32]byte, error) {
	size := max(len(content), 1)
	return securebuf.Hash(size, func(buf []byte) int {
		return copy(buf, content)
	})
}

// MessageHash packs the message's fixed fields into a scoped buffer and
// hashes them. The buffer is zeroed before return.
func MessageHash(msg account.ChannelMessage) ([32]byte, error) {
	if len(msg.ContentPointer) > MaxPointerLen {
		return [32]byte{}, apperrors.New(apperrors.CodeHashFailed, fmt.Sprintf("pointer of %d bytes does not fit", len(msg.ContentPointer)))
	}
	return securebuf.Hash(messageHashBufLen, func(buf []byte) int {
		off := copy(buf, msg.Channel[:])
		off += copy(buf[off:], msg.Sender[:])
		off += copy(buf[off:], msg.ContentHash[:])
		off += copy(buf[off:], msg.ContentPointer)
		off += copy(buf[off:], msg.Type.Seed())
		binary.LittleEndian.PutUint64(buf[off:], uint64(msg.CreatedAt.Unix()))
		off += 8
		if msg.EditedAt != nil {
			buf[off] = 1
			binary.LittleEndian.PutUint64(buf[off+1:], uint64(msg.EditedAt.Unix()))
			off += 9
		} else {
			off++
		}
		if msg.ReplyTo != nil {
			buf[off] = 1
			off++
			off += copy(buf[off:], msg.ReplyTo[:])
		} else {
			off++
		}
		return off
	})
}

// MerkleRoot folds hashes pairwise with SHA3-256. An odd node at any level is
// paired with itself.
func MerkleRoot(hashes [][32]byte) [32]byte {
	if len(hashes) == 0 {
		return [32]byte{}
	}
	level := append([][32]byte(nil), hashes...)
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			var pair [64]byte
			copy(pair[:32], left[:])
			copy(pair[32:], right[:])
			next = append(next, sha3.Sum256(pair[:]))
		}
		level = next
	}
	return level[0]
}

func channelMessageAddress(tx account.Tx, channel, sender address.Address, nonce uint64, claimed address.Address) (uint8, error) {
	expected, bump, err := account.ChannelMessageAddress(tx.Deriver(), channel, sender, nonce)
	if err != nil {
		return 0, err
	}
	if expected != claimed {
		return 0, apperrors.New(apperrors.CodeMessageAddressMismatch, "message address does not derive from channel, sender and nonce")
	}
	return bump, nil
}
