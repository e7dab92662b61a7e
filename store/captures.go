package store

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	ErrCaptureNotFound    = errors.New("capture not found")
	ErrInvalidCaptureName = errors.New("capture names must be non-empty and must not contain '/'")
)

// Capture describes a recorded stream of packets. PlayerStateBits
// fingerprints the schema the packets were encoded with.
type Capture struct {
	Name            string    `json:"name"`
	Created         time.Time `json:"created"`
	Packets         uint32    `json:"packets"`
	Bytes           uint64    `json:"bytes"`
	PlayerStateBits int       `json:"player_state_bits"`
}

var (
	capturesPrefix      = Prefixer("captures")
	captureMetaPrefix   = Prefixer(string(capturesPrefix("meta")))
	capturePacketPrefix = Prefixer(string(capturesPrefix("packet")))
)

// CaptureWriter appends packets to a capture. Packets are buffered in a
// transaction until Close.
type CaptureWriter struct {
	tx      *leveldb.Transaction
	capture *Capture
	err     error
}

func NewCaptureWriter(db *leveldb.DB, name string, playerStateBits int) (*CaptureWriter, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, errors.Wrapf(ErrInvalidCaptureName, "%q", name)
	}
	if err := DeleteCapture(db, name); err != nil {
		return nil, err
	}
	tx, err := db.OpenTransaction()
	if err != nil {
		return nil, errors.Wrap(err, "error opening transaction")
	}
	return &CaptureWriter{
		tx: tx,
		capture: &Capture{
			Name:            name,
			Created:         time.Now(),
			PlayerStateBits: playerStateBits,
		},
	}, nil
}

// Record stores a copy of packet under the next sequence number.
func (w *CaptureWriter) Record(packet []byte) error {
	if w.err != nil {
		return w.err
	}
	key := capturePacketPrefix(w.capture.Name, encodeSeq(w.capture.Packets))
	if err := w.tx.Put(key, packet, nil); err != nil {
		w.err = errors.Wrap(err, "error writing packet")
		return w.err
	}
	w.capture.Packets++
	w.capture.Bytes += uint64(len(packet))
	return nil
}

func (w *CaptureWriter) Capture() Capture {
	return *w.capture
}

// Close commits the capture, or discards it if any Record failed.
func (w *CaptureWriter) Close() error {
	if w.err != nil {
		w.tx.Discard()
		return w.err
	}
	if err := w.tx.Put(captureMetaPrefix(w.capture.Name), mustMarshalJSON(w.capture), nil); err != nil {
		w.tx.Discard()
		return errors.Wrap(err, "error writing capture")
	}
	if err := w.tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing capture")
	}
	logger.Debug("saved capture", "name", w.capture.Name, "packets", w.capture.Packets)
	return nil
}

// Discard drops everything recorded so far.
func (w *CaptureWriter) Discard() {
	w.tx.Discard()
}

func GetCapture(db *leveldb.DB, name string) (*Capture, error) {
	b, err := db.Get(captureMetaPrefix(name), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(ErrCaptureNotFound, "%s", name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error getting capture")
	}
	capture := new(Capture)
	mustUnmarshalJSON(b, capture)
	return capture, nil
}

func ListCaptures(db *leveldb.DB) ([]*Capture, error) {
	iter := db.NewIterator(util.BytesPrefix(captureMetaPrefix()), nil)
	defer iter.Release()
	var out []*Capture
	for iter.Next() {
		capture := new(Capture)
		mustUnmarshalJSON(iter.Value(), capture)
		out = append(out, capture)
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "error listing captures")
	}
	return out, nil
}

func DeleteCapture(db *leveldb.DB, name string) error {
	return WithTx(db, func(tx *leveldb.Transaction) error {
		iter := tx.NewIterator(util.BytesPrefix(capturePacketPrefix(name, "")), nil)
		for iter.Next() {
			if err := tx.Delete(iter.Key(), nil); err != nil {
				iter.Release()
				return errors.Wrap(err, "error deleting packet")
			}
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return errors.Wrap(err, "error iterating packets")
		}
		return tx.Delete(captureMetaPrefix(name), nil)
	})
}

type PacketStream struct {
	iter iterator.Iterator
}

// Next returns the next packet in sequence order, or nil when the stream is
// exhausted. The returned slice is only valid until the following call.
func (ps *PacketStream) Next() []byte {
	if !ps.iter.Next() {
		return nil
	}
	return ps.iter.Value()
}

func (ps *PacketStream) Close() error {
	ps.iter.Release()
	return ps.iter.Error()
}

func StreamPackets(db *leveldb.DB, name string) (*PacketStream, error) {
	if _, err := GetCapture(db, name); err != nil {
		return nil, err
	}
	return &PacketStream{
		iter: db.NewIterator(util.BytesPrefix(capturePacketPrefix(name, "")), nil),
	}, nil
}

// encodeSeq renders seq so that lexical key order matches numeric order.
func encodeSeq(seq uint32) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], seq)
	return hex.EncodeToString(b[:])
}

func mustMarshalJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func mustUnmarshalJSON(b []byte, v interface{}) {
	if err := json.Unmarshal(b, v); err != nil {
		panic(err)
	}
}
