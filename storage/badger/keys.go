package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/quarry/core"
)

// Key prefixes for different data types
const (
	documentPrefix     = "docrec"
	documentTermPrefix = "docterm"
	documentTypePrefix = "doctype"
	historyPrefix      = "hisrec"
	historyUserPrefix  = "hisusr"
	historyIDSeq       = "hisseq"
)

// keySep separates variable-length key segments from fixed-width ones.
// Index terms never contain it.
const keySep = 0x00

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// documentScanPrefix matches every primary document key.
func documentScanPrefix() []byte {
	return []byte(documentPrefix + ":")
}

// makeTermKey generates a composite key for the term index.
// Format: prefix:term<sep>docID
func makeTermKey(term string, id core.ID) []byte {
	buf := makePartialTermKey(term)
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makePartialTermKey generates the prefix of every term index key for term.
func makePartialTermKey(term string) []byte {
	buf := make([]byte, 0, len(documentTermPrefix)+len(term)+10)
	buf = append(buf, documentTermPrefix...)
	buf = append(buf, ':')
	buf = append(buf, term...)
	return append(buf, keySep)
}

// makeTypeKey generates a composite key for the document type index.
// Format: prefix:type<sep>docID
func makeTypeKey(docType core.DocumentType, id core.ID) []byte {
	buf := make([]byte, 0, len(documentTypePrefix)+len(docType)+10)
	buf = append(buf, documentTypePrefix...)
	buf = append(buf, ':')
	buf = append(buf, docType...)
	buf = append(buf, keySep)
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// typeScanPrefix matches every type index key.
func typeScanPrefix() []byte {
	return []byte(documentTypePrefix + ":")
}

// parseTypeKey extracts the document type from a type index key.
func parseTypeKey(key []byte) core.DocumentType {
	rest := key[len(documentTypePrefix)+1:]
	if len(rest) < 9 {
		return ""
	}
	return core.DocumentType(rest[:len(rest)-9])
}

// makeHistoryKey generates the primary key for a history entry.
// Format: prefix:timestamp:seq, BigEndian so keys sort chronologically.
func makeHistoryKey(timestamp time.Time, seq uint64) []byte {
	buf := makePartialHistoryKey(timestamp)
	return binary.BigEndian.AppendUint64(buf, seq)
}

// makePartialHistoryKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialHistoryKey(timestamp time.Time) []byte {
	buf := make([]byte, 0, len(historyPrefix)+17)
	buf = append(buf, historyPrefix...)
	buf = append(buf, ':')
	return binary.BigEndian.AppendUint64(buf, uint64(timestamp.UnixMicro()))
}

// historyScanPrefix matches every primary history key.
func historyScanPrefix() []byte {
	return []byte(historyPrefix + ":")
}

// makeHistoryUserKey generates a composite key for the per-user index.
// Format: prefix:user<sep>timestamp:seq
func makeHistoryUserKey(userID string, timestamp time.Time, seq uint64) []byte {
	buf := makePartialHistoryUserKey(userID)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp.UnixMicro()))
	return binary.BigEndian.AppendUint64(buf, seq)
}

// makePartialHistoryUserKey generates the prefix of a user's index keys.
func makePartialHistoryUserKey(userID string) []byte {
	buf := make([]byte, 0, len(historyUserPrefix)+len(userID)+18)
	buf = append(buf, historyUserPrefix...)
	buf = append(buf, ':')
	buf = append(buf, userID...)
	return append(buf, keySep)
}

// reverseSeekKey returns a key that sorts after every key under prefix,
// for seeding a reverse iterator.
func reverseSeekKey(prefix []byte) []byte {
	buf := make([]byte, 0, len(prefix)+17)
	buf = append(buf, prefix...)
	for i := 0; i < 17; i++ {
		buf = append(buf, 0xff)
	}
	return buf
}
