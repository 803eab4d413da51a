package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}

// Millis returns the current epoch milliseconds as a string. Ledger rows
// created by older clients use this bare form as their id.
func Millis(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}
