package bridge

import (
	"context"
	"runtime"
)

// OwnerID identifies the caller for reentrant locks: the attached thread's id
// when ctx carries one, otherwise the id of the calling goroutine.
func OwnerID(ctx context.Context) uint64 {
	if th := FromContext(ctx); th != nil {
		return th.id
	}
	return goroutineID()
}

// goroutineID parses the id from the header line of runtime.Stack,
// "goroutine 123 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	return parseGID(buf[:n])
}

func parseGID(buf []byte) uint64 {
	const prefix = "goroutine "
	if len(buf) < len(prefix) || string(buf[:len(prefix)]) != prefix {
		return 0
	}
	var gid uint64
	for _, c := range buf[len(prefix):] {
		if c < '0' || c > '9' {
			break
		}
		gid = gid*10 + uint64(c-'0')
	}
	return gid
}
