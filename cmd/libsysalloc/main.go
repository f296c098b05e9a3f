// Command libsysalloc packages sys_alloc_aligned for a guest runtime to link:
//
//	go build -buildmode=c-archive -o libsysalloc.a ./cmd/libsysalloc
//	cc -Iinclude guest.c libsysalloc.a -lpthread
//
// The export lives in package alloc, so the go tool writes no header for
// it; include/sysalloc.h is the declaration to compile against. Without
// cgo, or on a host with no native aligned allocator, the archive carries
// no symbol.
package main

import _ "github.com/shivam-909/sysalloc/alloc"

func main() {}
