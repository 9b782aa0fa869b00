//go:build !amd64 && !arm64 && !386 && !riscv64 && !ppc64le && !mips64le && !mipsle && !loong64 && !wasm && !arm && !s390x && !ppc64 && !mips && !mips64

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lenproto

import (
	"encoding/binary"
	"unsafe"
)

// runtimeOrder is resolved once, at package init, for any Go port this file
// doesn't already recognise by name in native_order_be.go/native_order_le.go.
var runtimeOrder = detectRuntimeOrder()

func detectRuntimeOrder() binary.ByteOrder {
	var probe uint16 = 0x0102
	bytes := *(*[2]byte)(unsafe.Pointer(&probe))
	if bytes[0] == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// nativeOrder returns the machine's actual byte order on ports not covered
// by the named build tags, so NewNative still picks the right order instead
// of silently defaulting to one.
func nativeOrder() binary.ByteOrder { return runtimeOrder }
