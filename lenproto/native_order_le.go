//go:build amd64 || arm64 || 386 || riscv64 || ppc64le || mips64le || mipsle || loong64 || wasm || arm

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lenproto

import "encoding/binary"

// nativeOrder returns the compile-time byte order for NewNative on the
// little-endian ports this codec already knows about, covering the common
// Go build targets.
func nativeOrder() binary.ByteOrder { return binary.LittleEndian }
