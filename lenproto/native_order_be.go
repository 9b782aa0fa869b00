//go:build s390x || ppc64 || mips || mips64

// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lenproto

import "encoding/binary"

// nativeOrder returns the compile-time byte order for NewNative on ports
// this codec already knows are big-endian, so a length/command field
// encoded with it matches what a C struct laid out on the same machine
// would produce without a network byte-swap.
func nativeOrder() binary.ByteOrder { return binary.BigEndian }
