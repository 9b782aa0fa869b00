// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package tcpipc

// BusyStateUpdateResult reports the outcome of UpdateBusyState.
type BusyStateUpdateResult uint8

const (
	// BusyStateUpdateSuccess means the update was accepted by the worker's
	// busy-state-update queue.
	BusyStateUpdateSuccess BusyStateUpdateResult = iota
	// BusyStateUpdateDisconnected means the worker has already exited.
	BusyStateUpdateDisconnected
)

func (r BusyStateUpdateResult) String() string {
	if r == BusyStateUpdateSuccess {
		return "success"
	}
	return "disconnected"
}
