// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package conc

// RaceEnabled is true when the race detector is active.
// Tests can consult it to skip concurrent tests for algorithms that trigger
// false positives due to cross-variable memory ordering the race
// detector cannot model.
const RaceEnabled = true
