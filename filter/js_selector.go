/*
 * Copyright 2024 The ChromaGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package filter

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/chromago/chromago/api/types"
)

// NewJsPredicate compiles a JavaScript boolean expression into a scan
// predicate. The script sees the scan as the global `scan`, e.g.
// "scan.msOrder >= 2 && scan.activation == 'hcd'". goja runtimes are not
// safe for concurrent use, so evaluation draws from a runtime pool.
func NewJsPredicate(script string) (Predicate, error) {
	program, err := goja.Compile("selector", script, true)
	if err != nil {
		return nil, fmt.Errorf("compile selector script: %w", err)
	}
	runtimes := &sync.Pool{
		New: func() interface{} {
			return goja.New()
		},
	}
	return func(h types.ScanHeader, d *types.ScanDescriptor) bool {
		vm := runtimes.Get().(*goja.Runtime)
		defer runtimes.Put(vm)
		if err := vm.Set("scan", scanEnv(h, d)); err != nil {
			return false
		}
		v, err := vm.RunProgram(program)
		if err != nil {
			return false
		}
		return v.ToBoolean()
	}, nil
}
