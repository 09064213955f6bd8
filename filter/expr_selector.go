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

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/chromago/chromago/api/types"
)

// NewExprPredicate compiles a boolean expression over descriptor fields into
// a scan predicate, e.g. "msOrder == 2 && polarity == '+' && energy > 25".
// Compilation fails fast; evaluation errors reject the scan.
func NewExprPredicate(expression string) (Predicate, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile selector expression: %w", err)
	}
	return func(h types.ScanHeader, d *types.ScanDescriptor) bool {
		out, err := runExpr(program, scanEnv(h, d))
		return err == nil && out
	}, nil
}

func runExpr(program *vm.Program, env map[string]interface{}) (bool, error) {
	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	return b && ok, nil
}
