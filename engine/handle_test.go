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

package engine

import (
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/chromago/chromago/test/assert"
)

func TestWorkerHandle(t *testing.T) {
	h := newWorkerHandle()
	assert.NotEqual(t, uuid.Nil, h.Id())
	assert.Nil(t, h.Err())

	failed := errors.New("boom")
	h.setErr(failed)
	h.setErr(errors.New("later")) // first error wins
	h.close()
	h.close() // idempotent

	assert.Equal(t, failed, h.Wait())
	assert.Equal(t, failed, h.Err())
	select {
	case <-h.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestOrderedEmitterFlushesInOrder(t *testing.T) {
	var got []int
	e := newOrderedEmitter(func(scanIndex int, value float64) {
		got = append(got, scanIndex)
	})

	// Fragment 1 lands first: nothing flushes.
	flushed := e.emit(1, []pointRec{{index: 10, value: 1}, {index: 11, value: 2}})
	assert.Equal(t, 0, flushed)
	assert.Equal(t, 0, len(got))

	// Fragment 0 unblocks both.
	flushed = e.emit(0, []pointRec{{index: 0, value: 1}, {index: 5, value: 2}})
	assert.Equal(t, 4, flushed)
	assert.Equal(t, []int{0, 5, 10, 11}, got)

	// Later fragments flush immediately.
	flushed = e.emit(2, []pointRec{{index: 20, value: 3}})
	assert.Equal(t, 1, flushed)
	assert.Equal(t, []int{0, 5, 10, 11, 20}, got)
}

func TestOrderedEmitterAbortDiscardsStaged(t *testing.T) {
	var got []int
	e := newOrderedEmitter(func(scanIndex int, value float64) {
		got = append(got, scanIndex)
	})

	// Fragment 1 stages behind the missing fragment 0, which then fails.
	e.emit(1, []pointRec{{index: 10, value: 1}})
	e.abort()

	// The staged batch is gone and later completions are discarded too.
	assert.Equal(t, 0, e.emit(0, []pointRec{{index: 0, value: 1}}))
	assert.Equal(t, 0, e.emit(2, []pointRec{{index: 20, value: 2}}))
	assert.Equal(t, 0, len(got))
}

func TestOrderedEmitterEmptyFragments(t *testing.T) {
	var got []int
	e := newOrderedEmitter(func(scanIndex int, value float64) {
		got = append(got, scanIndex)
	})
	// Empty completions still advance the sequence.
	assert.Equal(t, 0, e.emit(0, nil))
	flushed := e.emit(2, []pointRec{{index: 9, value: 1}})
	assert.Equal(t, 0, flushed)
	// The empty middle fragment releases the staged one.
	assert.Equal(t, 1, e.emit(1, nil))
	assert.Equal(t, []int{9}, got)
}
