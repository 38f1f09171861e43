/*
 * Copyright 2026 CloudWeGo Authors
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

package buddy

import "errors"

// Errors passed to panic on caller misuse. Recover and match with errors.Is.
var (
	// ErrSizeOutOfRange indicates a block size (level) outside [0, levels).
	ErrSizeOutOfRange = errors.New("buddy: size out of range")

	// ErrIndexOutOfRange indicates a block index outside [0, 2^(levels-n)).
	ErrIndexOutOfRange = errors.New("buddy: index out of range")

	// ErrDoubleFree indicates a free of a block that is not marked as used.
	ErrDoubleFree = errors.New("buddy: double free")

	// ErrForeignBlock indicates a free of a block not handed out by the allocator.
	ErrForeignBlock = errors.New("buddy: block not from this allocator")
)

// Errors returned by constructors and Validate.
var (
	ErrInvalidLevels = errors.New("buddy: invalid level count")
	ErrShortData     = errors.New("buddy: data region too short")
	ErrShortBits     = errors.New("buddy: bit region too short")
	ErrDirtyBits     = errors.New("buddy: bit region not zeroed")
	ErrCorrupted     = errors.New("buddy: bit tree corrupted")
)
