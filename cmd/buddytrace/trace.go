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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudwego/buddies/buddy"
)

const (
	opAlloc = "alloc"
	opFree  = "free"
	opCan   = "can"
	opReset = "reset"
)

// errKinds maps the names accepted by Step.Err to the errors they match.
var errKinds = map[string]error{
	"size":        buddy.ErrSizeOutOfRange,
	"index":       buddy.ErrIndexOutOfRange,
	"double-free": buddy.ErrDoubleFree,
}

// Trace is a scripted sequence of operations on a tree.
type Trace struct {
	Levels int    `yaml:"levels"`
	Steps  []Step `yaml:"steps"`
}

// Step is one operation of a trace and its expected outcome.
type Step struct {
	Op    string `yaml:"op"`
	Level int    `yaml:"level"`
	Index int    `yaml:"index"`

	// Want is the expected index returned by alloc.
	Want *int `yaml:"want,omitempty"`
	// OK is the expected success of alloc or result of can.
	OK *bool `yaml:"ok,omitempty"`
	// Err names the expected failure, one of the keys of errKinds.
	Err string `yaml:"err,omitempty"`
}

// Report summarizes a replay.
type Report struct {
	Steps    int
	Failures []string
}

func loadTrace(path string) (*Trace, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tr, err := parseTrace(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tr, nil
}

func parseTrace(b []byte) (*Trace, error) {
	tr := &Trace{}
	if err := yaml.Unmarshal(b, tr); err != nil {
		return nil, err
	}
	for k, s := range tr.Steps {
		switch s.Op {
		case opAlloc, opFree, opCan, opReset:
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", k, s.Op)
		}
		if _, ok := errKinds[s.Err]; s.Err != "" && !ok {
			return nil, fmt.Errorf("step %d: unknown err %q", k, s.Err)
		}
	}
	return tr, nil
}

// replay runs every step of tr against t and validates t after each of them.
// Unmet expectations are collected in the report; a corrupted tree aborts the replay.
func replay(t *buddy.Tree[byte], tr *Trace, logger *slog.Logger) (*Report, error) {
	rep := &Report{}
	for k, s := range tr.Steps {
		var (
			err   error
			index = -1
			ok    bool
		)
		switch s.Op {
		case opAlloc:
			err = catch(func() { _, index, ok = t.Allocate(s.Level) })
		case opFree:
			index = s.Index
			err = catch(func() { t.Free(s.Level, s.Index) })
			ok = err == nil
		case opCan:
			err = catch(func() { ok = t.CanAllocate(s.Level) })
		case opReset:
			t.Reset()
			ok = true
		}
		rep.Steps++
		logger.Debug("step", "n", k, "op", s.Op, "size", s.Level, "index", index, "ok", ok, "err", err)

		if msg := s.check(index, ok, err); msg != "" {
			rep.Failures = append(rep.Failures, fmt.Sprintf("step %d (%s size=%d): %s", k, s.Op, s.Level, msg))
			logger.Warn("unexpected result", "n", k, "op", s.Op, "reason", msg)
		}
		if err := t.Validate(); err != nil {
			return rep, fmt.Errorf("step %d: %w", k, err)
		}
	}
	return rep, nil
}

// check returns why the outcome does not match the step, or "".
func (s *Step) check(index int, ok bool, err error) string {
	if s.Err != "" {
		if err == nil {
			return fmt.Sprintf("want error %s, got none", s.Err)
		}
		if !errors.Is(err, errKinds[s.Err]) {
			return fmt.Sprintf("want error %s, got %v", s.Err, err)
		}
		return ""
	}
	if err != nil {
		return fmt.Sprintf("unexpected error: %v", err)
	}
	if s.OK != nil && *s.OK != ok {
		return fmt.Sprintf("want ok=%t, got %t", *s.OK, ok)
	}
	if s.Want != nil && *s.Want != index {
		return fmt.Sprintf("want index %d, got %d", *s.Want, index)
	}
	return ""
}

// catch turns a panic with an error value into a returned error.
func catch(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	f()
	return nil
}
