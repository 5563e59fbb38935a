// Copyright (c) 2024-2026 Voxlink AI
// Author: Voxlink Engineering <engineering@voxlink.ai>
//
// Licensed under GPL-2.0 with Voxlink Additional Terms.
// See LICENSE.md or contact sales@voxlink.ai for commercial usage.
package utils

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
)

// Go launches fn on a new goroutine with panic containment. A panic in a
// background goroutine must never take down the whole agent; it is reported
// to stderr with a stack trace instead.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "recovered panic in background goroutine: %v\n%s", r, debug.Stack())
			}
		}()
		if ctx != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
		fn()
	}()
}
