/*
 * Copyright (C) 2024, Xiongfa Li.
 * All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package application

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestSignalWaiter(t *testing.T) {
	waiter := NewSignalWaiter()
	defer waiter.Stop()

	t.Run("notify SIGQUIT", func(t *testing.T) {
		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = waiter.Notify(syscall.SIGQUIT)
		}()
		si, err := waiter.Wait(context.Background())
		if err != nil || si != syscall.SIGQUIT {
			t.Fatal("expect SIGQUIT but get ", si, err)
		}
	})

	t.Run("notify SIGHUP and SIGTERM", func(t *testing.T) {
		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = waiter.Notify(syscall.SIGHUP)

			time.Sleep(100 * time.Millisecond)
			_ = waiter.Notify(syscall.SIGTERM)
		}()
		si, err := waiter.Wait(context.Background())
		if err != nil || si != syscall.SIGTERM {
			t.Fatal("expect SIGTERM but get ", si, err)
		}
	})

	t.Run("context done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		si, err := waiter.Wait(ctx)
		if si != nil || err != context.DeadlineExceeded {
			t.Fatal("expect deadline exceeded but get ", si, err)
		}
	})

	t.Run("busy", func(t *testing.T) {
		w := NewSignalWaiter()
		defer w.Stop()
		if err := w.Notify(syscall.SIGHUP); err != nil {
			t.Fatal(err)
		}
		if err := w.Notify(syscall.SIGHUP); err != ErrWaiterBusy {
			t.Fatal("expect busy but get ", err)
		}
	})
}

func TestSignalWaiterStop(t *testing.T) {
	waiter := NewSignalWaiter()
	go func() {
		time.Sleep(100 * time.Millisecond)
		waiter.Stop()
	}()
	si, err := waiter.Wait(context.Background())
	if si != nil || err != nil {
		t.Fatal("expect stopped without error but get ", si, err)
	}
	// 停止后立即返回
	si, err = waiter.Wait(context.Background())
	if si != nil || err != nil {
		t.Fatal("expect nil")
	}
}
