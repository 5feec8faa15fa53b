/*
 * Copyright 2024 Xiongfa Li.
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
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/xfali/xlog"
)

var ErrWaiterBusy = errors.New("SignalWaiter is busy, signal dropped. ")

type SignalWaiter interface {
	// Wait 等待信号，直到获得非忽略的信号或ctx Done后返回
	// 参数 ctx: 监听ctx，如果ctx Done则同样退出
	// 返回 signal: 触发退出的信号，ctx Done或Stop时为nil
	// 返回 err: ctx Done时返回ctx.Err()
	Wait(ctx context.Context) (os.Signal, error)

	// Notify 主动发送信号，上一个信号未被处理时返回ErrWaiterBusy
	Notify(signal os.Signal) error

	// Stop 强制结束等待并停止监听系统信号
	Stop()
}

type SignalWaiterOpt func(*defaultWaiter)

type defaultWaiter struct {
	logger        xlog.Logger
	signals       []os.Signal
	ignoreSignals []os.Signal
	ch            chan os.Signal

	cancel  context.CancelFunc
	stopped bool
	lock    sync.Mutex
}

func NewSignalWaiter(opts ...SignalWaiterOpt) *defaultWaiter {
	ret := &defaultWaiter{
		logger:        xlog.GetLogger(),
		ch:            make(chan os.Signal, 1),
		signals:       []os.Signal{syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT},
		ignoreSignals: []os.Signal{syscall.SIGHUP},
	}
	for _, opt := range opts {
		opt(ret)
	}
	signal.Notify(ret.ch, ret.signals...)
	return ret
}

func (h *defaultWaiter) Wait(ctx context.Context) (os.Signal, error) {
	h.lock.Lock()
	if h.stopped {
		h.lock.Unlock()
		return nil, nil
	}
	waitCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.lock.Unlock()
	defer cancel()

	for {
		select {
		case <-waitCtx.Done():
			// Stop不视为错误
			err := ctx.Err()
			h.logger.Infof("Wait done, error: %v, closing...\n", err)
			return nil, err
		case si := <-h.ch:
			if contains(h.ignoreSignals, si) {
				h.logger.Infof("Ignore signal %s\n", si.String())
				continue
			}
			h.logger.Infof("Got a signal %s, closing...\n", si.String())
			return si, nil
		}
	}
}

func contains(signals []os.Signal, si os.Signal) bool {
	for _, v := range signals {
		if si == v {
			return true
		}
	}
	return false
}

func (h *defaultWaiter) Notify(signal os.Signal) error {
	select {
	case h.ch <- signal:
		return nil
	default:
		return ErrWaiterBusy
	}
}

func (h *defaultWaiter) Stop() {
	h.lock.Lock()
	defer h.lock.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	signal.Stop(h.ch)
	if h.cancel != nil {
		h.cancel()
	}
}

type signalWaiterOpts struct {
}

var SignalWaiterOpts signalWaiterOpts

func (o signalWaiterOpts) SetLogger(logger xlog.Logger) SignalWaiterOpt {
	return func(wait *defaultWaiter) {
		wait.logger = logger
	}
}

func (o signalWaiterOpts) AddNotifySignals(signals ...os.Signal) SignalWaiterOpt {
	return func(wait *defaultWaiter) {
		wait.signals = append(wait.signals, signals...)
	}
}

func (o signalWaiterOpts) AddIgnoreSignals(signals ...os.Signal) SignalWaiterOpt {
	return func(wait *defaultWaiter) {
		wait.ignoreSignals = append(wait.ignoreSignals, signals...)
	}
}
