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

package webmvc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/neve-ext/processor"
	"github.com/xfali/xlog"
)

const (
	KeyRegisterHandlerInterceptors  = "neve.web.interceptors"
	KeyStoreRequestBodyArgument     = "neve.web.storeRequestBody"
	KeyStoreResponseBodyReturnValue = "neve.web.storeResponseBody"
)

type ctxKey int

const (
	requestBodyKey ctxKey = iota
	responseBodyKey
)

type Opt func(*Extension)

// Extension web扩展，作为chi中间件执行HandlerInterceptor并按配置保存请求体与响应体。
// 作为processor.Processor注册时自动收集实现了HandlerInterceptor的bean。
type Extension struct {
	processor.Adapter

	logger xlog.Logger

	registerHandlerInterceptors  bool
	storeRequestBodyArgument     bool
	storeResponseBodyReturnValue bool

	interceptors []HandlerInterceptor
	lock         sync.RWMutex
}

func NewExtension(opts ...Opt) *Extension {
	ret := &Extension{
		logger:                      xlog.GetLogger(),
		registerHandlerInterceptors: true,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func OptSetLogger(logger xlog.Logger) Opt {
	return func(e *Extension) {
		e.logger = logger
	}
}

// OptRegisterHandlerInterceptors 是否从bean中收集HandlerInterceptor，默认为true
func OptRegisterHandlerInterceptors(v bool) Opt {
	return func(e *Extension) {
		e.registerHandlerInterceptors = v
	}
}

func OptStoreRequestBodyArgument(v bool) Opt {
	return func(e *Extension) {
		e.storeRequestBodyArgument = v
	}
}

func OptStoreResponseBodyReturnValue(v bool) Opt {
	return func(e *Extension) {
		e.storeResponseBodyReturnValue = v
	}
}

func OptAddInterceptors(interceptors ...HandlerInterceptor) Opt {
	return func(e *Extension) {
		e.interceptors = append(e.interceptors, interceptors...)
	}
}

func (e *Extension) AddInterceptors(interceptors ...HandlerInterceptor) {
	e.lock.Lock()
	defer e.lock.Unlock()
	for _, v := range interceptors {
		if v != nil {
			e.interceptors = append(e.interceptors, v)
		}
	}
}

func (e *Extension) Interceptors() []HandlerInterceptor {
	e.lock.RLock()
	defer e.lock.RUnlock()
	ret := make([]HandlerInterceptor, len(e.interceptors))
	copy(ret, e.interceptors)
	return ret
}

// Init 读取neve.web配置，配置项不存在时保持原值
func (e *Extension) Init(conf fig.Properties, registry bean.Registry) error {
	if conf == nil {
		return nil
	}
	var err error
	e.registerHandlerInterceptors, err = getBool(conf, KeyRegisterHandlerInterceptors, e.registerHandlerInterceptors)
	if err != nil {
		return err
	}
	e.storeRequestBodyArgument, err = getBool(conf, KeyStoreRequestBodyArgument, e.storeRequestBodyArgument)
	if err != nil {
		return err
	}
	e.storeResponseBodyReturnValue, err = getBool(conf, KeyStoreResponseBodyReturnValue, e.storeResponseBodyReturnValue)
	return err
}

func getBool(conf fig.Properties, key string, defaultValue bool) (bool, error) {
	v := conf.Get(key, "")
	if v == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue, fmt.Errorf("config %s value %s is not a bool: %w", key, v, err)
	}
	return b, nil
}

func (e *Extension) Classify(o interface{}) (bool, error) {
	if !e.registerHandlerInterceptors {
		return false, nil
	}
	if v, ok := o.(HandlerInterceptor); ok {
		e.AddInterceptors(v)
		return true, nil
	}
	return false, nil
}

func (e *Extension) Process() error {
	e.logger.Infof("web extension: %d HandlerInterceptors, store request body: %t, store response body: %t\n",
		len(e.Interceptors()), e.storeRequestBodyArgument, e.storeResponseBodyReturnValue)
	return nil
}

// Handler chi中间件
func (e *Extension) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if e.storeRequestBodyArgument && r.Body != nil {
			data, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				e.logger.Errorf("read request body failed: %v\n", err)
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(data))
			r = r.WithContext(context.WithValue(r.Context(), requestBodyKey, data))
		}

		var respBody *bytes.Buffer
		if e.storeResponseBodyReturnValue {
			respBody = &bytes.Buffer{}
			r = r.WithContext(context.WithValue(r.Context(), responseBodyKey, respBody))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(respBody)
			w = ww
		}

		chain := &interceptorChain{interceptors: e.Interceptors(), index: -1}
		if !chain.applyPreHandle(w, r) {
			return
		}

		completed := false
		defer func() {
			if completed {
				return
			}
			v := recover()
			chain.triggerAfterCompletion(w, r, fmt.Errorf("handler panic: %v", v))
			panic(v)
		}()
		next.ServeHTTP(w, r)
		completed = true

		chain.applyPostHandle(w, r)
		chain.triggerAfterCompletion(w, r, nil)
	})
}

// Mount 将扩展中间件添加到router
func (e *Extension) Mount(router chi.Router) {
	router.Use(e.Handler)
}

// NewRouter 创建带有Recoverer、RealIP及扩展中间件的router
func (e *Extension) NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	e.Mount(r)
	return r
}

// RequestBody 获得保存的请求体，未开启storeRequestBody时返回false
func RequestBody(ctx context.Context) ([]byte, bool) {
	v, ok := ctx.Value(requestBodyKey).([]byte)
	return v, ok
}

// ResponseBody 获得已写入的响应体，仅在handler返回后（PostHandle、AfterCompletion中）完整
func ResponseBody(ctx context.Context) ([]byte, bool) {
	v, ok := ctx.Value(responseBodyKey).(*bytes.Buffer)
	if !ok {
		return nil, false
	}
	return v.Bytes(), true
}
