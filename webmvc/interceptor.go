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
	"net/http"
)

type HandlerInterceptor interface {
	// 在handler之前按注册顺序调用，返回false时中断请求处理，
	// 此时由该拦截器负责写入响应
	PreHandle(w http.ResponseWriter, r *http.Request) bool

	// handler正常返回后按注册逆序调用
	PostHandle(w http.ResponseWriter, r *http.Request)

	// 请求结束后按注册逆序调用，仅调用PreHandle返回true的拦截器。
	// handler发生panic时err不为nil
	AfterCompletion(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerInterceptorAdapter 空实现，可嵌入后仅覆盖需要的方法
type HandlerInterceptorAdapter struct{}

func (HandlerInterceptorAdapter) PreHandle(w http.ResponseWriter, r *http.Request) bool {
	return true
}

func (HandlerInterceptorAdapter) PostHandle(w http.ResponseWriter, r *http.Request) {}

func (HandlerInterceptorAdapter) AfterCompletion(w http.ResponseWriter, r *http.Request, err error) {}

// interceptorChain 一次请求的拦截器执行状态
type interceptorChain struct {
	interceptors []HandlerInterceptor
	index        int
}

func (c *interceptorChain) applyPreHandle(w http.ResponseWriter, r *http.Request) bool {
	for i, v := range c.interceptors {
		if !v.PreHandle(w, r) {
			c.triggerAfterCompletion(w, r, nil)
			return false
		}
		c.index = i
	}
	return true
}

func (c *interceptorChain) applyPostHandle(w http.ResponseWriter, r *http.Request) {
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		c.interceptors[i].PostHandle(w, r)
	}
}

func (c *interceptorChain) triggerAfterCompletion(w http.ResponseWriter, r *http.Request, err error) {
	for i := c.index; i >= 0; i-- {
		c.interceptors[i].AfterCompletion(w, r, err)
	}
}
