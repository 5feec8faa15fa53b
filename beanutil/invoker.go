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

package beanutil

import (
	"errors"
	"fmt"
	"reflect"
)

var errNilInvoker = errors.New("Invoker is nil. ")

// Invoker 探测得到的方法调用句柄，探测时已校验方法签名，调用时不再做方法查找
type Invoker struct {
	target reflect.Type
	method reflect.Method
	iface  bool
}

// Probe 在target类型上查找名称为name、参数为in、返回值为out的方法（不含接收者）。
// 方法不存在、签名不一致或者查找过程panic时返回nil，不会返回错误。
func Probe(target reflect.Type, name string, in []reflect.Type, out []reflect.Type) *Invoker {
	ret, _ := probe(target, name, in, out)
	return ret
}

func probe(target reflect.Type, name string, in []reflect.Type, out []reflect.Type) (ret *Invoker, err error) {
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, fmt.Errorf("probe %s.%s panic: %v", typeString(target), name, r)
		}
	}()
	if target == nil {
		return nil, fmt.Errorf("probe %s failed: target type is nil", name)
	}
	m, ok := target.MethodByName(name)
	if !ok {
		return nil, nil
	}
	iface := target.Kind() == reflect.Interface
	offset := 1
	if iface {
		offset = 0
	}
	mt := m.Type
	if mt.NumIn()-offset != len(in) || mt.NumOut() != len(out) {
		return nil, fmt.Errorf("probe %s.%s: signature mismatch %s", typeString(target), name, mt.String())
	}
	for i := range in {
		if mt.In(i+offset) != in[i] {
			return nil, fmt.Errorf("probe %s.%s: param %d expect %s but get %s", typeString(target), name, i, in[i], mt.In(i+offset))
		}
	}
	for i := range out {
		if mt.Out(i) != out[i] {
			return nil, fmt.Errorf("probe %s.%s: return %d expect %s but get %s", typeString(target), name, i, out[i], mt.Out(i))
		}
	}
	return &Invoker{
		target: target,
		method: m,
		iface:  iface,
	}, nil
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func (i *Invoker) Name() string {
	return i.method.Name
}

func (i *Invoker) Target() reflect.Type {
	return i.target
}

// Accepts 判断recv能否作为接收者调用该方法。
// recv的类型与探测类型不同时，只要其方法集中有同名且签名一致的方法即可，例如内嵌了探测类型的定义。
func (i *Invoker) Accepts(recv interface{}) bool {
	if i == nil || recv == nil {
		return false
	}
	rt := reflect.TypeOf(recv)
	if i.iface {
		return rt.Implements(i.target)
	}
	if rt == i.target {
		return true
	}
	m, ok := rt.MethodByName(i.method.Name)
	return ok && sameSignature(m.Type, i.method.Type)
}

// sameSignature 比较两个方法类型（均含接收者）除接收者外的参数和返回值
func sameSignature(a, b reflect.Type) bool {
	if a.NumIn() != b.NumIn() || a.NumOut() != b.NumOut() || a.IsVariadic() != b.IsVariadic() {
		return false
	}
	for k := 1; k < a.NumIn(); k++ {
		if a.In(k) != b.In(k) {
			return false
		}
	}
	for k := 0; k < a.NumOut(); k++ {
		if a.Out(k) != b.Out(k) {
			return false
		}
	}
	return true
}

// Call 使用recv作为接收者调用方法，args必须与探测时的参数类型一致。
// 调用期间的panic转换为error返回。
func (i *Invoker) Call(recv interface{}, args ...reflect.Value) (ret []reflect.Value, err error) {
	if i == nil {
		return nil, errNilInvoker
	}
	if !i.Accepts(recv) {
		return nil, fmt.Errorf("%s.%s cannot be invoked on %T", i.target, i.method.Name, recv)
	}
	defer func() {
		if r := recover(); r != nil {
			ret, err = nil, fmt.Errorf("invoke %s.%s panic: %v", i.target, i.method.Name, r)
		}
	}()
	rv := reflect.ValueOf(recv)
	if i.iface || rv.Type() != i.target {
		return rv.MethodByName(i.method.Name).Call(args), nil
	}
	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, rv)
	in = append(in, args...)
	return i.method.Func.Call(in), nil
}
