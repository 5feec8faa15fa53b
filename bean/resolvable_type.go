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

package bean

import (
	"reflect"

	"github.com/xfali/neve-utils/reflection"
)

// ResolvableType 描述一个bean定义可解析出的类型。
// 零值即NoneType，表示无法解析。
type ResolvableType struct {
	t reflect.Type
}

// NoneType 无法解析时返回的类型，可直接使用==比较
var NoneType = ResolvableType{}

func ForType(t reflect.Type) ResolvableType {
	if t == nil {
		return NoneType
	}
	return ResolvableType{t: t}
}

func ForValue(o interface{}) ResolvableType {
	if o == nil {
		return NoneType
	}
	return ForType(reflect.TypeOf(o))
}

func ForMethodReturnType(m *FactoryMethod) ResolvableType {
	if m == nil {
		return NoneType
	}
	return ForType(m.ReturnType())
}

// Resolve 返回解析到的类型，NoneType返回nil
func (r ResolvableType) Resolve() reflect.Type {
	return r.t
}

func (r ResolvableType) IsNone() bool {
	return r.t == nil
}

// Name 返回neve类型名称，NoneType返回空字符串
func (r ResolvableType) Name() string {
	if r.t == nil {
		return ""
	}
	return reflection.GetTypeName(r.t)
}

// IsAssignableFrom 判断t是否可以赋值给当前类型
func (r ResolvableType) IsAssignableFrom(t reflect.Type) bool {
	if r.t == nil || t == nil {
		return false
	}
	return t.AssignableTo(r.t)
}

func (r ResolvableType) String() string {
	if r.t == nil {
		return "?"
	}
	return r.t.String()
}
