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
	"testing"
)

func TestFactoryMethod(t *testing.T) {
	t.Run("invalid", func(t *testing.T) {
		if _, err := NewFactoryMethod("x", 1); err == nil {
			t.Fatal("expect error")
		}
		if _, err := NewFactoryMethod("x", func() (int, int) { return 0, 0 }); err == nil {
			t.Fatal("expect error")
		}
		if _, err := NewFactoryMethod("x", func() {}); err == nil {
			t.Fatal("expect error")
		}
	})

	t.Run("call", func(t *testing.T) {
		m, err := NewFactoryMethod("join", func(a string, b ...string) string {
			for _, v := range b {
				a += v
			}
			return a
		})
		if err != nil {
			t.Fatal(err)
		}
		if m.ReturnType() != reflect.TypeOf("") {
			t.Fatal("expect string but get ", m.ReturnType())
		}
		o, err := m.Call("a", "b", "c")
		if err != nil {
			t.Fatal(err)
		}
		if o != "abc" {
			t.Fatal("expect abc but get ", o)
		}
		if _, err := m.Call(); err == nil {
			t.Fatal("expect args error")
		}
		if _, err := m.Call(1); err == nil {
			t.Fatal("expect type error")
		}
	})

	t.Run("panic", func(t *testing.T) {
		m, _ := NewFactoryMethod("p", func() *counter {
			panic("test")
		})
		if _, err := m.Call(); err == nil {
			t.Fatal("expect panic error")
		}
	})
}

func TestRootDefinition(t *testing.T) {
	t.Run("resolvable type", func(t *testing.T) {
		def := NewRootDefinition(counterType)
		if def.ResolvableType().Resolve() != counterType {
			t.Fatal("expect counter type")
		}
		m, _ := NewFactoryMethod("", func() string { return "" })
		def.SetFactoryMethod(m)
		if def.ResolvableType().Resolve() != reflect.TypeOf("") {
			t.Fatal("expect factory method return type")
		}
		if NewRootDefinition(nil).ResolvableType() != NoneType {
			t.Fatal("expect NoneType")
		}
	})

	t.Run("supplier", func(t *testing.T) {
		def := NewRootDefinition(counterType)
		if def.GetInstanceSupplier() != nil {
			t.Fatal("expect nil")
		}
		def.SetInstanceSupplier(func() (interface{}, error) {
			return &counter{}, nil
		})
		if def.GetInstanceSupplier() == nil {
			t.Fatal("expect supplier")
		}
	})

	t.Run("type name", func(t *testing.T) {
		def := NewGenericDefinition(counterType)
		name := def.BeanTypeName()
		if name == "" {
			t.Fatal("expect type name")
		}
		def.SetBeanTypeName("other")
		if def.HasBeanType() {
			t.Fatal("expect bean type cleared")
		}
		if def.BeanTypeName() != "other" {
			t.Fatal("expect other but get ", def.BeanTypeName())
		}
	})
}

func TestResolvableType(t *testing.T) {
	if !NoneType.IsNone() || NoneType.Resolve() != nil || NoneType.String() != "?" {
		t.Fatal("NoneType invalid")
	}
	if ForType(nil) != NoneType || ForValue(nil) != NoneType || ForMethodReturnType(nil) != NoneType {
		t.Fatal("expect NoneType")
	}
	rt := ForValue(&counter{})
	if rt.Resolve() != counterType {
		t.Fatal("expect counter type")
	}
	if !ForType(reflect.TypeOf((*Initializing)(nil)).Elem()).IsAssignableFrom(counterType) {
		t.Fatal("expect assignable")
	}
	t.Log(rt.Name())
}
