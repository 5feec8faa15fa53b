// Copyright (C) 2019-2021, Xiongfa Li.
// @author xiongfa.li
// @version V1.0
// Description:

package reflection

import (
	"reflect"
	"sync"

	reflection2 "github.com/xfali/neve-utils/reflection"
)

// TypeRegistry 保存类型名称与类型的对应关系，用于通过bean类型名称查找类型
type TypeRegistry struct {
	types map[string]reflect.Type
	lock  sync.RWMutex
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types: map[string]reflect.Type{},
	}
}

var defaultTypes = NewTypeRegistry()

func DefaultTypeRegistry() *TypeRegistry {
	return defaultTypes
}

// RegisterType 使用neve类型名称注册类型，指针类型同时注册其元素类型
func (r *TypeRegistry) RegisterType(t reflect.Type) {
	if t == nil {
		return
	}
	r.lock.Lock()
	defer r.lock.Unlock()

	r.types[reflection2.GetTypeName(t)] = t
	if t.Kind() == reflect.Ptr {
		r.types[reflection2.GetTypeName(t.Elem())] = t.Elem()
	}
}

// Register 注册o的类型
func (r *TypeRegistry) Register(o interface{}) {
	if o != nil {
		r.RegisterType(reflect.TypeOf(o))
	}
}

func (r *TypeRegistry) Lookup(name string) (reflect.Type, bool) {
	if name == "" {
		return nil, false
	}
	r.lock.RLock()
	defer r.lock.RUnlock()

	t, ok := r.types[name]
	return t, ok
}

func RegisterType(t reflect.Type) {
	defaultTypes.RegisterType(t)
}

func Register(o interface{}) {
	defaultTypes.Register(o)
}

// ResolveType 在默认注册表中按名称查找类型
func ResolveType(name string) (reflect.Type, bool) {
	return defaultTypes.Lookup(name)
}

// GetTypeName 返回neve类型名称，t为nil时返回空字符串
func GetTypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return reflection2.GetTypeName(t)
}
