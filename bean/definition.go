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
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/xfali/neve-utils/reflection"
)

type Role int

const (
	// 应用定义的bean
	RoleApplication Role = iota
	// 配置支持类bean
	RoleSupport
	// 框架内部使用的bean，对用户不可见
	RoleInfrastructure
)

func (r Role) String() string {
	switch r {
	case RoleApplication:
		return "application"
	case RoleSupport:
		return "support"
	case RoleInfrastructure:
		return "infrastructure"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

var ErrorType = reflect.TypeOf((*error)(nil)).Elem()

// AbstractDefinition 所有版本都稳定提供的bean定义元数据
type AbstractDefinition interface {
	// 定义名称，可为空
	Name() string

	// bean角色
	Role() Role

	// 是否设置了明确的bean类型
	HasBeanType() bool

	// bean类型，未设置时返回nil
	BeanType() reflect.Type

	// bean类型名称
	BeanTypeName() string

	// 构造参数
	ConstructorArgs() []interface{}

	Description() string
}

// FactoryMethodHolder 记录了工厂方法的bean定义
type FactoryMethodHolder interface {
	ResolvedFactoryMethod() *FactoryMethod
}

type FactoryMethod struct {
	name string
	fn   reflect.Value
}

func verifyFactoryFunction(ft reflect.Type) error {
	if ft.Kind() != reflect.Func {
		return errors.New("Factory method is not a function. ")
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != ErrorType {
			return errors.New("Factory method 2nd return value must be error. ")
		}
	default:
		return errors.New("Factory method must return TYPE or (TYPE, error). ")
	}
	return nil
}

// NewFactoryMethod 使用函数创建工厂方法
// fn必须为函数，返回值为TYPE或者(TYPE, error)，参数在调用时由构造参数提供
func NewFactoryMethod(name string, fn interface{}) (*FactoryMethod, error) {
	if fn == nil {
		return nil, errors.New("Factory method is nil. ")
	}
	fv := reflect.ValueOf(fn)
	if err := verifyFactoryFunction(fv.Type()); err != nil {
		return nil, err
	}
	if name == "" {
		name = reflection.GetTypeName(fv.Type().Out(0))
	}
	return &FactoryMethod{
		name: name,
		fn:   fv,
	}, nil
}

func (m *FactoryMethod) Name() string {
	return m.name
}

// ReturnType 工厂方法声明的返回类型
func (m *FactoryMethod) ReturnType() reflect.Type {
	return m.fn.Type().Out(0)
}

func (m *FactoryMethod) paramType(i int) reflect.Type {
	ft := m.fn.Type()
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

func (m *FactoryMethod) Call(args ...interface{}) (o interface{}, err error) {
	ft := m.fn.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return nil, fmt.Errorf("Factory method %s expect at least %d args but get %d ", m.name, ft.NumIn()-1, len(args))
		}
	} else if len(args) != ft.NumIn() {
		return nil, fmt.Errorf("Factory method %s expect %d args but get %d ", m.name, ft.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := m.paramType(i)
		if a == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(pt) {
			return nil, fmt.Errorf("Factory method %s param %d expect %s but get %s ", m.name, i, pt.String(), v.Type().String())
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Factory method %s panic: %v ", m.name, r)
		}
	}()
	rets := m.fn.Call(in)
	if len(rets) == 2 && !rets[1].IsNil() {
		return nil, rets[1].Interface().(error)
	}
	return rets[0].Interface(), nil
}

// GenericDefinition 仅包含稳定元数据的bean定义
type GenericDefinition struct {
	name        string
	beanType    reflect.Type
	typeName    string
	role        Role
	args        []interface{}
	description string
}

func NewGenericDefinition(beanType reflect.Type, args ...interface{}) *GenericDefinition {
	ret := &GenericDefinition{}
	ret.SetBeanType(beanType)
	ret.args = args
	return ret
}

func (d *GenericDefinition) Name() string {
	return d.name
}

func (d *GenericDefinition) SetName(name string) {
	d.name = name
}

func (d *GenericDefinition) Role() Role {
	return d.role
}

func (d *GenericDefinition) SetRole(role Role) {
	d.role = role
}

func (d *GenericDefinition) HasBeanType() bool {
	return d.beanType != nil
}

func (d *GenericDefinition) BeanType() reflect.Type {
	return d.beanType
}

// SetBeanType 设置明确的bean类型，同时更新类型名称
func (d *GenericDefinition) SetBeanType(t reflect.Type) {
	d.beanType = t
	if t != nil {
		d.typeName = reflection.GetTypeName(t)
	}
}

func (d *GenericDefinition) BeanTypeName() string {
	return d.typeName
}

// SetBeanTypeName 仅设置类型名称，类型在使用时通过名称查找
func (d *GenericDefinition) SetBeanTypeName(name string) {
	d.typeName = name
	if d.beanType != nil && reflection.GetTypeName(d.beanType) != name {
		d.beanType = nil
	}
}

func (d *GenericDefinition) ConstructorArgs() []interface{} {
	return d.args
}

func (d *GenericDefinition) AddConstructorArg(arg interface{}) {
	d.args = append(d.args, arg)
}

func (d *GenericDefinition) Description() string {
	return d.description
}

func (d *GenericDefinition) SetDescription(desc string) {
	d.description = desc
}

// RootDefinition 完整的bean定义，除稳定元数据外还提供
// ResolvableType、SetInstanceSupplier、GetInstanceSupplier方法
type RootDefinition struct {
	GenericDefinition

	factoryMethod *FactoryMethod
	supplier      Supplier
	lock          sync.RWMutex
}

func NewRootDefinition(beanType reflect.Type, args ...interface{}) *RootDefinition {
	ret := &RootDefinition{}
	ret.SetBeanType(beanType)
	ret.args = args
	return ret
}

// NewFactoryDefinition 使用工厂方法创建bean定义，bean类型未设置
func NewFactoryDefinition(m *FactoryMethod, args ...interface{}) *RootDefinition {
	ret := &RootDefinition{
		factoryMethod: m,
	}
	ret.args = args
	if m != nil {
		ret.typeName = reflection.GetTypeName(m.ReturnType())
	}
	return ret
}

func (d *RootDefinition) SetFactoryMethod(m *FactoryMethod) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.factoryMethod = m
}

func (d *RootDefinition) ResolvedFactoryMethod() *FactoryMethod {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.factoryMethod
}

func (d *RootDefinition) ResolvableType() ResolvableType {
	if m := d.ResolvedFactoryMethod(); m != nil {
		return ForMethodReturnType(m)
	}
	return ForType(d.beanType)
}

func (d *RootDefinition) SetInstanceSupplier(supplier Supplier) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.supplier = supplier
}

func (d *RootDefinition) GetInstanceSupplier() Supplier {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.supplier
}
