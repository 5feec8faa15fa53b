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
	"fmt"
	"reflect"

	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/xlog"
)

const (
	// bean.RootDefinition.ResolvableType()
	GetResolvableTypeMethodName = "ResolvableType"
	// bean.RootDefinition.SetInstanceSupplier(bean.Supplier)
	SetInstanceSupplierMethodName = "SetInstanceSupplier"
	// bean.RootDefinition.GetInstanceSupplier()
	GetInstanceSupplierMethodName = "GetInstanceSupplier"
)

var (
	rootDefinitionType = reflect.TypeOf((*bean.RootDefinition)(nil))
	resolvableTypeType = reflect.TypeOf(bean.ResolvableType{})
	supplierType       = reflect.TypeOf(bean.Supplier(nil))

	// 包初始化时完成探测，之后只读
	defaultCompat = NewCompat(rootDefinitionType, rootDefinitionType)
)

type Outcome int

const (
	// 已设置
	OutcomeApplied Outcome = iota
	// 当前bean定义类型不支持该操作
	OutcomeUnsupported
	// 参数无效，例如supplier为nil
	OutcomeInvalid
	// 调用失败
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnsupported:
		return "unsupported"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

type TypeResolver interface {
	// 解析bean定义的类型，无法解析时返回bean.NoneType
	ResolveType(def bean.AbstractDefinition) bean.ResolvableType

	// 是否绑定了bean定义自身的方法
	Bound() bool
}

type SupplierSetter interface {
	SetInstanceSupplier(def bean.AbstractDefinition, supplier bean.Supplier) Outcome

	Bound() bool
}

type SupplierGetter interface {
	GetInstanceSupplier(def bean.AbstractDefinition) (bean.Supplier, bool)

	Bound() bool
}

// Compat 根据探测结果选择的访问策略，创建后不可修改，可并发读取
type Compat struct {
	resolver TypeResolver
	setter   SupplierSetter
	getter   SupplierGetter
}

type CompatOpt func(*compatConfig)

type compatConfig struct {
	logger xlog.Logger
}

func OptSetCompatLogger(logger xlog.Logger) CompatOpt {
	return func(c *compatConfig) {
		c.logger = logger
	}
}

// NewCompat 分别在typeTarget上探测ResolvableType，在supplierTarget上探测
// SetInstanceSupplier/GetInstanceSupplier，每个方法只探测一次。
func NewCompat(typeTarget, supplierTarget reflect.Type, opts ...CompatOpt) *Compat {
	conf := &compatConfig{
		logger: xlog.GetLogger(),
	}
	for _, opt := range opts {
		opt(conf)
	}
	logger := conf.logger

	ret := &Compat{}
	if inv := probeAndLog(logger, typeTarget, GetResolvableTypeMethodName, nil, []reflect.Type{resolvableTypeType}); inv != nil {
		ret.resolver = &boundTypeResolver{invoker: inv, logger: logger}
	} else {
		ret.resolver = fallbackTypeResolver{}
	}

	if inv := probeAndLog(logger, supplierTarget, SetInstanceSupplierMethodName, []reflect.Type{supplierType}, nil); inv != nil {
		ret.setter = &boundSupplierSetter{invoker: inv, logger: logger}
	} else {
		ret.setter = unsupportedSupplierSetter{}
	}

	if inv := probeAndLog(logger, supplierTarget, GetInstanceSupplierMethodName, nil, []reflect.Type{supplierType}); inv != nil {
		ret.getter = &boundSupplierGetter{invoker: inv, logger: logger}
	} else {
		ret.getter = unsupportedSupplierGetter{}
	}
	return ret
}

func probeAndLog(logger xlog.Logger, target reflect.Type, name string, in, out []reflect.Type) *Invoker {
	inv, err := probe(target, name, in, out)
	if err != nil {
		logger.Debugf("%v, use fallback\n", err)
		return nil
	}
	if inv == nil {
		logger.Debugf("method %s.%s not present, use fallback\n", typeString(target), name)
	}
	return inv
}

// DefaultCompat 返回包初始化时针对bean.RootDefinition探测得到的Compat
func DefaultCompat() *Compat {
	return defaultCompat
}

func (c *Compat) ResolveType(def bean.AbstractDefinition) bean.ResolvableType {
	return c.resolver.ResolveType(def)
}

// SetInstanceSupplier 设置实例supplier，当且仅当设置成功时返回true
func (c *Compat) SetInstanceSupplier(def bean.AbstractDefinition, supplier bean.Supplier) bool {
	return c.setter.SetInstanceSupplier(def, supplier) == OutcomeApplied
}

// TrySetInstanceSupplier 与SetInstanceSupplier相同，但返回具体结果
func (c *Compat) TrySetInstanceSupplier(def bean.AbstractDefinition, supplier bean.Supplier) Outcome {
	return c.setter.SetInstanceSupplier(def, supplier)
}

func (c *Compat) GetInstanceSupplier(def bean.AbstractDefinition) (bean.Supplier, bool) {
	return c.getter.GetInstanceSupplier(def)
}

func (c *Compat) IsGetResolvableTypeMethodPresent() bool {
	return c.resolver.Bound()
}

func (c *Compat) IsSetInstanceSupplierMethodPresent() bool {
	return c.setter.Bound()
}

func (c *Compat) IsGetInstanceSupplierMethodPresent() bool {
	return c.getter.Bound()
}

// Instantiator 优先使用实例supplier创建bean，否则使用bean.Instantiate
func (c *Compat) Instantiator() bean.Instantiator {
	return bean.InstantiatorFunc(func(def bean.AbstractDefinition) (interface{}, error) {
		if s, ok := c.GetInstanceSupplier(def); ok {
			return s()
		}
		return bean.Instantiate(def)
	})
}

// NewSupplierDefinition 创建由supplier提供实例的bean定义。
// 不支持SetInstanceSupplier时使用返回beanType的工厂方法代替。
func (c *Compat) NewSupplierDefinition(beanType reflect.Type, supplier bean.Supplier) (*bean.RootDefinition, error) {
	if beanType == nil || supplier == nil {
		return nil, fmt.Errorf("bean type and supplier must not be nil")
	}
	def := bean.NewRootDefinition(beanType)
	if c.SetInstanceSupplier(def, supplier) {
		return def, nil
	}
	m, err := bean.NewFactoryMethod("", supplierFunction(beanType, supplier))
	if err != nil {
		return nil, err
	}
	def.SetFactoryMethod(m)
	return def, nil
}

func supplierFunction(beanType reflect.Type, supplier bean.Supplier) interface{} {
	ft := reflect.FuncOf(nil, []reflect.Type{beanType, bean.ErrorType}, false)
	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		ov := reflect.New(beanType).Elem()
		ev := reflect.New(bean.ErrorType).Elem()
		o, err := supplier()
		if err == nil && o != nil {
			v := reflect.ValueOf(o)
			if v.Type().AssignableTo(beanType) {
				ov.Set(v)
			} else {
				err = fmt.Errorf("supplier return %s, not assignable to %s", v.Type(), beanType)
			}
		}
		if err != nil {
			ev.Set(reflect.ValueOf(&err).Elem())
		}
		return []reflect.Value{ov, ev}
	}).Interface()
}

func isNilDefinition(def bean.AbstractDefinition) bool {
	if def == nil {
		return true
	}
	v := reflect.ValueOf(def)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// fallbackResolvableType 顺序不可调整：工厂方法返回类型 > bean类型 > NoneType
func fallbackResolvableType(def bean.AbstractDefinition) bean.ResolvableType {
	if isNilDefinition(def) {
		return bean.NoneType
	}
	if h, ok := def.(bean.FactoryMethodHolder); ok {
		if m := h.ResolvedFactoryMethod(); m != nil {
			return bean.ForMethodReturnType(m)
		}
	}
	if def.HasBeanType() {
		return bean.ForType(def.BeanType())
	}
	return bean.NoneType
}

type fallbackTypeResolver struct{}

func (fallbackTypeResolver) ResolveType(def bean.AbstractDefinition) bean.ResolvableType {
	return fallbackResolvableType(def)
}

func (fallbackTypeResolver) Bound() bool {
	return false
}

type boundTypeResolver struct {
	invoker *Invoker
	logger  xlog.Logger
}

func (r *boundTypeResolver) ResolveType(def bean.AbstractDefinition) bean.ResolvableType {
	if isNilDefinition(def) || !r.invoker.Accepts(def) {
		return fallbackResolvableType(def)
	}
	ret, err := r.invoker.Call(def)
	if err != nil {
		r.logger.Warnf("%v, resolve type by fallback\n", err)
		return fallbackResolvableType(def)
	}
	return ret[0].Interface().(bean.ResolvableType)
}

func (r *boundTypeResolver) Bound() bool {
	return true
}

type unsupportedSupplierSetter struct{}

func (unsupportedSupplierSetter) SetInstanceSupplier(def bean.AbstractDefinition, supplier bean.Supplier) Outcome {
	return OutcomeUnsupported
}

func (unsupportedSupplierSetter) Bound() bool {
	return false
}

type boundSupplierSetter struct {
	invoker *Invoker
	logger  xlog.Logger
}

func (s *boundSupplierSetter) SetInstanceSupplier(def bean.AbstractDefinition, supplier bean.Supplier) Outcome {
	if supplier == nil || isNilDefinition(def) {
		return OutcomeInvalid
	}
	if !s.invoker.Accepts(def) {
		return OutcomeUnsupported
	}
	_, err := s.invoker.Call(def, reflect.ValueOf(supplier))
	if err != nil {
		s.logger.Warnf("%v, instance supplier not applied\n", err)
		return OutcomeFailed
	}
	return OutcomeApplied
}

func (s *boundSupplierSetter) Bound() bool {
	return true
}

type unsupportedSupplierGetter struct{}

func (unsupportedSupplierGetter) GetInstanceSupplier(def bean.AbstractDefinition) (bean.Supplier, bool) {
	return nil, false
}

func (unsupportedSupplierGetter) Bound() bool {
	return false
}

type boundSupplierGetter struct {
	invoker *Invoker
	logger  xlog.Logger
}

func (g *boundSupplierGetter) GetInstanceSupplier(def bean.AbstractDefinition) (bean.Supplier, bool) {
	if isNilDefinition(def) || !g.invoker.Accepts(def) {
		return nil, false
	}
	ret, err := g.invoker.Call(def)
	if err != nil {
		g.logger.Warnf("%v, instance supplier ignored\n", err)
		return nil, false
	}
	s := ret[0].Interface().(bean.Supplier)
	return s, s != nil
}

func (g *boundSupplierGetter) Bound() bool {
	return true
}

func ResolveType(def bean.AbstractDefinition) bean.ResolvableType {
	return defaultCompat.ResolveType(def)
}

func SetInstanceSupplier(def bean.AbstractDefinition, supplier bean.Supplier) bool {
	return defaultCompat.SetInstanceSupplier(def, supplier)
}

func TrySetInstanceSupplier(def bean.AbstractDefinition, supplier bean.Supplier) Outcome {
	return defaultCompat.TrySetInstanceSupplier(def, supplier)
}

func GetInstanceSupplier(def bean.AbstractDefinition) (bean.Supplier, bool) {
	return defaultCompat.GetInstanceSupplier(def)
}

func IsGetResolvableTypeMethodPresent() bool {
	return defaultCompat.IsGetResolvableTypeMethodPresent()
}

func IsSetInstanceSupplierMethodPresent() bool {
	return defaultCompat.IsSetInstanceSupplierMethodPresent()
}

func IsGetInstanceSupplierMethodPresent() bool {
	return defaultCompat.IsGetInstanceSupplierMethodPresent()
}
