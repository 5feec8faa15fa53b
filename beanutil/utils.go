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
	"reflect"

	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/neve-ext/reflection"
)

// Predicate bean定义过滤条件
type Predicate func(def bean.AbstractDefinition) bool

// GenericBeanDefinition 创建应用角色的bean定义，args为构造参数
func GenericBeanDefinition(beanType reflect.Type, args ...interface{}) *bean.RootDefinition {
	return GenericBeanDefinitionWithRole(beanType, bean.RoleApplication, args...)
}

func GenericBeanDefinitionWithRole(beanType reflect.Type, role bean.Role, args ...interface{}) *bean.RootDefinition {
	def := bean.NewRootDefinition(beanType)
	def.SetRole(role)
	for _, arg := range args {
		def.AddConstructorArg(arg)
	}
	return def
}

// ResolveBeanType 先通过ResolveType解析，无法解析时使用bean类型名称在types中查找。
// types为nil时使用默认类型注册表，均无法解析时返回nil
func ResolveBeanType(def bean.AbstractDefinition, types *reflection.TypeRegistry) reflect.Type {
	if t := ResolveType(def).Resolve(); t != nil {
		return t
	}
	if isNilDefinition(def) {
		return nil
	}
	if types == nil {
		types = reflection.DefaultTypeRegistry()
	}
	t, _ := types.Lookup(def.BeanTypeName())
	return t
}

// And 组合多个条件，没有条件时匹配所有定义
func And(predicates ...Predicate) Predicate {
	return func(def bean.AbstractDefinition) bool {
		for _, p := range predicates {
			if p != nil && !p(def) {
				return false
			}
		}
		return true
	}
}

func HasRole(role bean.Role) Predicate {
	return func(def bean.AbstractDefinition) bool {
		return !isNilDefinition(def) && def.Role() == role
	}
}

// AssignableTo 匹配解析类型可赋值给t的定义
func AssignableTo(t reflect.Type) Predicate {
	return func(def bean.AbstractDefinition) bool {
		rt := ResolveType(def).Resolve()
		return rt != nil && t != nil && rt.AssignableTo(t)
	}
}

// FindBeanNames 按注册表顺序返回匹配所有条件的bean名称
func FindBeanNames(registry bean.Registry, predicates ...Predicate) []string {
	p := And(predicates...)
	var ret []string
	registry.Scan(func(name string, def bean.AbstractDefinition) bool {
		if p(def) {
			ret = append(ret, name)
		}
		return true
	})
	return ret
}

func FindInfrastructureBeanNames(registry bean.Registry) []string {
	return FindBeanNames(registry, IsInfrastructureBean)
}

func IsInfrastructureBean(def bean.AbstractDefinition) bool {
	return !isNilDefinition(def) && def.Role() == bean.RoleInfrastructure
}
