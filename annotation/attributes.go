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

package annotation

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const (
	// 未指定名称的属性
	ValueAttribute = "value"

	attrSeparator  = ","
	valueSeparator = "="
)

// PlaceholderResolver 解析文本中的占位符，env.Environment实现了该接口
type PlaceholderResolver interface {
	ResolvePlaceholders(text string) string
}

// Attributes 一组具名属性，类型名称对应tag的key
type Attributes struct {
	typeName string
	values   map[string]interface{}
}

func NewAttributes(typeName string, values map[string]interface{}) *Attributes {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &Attributes{
		typeName: typeName,
		values:   m,
	}
}

// FromStructTag 解析struct tag中key对应的属性，格式：
//
//	`key:"a=1,b=x,y"`
//
// 没有"="的项追加到value属性，同名属性多次出现时合并为[]string。
func FromStructTag(tag reflect.StructTag, key string) (*Attributes, bool) {
	v, ok := tag.Lookup(key)
	if !ok {
		return nil, false
	}
	ret := NewAttributes(key, nil)
	for _, item := range strings.Split(v, attrSeparator) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, value := ValueAttribute, item
		if i := strings.Index(item, valueSeparator); i > 0 {
			name, value = strings.TrimSpace(item[:i]), strings.TrimSpace(item[i+1:])
		}
		ret.add(name, value)
	}
	return ret, true
}

func (a *Attributes) add(name, value string) {
	switch old := a.values[name].(type) {
	case nil:
		a.values[name] = value
	case string:
		a.values[name] = []string{old, value}
	case []string:
		a.values[name] = append(old, value)
	}
}

func (a *Attributes) Type() string {
	return a.typeName
}

func (a *Attributes) Get(name string) (interface{}, bool) {
	v, ok := a.values[name]
	return v, ok
}

func (a *Attributes) Set(name string, value interface{}) {
	a.values[name] = value
}

func (a *Attributes) Names() []string {
	ret := make([]string, 0, len(a.values))
	for k := range a.values {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func (a *Attributes) GetString(name string) string {
	switch v := a.values[name].(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, attrSeparator)
	case nil:
		return ""
	default:
		return ""
	}
}

func (a *Attributes) GetStringSlice(name string) []string {
	switch v := a.values[name].(type) {
	case string:
		return []string{v}
	case []string:
		ret := make([]string, len(v))
		copy(ret, v)
		return ret
	default:
		return nil
	}
}

// GetBool 字符串属性使用strconv.ParseBool解析，无法解析返回false
func (a *Attributes) GetBool(name string) bool {
	switch v := a.values[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func (a *Attributes) GetAttributes(name string) (*Attributes, bool) {
	v, ok := a.values[name].(*Attributes)
	return v, ok
}

func (a *Attributes) GetAttributesSlice(name string) []*Attributes {
	v, _ := a.values[name].([]*Attributes)
	return v
}

// NewResolvableAttributes 返回attrs的副本，其中string、[]string以及嵌套属性中的占位符
// 已使用resolver解析。resolver为nil时仅复制。
func NewResolvableAttributes(attrs *Attributes, resolver PlaceholderResolver) *Attributes {
	if attrs == nil {
		return nil
	}
	ret := NewAttributes(attrs.typeName, nil)
	for k, v := range attrs.values {
		ret.values[k] = resolveValue(v, resolver)
	}
	return ret
}

func resolveValue(v interface{}, resolver PlaceholderResolver) interface{} {
	switch x := v.(type) {
	case string:
		if resolver == nil {
			return x
		}
		return resolver.ResolvePlaceholders(x)
	case []string:
		ret := make([]string, len(x))
		for i, s := range x {
			ret[i] = resolveValue(s, resolver).(string)
		}
		return ret
	case *Attributes:
		return NewResolvableAttributes(x, resolver)
	case []*Attributes:
		ret := make([]*Attributes, len(x))
		for i, sub := range x {
			ret[i] = NewResolvableAttributes(sub, resolver)
		}
		return ret
	default:
		return v
	}
}
