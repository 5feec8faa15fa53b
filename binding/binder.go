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

package binding

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	ValueTagName  = "value"
	ListSeparator = ","
	KeySeparator  = "."
)

var durationType = reflect.TypeOf(time.Duration(0))

// PropertyResolver 属性查找，env.Environment实现了该接口
type PropertyResolver interface {
	GetProperty(key string) (string, bool)
}

type Binder struct {
	// 忽略无法转换的属性值
	IgnoreInvalidFields bool
}

// Bind 使用默认Binder绑定属性
func Bind(resolver PropertyResolver, prefix string, target interface{}) error {
	b := Binder{}
	_, err := b.Bind(resolver, prefix, target)
	return err
}

// Bind 将prefix下的属性绑定到target，target必须为非nil的结构体指针。
// 字段使用tag `value:"name"`指定属性名，否则使用首字母小写的字段名，"-"表示忽略。
// 返回成功绑定的属性个数。
func (b Binder) Bind(resolver PropertyResolver, prefix string, target interface{}) (int, error) {
	if resolver == nil {
		return 0, errors.New("PropertyResolver is nil. ")
	}
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return 0, fmt.Errorf("bind target must be a non-nil struct pointer, but get %T ", target)
	}
	return b.bindStruct(resolver, prefix, v.Elem())
}

func (b Binder) bindStruct(resolver PropertyResolver, prefix string, v reflect.Value) (int, error) {
	t := v.Type()
	count := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := PropertyName(f)
		if name == "" {
			continue
		}
		key := JoinKey(prefix, name)
		n, err := b.bindField(resolver, key, v.Field(i))
		if err != nil {
			if b.IgnoreInvalidFields {
				continue
			}
			return count, err
		}
		count += n
	}
	return count, nil
}

func (b Binder) bindField(resolver PropertyResolver, key string, fv reflect.Value) (int, error) {
	switch {
	case fv.Kind() == reflect.Struct:
		return b.bindStruct(resolver, key, fv)
	case fv.Kind() == reflect.Ptr && fv.Type().Elem().Kind() == reflect.Struct:
		nv := reflect.New(fv.Type().Elem())
		if !fv.IsNil() {
			nv = fv
		}
		n, err := b.bindStruct(resolver, key, nv.Elem())
		if n > 0 {
			fv.Set(nv)
		}
		return n, err
	}
	s, ok := resolver.GetProperty(key)
	if !ok {
		return 0, nil
	}
	if err := SetValue(fv, s); err != nil {
		return 0, fmt.Errorf("bind property %s failed: %w", key, err)
	}
	return 1, nil
}

// PropertyName 字段对应的属性名称，忽略的字段返回空
func PropertyName(f reflect.StructField) string {
	name := f.Tag.Get(ValueTagName)
	if name == "-" {
		return ""
	}
	if name == "" {
		r, size := utf8.DecodeRuneInString(f.Name)
		name = string(unicode.ToLower(r)) + f.Name[size:]
	}
	return name
}

func JoinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + KeySeparator + name
}

// SetValue 将字符串转换为v的类型并赋值
func SetValue(v reflect.Value, s string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(s), 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(strings.TrimSpace(s), 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Slice || v.Type().Elem().Kind() == reflect.Struct {
			return fmt.Errorf("unsupported slice type %s ", v.Type())
		}
		var items []string
		if strings.TrimSpace(s) != "" {
			items = strings.Split(s, ListSeparator)
		}
		sv := reflect.MakeSlice(v.Type(), len(items), len(items))
		for i, item := range items {
			if err := SetValue(sv.Index(i), strings.TrimSpace(item)); err != nil {
				return err
			}
		}
		v.Set(sv)
	case reflect.Ptr:
		nv := reflect.New(v.Type().Elem())
		if err := SetValue(nv.Elem(), s); err != nil {
			return err
		}
		v.Set(nv)
	default:
		return fmt.Errorf("unsupported type %s ", v.Type())
	}
	return nil
}
