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
	"sort"
	"strings"

	"github.com/xfali/neve-ext/annotation"
	"github.com/xfali/neve-ext/bean"
	"github.com/xfali/neve-ext/beanutil"
	"github.com/xfali/neve-ext/env"
	errors2 "github.com/xfali/neve-ext/errors"
	"github.com/xfali/xlog"
)

const (
	BindingTagName = "binding"

	AttrPrefix              = "prefix"
	AttrMultiple            = "multiple"
	AttrName                = "name"
	AttrIgnoreInvalidFields = "ignoreInvalidFields"
)

// Binding 配置bean绑定描述
type Binding struct {
	// 属性前缀，支持占位符
	Prefix string

	// bean类型，必须为结构体指针
	Type reflect.Type

	// 为true时，prefix下每个不同的一级子key注册一个bean，bean名称为该子key
	Multiple bool

	// 单个绑定时的bean名称，为空时使用类型名称
	Name string

	IgnoreInvalidFields bool
}

// BindingsOf 从结构体字段的binding tag读取绑定配置，字段类型即bean类型。例如：
//
//	type Config struct {
//	    User *User `binding:"prefix=${user.prefix:user},multiple=true"`
//	}
//
// tag中的值使用resolver解析占位符，resolver可为nil。
func BindingsOf(config interface{}, resolver annotation.PlaceholderResolver) ([]Binding, error) {
	t := reflect.TypeOf(config)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("bindings config must be a struct, but get %T ", config)
	}
	var ret []Binding
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		attrs, ok := annotation.FromStructTag(f.Tag, BindingTagName)
		if !ok {
			continue
		}
		attrs = annotation.NewResolvableAttributes(attrs, resolver)
		prefix := attrs.GetString(AttrPrefix)
		if prefix == "" {
			prefix = attrs.GetString(annotation.ValueAttribute)
		}
		ft := f.Type
		if ft.Kind() == reflect.Struct {
			ft = reflect.PtrTo(ft)
		}
		ret = append(ret, Binding{
			Prefix:              prefix,
			Type:                ft,
			Multiple:            attrs.GetBool(AttrMultiple),
			Name:                attrs.GetString(AttrName),
			IgnoreInvalidFields: attrs.GetBool(AttrIgnoreInvalidFields),
		})
	}
	return ret, nil
}

type Opt func(*Registrar)

// Registrar 根据绑定配置向bean.Registry注册配置bean，bean实例由supplier创建并绑定属性
type Registrar struct {
	logger   xlog.Logger
	env      *env.Environment
	compat   *beanutil.Compat
	bindings []Binding
	configs  []interface{}
}

func NewRegistrar(opts ...Opt) *Registrar {
	ret := &Registrar{
		logger: xlog.GetLogger(),
		compat: beanutil.DefaultCompat(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func OptSetLogger(logger xlog.Logger) Opt {
	return func(r *Registrar) {
		r.logger = logger
	}
}

func OptSetCompat(compat *beanutil.Compat) Opt {
	return func(r *Registrar) {
		r.compat = compat
	}
}

func OptAddBindings(bindings ...Binding) Opt {
	return func(r *Registrar) {
		r.bindings = append(r.bindings, bindings...)
	}
}

// OptAddBindingsOf 添加使用binding tag描述的配置，在RegisterDefinitions时解析
func OptAddBindingsOf(configs ...interface{}) Opt {
	return func(r *Registrar) {
		r.configs = append(r.configs, configs...)
	}
}

func (r *Registrar) SetEnvironment(e *env.Environment) {
	r.env = e
}

func (r *Registrar) RegisterDefinitions(registry bean.Registry) error {
	if r.env == nil {
		return errors.New("Environment is not set. ")
	}
	bindings := append([]Binding{}, r.bindings...)
	for _, c := range r.configs {
		bs, err := BindingsOf(c, r.env)
		if err != nil {
			return err
		}
		bindings = append(bindings, bs...)
	}

	var errs errors2.Errors
	for _, b := range bindings {
		errs.AddError(r.register(registry, b))
	}
	return errs.ErrorOrNil()
}

func (r *Registrar) register(registry bean.Registry, b Binding) error {
	if b.Type == nil || b.Type.Kind() != reflect.Ptr || b.Type.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("binding type must be a struct pointer, but get %v ", b.Type)
	}
	prefix := r.env.ResolvePlaceholders(b.Prefix)
	if !b.Multiple {
		return r.registerOne(registry, r.env.ResolvePlaceholders(b.Name), prefix, b)
	}

	var errs errors2.Errors
	ids := SubKeys(r.env.PropertyNames(), prefix)
	if len(ids) == 0 {
		r.logger.Warnf("no property found with prefix %s, binding type: %s\n", prefix, b.Type)
	}
	for _, id := range ids {
		errs.AddError(r.registerOne(registry, id, JoinKey(prefix, id), b))
	}
	return errs.ErrorOrNil()
}

func (r *Registrar) registerOne(registry bean.Registry, name, prefix string, b Binding) error {
	e := r.env
	binder := Binder{IgnoreInvalidFields: b.IgnoreInvalidFields}
	elemType := b.Type.Elem()
	def, err := r.compat.NewSupplierDefinition(b.Type, func() (interface{}, error) {
		o := reflect.New(elemType).Interface()
		if _, err := binder.Bind(e, prefix, o); err != nil {
			return nil, err
		}
		return o, nil
	})
	if err != nil {
		return err
	}
	def.SetName(name)
	def.SetDescription("configuration bean bound from prefix " + prefix)
	if err := registry.RegisterDefinition(name, def); err != nil {
		return err
	}
	r.logger.Infof("register configuration bean %s of type %s with prefix %s\n", name, b.Type, prefix)
	return nil
}

// SubKeys 返回names中prefix下所有不同的一级子key，例如prefix为user时，
// user.a.name与user.b[0]得到a、b
func SubKeys(names []string, prefix string) []string {
	set := map[string]struct{}{}
	p := prefix
	if p != "" {
		p += KeySeparator
	}
	for _, name := range names {
		if !strings.HasPrefix(name, p) {
			continue
		}
		rest := name[len(p):]
		if i := strings.IndexAny(rest, ".["); i >= 0 {
			rest = rest[:i]
		}
		if rest != "" {
			set[rest] = struct{}{}
		}
	}
	ret := make([]string, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}
