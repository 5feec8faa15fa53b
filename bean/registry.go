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
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/xfali/goutils/container/skiplist"
	errors2 "github.com/xfali/neve-ext/errors"
	"github.com/xfali/xlog"
)

const (
	defaultPoolSize = 128
	defaultOrder    = 0
)

type Registry interface {
	// 注册bean定义，name为空时使用定义名称或者类型名称
	// opts添加bean注册的配置，详情查看bean.RegisterOpt
	RegisterDefinition(name string, def AbstractDefinition, opts ...RegisterOpt) error

	// 删除bean定义，已创建的实例不受影响
	RemoveDefinition(name string) error

	GetDefinition(name string) (AbstractDefinition, bool)

	ContainsDefinition(name string) bool

	// 按注册顺序（优先order）返回所有bean定义名称
	DefinitionNames() []string

	DefinitionCount() int

	// 遍历bean定义，f返回false时停止
	Scan(f func(name string, def AbstractDefinition) bool)

	// 获得bean实例，实例为单例，首次获取时创建
	GetBean(name string) (interface{}, error)

	// 按顺序创建所有bean实例
	PreInstantiate() error

	// 按创建顺序遍历已创建的bean实例
	ScanBeans(f func(name string, o interface{}) bool)

	// 通知所有已创建的Initializing实例，只执行一次
	AfterSet() error

	// 按创建逆序销毁Disposable实例，只执行一次
	Destroy() error
}

// Instantiator 根据bean定义创建实例
type Instantiator interface {
	Instantiate(def AbstractDefinition) (interface{}, error)
}

type InstantiatorFunc func(def AbstractDefinition) (interface{}, error)

func (f InstantiatorFunc) Instantiate(def AbstractDefinition) (interface{}, error) {
	return f(def)
}

// DefaultInstantiator 仅使用稳定元数据创建实例：
// 优先调用工厂方法，否则根据bean类型创建零值对象
var DefaultInstantiator Instantiator = InstantiatorFunc(Instantiate)

func Instantiate(def AbstractDefinition) (interface{}, error) {
	if def == nil {
		return nil, errors.New("Definition is nil. ")
	}
	if h, ok := def.(FactoryMethodHolder); ok {
		if m := h.ResolvedFactoryMethod(); m != nil {
			return m.Call(def.ConstructorArgs()...)
		}
	}
	if !def.HasBeanType() {
		return nil, fmt.Errorf("Definition %s has no bean type ", def.BeanTypeName())
	}
	t := def.BeanType()
	switch t.Kind() {
	case reflect.Ptr:
		if t.Elem().Kind() == reflect.Ptr {
			return nil, errors.New("Bean type must be a Pointer but get Pointer's Pointer")
		}
		return reflect.New(t.Elem()).Interface(), nil
	case reflect.Map:
		return reflect.MakeMap(t).Interface(), nil
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0).Interface(), nil
	case reflect.Interface, reflect.Func, reflect.Chan:
		return nil, fmt.Errorf("Cannot instantiate type %s without supplier or factory method ", t.String())
	default:
		return reflect.New(t).Elem().Interface(), nil
	}
}

type RegistryOpt func(*defaultRegistry)

func OptSetInstantiator(i Instantiator) RegistryOpt {
	return func(r *defaultRegistry) {
		r.instantiator = i
	}
}

func OptSetRegistryLogger(logger xlog.Logger) RegistryOpt {
	return func(r *defaultRegistry) {
		r.logger = logger
	}
}

type elem struct {
	def   AbstractDefinition
	order int
}

func newElem(opts ...RegisterOpt) *elem {
	ret := &elem{
		order: defaultOrder,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (e *elem) Set(key string, value interface{}) {
	if key == KeySetOrder {
		e.order = value.(int)
	}
}

// pool 按order排序保存bean定义，相同order按注册顺序
type pool struct {
	l *skiplist.SkipList
	m map[string]*elem

	k     []string
	dirty bool

	locker sync.Mutex
}

func newPool(initSize int) *pool {
	return &pool{
		m: make(map[string]*elem, initSize),
		l: skiplist.New(skiplist.SetKeyCompareFunc(skiplist.CompareInt)),
	}
}

func (p *pool) keys() []string {
	p.locker.Lock()
	defer p.locker.Unlock()

	if !p.dirty {
		return p.k
	}

	ret := make([]string, 0, len(p.m))
	for x := p.l.First(); x != nil; x = x.Next() {
		ret = append(ret, x.Value().([]string)...)
	}

	p.k = ret
	p.dirty = false
	return ret
}

func (p *pool) loadOrStore(name string, e *elem) (*elem, bool) {
	p.locker.Lock()
	defer p.locker.Unlock()

	if v, ok := p.m[name]; ok {
		return v, true
	}
	keys := p.l.Get(e.order)
	if keys == nil {
		keys = []string{name}
	} else {
		keys = append(keys.([]string), name)
	}
	p.l.Set(e.order, keys)
	p.m[name] = e
	p.dirty = true
	return e, false
}

func (p *pool) remove(name string) bool {
	p.locker.Lock()
	defer p.locker.Unlock()

	e, ok := p.m[name]
	if !ok {
		return false
	}
	delete(p.m, name)
	if keys := p.l.Get(e.order); keys != nil {
		old := keys.([]string)
		left := make([]string, 0, len(old))
		for _, k := range old {
			if k != name {
				left = append(left, k)
			}
		}
		p.l.Set(e.order, left)
	}
	p.dirty = true
	return true
}

func (p *pool) load(name string) (*elem, bool) {
	p.locker.Lock()
	defer p.locker.Unlock()

	v, ok := p.m[name]
	return v, ok
}

func (p *pool) size() int {
	p.locker.Lock()
	defer p.locker.Unlock()

	return len(p.m)
}

type defaultRegistry struct {
	objectPool   *pool
	instantiator Instantiator
	logger       xlog.Logger

	singletons map[string]interface{}
	creating   map[string]*creation
	// goroutine正在等待创建完成的bean名称
	waiting map[int64]string
	created []string
	lock    sync.Mutex

	afterSetOnce int32
	destroyOnce  int32
}

func NewRegistry(opts ...RegistryOpt) *defaultRegistry {
	ret := &defaultRegistry{
		objectPool:   newPool(defaultPoolSize),
		instantiator: DefaultInstantiator,
		logger:       xlog.GetLogger(),
		singletons:   map[string]interface{}{},
		creating:     map[string]*creation{},
		waiting:      map[int64]string{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (r *defaultRegistry) RegisterDefinition(name string, def AbstractDefinition, opts ...RegisterOpt) error {
	if def == nil {
		return errors.New("Definition is nil. ")
	}
	if name == "" {
		name = def.Name()
		if name == "" {
			name = def.BeanTypeName()
		}
		if name == "" {
			return errors.New("Cannot get bean name. ")
		}
	}

	e := newElem(opts...)
	e.def = def
	_, loaded := r.objectPool.loadOrStore(name, e)
	if loaded {
		return errors.New(name + " bean is exists. ")
	}
	r.logger.Debugf("register bean definition: %s type: %s\n", name, def.BeanTypeName())
	return nil
}

func (r *defaultRegistry) RemoveDefinition(name string) error {
	if !r.objectPool.remove(name) {
		return errors.New(name + " bean not found. ")
	}
	return nil
}

func (r *defaultRegistry) GetDefinition(name string) (AbstractDefinition, bool) {
	e, ok := r.objectPool.load(name)
	if ok {
		return e.def, true
	}
	return nil, false
}

func (r *defaultRegistry) ContainsDefinition(name string) bool {
	_, ok := r.objectPool.load(name)
	return ok
}

func (r *defaultRegistry) DefinitionNames() []string {
	keys := r.objectPool.keys()
	ret := make([]string, len(keys))
	copy(ret, keys)
	return ret
}

func (r *defaultRegistry) DefinitionCount() int {
	return r.objectPool.size()
}

func (r *defaultRegistry) Scan(f func(name string, def AbstractDefinition) bool) {
	keys := r.objectPool.keys()
	for _, k := range keys {
		if v, ok := r.objectPool.load(k); ok {
			if !f(k, v.def) {
				break
			}
		}
	}
}

// creation 正在创建的bean，其他goroutine等待done后获得创建结果
type creation struct {
	owner int64
	done  chan struct{}
	err   error
}

// GetBean 获得单例bean，bean不存在时创建。
// 并发获取同一个正在创建的bean时等待创建完成；创建过程中（直接或经由其他goroutine）再次获取自身时返回循环依赖错误。
func (r *defaultRegistry) GetBean(name string) (interface{}, error) {
	gid := goroutineID()
	r.lock.Lock()
	for {
		if o, ok := r.singletons[name]; ok {
			r.lock.Unlock()
			return o, nil
		}
		c, ok := r.creating[name]
		if !ok {
			break
		}
		if r.waitsFor(c.owner, gid) {
			r.lock.Unlock()
			return nil, fmt.Errorf("Bean %s Circular dependency ", name)
		}
		r.waiting[gid] = name
		r.lock.Unlock()

		<-c.done

		r.lock.Lock()
		delete(r.waiting, gid)
		if c.err != nil {
			r.lock.Unlock()
			return nil, c.err
		}
	}
	e, ok := r.objectPool.load(name)
	if !ok {
		r.lock.Unlock()
		return nil, errors.New(name + " bean not found. ")
	}
	c := &creation{
		owner: gid,
		done:  make(chan struct{}),
	}
	r.creating[name] = c
	r.lock.Unlock()

	o, err := r.instantiator.Instantiate(e.def)

	r.lock.Lock()
	defer r.lock.Unlock()
	defer close(c.done)
	delete(r.creating, name)
	if err != nil {
		c.err = fmt.Errorf("Create bean %s failed: %w", name, err)
		return nil, c.err
	}
	if o == nil {
		c.err = fmt.Errorf("Create bean %s failed: instance is nil ", name)
		return nil, c.err
	}
	r.singletons[name] = o
	r.created = append(r.created, name)
	return o, nil
}

// waitsFor 沿等待链从owner查找，判断owner是否（间接）在等待gid创建的bean
func (r *defaultRegistry) waitsFor(owner, gid int64) bool {
	cur := owner
	for i := 0; i <= len(r.waiting); i++ {
		if cur == gid {
			return true
		}
		name, ok := r.waiting[cur]
		if !ok {
			return false
		}
		c, ok := r.creating[name]
		if !ok {
			return false
		}
		cur = c.owner
	}
	return false
}

func goroutineID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	// "goroutine 18 [running]: ..."
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}

func (r *defaultRegistry) PreInstantiate() error {
	var errs errors2.Errors
	for _, name := range r.DefinitionNames() {
		_, err := r.GetBean(name)
		errs.AddError(err)
	}
	return errs.ErrorOrNil()
}

func (r *defaultRegistry) createdBeans() ([]string, []interface{}) {
	r.lock.Lock()
	defer r.lock.Unlock()

	names := make([]string, len(r.created))
	copy(names, r.created)
	beans := make([]interface{}, len(names))
	for i, name := range names {
		beans[i] = r.singletons[name]
	}
	return names, beans
}

func (r *defaultRegistry) ScanBeans(f func(name string, o interface{}) bool) {
	names, beans := r.createdBeans()
	for i := range names {
		if !f(names[i], beans[i]) {
			break
		}
	}
}

func (r *defaultRegistry) AfterSet() error {
	if !atomic.CompareAndSwapInt32(&r.afterSetOnce, 0, 1) {
		return nil
	}
	var errs errors2.Errors
	r.ScanBeans(func(name string, o interface{}) bool {
		if v, ok := o.(Initializing); ok {
			errs.AddError(v.BeanAfterSet())
		}
		return true
	})
	return errs.ErrorOrNil()
}

func (r *defaultRegistry) Destroy() error {
	if !atomic.CompareAndSwapInt32(&r.destroyOnce, 0, 1) {
		return nil
	}
	names, beans := r.createdBeans()
	var errs errors2.Errors
	for i := len(beans) - 1; i >= 0; i-- {
		if v, ok := beans[i].(Disposable); ok {
			err := v.BeanDestroy()
			if err != nil {
				r.logger.Errorf("destroy bean %s failed: %v\n", names[i], err)
				errs.AddError(err)
			}
		}
	}
	return errs.ErrorOrNil()
}
