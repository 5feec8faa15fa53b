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

package env

import (
	"errors"
	"sort"
	"sync"

	"github.com/xfali/fig"
)

type PropertySource interface {
	// 属性源名称，在PropertySources中唯一
	Name() string

	// 获得原始属性值，不解析占位符
	GetProperty(key string) (string, bool)
}

// EnumerablePropertySource 可以列出所有属性名称的属性源
type EnumerablePropertySource interface {
	PropertySource

	PropertyNames() []string
}

type MapPropertySource struct {
	name  string
	props map[string]string
	lock  sync.RWMutex
}

func NewMapPropertySource(name string, props map[string]string) *MapPropertySource {
	m := make(map[string]string, len(props))
	for k, v := range props {
		m[k] = v
	}
	return &MapPropertySource{
		name:  name,
		props: m,
	}
}

func (s *MapPropertySource) Name() string {
	return s.name
}

func (s *MapPropertySource) GetProperty(key string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.props[key]
	return v, ok
}

func (s *MapPropertySource) SetProperty(key, value string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.props[key] = value
}

// Merge 合并属性，已存在的key会被覆盖
func (s *MapPropertySource) Merge(props map[string]string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for k, v := range props {
		s.props[k] = v
	}
}

func (s *MapPropertySource) PropertyNames() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	ret := make([]string, 0, len(s.props))
	for k := range s.props {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// FigPropertySource 使用fig加载的应用配置。
// 通过LoadYamlSource创建时持有展开后的原始属性，可以列出所有属性名称；
// 仅有fig.Properties时通过fig查找，空值视为不存在，且无法列出属性名称。
type FigPropertySource struct {
	name   string
	conf   fig.Properties
	values map[string]string
}

func NewFigPropertySource(name string, conf fig.Properties) *FigPropertySource {
	return &FigPropertySource{
		name: name,
		conf: conf,
	}
}

// NewEnumerableFigPropertySource values为配置文件展开后的属性，查找时优先于conf
func NewEnumerableFigPropertySource(name string, conf fig.Properties, values map[string]string) *FigPropertySource {
	m := make(map[string]string, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &FigPropertySource{
		name:   name,
		conf:   conf,
		values: m,
	}
}

func (s *FigPropertySource) Name() string {
	return s.name
}

func (s *FigPropertySource) GetProperty(key string) (string, bool) {
	if s.values != nil {
		v, ok := s.values[key]
		return v, ok
	}
	if s.conf == nil {
		return "", false
	}
	v := s.conf.Get(key, "")
	return v, v != ""
}

func (s *FigPropertySource) PropertyNames() []string {
	ret := make([]string, 0, len(s.values))
	for k := range s.values {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func (s *FigPropertySource) Properties() fig.Properties {
	return s.conf
}

// PropertySources 有序的属性源列表，越靠前优先级越高
type PropertySources struct {
	sources []PropertySource
	lock    sync.RWMutex
}

func NewPropertySources() *PropertySources {
	return &PropertySources{}
}

func (ps *PropertySources) indexOf(name string) int {
	for i, s := range ps.sources {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func (ps *PropertySources) removeLocked(name string) PropertySource {
	i := ps.indexOf(name)
	if i < 0 {
		return nil
	}
	ret := ps.sources[i]
	ps.sources = append(ps.sources[:i], ps.sources[i+1:]...)
	return ret
}

func (ps *PropertySources) insertLocked(i int, s PropertySource) {
	ps.sources = append(ps.sources, nil)
	copy(ps.sources[i+1:], ps.sources[i:])
	ps.sources[i] = s
}

// AddFirst 添加最高优先级的属性源，同名属性源会先被移除
func (ps *PropertySources) AddFirst(s PropertySource) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.removeLocked(s.Name())
	ps.insertLocked(0, s)
}

// AddLast 添加最低优先级的属性源，同名属性源会先被移除
func (ps *PropertySources) AddLast(s PropertySource) {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	ps.removeLocked(s.Name())
	ps.sources = append(ps.sources, s)
}

func (ps *PropertySources) AddBefore(relative string, s PropertySource) error {
	return ps.addRelative(relative, s, 0)
}

func (ps *PropertySources) AddAfter(relative string, s PropertySource) error {
	return ps.addRelative(relative, s, 1)
}

func (ps *PropertySources) addRelative(relative string, s PropertySource, offset int) error {
	if relative == s.Name() {
		return errors.New("PropertySource " + relative + " cannot be added relative to itself. ")
	}
	ps.lock.Lock()
	defer ps.lock.Unlock()
	if ps.indexOf(relative) < 0 {
		return errors.New("PropertySource " + relative + " does not exist. ")
	}
	ps.removeLocked(s.Name())
	ps.insertLocked(ps.indexOf(relative)+offset, s)
	return nil
}

// Replace 使用s替换名称为name的属性源，位置不变
func (ps *PropertySources) Replace(name string, s PropertySource) error {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	i := ps.indexOf(name)
	if i < 0 {
		return errors.New("PropertySource " + name + " does not exist. ")
	}
	ps.sources[i] = s
	return nil
}

func (ps *PropertySources) Remove(name string) PropertySource {
	ps.lock.Lock()
	defer ps.lock.Unlock()
	return ps.removeLocked(name)
}

func (ps *PropertySources) Contains(name string) bool {
	ps.lock.RLock()
	defer ps.lock.RUnlock()
	return ps.indexOf(name) >= 0
}

func (ps *PropertySources) Get(name string) (PropertySource, bool) {
	ps.lock.RLock()
	defer ps.lock.RUnlock()
	i := ps.indexOf(name)
	if i < 0 {
		return nil, false
	}
	return ps.sources[i], true
}

func (ps *PropertySources) List() []PropertySource {
	ps.lock.RLock()
	defer ps.lock.RUnlock()
	ret := make([]PropertySource, len(ps.sources))
	copy(ret, ps.sources)
	return ret
}

func (ps *PropertySources) Len() int {
	ps.lock.RLock()
	defer ps.lock.RUnlock()
	return len(ps.sources)
}
