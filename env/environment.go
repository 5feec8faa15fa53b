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
	"fmt"
	"sort"
	"strings"

	"github.com/xfali/xlog"
)

const (
	PlaceholderPrefix    = "${"
	PlaceholderSuffix    = "}"
	PlaceholderSeparator = ":"
)

type Opt func(*Environment)

type Environment struct {
	logger  xlog.Logger
	sources *PropertySources
}

func NewEnvironment(opts ...Opt) *Environment {
	ret := &Environment{
		logger:  xlog.GetLogger(),
		sources: NewPropertySources(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func OptSetLogger(logger xlog.Logger) Opt {
	return func(e *Environment) {
		e.logger = logger
	}
}

func OptSetPropertySources(sources *PropertySources) Opt {
	return func(e *Environment) {
		e.sources = sources
	}
}

func (e *Environment) PropertySources() *PropertySources {
	return e.sources
}

func (e *Environment) rawProperty(key string) (string, bool) {
	for _, s := range e.sources.List() {
		if v, ok := s.GetProperty(key); ok {
			return v, true
		}
	}
	return "", false
}

func (e *Environment) ContainsProperty(key string) bool {
	_, ok := e.rawProperty(key)
	return ok
}

// GetProperty 按属性源顺序查找属性并解析其中的占位符，无法解析的占位符保持原样
func (e *Environment) GetProperty(key string) (string, bool) {
	v, ok := e.rawProperty(key)
	if !ok {
		return "", false
	}
	ret, err := e.resolve(v, true)
	if err != nil {
		e.logger.Warnf("resolve property %s failed: %v\n", key, err)
		return v, true
	}
	return ret, true
}

func (e *Environment) GetPropertyOrDefault(key, defaultValue string) string {
	if v, ok := e.GetProperty(key); ok {
		return v
	}
	return defaultValue
}

func (e *Environment) GetRequiredProperty(key string) (string, error) {
	v, ok := e.rawProperty(key)
	if !ok {
		return "", fmt.Errorf("required key '%s' not found ", key)
	}
	return e.resolve(v, false)
}

// ResolvePlaceholders 解析text中的${key}、${key:default}占位符，无法解析的保持原样
func (e *Environment) ResolvePlaceholders(text string) string {
	ret, err := e.resolve(text, true)
	if err != nil {
		e.logger.Warnf("resolve placeholders in \"%s\" failed: %v\n", text, err)
		return text
	}
	return ret
}

// ResolveRequiredPlaceholders 与ResolvePlaceholders相同，但无法解析时返回错误
func (e *Environment) ResolveRequiredPlaceholders(text string) (string, error) {
	return e.resolve(text, false)
}

// PropertyNames 所有可枚举属性源中的属性名称
func (e *Environment) PropertyNames() []string {
	set := map[string]struct{}{}
	for _, s := range e.sources.List() {
		if es, ok := s.(EnumerablePropertySource); ok {
			for _, k := range es.PropertyNames() {
				set[k] = struct{}{}
			}
		}
	}
	ret := make([]string, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func (e *Environment) resolve(text string, ignoreUnresolvable bool) (string, error) {
	p := placeholderParser{
		lookup:             e.rawProperty,
		ignoreUnresolvable: ignoreUnresolvable,
	}
	return p.replace(text, map[string]struct{}{})
}

type placeholderParser struct {
	lookup             func(key string) (string, bool)
	ignoreUnresolvable bool
}

func (p *placeholderParser) replace(text string, visiting map[string]struct{}) (string, error) {
	buf := strings.Builder{}
	rest := text
	for {
		start := strings.Index(rest, PlaceholderPrefix)
		if start < 0 {
			buf.WriteString(rest)
			return buf.String(), nil
		}
		end := findPlaceholderEnd(rest, start)
		if end < 0 {
			buf.WriteString(rest)
			return buf.String(), nil
		}
		buf.WriteString(rest[:start])

		key, err := p.replace(rest[start+len(PlaceholderPrefix):end], visiting)
		if err != nil {
			return "", err
		}
		if _, ok := visiting[key]; ok {
			return "", fmt.Errorf("circular placeholder reference '%s' in property definitions ", key)
		}
		visiting[key] = struct{}{}

		value, ok := p.lookup(key)
		if !ok {
			if i := strings.Index(key, PlaceholderSeparator); i >= 0 {
				value, ok = p.lookup(key[:i])
				if !ok {
					value, ok = key[i+len(PlaceholderSeparator):], true
				}
			}
		}
		if ok {
			value, err = p.replace(value, visiting)
			if err != nil {
				return "", err
			}
			buf.WriteString(value)
		} else if p.ignoreUnresolvable {
			buf.WriteString(rest[start : end+len(PlaceholderSuffix)])
		} else {
			return "", fmt.Errorf("could not resolve placeholder '%s' in value \"%s\" ", key, text)
		}
		delete(visiting, key)
		rest = rest[end+len(PlaceholderSuffix):]
	}
}

func findPlaceholderEnd(s string, start int) int {
	depth := 0
	for i := start + len(PlaceholderPrefix); i < len(s); i++ {
		if strings.HasPrefix(s[i:], PlaceholderPrefix) {
			depth++
			i += len(PlaceholderPrefix) - 1
			continue
		}
		if strings.HasPrefix(s[i:], PlaceholderSuffix) {
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}
