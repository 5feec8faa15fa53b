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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/xfali/fig"
	"github.com/xfali/neve-ext/resource"
	"gopkg.in/yaml.v2"
)

const (
	DefaultPropertiesSourceName = "defaultProperties"
	ApplicationConfigSourceName = "applicationConfig"
)

// PropertiesParser 将资源内容解析为属性
type PropertiesParser func(r io.Reader) (map[string]string, error)

// ParseProperties 解析key=value格式的属性文件，支持#注释
func ParseProperties(r io.Reader) (map[string]string, error) {
	return godotenv.Parse(r)
}

// ParseJSON 解析JSON，嵌套对象使用"."连接，数组使用"[index]"
func ParseJSON(r io.Reader) (map[string]string, error) {
	d := json.NewDecoder(r)
	d.UseNumber()
	var v interface{}
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	ret := map[string]string{}
	flatten("", v, ret)
	return ret, nil
}

// ParseYaml 解析YAML，展开规则与ParseJSON相同
func ParseYaml(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	ret := map[string]string{}
	if v != nil {
		flatten("", v, ret)
	}
	return ret, nil
}

func joinKey(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "." + k
}

func flatten(prefix string, v interface{}, out map[string]string) {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, sub := range x {
			flatten(joinKey(prefix, k), sub, out)
		}
	case map[interface{}]interface{}:
		for k, sub := range x {
			flatten(joinKey(prefix, fmt.Sprint(k)), sub, out)
		}
	case []interface{}:
		for i, sub := range x {
			flatten(prefix+"["+strconv.Itoa(i)+"]", sub, out)
		}
	case nil:
		out[prefix] = ""
	case string:
		out[prefix] = x
	case bool:
		out[prefix] = strconv.FormatBool(x)
	case json.Number:
		out[prefix] = x.String()
	default:
		out[prefix] = fmt.Sprint(x)
	}
}

// LoadSource 解析locations中的所有资源并合并为一个属性源。
// 资源按位置顺序、同一位置内按文件名顺序加载，后加载的属性覆盖先加载的。
// 没有找到任何资源时返回错误。
func LoadSource(name string, parser PropertiesParser, locations ...string) (*MapPropertySource, error) {
	props := map[string]string{}
	found := 0
	for _, location := range locations {
		rs, err := resource.Resolve(location)
		if err != nil {
			return nil, fmt.Errorf("resolve %s failed: %w", location, err)
		}
		for _, r := range rs {
			m, err := parseResource(r, parser)
			if err != nil {
				return nil, fmt.Errorf("load %s failed: %w", r.Description(), err)
			}
			for k, v := range m {
				props[k] = v
			}
			found++
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("PropertySource %s: resource not found: %v ", name, locations)
	}
	return NewMapPropertySource(name, props), nil
}

func parseResource(r resource.Resource, parser PropertiesParser) (map[string]string, error) {
	rc, err := r.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return parser(rc)
}

func LoadPropertiesSource(name string, locations ...string) (*MapPropertySource, error) {
	return LoadSource(name, ParseProperties, locations...)
}

func LoadJSONSource(name string, locations ...string) (*MapPropertySource, error) {
	return LoadSource(name, ParseJSON, locations...)
}

func LoadYamlPropertiesSource(name string, locations ...string) (*MapPropertySource, error) {
	return LoadSource(name, ParseYaml, locations...)
}

// LoadYamlSource 使用fig加载YAML配置文件，同时展开原始属性使属性源可以列出属性名称
func LoadYamlSource(name, path string) (*FigPropertySource, error) {
	conf, err := fig.LoadYamlFile(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	values, err := ParseYaml(f)
	if err != nil {
		return nil, err
	}
	return NewEnumerableFigPropertySource(name, conf, values), nil
}

// AddDefaultProperties 将props合并到最低优先级的defaultProperties属性源，
// 后添加的属性覆盖先添加的
func AddDefaultProperties(sources *PropertySources, props map[string]string) {
	if s, ok := sources.Get(DefaultPropertiesSourceName); ok {
		if ms, ok := s.(*MapPropertySource); ok {
			ms.Merge(props)
			sources.AddLast(ms)
			return
		}
		merged := NewMapPropertySource(DefaultPropertiesSourceName, nil)
		if es, ok := s.(EnumerablePropertySource); ok {
			for _, k := range es.PropertyNames() {
				v, _ := es.GetProperty(k)
				merged.SetProperty(k, v)
			}
		}
		merged.Merge(props)
		sources.AddLast(merged)
		return
	}
	sources.AddLast(NewMapPropertySource(DefaultPropertiesSourceName, props))
}

// LoadDefaultProperties 加载资源并合并到defaultProperties属性源
func LoadDefaultProperties(sources *PropertySources, locations ...string) error {
	s, err := LoadPropertiesSource(DefaultPropertiesSourceName, locations...)
	if err != nil {
		return err
	}
	m := map[string]string{}
	for _, k := range s.PropertyNames() {
		m[k], _ = s.GetProperty(k)
	}
	AddDefaultProperties(sources, m)
	return nil
}
